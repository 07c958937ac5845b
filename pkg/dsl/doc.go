/*
Package dsl provides a fluent Go API for writing gaphor scripts.

Scripts built here are the same []script.Step values that script.Parse reads
from YAML or JSON, so they can be run with script.Runner or sent to the HTTP
and MCP adapters.

Example usage:

	b := dsl.New()
	b.Begin()
	b.Create("Class", "order").Set("name", "Order")
	b.Create("Attribute", "id").Set("name", "id")
	b.Element("$order").Add("ownedAttribute", "$id")
	b.Commit()

	steps, err := b.Build()
	if err != nil {
		return err
	}
	_, err = script.NewRunner().Run(ctx, app, steps)
*/
package dsl
