// Package script drives an Application from a declarative list of steps.
//
// Scripts are YAML (or JSON) documents:
//
//	steps:
//	  - op: create
//	    kind: Class
//	    as: customer
//	  - op: set
//	    id: $customer
//	    key: name
//	    value: Customer
//	  - op: undo
//
// They back the "gaphor run" command and the HTTP and MCP command endpoints.
package script
