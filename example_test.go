package gaphor_test

import (
	"context"
	"fmt"
	"log"

	"github.com/esantoro/gaphor"
	"github.com/esantoro/gaphor/pkg/model"
)

// ExampleApplication_Do shows a composite edit being undone and redone as one unit.
func ExampleApplication_Do() {
	ctx := context.Background()
	ids := 0
	app := gaphor.New(gaphor.WithIDGenerator(func() string {
		ids++
		return fmt.Sprintf("e%d", ids)
	}))
	if err := app.Init(ctx); err != nil {
		log.Fatal(err)
	}
	defer app.Shutdown(ctx)

	err := app.Do(func(f *model.Factory) error {
		c, err := f.Create("Class")
		if err != nil {
			return err
		}
		return f.SetAttribute(c.ID(), "name", "Customer")
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("elements:", app.Factory.Size())

	app.Undo()
	fmt.Println("after undo:", app.Factory.Size())

	app.Redo()
	e, _ := app.Factory.Lookup("e1")
	name, _ := e.Attribute("name")
	fmt.Println("after redo:", name)

	// Output:
	// elements: 1
	// after undo: 0
	// after redo: Customer
}
