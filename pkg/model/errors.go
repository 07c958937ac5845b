package model

import "errors"

var (
	// ErrElementNotFound is returned when an element ID is unknown to the factory.
	ErrElementNotFound = errors.New("element not found")
	// ErrDuplicateElement is returned when creating an element with an ID already in use.
	ErrDuplicateElement = errors.New("element already exists")
	// ErrNotInCollection is returned when removing a reference that is not present.
	ErrNotInCollection = errors.New("reference not in collection")
)
