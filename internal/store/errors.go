package store

import "fmt"

// NotFoundError indicates a referenced record does not exist.
type NotFoundError struct {
	Kind string
	ID   string
	// Detail replaces the ": <id>" suffix when the lookup is not by id.
	Detail string
}

func (e *NotFoundError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s not found %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// ConflictError indicates a request that is illegal in the current state.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}
