package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")
	ErrStoreNil   = errors.New("task store is nil")
)

// Error is a domain error carrying a user-facing message. errors.Is matches
// it against its Kind.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func taskNotFound(id int64) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf("Task with the ID: %d does not exist!", id)}
}

func duplicateDescription(description string) error {
	return &Error{Kind: ErrBadRequest, Message: "There is already a task with the description: " + description}
}
