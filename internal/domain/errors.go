package domain

import "fmt"

type ResourceKind string

const (
	KindEntity     ResourceKind = "entity"
	KindConstraint ResourceKind = "constraint"
)

// NotFoundError reports a missing entity or constraint.
type NotFoundError struct {
	Kind ResourceKind
	ID   string
}

func ConstraintNotFound(id string) NotFoundError {
	return NotFoundError{Kind: KindConstraint, ID: id}
}

func EntityNotFound(id string) NotFoundError {
	return NotFoundError{Kind: KindEntity, ID: id}
}

func (e NotFoundError) Error() string {
	switch {
	case e.Kind == "":
		return "not found"
	case e.ID == "":
		return fmt.Sprintf("%s not found", e.Kind)
	}
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// Is matches any NotFoundError, so errors.Is(err, ErrNotFound) works for
// every kind.
func (e NotFoundError) Is(target error) bool {
	switch target.(type) {
	case NotFoundError, *NotFoundError:
		return true
	}
	return false
}

var ErrNotFound = NotFoundError{}
