package typesystem

import "fmt"

// MemberNotFoundError indicates a class or module member lookup failed.
type MemberNotFoundError struct {
	Class string
	Name  string
}

func (e *MemberNotFoundError) Error() string {
	return fmt.Sprintf("member not found: %s.%s", e.Class, e.Name)
}

func NewMemberNotFoundError(class, name string) *MemberNotFoundError {
	return &MemberNotFoundError{Class: class, Name: name}
}
