package txstate

import "fmt"

// ConstraintValidationFailure is raised by a Sink during Accept when a
// committed change would violate a constraint. It propagates unchanged
// to the caller of Accept, which aborts the walk; TxState performs no
// cleanup of its own, matching the teacher's ConstraintViolationError
// pattern where the engine surfaces the failure rather than retrying.
type ConstraintValidationFailure struct {
	Constraint ConstraintDescriptor
	Message    string
}

func (e *ConstraintValidationFailure) Error() string {
	return fmt.Sprintf("constraint validation failed for %s: %s", e.Constraint.Key(), e.Message)
}

// CreateConstraintFailure is raised by a Sink's constraint-add handler,
// e.g. when existing data violates a constraint being created.
type CreateConstraintFailure struct {
	Constraint ConstraintDescriptor
	Message    string
}

func (e *CreateConstraintFailure) Error() string {
	return fmt.Sprintf("cannot create constraint %s: %s", e.Constraint.Key(), e.Message)
}
