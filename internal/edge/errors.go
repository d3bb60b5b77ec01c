package edge

import "errors"

var (
	ErrExists             = errors.New("edge: arc already exists")
	ErrNotFound            = errors.New("edge: arc not found")
	ErrConstraintViolation = errors.New("edge: source node type does not match constraint")
	ErrNoConstraint        = errors.New("edge: field has no registered constraint")
)
