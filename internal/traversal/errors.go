package traversal

import "errors"

var (
	// ErrStartNotFound is returned when the anchor node does not exist.
	ErrStartNotFound = errors.New("traversal: start node not found")
	// ErrMaxDepthExceeded corresponds to spec.md §7's hierarchy error kind
	// "traversal-max-depth-exceeded", guarding against runaway expression-
	// driven walks that keep discovering new adjacency.
	ErrMaxDepthExceeded = errors.New("traversal: max depth exceeded")
)

// MaxSteps bounds the number of node visits a single Walk performs before
// failing with ErrMaxDepthExceeded. Generous enough for any real hierarchy
// fan-out; it exists purely as a runaway guard for expression-driven
// traversal, which can in principle discover the same breadth repeatedly
// if a filter expression is malformed.
const MaxSteps = 1_000_000
