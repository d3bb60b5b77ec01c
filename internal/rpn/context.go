package rpn

// FieldReader is the narrow view of a node's object an expression needs to
// fetch a field by dot-path. Implemented by internal/object's Object
// (adapted by callers) so this package never imports internal/object or
// internal/hierarchy, keeping it the independent collaborator spec.md §9
// describes ("compile a stream of tokens... evaluate given a context").
type FieldReader interface {
	// ReadField returns the field at path as an rpn Value and true, or
	// false if the path is absent or not representable as an rpn Value
	// (e.g. a nested object).
	ReadField(path string) (Value, bool)
}

// Context is the evaluation environment: up to 10 registers (conventionally
// register 0 holds the node currently under test), and the FieldReader
// backing "f" (field fetch) instructions.
type Context struct {
	Registers [10]Value
	Node      FieldReader
}

// WithRegister returns a copy of ctx with register i set to v, leaving ctx
// untouched. Used by traversal to re-run the same compiled expression
// against each candidate node without aliasing mutable state.
func (ctx Context) WithRegister(i int, v Value) Context {
	ctx.Registers[i] = v
	return ctx
}
