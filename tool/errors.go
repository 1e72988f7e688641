package tool

import "fmt"

// DuplicateToolError is returned by Registry.Register when a spec with
// the same name is already in the catalog.
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %q is already registered", e.Name)
}

// UnknownToolError is returned by Registry.Resolve for names that do not
// match any registered spec.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

// InvalidArgumentsError is returned by the executor when the model's
// arguments do not satisfy a tool's parameter schema. The underlying
// operation is never invoked in that case.
type InvalidArgumentsError struct {
	Tool   string
	Reason string
}

func (e *InvalidArgumentsError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, e.Reason)
}
