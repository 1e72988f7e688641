package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/NieAnim/MayaAgent/config"
	"github.com/NieAnim/MayaAgent/host"
	"github.com/NieAnim/MayaAgent/model"
)

// Execution statuses. The executor never lets an error escape: every
// outcome is folded into an ExecutionResult so the orchestration loop
// can feed it back to the model as a tool message.
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusDeclined = "declined"
)

// maxOutputSize bounds a single tool's output before it is fed back to
// the model. Oversized output mostly wastes the context window.
const maxOutputSize = 16 * 1024

// ExecutionResult is the outcome of one tool call.
type ExecutionResult struct {
	CallID      string
	Tool        string
	Status      string
	Output      string
	ErrorDetail string
}

// Content renders the result as the tool message body sent back to the
// model, one JSON object matching what the host bindings produce.
func (r ExecutionResult) Content() string {
	payload := map[string]any{
		"success": r.Status == StatusSuccess,
		"message": r.Output,
	}
	if r.ErrorDetail != "" {
		payload["message"] = r.ErrorDetail
	}
	if r.Status == StatusDeclined {
		payload["message"] = "User declined the operation."
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf(`{"success":false,"message":%q}`, r.ErrorDetail)
	}
	return string(b)
}

// Executor validates and runs tool calls against the host bindings.
// Mutating calls are confirmed with the user first and bracketed in an
// undo checkpoint so the host can roll back one call as a unit.
type Executor struct {
	registry  *Registry
	bindings  host.Bindings
	confirmer host.Confirmer
	check     host.Checkpointer
}

func NewExecutor(registry *Registry, bindings host.Bindings, confirmer host.Confirmer, check host.Checkpointer) *Executor {
	return &Executor{
		registry:  registry,
		bindings:  bindings,
		confirmer: confirmer,
		check:     check,
	}
}

// Execute runs a single tool call and always returns a result, never an
// error. Every mutating call is confirmed with the user, whether the
// model emitted it or a shortcut resolved it. Calls within one round
// must be executed sequentially in the order the model emitted them;
// later calls may depend on state mutated by earlier ones.
func (e *Executor) Execute(ctx context.Context, call model.ToolCall) ExecutionResult {
	res := ExecutionResult{CallID: call.ID, Tool: call.Name}

	spec, err := e.registry.Resolve(call.Name)
	if err != nil {
		res.Status = StatusError
		res.ErrorDetail = err.Error()
		return res
	}

	if err := validateArguments(spec, call.Arguments); err != nil {
		res.Status = StatusError
		res.ErrorDetail = err.Error()
		return res
	}

	if spec.Name() == "execute_python_code" {
		code, _ := call.Arguments["code"].(string)
		if err := ScreenCode(code); err != nil {
			res.Status = StatusError
			res.ErrorDetail = err.Error()
			return res
		}
	}

	if spec.Mutating {
		ok, err := e.confirmer.Confirm(ctx, call)
		if err != nil || !ok {
			res.Status = StatusDeclined
			if config.Debug {
				config.DebugLog.Printf("[Executor] %s declined (err=%v)", call.Name, err)
			}
			return res
		}
	}

	output, err := e.invoke(ctx, spec, call)
	if err != nil {
		res.Status = StatusError
		res.ErrorDetail = truncate(err.Error())
		return res
	}
	res.Status = StatusSuccess
	res.Output = truncate(output)
	return res
}

// invoke runs the bound host operation, opening an undo checkpoint
// around mutating calls. The checkpoint is closed on every exit path,
// including a panicking binding.
func (e *Executor) invoke(ctx context.Context, spec Spec, call model.ToolCall) (output string, err error) {
	binding, ok := e.bindings.Lookup(call.Name)
	if !ok {
		return "", fmt.Errorf("no host binding for tool %q", call.Name)
	}

	if spec.Mutating {
		if cerr := e.check.OpenChunk("MayaAgent_" + call.Name); cerr != nil {
			return "", fmt.Errorf("open undo checkpoint: %w", cerr)
		}
		defer func() {
			if cerr := e.check.CloseChunk(); cerr != nil && err == nil {
				err = fmt.Errorf("close undo checkpoint: %w", cerr)
			}
			if p := recover(); p != nil {
				output = ""
				err = fmt.Errorf("tool %s panicked: %v", call.Name, p)
			}
		}()
	}

	return binding(ctx, call.Arguments)
}

// validateArguments checks required fields and value types against the
// tool's parameter schema before anything touches the host.
func validateArguments(spec Spec, args map[string]any) error {
	schema := spec.Tool.InputSchema
	for _, req := range schema.Required {
		if _, ok := args[req]; !ok {
			return &InvalidArgumentsError{Tool: spec.Name(), Reason: fmt.Sprintf("missing required argument %q", req)}
		}
	}
	for name, val := range args {
		propAny, ok := schema.Properties[name]
		if !ok {
			return &InvalidArgumentsError{Tool: spec.Name(), Reason: fmt.Sprintf("unknown argument %q", name)}
		}
		prop, _ := propAny.(map[string]any)
		want, _ := prop["type"].(string)
		if want == "" || val == nil {
			continue
		}
		if !typeMatches(want, val) {
			return &InvalidArgumentsError{
				Tool:   spec.Name(),
				Reason: fmt.Sprintf("argument %q: expected %s, got %T", name, want, val),
			}
		}
	}
	return nil
}

// typeMatches checks a decoded JSON value against a schema type name.
// JSON numbers decode as float64, so "integer" accepts whole floats.
func typeMatches(want string, val any) bool {
	switch want {
	case "string":
		_, ok := val.(string)
		return ok
	case "boolean":
		_, ok := val.(bool)
		return ok
	case "number":
		switch val.(type) {
		case float64, float32, int, int64:
			return true
		}
		return false
	case "integer":
		switch v := val.(type) {
		case int, int64:
			return true
		case float64:
			return v == float64(int64(v))
		}
		return false
	case "array":
		_, ok := val.([]any)
		return ok
	case "object":
		_, ok := val.(map[string]any)
		return ok
	}
	return true
}

func truncate(s string) string {
	if len(s) <= maxOutputSize {
		return s
	}
	return s[:maxOutputSize] + "\n...[output truncated]"
}
