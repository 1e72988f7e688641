package tool

import (
	"fmt"
	"strings"
)

// maxCodeSize caps execute_python_code payloads.
const maxCodeSize = 50 * 1024

// deniedFragments are substrings that reject a code payload outright.
// The screen is a guardrail against obvious process and filesystem
// escapes, not a sandbox.
var deniedFragments = []string{
	"subprocess",
	"os.system",
	"os.popen",
	"os.exec",
	"shutil.rmtree",
	"__import__('os')",
	"__import__(\"os\")",
}

// CodeScreenError reports why a code payload was rejected.
type CodeScreenError struct {
	Reason string
}

func (e *CodeScreenError) Error() string {
	return fmt.Sprintf("code rejected: %s", e.Reason)
}

// ScreenCode validates a Python payload destined for execute_python_code.
// Empty code, oversized code, and code containing a denied fragment are
// all rejected.
func ScreenCode(code string) error {
	if strings.TrimSpace(code) == "" {
		return &CodeScreenError{Reason: "empty code"}
	}
	if len(code) > maxCodeSize {
		return &CodeScreenError{Reason: fmt.Sprintf("code exceeds %d bytes", maxCodeSize)}
	}
	for _, frag := range deniedFragments {
		if strings.Contains(code, frag) {
			return &CodeScreenError{Reason: fmt.Sprintf("disallowed pattern %q", frag)}
		}
	}
	return nil
}
