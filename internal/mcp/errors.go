package mcp

import (
	"fmt"
	"strings"
)

// Wire taxonomy kinds carried in error envelopes and metric labels.
const (
	KindValidation       = "validation_error"
	KindNotFound         = "not_found"
	KindUnknownTool      = "unknown_tool"
	KindInvalidArguments = "invalid_arguments"
	KindInternal         = "internal_error"
)

// ToolError is the failure half of a tool outcome. Kind is one of the
// taxonomy constants; Message is safe to show to the caller.
type ToolError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	return e.Message
}

// NewUnknownToolError reports a call against a name the registry does
// not know.
func NewUnknownToolError(name string) *ToolError {
	return &ToolError{
		Kind:    KindUnknownTool,
		Message: fmt.Sprintf("unknown tool %q", name),
	}
}

// NewInvalidArgumentsError reports arguments rejected by the declared
// input schema. Every violation is listed, not just the first.
func NewInvalidArgumentsError(problems []string) *ToolError {
	return &ToolError{
		Kind:    KindInvalidArguments,
		Message: "invalid arguments: " + strings.Join(problems, "; "),
	}
}
