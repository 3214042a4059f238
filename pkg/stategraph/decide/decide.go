// Package decide provides decision capabilities for router nodes.
//
// The engine treats a router's decision source as an injected,
// opaque capability; this package and its subpackages supply
// LLM-backed implementations that choose one label from the router's
// declared option set. The engine still validates every returned
// label, so a misbehaving model surfaces as a node failure rather
// than a silent misroute.
package decide

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stategraph-io/stategraph/pkg/stategraph"
)

// SystemPrompt renders the routing instruction for a declared option
// set. The model is told to answer with exactly one label and nothing
// else.
func SystemPrompt(options []string) string {
	var sb strings.Builder
	sb.WriteString("You are a routing controller for a workflow engine. ")
	sb.WriteString("Inspect the state provided by the user and select the next route. ")
	sb.WriteString("Respond with exactly one of the following labels and nothing else:\n")
	for _, opt := range options {
		sb.WriteString("- ")
		sb.WriteString(opt)
		sb.WriteString("\n")
	}
	return sb.String()
}

// UserPrompt renders the snapshot as the routing context, as a JSON
// object.
func UserPrompt(snap stategraph.Snapshot) (string, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	return "Current state:\n" + string(data), nil
}

// ParseLabel normalizes a model reply into a declared label. It strips
// surrounding whitespace, quotes, backticks, and a trailing period,
// then matches exactly; a case-insensitive match is accepted as a
// fallback. Anything else is an error, which the engine surfaces as a
// node failure.
func ParseLabel(raw string, options []string) (string, error) {
	label := strings.TrimSpace(raw)
	label = strings.Trim(label, "\"'`")
	label = strings.TrimSuffix(label, ".")
	label = strings.TrimSpace(label)

	for _, opt := range options {
		if label == opt {
			return opt, nil
		}
	}
	for _, opt := range options {
		if strings.EqualFold(label, opt) {
			return opt, nil
		}
	}
	return "", fmt.Errorf("reply %q does not match any declared option %v", raw, options)
}
