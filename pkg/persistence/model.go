// Package persistence handles mapping and YAML serialization of sessions
package persistence

// Session is the YAML document for one saved conversation. Reasoning keeps
// the requested reasoning effort so a resumed session runs like the one
// that was saved.
type Session struct {
	Model     string `yaml:"model"`
	Reasoning string `yaml:"reasoning,omitempty"`

	Messages []Message `yaml:"messages"`
}

// Message is one role-tagged conversation entry. ToolCallID is set on tool
// results, ToolCalls on assistant messages that requested them.
type Message struct {
	Role       string     `yaml:"role"`
	Content    string     `yaml:"content,omitempty"`
	ToolCallID string     `yaml:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `yaml:"tool_calls,omitempty"`
}

type ToolCall struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Arguments string `yaml:"arguments"`
}
