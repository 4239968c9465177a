package models

import "encoding/json"

// ToolDescriptor declares a tool to the provider so the model can request
// it. InputSchema is a JSON Schema object.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}
