package chat

// Tool describes a function the model may invoke, in Ollama's native
// tool format. Tools are serialized into every streaming chat request.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction is the function portion of a tool definition.
type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  ToolParameters `json:"parameters"`
}

// ToolParameters is a JSON-schema style parameter block.
type ToolParameters struct {
	Type       string                  `json:"type"`
	Required   []string                `json:"required"`
	Properties map[string]ToolProperty `json:"properties"`
}

// ToolProperty describes a single named parameter.
type ToolProperty struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Enum        []string `json:"enum,omitempty"`
}

// NewFunctionTool builds a tool definition of type "function".
func NewFunctionTool(name, description string, required []string, properties map[string]ToolProperty) Tool {
	return Tool{
		Type: "function",
		Function: ToolFunction{
			Name:        name,
			Description: description,
			Parameters: ToolParameters{
				Type:       "object",
				Required:   required,
				Properties: properties,
			},
		},
	}
}
