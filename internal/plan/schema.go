package plan

import (
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/eino-contrib/jsonschema"
)

const schemaName = "fitness_plan"

// Schema returns the JSON schema a model reply must satisfy. Every field is
// required and no extra properties are allowed.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{DoNotReference: true, Anonymous: true}
	s := r.Reflect(&Plan{})
	s.Version = ""
	return s
}

// ResponseFormat constrains an OpenAI-compatible chat completion to Schema.
func ResponseFormat() *openai.ChatCompletionResponseFormat {
	return &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:        schemaName,
			Description: "A personalised weekly workout and nutrition plan.",
			JSONSchema:  Schema(),
			Strict:      true,
		},
	}
}
