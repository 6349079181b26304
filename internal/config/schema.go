package config

import (
	"encoding/json"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	ucerrors "github.com/smallmain/unichat-secrets/internal/errors"
)

// endpointsSchema validates the shape of a typed endpoints write. It is
// deliberately loose about auth payload contents: methods carry
// method-specific fields, and secret references are plain strings at any
// depth. Raw writes are not validated; they round-trip user-edited trees.
const endpointsSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string", "minLength": 1},
			"baseUrl": {"type": "string"},
			"auth": {
				"type": "object",
				"properties": {
					"method": {"type": "string"}
				}
			}
		}
	}
}`

func validateEndpoints(raw []any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(endpointsSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return err
	}

	if !result.Valid() {
		var messages []string
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}
		return ucerrors.ConfigError{
			Field:      "endpoints",
			Message:    "endpoints failed schema validation:\n  - " + strings.Join(messages, "\n  - "),
			Suggestion: "Every endpoint needs a non-empty name; auth must be a mapping",
		}
	}
	return nil
}
