package config

import (
	_ "embed"
	"encoding/json"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	dserrors "github.com/systmms/mvnops/internal/errors"
)

//go:embed schema.json
var schemaJSON []byte

// validateSchema checks raw YAML against the embedded JSON schema.
func validateSchema(data []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return dserrors.ConfigError{
			Message:    "invalid YAML in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters",
			Err:        err,
		}
	}
	if doc == nil {
		return nil
	}

	jsonData, err := json.Marshal(doc)
	if err != nil {
		return dserrors.ConfigError{Message: "configuration cannot be represented as JSON", Err: err}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(jsonData),
	)
	if err != nil {
		return dserrors.ConfigError{Message: "schema validation error", Err: err}
	}
	if result.Valid() {
		return nil
	}

	var problems []string
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return dserrors.ConfigError{
		Message:    "schema validation failed:\n  - " + strings.Join(problems, "\n  - "),
		Suggestion: "Run 'mvnops init' to see a valid starter configuration",
	}
}
