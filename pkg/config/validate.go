package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema/crossmap-config-v1.0.0.json
var configSchema string

// ValidateBytes checks raw YAML (or JSON) config data against the embedded
// configuration schema. Empty documents are valid.
func ValidateBytes(data []byte) error {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if raw == nil {
		return nil
	}

	jsonData, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("convert config to JSON: %w", err)
	}

	schemaLoader := gojsonschema.NewStringLoader(configSchema)
	documentLoader := gojsonschema.NewBytesLoader(jsonData)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(msgs, "\n"))
	}
	return nil
}

// ValidateFile validates the config file at path against the embedded
// schema.
func ValidateFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from viper's own file resolution
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	return ValidateBytes(data)
}
