// Package config loads benchmark spec files. Files may be JSON or YAML; the
// format is sniffed from the content, every spec is checked against a JSON
// Schema, and the engine's own validation runs on top.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/surgehttp/surge/internal/benchmark"
)

// LoadSpec reads, parses and validates a benchmark spec file.
func LoadSpec(path string) (*benchmark.Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec file: %w", err)
	}
	return ParseSpec(data)
}

// ParseSpec parses spec data in JSON or YAML form and validates it.
func ParseSpec(data []byte) (*benchmark.Spec, error) {
	jsonData, err := toJSON(data)
	if err != nil {
		return nil, err
	}

	if err := validateSchema(jsonData); err != nil {
		return nil, err
	}

	var spec benchmark.Spec
	decoder := json.NewDecoder(bytes.NewReader(jsonData))
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("failed to decode spec: %w", err)
	}

	applyDefaults(&spec)

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// toJSON normalizes the input to JSON. Valid JSON passes through untouched;
// anything else is treated as YAML and re-encoded.
func toJSON(data []byte) ([]byte, error) {
	if gjson.ValidBytes(data) {
		return data, nil
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("spec file is neither valid JSON nor valid YAML: %w", err)
	}
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize YAML spec: %w", err)
	}
	return jsonData, nil
}

func validateSchema(jsonData []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("spec.json", strings.NewReader(specSchema)); err != nil {
		return fmt.Errorf("invalid spec schema: %w", err)
	}
	schema, err := compiler.Compile("spec.json")
	if err != nil {
		return fmt.Errorf("invalid spec schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return fmt.Errorf("invalid spec JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("spec does not match schema: %w", err)
	}
	return nil
}

// applyDefaults fills the fields a hand-written spec file commonly omits.
func applyDefaults(spec *benchmark.Spec) {
	if spec.Logging.SaveBodies == "" {
		spec.Logging.SaveBodies = benchmark.SaveBodiesNone
	}
	if spec.Logging.SampleErrorsTopK == 0 {
		spec.Logging.SampleErrorsTopK = 10
	}
}
