package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed builtin/fix42.yaml
var builtinFIX42 []byte

// BuiltinName is the display name of the embedded policy.
const BuiltinName = "builtin:fix42"

// Load reads and validates a policy file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes and validates policy YAML.
func Parse(data []byte) (*File, error) {
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse YAML: document is empty")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}

	return &f, nil
}

// Builtin returns the embedded FIX 4.2 policy: the QuickFIX reference
// definitions followed by the custom definitions.
func Builtin() (*File, error) {
	f, err := Parse(builtinFIX42)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", BuiltinName, err)
	}
	return f, nil
}

// LoadOrBuiltin loads path, or the embedded policy when path is empty.
// It also returns the name of the source for reporting.
func LoadOrBuiltin(path string) (*File, string, error) {
	if path == "" {
		f, err := Builtin()
		return f, BuiltinName, err
	}
	f, err := Load(path)
	return f, path, err
}
