package config

import (
	"fmt"
	"maps"
	"os"
	"strconv"
	"strings"

	sigsyaml "sigs.k8s.io/yaml"
)

// ParseProperties parses a YAML or JSON mapping of compile-time properties.
// Scalar values are converted to their string form, so `debug: true` yields
// "true". Null values leave the property unset.
func ParseProperties(data []byte) (map[string]string, error) {
	var raw map[string]interface{}
	if err := sigsyaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing properties: %w", err)
	}

	return stringify(raw)
}

// LoadPropertiesFile reads and parses a properties file.
func LoadPropertiesFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is user-provided
	if err != nil {
		return nil, fmt.Errorf("reading properties file: %w", err)
	}

	props, err := ParseProperties(data)
	if err != nil {
		return nil, fmt.Errorf("properties file %q: %w", path, err)
	}

	return props, nil
}

// ParsePropertyFlags parses repeated key=value arguments. The value may be
// empty; the key may not.
func ParsePropertyFlags(pairs []string) (map[string]string, error) {
	props := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid property %q: expected key=value", pair)
		}

		props[strings.TrimSpace(key)] = value
	}

	return props, nil
}

// MergeProperties overlays the maps left to right; later maps win.
func MergeProperties(layers ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, layer := range layers {
		maps.Copy(out, layer)
	}

	return out
}

// parsePropertiesSection extracts the "properties" mapping from a config file.
func parsePropertiesSection(data []byte) (map[string]string, error) {
	var raw struct {
		Properties map[string]interface{} `json:"properties,omitempty"`
	}

	if err := sigsyaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing properties: %w", err)
	}

	return stringify(raw.Properties)
}

func stringify(raw map[string]interface{}) (map[string]string, error) {
	props := make(map[string]string, len(raw))

	for k, v := range raw {
		switch val := v.(type) {
		case string:
			props[k] = val
		case bool:
			props[k] = strconv.FormatBool(val)
		case float64:
			props[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case int64:
			props[k] = strconv.FormatInt(val, 10)
		case nil:
			// A null value leaves the property unset.
		default:
			return nil, fmt.Errorf("property %q: value must be a scalar, got %T", k, v)
		}
	}

	return props, nil
}
