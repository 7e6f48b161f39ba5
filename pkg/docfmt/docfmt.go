// Package docfmt lets JSON-shaped documents live on disk as either JSON or
// YAML, picked by file extension. Everything is decoded through encoding/json
// so the same struct tags and strict decoding apply to both formats.
package docfmt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	yaml "go.yaml.in/yaml/v3"
)

const (
	JSON = "json"
	YAML = "yaml"
)

// Format reports the document format implied by path.
func Format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

// ToJSON converts data to JSON bytes when path names a YAML file. JSON input is
// returned unchanged.
func ToJSON(path string, data []byte) ([]byte, string, error) {
	if Format(path) != YAML {
		return data, JSON, nil
	}

	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, YAML, fmt.Errorf("yaml unmarshal: %w", err)
	}
	if v == nil {
		// Empty YAML document.
		return []byte("{}"), YAML, nil
	}

	j, err := json.Marshal(normalize(v))
	if err != nil {
		return nil, YAML, fmt.Errorf("yaml->json marshal: %w", err)
	}
	return j, YAML, nil
}

// DecodeStrict decodes data (JSON or YAML, per path) into out, rejecting
// unknown fields and trailing content.
func DecodeStrict(path string, data []byte, out any) error {
	jb, _, err := ToJSON(path, data)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return fmt.Errorf("trailing data")
		}
		return err
	}
	return nil
}

// Encode marshals v as indented JSON, or as YAML when path names a YAML file.
// YAML output goes through JSON first so custom JSON marshalers are honoured.
func Encode(path string, v any) ([]byte, error) {
	j, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	if Format(path) != YAML {
		return append(j, '\n'), nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(j, &node); err != nil {
		return nil, fmt.Errorf("json->yaml: %w", err)
	}
	clearStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// clearStyle drops the flow style inherited from parsing JSON, so the output
// reads as block YAML.
func clearStyle(n *yaml.Node) {
	n.Style &^= yaml.FlowStyle
	if n.Kind == yaml.ScalarNode && n.Style&yaml.DoubleQuotedStyle != 0 && n.Tag == "!!str" {
		n.Style &^= yaml.DoubleQuotedStyle
	}
	for _, c := range n.Content {
		clearStyle(c)
	}
}

// normalize ensures all map keys are strings so the result can be JSON-marshaled.
func normalize(in any) any {
	switch x := in.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[fmt.Sprint(k)] = normalize(v)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[k] = normalize(v)
		}
		return m
	case []any:
		for i := range x {
			x[i] = normalize(x[i])
		}
		return x
	default:
		return in
	}
}
