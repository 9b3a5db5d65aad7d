package site

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docnav/internal/foundation/errors"
)

// Format is a data serialization format for site definitions.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatForPath picks the serialization format from a file extension.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Load reads a standalone site definition. ${VAR} references in the file
// are expanded before decoding.
func Load(path string) (*Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundError("site file not found").WithContext("path", path).Build()
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read site file").
			WithContext("path", path).Build()
	}
	s, err := Decode([]byte(ExpandEnv(string(data))), FormatForPath(path))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse site file").
			WithContext("path", path).Fatal().Build()
	}
	return s, nil
}

// Decode parses a site definition.
func Decode(data []byte, format Format) (*Site, error) {
	var s Site
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&s); err != nil {
			return nil, err
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// Encode serializes a site definition. Output is deterministic.
func Encode(s *Site, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}
