package request

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

// Format is a request file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// FormatForPath picks the format from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	}
	return "", fmt.Errorf("unsupported request file extension %q (want .json, .yaml, .yml or .cue)", filepath.Ext(path))
}

// LoadError reports a request file that could not be decoded.
type LoadError struct {
	Path   string
	Line   int
	Column int
	Err    error
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %v", e.Path, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadFile reads a request from a JSON, YAML or CUE file.
func LoadFile(path string) (*BrokerRequest, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return Decode(path, data, format)
}

// Decode parses a request. Unknown fields are rejected in every format.
// name is used in error messages only.
func Decode(name string, data []byte, format Format) (*BrokerRequest, error) {
	var req BrokerRequest
	var err error
	switch format {
	case FormatJSON:
		err = decodeJSON(data, &req)
	case FormatYAML:
		err = decodeYAML(data, &req)
	case FormatCUE:
		err = decodeCUE(name, data, &req)
	default:
		err = fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = name
			return nil, le
		}
		return nil, &LoadError{Path: name, Err: err}
	}
	return &req, nil
}

func decodeJSON(data []byte, req *BrokerRequest) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("unexpected data after the request object")
	}
	return nil
}

func decodeYAML(data []byte, req *BrokerRequest) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(req); err != nil {
		if err == io.EOF {
			return fmt.Errorf("empty request document")
		}
		return err
	}
	return nil
}

// decodeCUE evaluates the file and decodes the resulting value. The file
// may hold the request at the top level or under a "request" field.
func decodeCUE(name string, data []byte, req *BrokerRequest) error {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(name))
	if err := v.Err(); err != nil {
		return formatCUEError(err)
	}
	if inner := v.LookupPath(cue.ParsePath("request")); inner.Exists() {
		v = inner
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}
	// Decode through JSON so unknown fields are rejected like in .json files.
	data, err := v.MarshalJSON()
	if err != nil {
		return formatCUEError(err)
	}
	return decodeJSON(data, req)
}

// formatCUEError keeps the first error and its position.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	var pos token.Pos
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		pos = positions[0]
	}
	if !pos.IsValid() {
		return first
	}
	return &LoadError{Line: pos.Line(), Column: pos.Column(), Err: first}
}
