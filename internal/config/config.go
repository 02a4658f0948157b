// Package config loads golfc configuration files. A file is YAML or JSON,
// is validated against an embedded JSON Schema and carries a semantic
// version that must be one this build understands.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/opal-lang/golfc/core/engine"
)

// Version is the newest configuration version this build reads. Files with
// the same major version and an equal or older minor version are accepted.
const Version = "v1.0.0"

//go:embed schema.json
var schemaJSON string

// Search mirrors engine.SearchBudget. Zero fields keep the defaults.
type Search struct {
	BeamWidth       int `yaml:"beam_width"`
	MaxSteps        int `yaml:"max_steps"`
	MaxEvaluations  int `yaml:"max_evaluations"`
	MaxAlternatives int `yaml:"max_alternatives"`
	Workers         int `yaml:"workers"`
}

// File is a decoded configuration file.
type File struct {
	Version   string   `yaml:"version"`
	Languages []string `yaml:"languages"`
	Scoring   string   `yaml:"scoring"`
	MaxSweeps int      `yaml:"max_sweeps"`
	Telemetry string   `yaml:"telemetry"`
	Debug     string   `yaml:"debug"`
	Search    Search   `yaml:"search"`
}

// Error reports an invalid configuration file.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return "config: " + e.Err.Error()
	}
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Load reads and parses the file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data)
	if err != nil {
		var ce *Error
		if errors.As(err, &ce) {
			ce.Path = path
		}
		return nil, err
	}
	return f, nil
}

// Parse decodes, validates and version-checks a configuration document.
// JSON documents are accepted as YAML.
func Parse(data []byte) (*File, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &Error{Err: err}
	}
	if doc == nil {
		return nil, &Error{Err: errors.New("empty document")}
	}
	if err := validate(doc); err != nil {
		return nil, &Error{Err: err}
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, &Error{Err: err}
	}
	if err := checkVersion(f.Version); err != nil {
		return nil, &Error{Err: err}
	}
	return &f, nil
}

func canonicalVersion(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

func checkVersion(v string) error {
	cv := canonicalVersion(v)
	if !semver.IsValid(cv) {
		return fmt.Errorf("version %q is not a semantic version", v)
	}
	if semver.Major(cv) != semver.Major(Version) {
		return fmt.Errorf("version %s is not supported (this build reads %s)", v, semver.Major(Version))
	}
	if semver.Compare(cv, Version) > 0 {
		return fmt.Errorf("version %s is newer than %s", v, Version)
	}
	return nil
}

var schema = func() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true
	if compiler.Formats == nil {
		compiler.Formats = make(map[string]func(interface{}) bool)
	}
	compiler.Formats["semver"] = func(v interface{}) bool {
		s, ok := v.(string)
		if !ok {
			return true
		}
		return semver.IsValid(canonicalVersion(s))
	}
	compiler.LoadURL = func(url string) (io.ReadCloser, error) {
		return nil, fmt.Errorf("$ref not allowed: %s", url)
	}

	const url = "schema://golfc.json"
	if err := compiler.AddResource(url, strings.NewReader(schemaJSON)); err != nil {
		panic(fmt.Sprintf("config schema: %v", err))
	}
	return compiler.MustCompile(url)
}()

// validate checks a decoded document against the schema. The document is
// re-read as JSON so numbers reach the validator as json.Number.
func validate(doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("document is not a JSON object: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	return schema.Validate(v)
}

// Engine maps the file onto an engine configuration, starting from
// engine.DefaultConfig.
func (f *File) Engine() engine.Config {
	cfg := engine.DefaultConfig()
	if f.Scoring == "emit-only" {
		cfg.Scoring = engine.ScoreEmitOnly
	}
	if f.MaxSweeps > 0 {
		cfg.MaxSweeps = f.MaxSweeps
	}
	switch f.Telemetry {
	case "basic":
		cfg.Telemetry = engine.TelemetryBasic
	case "timing":
		cfg.Telemetry = engine.TelemetryTiming
	}
	switch f.Debug {
	case "phases":
		cfg.Debug = engine.DebugPhases
	case "rewrites":
		cfg.Debug = engine.DebugRewrites
	}

	s := &cfg.Search
	for _, o := range []struct {
		dst *int
		src int
	}{
		{&s.BeamWidth, f.Search.BeamWidth},
		{&s.MaxSteps, f.Search.MaxSteps},
		{&s.MaxEvaluations, f.Search.MaxEvaluations},
		{&s.MaxAlternatives, f.Search.MaxAlternatives},
		{&s.Workers, f.Search.Workers},
	} {
		if o.src > 0 {
			*o.dst = o.src
		}
	}
	return cfg
}
