// Package config loads the settings of an export run from an optional YAML
// file. Values not set in the file keep their defaults; command line flags
// are applied on top by the caller.
package config

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/timpalpant/cfrexport"
	"github.com/timpalpant/cfrexport/artifact"
)

// Config controls the provenance recorded in exported models and how they
// are serialized.
type Config struct {
	// Source and License are copied into the meta section of every model.
	Source  string `yaml:"source"`
	License string `yaml:"license"`
	// Format is "json" or "cbor". Empty selects by output file extension.
	Format string `yaml:"format"`
	// Compression is "none", "gzip", "zstd" or "lz4". Empty selects by
	// output file extension.
	Compression string `yaml:"compression"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Source:  cfrexport.DefaultSource,
		License: cfrexport.DefaultLicense,
	}
}

// Load reads the YAML file at path over the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "reading config")
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "parsing config %s", path)
	}

	return cfg, nil
}

// Parse decodes YAML config data over the defaults. Unknown keys are
// rejected so that typos do not go unnoticed.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// ValueError reports a setting with a value that is not recognized.
type ValueError struct {
	Field string
	Err   error
}

func (e *ValueError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValueError) Unwrap() error {
	return e.Err
}

// Validate checks that the format and compression names are known.
func (c Config) Validate() error {
	if _, err := cfrexport.ParseFormat(c.Format); err != nil {
		return &ValueError{"format", err}
	}

	if _, err := artifact.ParseCompression(c.Compression); err != nil {
		return &ValueError{"compression", err}
	}

	return nil
}

// Options resolves the config into export options for the given output path.
func (c Config) Options(outputPath string) (cfrexport.Options, error) {
	format := cfrexport.FormatForPath(outputPath)
	if c.Format != "" {
		var err error
		if format, err = cfrexport.ParseFormat(c.Format); err != nil {
			return cfrexport.Options{}, err
		}
	}

	compression := artifact.CompressionForPath(outputPath)
	if c.Compression != "" {
		var err error
		if compression, err = artifact.ParseCompression(c.Compression); err != nil {
			return cfrexport.Options{}, err
		}
	}

	return cfrexport.Options{
		Source:      c.Source,
		License:     c.License,
		Format:      format,
		Compression: compression,
	}, nil
}
