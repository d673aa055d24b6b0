package cfrexport

import (
	"bytes"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/timpalpant/cfrexport/artifact"
	"github.com/timpalpant/cfrexport/solver"
)

// Options controls a single export.
type Options struct {
	Source      string
	License     string
	Format      Format
	Compression artifact.Compression
}

// DefaultOptions writes uncompressed JSON with the default provenance.
func DefaultOptions() Options {
	return Options{
		Source:  DefaultSource,
		License: DefaultLicense,
		Format:  FormatJSON,
	}
}

// Summary describes a completed export.
type Summary struct {
	NumStates    int
	InputPath    string
	OutputPath   string
	InputDigest  artifact.Digest
	OutputDigest artifact.Digest
}

// ExportFile converts the solver output at inputPath into an exported model
// at outputPath. Nothing is written unless the whole input decodes and the
// model encodes successfully.
func ExportFile(inputPath, outputPath string, opts Options) (*Summary, error) {
	raw, payload, err := artifact.ReadFile(inputPath)
	if err != nil {
		return nil, err
	}

	glog.Infof("Decoding %d byte solver output from %v", len(payload), inputPath)
	output, err := solver.Decode(payload)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %v", inputPath)
	}

	stackBB, iterations := ParseFilename(inputPath)
	if stackBB == nil || iterations == nil {
		glog.V(1).Infof("Could not parse stack size and iterations from %v", inputPath)
	}

	model := NewExportModel(output, ExportMeta{
		Source:     opts.Source,
		License:    opts.License,
		StackBB:    stackBB,
		Iterations: iterations,
	})

	var buf bytes.Buffer
	if err := model.Encode(&buf, opts.Format); err != nil {
		return nil, err
	}

	written, err := artifact.WriteFile(outputPath, buf.Bytes(), opts.Compression)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		NumStates:    model.States.Len(),
		InputPath:    inputPath,
		OutputPath:   outputPath,
		InputDigest:  artifact.Sum(raw),
		OutputDigest: artifact.Sum(written),
	}
	glog.V(1).Infof("Input blake3: %v", summary.InputDigest)
	glog.V(1).Infof("Output blake3: %v", summary.OutputDigest)
	return summary, nil
}
