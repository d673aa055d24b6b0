package cfrexport

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/timpalpant/cfrexport/artifact"
	"github.com/timpalpant/cfrexport/solver"
)

func writeSolverOutput(t *testing.T, path string, output *solver.RawSolverOutput, c artifact.Compression) {
	t.Helper()
	buf, err := output.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := artifact.WriteFile(path, buf, c); err != nil {
		t.Fatal(err)
	}
}

func TestExportFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "preflop-20-75000.bin")
	output := filepath.Join(dir, "data", "solver", "preflop-20bb.json")
	writeSolverOutput(t, input, exampleOutput(), artifact.CompressionNone)

	summary, err := ExportFile(input, output, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	if summary.NumStates != 1 || summary.InputPath != input || summary.OutputPath != output {
		t.Errorf("unexpected summary: %+v", summary)
	}

	result, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if string(result) != exampleJSON {
		t.Errorf("expected:\n%s\ngot:\n%s", exampleJSON, result)
	}
	if summary.OutputDigest != artifact.Sum(result) {
		t.Errorf("output digest does not match written file")
	}

	doc := gjson.ParseBytes(result)
	if doc.Get("meta.stack_bb").Float() != 20 || doc.Get("meta.iterations").Uint() != 75000 {
		t.Errorf("unexpected meta: %v", doc.Get("meta").Raw)
	}
}

func TestExportFileDeterministic(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "random.bin")
	output := &solver.RawSolverOutput{
		Strategy: map[string]solver.ActionTensor{
			"":             {{{0.3, 0.7}}, {{0.1, 0.2, 0.7}}},
			"\x00":         {{{1, 0}}},
			"\x00\x01":     {{{0.5, 0.5}, {0.25, 0.75}}},
			"\x02\x03\x04": {{{0.33333, 0.66667}}},
		},
		EVFirstPositionBB: -0.0625,
		ExploitabilityBB:  0.00125,
	}
	writeSolverOutput(t, input, output, artifact.CompressionNone)

	var first []byte
	for i := 0; i < 3; i++ {
		path := filepath.Join(dir, "out.json")
		summary, err := ExportFile(input, path, DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}

		result, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}

		if first == nil {
			first = result
		} else if !bytes.Equal(first, result) {
			t.Fatalf("run %d produced different output", i)
		}

		if summary.NumStates != 4 {
			t.Errorf("expected 4 states, got %d", summary.NumStates)
		}
	}

	doc := gjson.ParseBytes(first)
	if !doc.Get("meta.stack_bb").Exists() || doc.Get("meta.stack_bb").Type != gjson.Null {
		t.Errorf("expected null stack_bb, got %v", doc.Get("meta.stack_bb").Raw)
	}
	if doc.Get("states.root.num_actions").Int() != 2 {
		t.Errorf("unexpected root state: %v", doc.Get("states.root").Raw)
	}
}

func TestExportFileCompressedInput(t *testing.T) {
	dir := t.TempDir()
	for _, c := range []artifact.Compression{artifact.CompressionGzip, artifact.CompressionZstd, artifact.CompressionLZ4} {
		input := filepath.Join(dir, "preflop-20-75000.bin"+c.Ext())
		writeSolverOutput(t, input, exampleOutput(), c)

		output := filepath.Join(dir, c.String(), "model.json")
		if _, err := ExportFile(input, output, DefaultOptions()); err != nil {
			t.Fatalf("%v: %v", c, err)
		}

		result, err := os.ReadFile(output)
		if err != nil {
			t.Fatal(err)
		}
		if string(result) != exampleJSON {
			t.Errorf("%v: expected:\n%s\ngot:\n%s", c, exampleJSON, result)
		}
	}
}

func TestExportFileCompressedCBOROutput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "preflop-20-75000.bin")
	writeSolverOutput(t, input, exampleOutput(), artifact.CompressionNone)

	output := filepath.Join(dir, "model.cbor.zst")
	opts := DefaultOptions()
	opts.Format = FormatForPath(output)
	opts.Compression = artifact.CompressionForPath(output)
	if _, err := ExportFile(input, output, opts); err != nil {
		t.Fatal(err)
	}

	_, payload, err := artifact.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}

	var expected bytes.Buffer
	if err := exampleModel().EncodeCBOR(&expected); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(payload, expected.Bytes()) {
		t.Errorf("decompressed output does not match the CBOR encoding")
	}
}

func TestExportFileDecodeError(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "preflop-20-75000.bin")
	if err := os.WriteFile(input, []byte{1, 2, 3}, 0644); err != nil {
		t.Fatal(err)
	}

	output := filepath.Join(dir, "out", "model.json")
	_, err := ExportFile(input, output, DefaultOptions())

	var decodeErr *solver.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected *solver.DecodeError, got %v", err)
	}

	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Errorf("expected no output to be written, got %v", err)
	}
}

func TestExportFileMissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := ExportFile(filepath.Join(dir, "missing.bin"), filepath.Join(dir, "out.json"), DefaultOptions())

	var ioErr *artifact.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected *artifact.IOError, got %v", err)
	}
}

func TestExportFileNonFiniteScalars(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "preflop-20-75000.bin")
	output := exampleOutput()
	output.EVFirstPositionBB = math.NaN()
	output.ExploitabilityBB = math.Inf(-1)
	writeSolverOutput(t, input, output, artifact.CompressionNone)

	outputPath := filepath.Join(dir, "out.json")
	if _, err := ExportFile(input, outputPath, DefaultOptions()); err != nil {
		t.Fatal(err)
	}

	result, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatal(err)
	}
	for _, path := range []string{"meta.ev_sb_bb", "meta.exploitability_bb"} {
		if value := gjson.GetBytes(result, path); !value.Exists() || value.Type != gjson.Null {
			t.Errorf("expected %s to be null, got %v", path, value.Raw)
		}
	}
}

func TestExportFileEncodeError(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "preflop-inf-75000.bin")
	writeSolverOutput(t, input, exampleOutput(), artifact.CompressionNone)

	// A non-finite stack size from the file name is dropped, not written.
	outputPath := filepath.Join(dir, "out.json")
	if _, err := ExportFile(input, outputPath, DefaultOptions()); err != nil {
		t.Fatal(err)
	}
	result, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatal(err)
	}
	if value := gjson.GetBytes(result, "meta.stack_bb"); value.Type != gjson.Null {
		t.Errorf("expected null stack_bb, got %v", value.Raw)
	}

	model := NewExportModel(exampleOutput(), ExportMeta{})
	model.States[0].Entry.NumActions = 3
	var buf bytes.Buffer
	var encodeErr *EncodeError
	if err := model.Encode(&buf, FormatJSON); !errors.As(err, &encodeErr) {
		t.Fatalf("expected *EncodeError, got %v", err)
	}
}

// A plain table with 0x8b1f entries starts with the gzip magic number 1f 8b.
func TestExportFileUncompressedGzipMagic(t *testing.T) {
	const numEntries = 0x8b1f
	output := &solver.RawSolverOutput{
		Strategy:          make(map[string]solver.ActionTensor, numEntries),
		EVFirstPositionBB: 0.5,
	}
	for i := 0; i < numEntries; i++ {
		output.Strategy[string([]byte{byte(i >> 8), byte(i)})] = solver.ActionTensor{}
	}

	dir := t.TempDir()
	input := filepath.Join(dir, "preflop-20-75000.bin")
	writeSolverOutput(t, input, output, artifact.CompressionNone)

	raw, err := os.ReadFile(input)
	if err != nil {
		t.Fatal(err)
	}
	if artifact.DetectCompression(raw) != artifact.CompressionGzip {
		t.Fatalf("expected payload to start with the gzip magic, got %x", raw[:2])
	}

	summary, err := ExportFile(input, filepath.Join(dir, "out.json"), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if summary.NumStates != numEntries {
		t.Errorf("expected: %v, got: %v", numEntries, summary.NumStates)
	}
}
