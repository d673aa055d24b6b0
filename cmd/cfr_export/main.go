// Convert a solved preflop strategy from poker-cfr into a quantized model
// that the runtime strategy engine can load.
package main

import (
	goflag "flag"
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"

	"github.com/timpalpant/cfrexport"
	"github.com/timpalpant/cfrexport/config"
)

const usage = `Usage: cfr_export [flags] <input-bin-path> <output-json-path>
Example: cfr_export ../poker-cfr/output/preflop-20-75000.bin ../../src/solver/data/preflop-20bb.json
`

// UsageError reports a malformed command line.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	return e.Msg
}

func main() {
	code := run(os.Args[1:], os.Stdout, os.Stderr)
	glog.Flush()
	os.Exit(code)
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("cfr_export", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML file with export settings")
	source := fs.String("source", cfrexport.DefaultSource, "Source recorded in the model metadata")
	license := fs.String("license", cfrexport.DefaultLicense, "License recorded in the model metadata")
	format := fs.String("format", "", "Output format: json or cbor (default: by output extension)")
	compression := fs.String("compression", "",
		"Output compression: none, gzip, zstd or lz4 (default: by output extension)")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	// Expose glog's flags (-v, -logtostderr, ...).
	fs.AddGoFlagSet(goflag.CommandLine)

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	// glog reads its settings from the standard flag set.
	_ = goflag.CommandLine.Parse(nil)

	if fs.NArg() != 2 {
		return fail(stderr, &UsageError{fmt.Sprintf("expected 2 arguments, got %d", fs.NArg())})
	}
	inputPath, outputPath := fs.Arg(0), fs.Arg(1)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			var valueErr *config.ValueError
			if errors.As(err, &valueErr) {
				err = &UsageError{err.Error()}
			}
			return fail(stderr, err)
		}
	}
	if fs.Changed("source") {
		cfg.Source = *source
	}
	if fs.Changed("license") {
		cfg.License = *license
	}
	if fs.Changed("format") {
		cfg.Format = *format
	}
	if fs.Changed("compression") {
		cfg.Compression = *compression
	}

	opts, err := cfg.Options(outputPath)
	if err != nil {
		return fail(stderr, &UsageError{err.Error()})
	}

	glog.Infof("Exporting %v to %v (%v, compression: %v)",
		inputPath, outputPath, opts.Format, opts.Compression)
	summary, err := cfrexport.ExportFile(inputPath, outputPath, opts)
	if err != nil {
		return fail(stderr, err)
	}

	fmt.Fprintf(stdout, "Exported %d states from %s to %s\n",
		summary.NumStates, summary.InputPath, summary.OutputPath)
	return 0
}

// fail reports err and returns the process exit code for it.
func fail(stderr io.Writer, err error) int {
	glog.Infof("Export failed: %v", err)
	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(stderr, "error: %v\n", err)
		fmt.Fprint(stderr, usage)
		return 2
	}

	fmt.Fprintf(stderr, "error: %v\n", err)
	return 1
}
