package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/a3tai/mcp-pdf-model/internal/logging"
	"github.com/a3tai/mcp-pdf-model/internal/pdf"
	"github.com/a3tai/mcp-pdf-model/internal/pdf/extraction"
)

type options struct {
	format      string
	replaceNone bool
	sets        []string
	out         string
	save        bool
	verbose     bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit code
func run(args []string, stdout, stderr io.Writer) int {
	opts := options{}
	fs := pflag.NewFlagSet("pdf_fields", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.format, "format", "text", "Output format: text, json, yaml")
	fs.BoolVar(&opts.replaceNone, "replace-none", false, "Use the field name as value of fields without one")
	fs.StringArrayVar(&opts.sets, "set", nil, "Set a field by name or label, as name=value (repeatable)")
	fs.StringVar(&opts.out, "out", "", "Write the document with the field values to this file")
	fs.BoolVar(&opts.save, "save", false, "Write the field values back into the input document")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable debug output on stderr")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "PDF Fields - Read and fill AcroForm fields of PDF documents\n\n")
		fmt.Fprintf(stderr, "USAGE:\n  pdf_fields [OPTIONS] <pdf_file>\n\nOPTIONS:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nEXAMPLES:\n")
		fmt.Fprintf(stderr, "  pdf_fields form.pdf\n")
		fmt.Fprintf(stderr, "  pdf_fields --format yaml --replace-none form.pdf\n")
		fmt.Fprintf(stderr, "  pdf_fields --set first_name=Alice --set \"Last name=Smith\" --out filled.pdf form.pdf\n")
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(stderr, "Error: exactly one PDF file path required\n\n")
		fs.Usage()
		return 2
	}
	if opts.save && opts.out != "" {
		fmt.Fprintf(stderr, "Error: --save and --out are mutually exclusive\n")
		return 2
	}

	level := logging.WarnLevel
	if opts.verbose {
		level = logging.DebugLevel
	}
	logger := logging.NewWriter(stderr, 0, level)

	if err := execute(fs.Arg(0), opts, stdout, stderr, logger); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func execute(path string, opts options, stdout, stderr io.Writer, logger *logging.Logger) error {
	switch opts.format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unsupported output format: %s", opts.format)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	if err := pdf.NewValidator(0).ValidateFile(absPath); err != nil {
		return err
	}

	fields, err := readFields(absPath, opts.replaceNone, logger)
	if err != nil {
		return err
	}

	for _, set := range opts.sets {
		name, value, ok := strings.Cut(set, "=")
		if !ok {
			return fmt.Errorf("invalid --set %q, expected name=value", set)
		}
		if fields == nil {
			return fmt.Errorf("%s does not have input fields", absPath)
		}
		if err := fields.SetValue(name, value); err != nil {
			return err
		}
	}

	target := opts.out
	if opts.save {
		target = absPath
	}
	if target != "" {
		result, err := writeFields(absPath, target, fields.Values(), logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Wrote %d field value(s) to %s\n", result.Updated, target)
		for _, page := range result.Failed() {
			fmt.Fprintf(stderr, "⚠️  page %d: %v\n", page.Page, page.Err)
		}
	}

	return output(stdout, opts.format, fields)
}

func readFields(path string, replaceNone bool, logger *logging.Logger) (extraction.Fields, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return extraction.NewFieldExtractor(logger).ExtractFields(f, replaceNone)
}

// writeFields writes src with values applied to target through a temporary
// file in the target directory
func writeFields(src, target string, values map[string]string, logger *logging.Logger) (*extraction.WriteResult, error) {
	in, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	result, err := extraction.NewFieldUpdater(logger).WriteValues(in, tmp, values)
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	in.Close()
	if err := os.Rename(tmp.Name(), target); err != nil {
		return nil, fmt.Errorf("failed to replace %s: %w", target, err)
	}
	return result, nil
}

func output(w io.Writer, format string, fields extraction.Fields) error {
	if fields == nil {
		fields = extraction.Fields{}
	}

	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(fields)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(fields); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return outputText(w, fields)
	}
}

func outputText(w io.Writer, fields extraction.Fields) error {
	if len(fields) == 0 {
		_, err := fmt.Fprintln(w, "⚠️  No form fields detected in the PDF")
		return err
	}

	fmt.Fprintf(w, "✅ Found %d form field(s)\n\n", len(fields))
	for i, name := range fields.Names() {
		field := fields[name]
		fmt.Fprintf(w, "[%d] %s\n", i+1, name)
		fmt.Fprintf(w, "    Type: %s\n", field.Type)
		if field.Label != "" {
			fmt.Fprintf(w, "    Label: %s\n", field.Label)
		}
		fmt.Fprintf(w, "    Value: %q\n", field.Value)
		if len(field.Rect) == 4 {
			fmt.Fprintf(w, "    Position: (%d, %d) to (%d, %d)\n", field.Rect[0], field.Rect[1], field.Rect[2], field.Rect[3])
		}
		fmt.Fprintln(w)
	}
	return nil
}
