package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	skema "github.com/reoring/skema"
)

type validateFlags struct {
	schema          string
	file            string
	format          string
	output          string
	include         []string
	exclude         []string
	excludeUnset    bool
	excludeDefaults bool
	failFast        bool
}

func newValidateCmd(root *rootFlags) *cobra.Command {
	f := &validateFlags{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a JSON or YAML document and print the serialized record",
		Long: `Reads a document from --file (or stdin), validates it against --schema and
prints the record. On failure every issue is printed to stderr and the
command exits with status 1.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd.Context(), root, f, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.schema, "schema", "", "schema name")
	fl.StringVarP(&f.file, "file", "f", "-", "input document, - for stdin")
	fl.StringVar(&f.format, "format", "", "input format: json or yaml (default from file extension, else json)")
	fl.StringVarP(&f.output, "output", "o", "json", "output format: json or yaml")
	fl.StringSliceVar(&f.include, "include", nil, "fields to include (dotted paths)")
	fl.StringSliceVar(&f.exclude, "exclude", nil, "fields to exclude (dotted paths)")
	fl.BoolVar(&f.excludeUnset, "exclude-unset", false, "omit fields filled from defaults")
	fl.BoolVar(&f.excludeDefaults, "exclude-defaults", false, "omit fields equal to their default")
	fl.BoolVar(&f.failFast, "fail-fast", false, "stop at the first issue")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func inputFormat(flag, file string) (string, error) {
	if flag == "" {
		switch strings.ToLower(filepath.Ext(file)) {
		case ".yaml", ".yml":
			return "yaml", nil
		}
		return "json", nil
	}
	switch f := strings.ToLower(flag); f {
	case "json", "yaml":
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q", flag)
}

func runValidate(ctx context.Context, root *rootFlags, f *validateFlags, stdin io.Reader, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cat, err := loadCatalog(root.schemasFile)
	if err != nil {
		return err
	}
	s, ok := cat.Get(f.schema)
	if !ok {
		return fmt.Errorf("unknown schema %q (known: %s)", f.schema, strings.Join(cat.Names(), ", "))
	}
	format, err := inputFormat(f.format, f.file)
	if err != nil {
		return err
	}

	in := stdin
	if f.file != "-" {
		fh, err := os.Open(f.file)
		if err != nil {
			return err
		}
		defer fh.Close()
		in = fh
	}
	src := skema.JSONReader(in)
	if format == "yaml" {
		src = skema.YAMLReader(in)
	}

	rec, err := skema.ParseFrom(ctx, s, src, skema.ParseOpt{FailFast: f.failFast})
	if err != nil {
		iss, ok := skema.AsIssues(err)
		if !ok {
			return err
		}
		printIssues(stderr, s.Name(), iss)
		return exitError{}
	}

	opt := skema.DumpOpt{
		Include:         f.include,
		Exclude:         f.exclude,
		ExcludeUnset:    f.excludeUnset,
		ExcludeDefaults: f.excludeDefaults,
	}
	var out []byte
	switch strings.ToLower(f.output) {
	case "json":
		out, err = rec.DumpJSON(opt)
		out = append(out, '\n')
	case "yaml":
		out, err = rec.DumpYAML(opt)
	default:
		return fmt.Errorf("unknown output format %q", f.output)
	}
	if err != nil {
		return err
	}
	_, err = stdout.Write(out)
	return err
}

func printIssues(w io.Writer, schema string, iss skema.Issues) {
	fmt.Fprintf(w, "%d validation error(s) for %s\n", len(iss), schema)
	for _, it := range iss {
		p := it.Path
		if p == "" {
			p = "(root)"
		}
		fmt.Fprintf(w, "%s\n  %s [%s]\n", p, it.Message, it.Code)
	}
}
