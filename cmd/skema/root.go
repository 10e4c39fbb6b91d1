package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reoring/skema/examples/patient"
	"github.com/reoring/skema/i18n"
	"github.com/reoring/skema/schemafile"
)

// exitError reports a failure that was already printed.
type exitError struct{}

func (exitError) Error() string { return "exit status 1" }

type rootFlags struct {
	schemasFile string
	lang        string
}

func newRootCmd() *cobra.Command {
	f := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "skema",
		Short:         "Validate, coerce and serialize records against declared schemas",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if f.lang != "" {
				i18n.SetLanguage(f.lang)
			}
		},
	}
	cmd.PersistentFlags().StringVar(&f.schemasFile, "schemas", "", "YAML schema file loaded on top of the built-in schemas")
	cmd.PersistentFlags().StringVar(&f.lang, "lang", "", "message language (BCP 47, e.g. en or ja)")

	cmd.AddCommand(newValidateCmd(f), newSchemaCmd(f), newServeCmd(f))
	return cmd
}

// loadCatalog returns the built-in schemas plus those of path, if set.
func loadCatalog(path string) (*schemafile.Catalog, error) {
	cat := patient.Catalog()
	if path == "" {
		return cat, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cat.Load(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}
