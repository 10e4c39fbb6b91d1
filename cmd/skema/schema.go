package main

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func newSchemaCmd(root *rootFlags) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of a schema, or list schema names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := loadCatalog(root.schemasFile)
			if err != nil {
				return err
			}
			if name == "" {
				for _, n := range cat.Names() {
					fmt.Fprintln(cmd.OutOrStdout(), n)
				}
				return nil
			}
			s, ok := cat.Get(name)
			if !ok {
				return fmt.Errorf("unknown schema %q", name)
			}
			js, err := s.JSONSchema()
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(js, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "schema", "", "schema name (omit to list all)")
	return cmd
}
