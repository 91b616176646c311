package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newLatestCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Print the latest published codebook manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := required([2]string{"catalog", a.cfg.Catalog.URI}); err != nil {
				return err
			}
			ctx := cmd.Context()
			cat, err := a.catalog(ctx)
			if err != nil {
				return err
			}
			m, _, err := cat.Latest(ctx)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(m)
		},
	}
	addCatalogFlags(cmd.Flags(), &a.cfg.Catalog)
	return cmd
}
