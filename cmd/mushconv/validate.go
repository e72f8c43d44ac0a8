package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crystal-mush/mushconv/pkg/validate"
)

func validateCmd(a *app) *cobra.Command {
	var (
		storePath string
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "validate [flatfile]",
		Short: "Check a flatfile for problems without changing it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.input(args, storePath)
			if err != nil {
				return err
			}
			v, fatal := a.check(snap)
			if v == nil {
				return fatal
			}
			if asJSON {
				if err := validate.GenerateReport(v).WriteJSON(cmd.OutOrStdout()); err != nil {
					return err
				}
			}

			summary := v.Summary()
			fields := make([]zap.Field, 0, len(summary))
			for cat, n := range summary {
				fields = append(fields, zap.Int(cat.String(), n))
			}
			a.log.Info("validation complete", append(fields, zap.Int("findings", len(v.Findings())))...)

			return fatal
		},
	}
	cmd.Flags().StringVar(&storePath, "store", "", "Validate the snapshot held in this bolt store")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Write a JSON report to stdout")
	return cmd
}
