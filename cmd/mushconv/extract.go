package main

import (
	"bufio"

	"github.com/spf13/cobra"

	"github.com/crystal-mush/mushconv/pkg/extract"
	"github.com/crystal-mush/mushconv/pkg/gamedb"
)

func extractCmd(a *app) *cobra.Command {
	var (
		refs      []string
		storePath string
	)
	cmd := &cobra.Command{
		Use:   "extract [flatfile] --ref <dbref>",
		Short: "Print softcode that recreates an object on a running game",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			want := make([]gamedb.DBRef, 0, len(refs))
			for _, s := range refs {
				ref, err := parseRef(s)
				if err != nil {
					return err
				}
				want = append(want, ref)
			}
			snap, err := a.input(args, storePath)
			if err != nil {
				return err
			}
			w := bufio.NewWriter(cmd.OutOrStdout())
			for _, ref := range want {
				if err := extract.Object(w, snap, ref); err != nil {
					return err
				}
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringSliceVar(&refs, "ref", nil, "Object to extract, as #N or N (repeatable)")
	cmd.Flags().StringVar(&storePath, "store", "", "Read from this bolt store instead of a flatfile")
	cmd.MarkFlagRequired("ref")
	return cmd
}
