package main

import (
	"github.com/spf13/cobra"

	"github.com/crystal-mush/mushconv/pkg/gamedb"
	"github.com/crystal-mush/mushconv/pkg/upgrade"
)

func upgradeCmd(a *app) *cobra.Command {
	return versionPassCmd(a, "upgrade", "Move a flatfile to a newer format version of its lineage", (*upgrade.Pass).Upgrade)
}

func downgradeCmd(a *app) *cobra.Command {
	return versionPassCmd(a, "downgrade", "Move a flatfile to an older format version of its lineage", (*upgrade.Pass).Downgrade)
}

func versionPassCmd(a *app, name, short string, run func(*upgrade.Pass, *gamedb.Snapshot) error) *cobra.Command {
	var target int
	cmd := &cobra.Command{
		Use:   name + " <flatfile> <output>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.load(args[0])
			if err != nil {
				return err
			}
			if _, err := a.check(snap); err != nil {
				return err
			}
			p := upgrade.New(a.log, upgrade.Options{Version: target})
			if err := run(p, snap); err != nil {
				return err
			}
			return a.save(args[1], snap)
		},
	}
	cmd.Flags().IntVar(&target, "version", 0, "Target format version (default newest for upgrade, oldest for downgrade)")
	return cmd
}
