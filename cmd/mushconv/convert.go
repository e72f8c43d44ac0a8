package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crystal-mush/mushconv/pkg/boltstore"
	"github.com/crystal-mush/mushconv/pkg/gamedb"
	"github.com/crystal-mush/mushconv/pkg/lineage"
	"github.com/crystal-mush/mushconv/pkg/remap"
)

func convertCmd(a *app) *cobra.Command {
	var (
		toID      string
		storePath string
	)
	cmd := &cobra.Command{
		Use:   "convert <flatfile> [output]",
		Short: "Convert a flatfile to another server lineage",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := lineage.ByID(toID)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}
			if len(args) < 2 && storePath == "" {
				return errors.New("convert needs an output file or --store")
			}

			src, err := a.load(args[0])
			if err != nil {
				return err
			}
			if _, err := a.check(src); err != nil {
				return err
			}

			conv := remap.New(src.Lineage, to, a.log)
			conv.Options = remap.Options{
				SyntheticPrefix: a.cfg.SyntheticPrefix,
				CacheSize:       a.cfg.CacheSize,
			}
			dst, stats, err := conv.Convert(src)
			if err != nil {
				return err
			}
			a.metrics.ObserveConversion(src.Lineage.ID, to.ID, *stats)
			a.log.Info("converted",
				zap.String("from", src.Lineage.Name),
				zap.String("to", to.Name),
				zap.Int("objects", stats.ObjectsOut),
				zap.Int("objects_dropped", stats.ObjectsDropped),
				zap.Int("attrs_renamed", stats.AttrsRenamed),
				zap.Int("attrs_dropped", stats.AttrsDropped),
				zap.Int("locks_failed", stats.LocksFailed),
				zap.Int("flags_dropped", stats.FlagsDropped+stats.PowersDropped))

			if len(args) == 2 {
				if err := a.save(args[1], dst); err != nil {
					return err
				}
			}
			if storePath != "" {
				return a.store(storePath, dst)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&toID, "to", "", "Target lineage: t5x, t6h, r7h or p6h")
	cmd.Flags().StringVar(&storePath, "store", "", "Also keep the result in this bolt store")
	cmd.MarkFlagRequired("to")
	return cmd
}

// store replaces the snapshot held in a bolt store, backing up what was
// there before.
func (a *app) store(path string, snap *gamedb.Snapshot) error {
	st, err := boltstore.Open(path, a.log)
	if err != nil {
		return err
	}
	defer st.Close()
	if st.HasData() {
		if err := st.Backup(path + ".bak"); err != nil {
			return err
		}
	}
	return st.Save(snap)
}
