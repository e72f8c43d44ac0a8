package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crystal-mush/mushconv/pkg/boltstore"
	"github.com/crystal-mush/mushconv/pkg/crypt"
	"github.com/crystal-mush/mushconv/pkg/gamedb"
)

func resetpwCmd(a *app) *cobra.Command {
	var (
		refText   string
		player    string
		password  string
		storePath string
	)
	cmd := &cobra.Command{
		Use:   "resetpw [flatfile output] (--ref <dbref> | --player <name>)",
		Short: "Set a player's password",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return errors.New("resetpw takes a flatfile and an output file, or --store")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if (refText == "") == (player == "") {
				return errors.New("give exactly one of --ref or --player")
			}
			if password == "" {
				password = a.cfg.ResetPassword
			}
			if len(args) == 2 {
				snap, err := a.load(args[0])
				if err != nil {
					return err
				}
				ref, err := a.resolvePlayer(snap, refText, player, nil)
				if err != nil {
					return err
				}
				if err := crypt.ResetPassword(snap, ref, password); err != nil {
					return err
				}
				a.log.Info("password reset", zap.Int("player", int(ref)))
				return a.save(args[1], snap)
			}

			if storePath == "" {
				storePath = a.cfg.StorePath
			}
			if storePath == "" {
				return errors.New("no flatfile given and no --store")
			}
			st, err := boltstore.Open(storePath, a.log)
			if err != nil {
				return err
			}
			defer st.Close()
			snap, err := st.Load()
			if err != nil {
				return err
			}
			ref, err := a.resolvePlayer(snap, refText, player, st)
			if err != nil {
				return err
			}
			if err := crypt.ResetPassword(snap, ref, password); err != nil {
				return err
			}
			a.log.Info("password reset", zap.Int("player", int(ref)), zap.String("store", storePath))
			return st.PutObject(snap.Object(ref))
		},
	}
	cmd.Flags().StringVar(&refText, "ref", "", "Player object, as #N or N")
	cmd.Flags().StringVar(&player, "player", "", "Player name")
	cmd.Flags().StringVar(&password, "password", "", "New password (default from settings)")
	cmd.Flags().StringVar(&storePath, "store", "", "Reset in this bolt store instead of a flatfile")
	return cmd
}

func (a *app) resolvePlayer(snap *gamedb.Snapshot, refText, name string, st *boltstore.Store) (gamedb.DBRef, error) {
	if refText != "" {
		return parseRef(refText)
	}
	if st != nil {
		if ref, ok := st.LookupPlayer(name); ok {
			return ref, nil
		}
		return gamedb.Nothing, fmt.Errorf("no player named %q in %s", name, st.Path())
	}
	return findPlayer(snap, name)
}
