package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crystal-mush/mushconv/pkg/boltstore"
	"github.com/crystal-mush/mushconv/pkg/config"
	"github.com/crystal-mush/mushconv/pkg/diag"
	"github.com/crystal-mush/mushconv/pkg/flatfile"
	"github.com/crystal-mush/mushconv/pkg/gamedb"
	"github.com/crystal-mush/mushconv/pkg/lineage"
	"github.com/crystal-mush/mushconv/pkg/metrics"
	"github.com/crystal-mush/mushconv/pkg/validate"
)

// app carries the state shared by every subcommand.
type app struct {
	fromID      string
	configPath  string
	metricsPath string
	verbose     bool

	cfg     *config.Config
	log     *zap.Logger
	tally   diag.Tally
	metrics *metrics.Metrics
	from    *lineage.Lineage

	command string
	started time.Time
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	a.command = cmd.Name()
	a.started = time.Now()
	a.log = diag.New(cmd.ErrOrStderr(), a.verbose, &a.tally)
	a.metrics = metrics.New()

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	if a.metricsPath == "" {
		a.metricsPath = cfg.MetricsPath
	}
	if a.fromID != "" {
		if a.from, err = lineage.ByID(a.fromID); err != nil {
			return fmt.Errorf("--from: %w", err)
		}
	}
	return nil
}

// finish writes the run metrics, if asked for. It runs after failed
// commands too.
func (a *app) finish() error {
	if a.metrics == nil || a.metricsPath == "" {
		return nil
	}
	a.metrics.ObserveLog(&a.tally)
	a.metrics.Finish(a.command, a.started, time.Now())
	return a.metrics.WriteFile(a.metricsPath)
}

// load reads a flatfile, detecting its lineage unless --from was given.
func (a *app) load(path string) (*gamedb.Snapshot, error) {
	snap, err := flatfile.Load(path, a.from, flatfile.WithLogger(a.log))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	a.log.Info("loaded flatfile",
		zap.String("path", path),
		zap.String("lineage", snap.Lineage.Name),
		zap.Int("version", snap.Version),
		zap.Int("objects", len(snap.Objects)))
	return snap, nil
}

// input reads the snapshot named by the first argument, or the bolt store
// when no argument is given.
func (a *app) input(args []string, storePath string) (*gamedb.Snapshot, error) {
	if len(args) > 0 {
		return a.load(args[0])
	}
	if storePath == "" {
		storePath = a.cfg.StorePath
	}
	if storePath == "" {
		return nil, errors.New("no flatfile given and no --store")
	}
	st, err := boltstore.Open(storePath, a.log)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	snap, err := st.Load()
	if err != nil {
		return nil, err
	}
	if a.from != nil && snap.Lineage != a.from {
		return nil, fmt.Errorf("store %s holds %s, not %s", storePath, snap.Lineage.Name, a.from.Name)
	}
	return snap, nil
}

// check validates a snapshot and returns a *validate.FatalError when it is
// not safe to write anything derived from it.
func (a *app) check(snap *gamedb.Snapshot) (*validate.Validator, error) {
	opts, err := a.cfg.ValidateOptions()
	if err != nil {
		return nil, err
	}
	v := validate.New(snap, opts, a.log)
	findings := v.Run()
	a.metrics.ObserveFindings(snap.Lineage.ID, findings)
	return v, v.Fatal()
}

func (a *app) save(path string, snap *gamedb.Snapshot) error {
	if err := flatfile.Save(path, snap); err != nil {
		return err
	}
	a.log.Info("wrote flatfile",
		zap.String("path", path),
		zap.String("lineage", snap.Lineage.Name),
		zap.Int("version", snap.Version),
		zap.Int("objects", len(snap.Objects)))
	return nil
}

// parseRef accepts "#12" or "12".
func parseRef(s string) (gamedb.DBRef, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(s), "#"))
	if err != nil || n < 0 {
		return gamedb.Nothing, fmt.Errorf("bad object reference %q", s)
	}
	return gamedb.DBRef(n), nil
}

// findPlayer resolves a player name against the snapshot.
func findPlayer(snap *gamedb.Snapshot, name string) (gamedb.DBRef, error) {
	for _, o := range snap.Players() {
		if strings.EqualFold(o.Name, name) && !snap.IsGoing(o) {
			return o.DBRef, nil
		}
	}
	return gamedb.Nothing, fmt.Errorf("no player named %q", name)
}
