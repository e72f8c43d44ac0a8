package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	a := &app{}
	err := newRoot(a).Execute()
	if ferr := a.finish(); ferr != nil && err == nil {
		err = ferr
	}
	if err != nil {
		if a.log != nil {
			a.log.Error(err.Error())
		} else {
			fmt.Fprintln(os.Stderr, "ERROR:", err)
		}
		os.Exit(1)
	}
}

func newRoot(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:               "mushconv",
		Short:             "Validate, convert and upgrade MUSH flatfiles",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&a.fromID, "from", "", "Source lineage: t5x, t6h, r7h or p6h (default autodetect)")
	pf.StringVar(&a.configPath, "config", "", "Settings file (.yaml, .yml or .toml)")
	pf.StringVar(&a.metricsPath, "metrics", "", "Write run metrics to this textfile-collector path")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Show debug output")

	root.AddCommand(validateCmd(a))
	root.AddCommand(convertCmd(a))
	root.AddCommand(upgradeCmd(a))
	root.AddCommand(downgradeCmd(a))
	root.AddCommand(extractCmd(a))
	root.AddCommand(resetpwCmd(a))
	root.AddCommand(infoCmd(a))
	root.AddCommand(versionCmd())
	return root
}
