package main

import (
	"github.com/spf13/cobra"

	"github.com/wdkclient/stepanalysis/internal/app"
)

var version = "dev"

type rootFlags struct {
	configPath  string
	prefsPath   string
	stepID      int64
	metricsAddr string
}

func (f *rootFlags) options() app.Options {
	return app.Options{
		ConfigPath:  f.configPath,
		PrefsPath:   f.prefsPath,
		StepID:      f.stepID,
		MetricsAddr: f.metricsAddr,
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "stepanalysis",
		Short:         "Run and inspect step analyses of a WDK search step",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), flags.options())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file path (default ~/.config/stepanalysis/config.toml)")
	pf.StringVar(&flags.prefsPath, "prefs", "", "preferences file path (default ~/.config/stepanalysis/prefs.toml)")
	pf.Int64Var(&flags.stepID, "step", 0, "search step id")
	pf.StringVar(&flags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	root.AddCommand(newTUICmd(flags))
	root.AddCommand(newListCmd(flags))
	return root
}

func newTUICmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the analysis panel for a step (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), flags.options())
		},
	}
}

func newListCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the analyses applied to a step and the types it offers",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.List(cmd.Context(), cmd.OutOrStdout(), flags.options())
		},
	}
}
