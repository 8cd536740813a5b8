package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"waitroom/internal/app"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := app.DefaultConfig()

	cmd := &cobra.Command{
		Use:           "waitroom",
		Short:         "Play, read or doodle while something loads",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Flags win over the environment, so only unchanged flags take
			// environment values.
			envCfg := cfg
			if err := app.ParseEnv(&envCfg); err != nil {
				return err
			}
			mergeUnchanged(cmd, &cfg, envCfg)
			return cfg.Validate()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Run(cmd.Context())
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory for state and journal")
	f.StringVar(&cfg.LogPath, "log", cfg.LogPath, "diagnostic log file")
	f.BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable debug logging")

	rf := cmd.Flags()
	rf.DurationVar(&cfg.LoadFor, "load-for", cfg.LoadFor, "how long the simulated load runs (0 waits for quit)")
	rf.StringVar(&cfg.Content, "content", cfg.Content, "text shown once loading finishes")
	rf.StringVar(&cfg.Interaction.Mode, "mode", cfg.Interaction.Mode, "initial mode: game, facts, doodle or none")
	rf.StringSliceVar(&cfg.Interaction.AvailableModes, "modes", cfg.Interaction.AvailableModes, "modes offered in the switcher")
	rf.BoolVar(&cfg.Interaction.ShowModeSwitcher, "switcher", cfg.Interaction.ShowModeSwitcher, "show the mode switcher")
	rf.BoolVar(&cfg.Interaction.PersistModePreference, "remember-mode", cfg.Interaction.PersistModePreference, "remember the last chosen mode")
	rf.IntVar(&cfg.Interaction.TransitionMS, "transition-ms", cfg.Interaction.TransitionMS, "cross-fade duration in milliseconds")
	rf.DurationVar(&cfg.Interaction.MinDelay, "min-delay", cfg.Interaction.MinDelay, "wait this long before showing an interaction")
	rf.StringVar(&cfg.Interaction.Game, "game", cfg.Interaction.Game, "game to play: snake, memory or click-counter")
	rf.StringVar(&cfg.Interaction.FactsDir, "facts-dir", cfg.Interaction.FactsDir, "directory of extra fact packs")
	rf.StringVar(&cfg.UI.Theme, "theme", cfg.UI.Theme, "theme: light, dark or custom")
	rf.StringVar(&cfg.UI.Position, "position", cfg.UI.Position, "panel position: center, corner or inline")
	rf.StringToStringVar(&cfg.UI.Style, "style", cfg.UI.Style, "custom theme colors, e.g. fg=#fff,accent=#0af")
	rf.StringVar(&cfg.UI.MotionLevel, "motion", cfg.UI.MotionLevel, "motion level: off, reduced or full")

	cmd.AddCommand(newStateCommand(&cfg))
	return cmd
}

// mergeUnchanged copies environment values into every setting whose flag was
// not given on the command line.
func mergeUnchanged(cmd *cobra.Command, cfg *app.Config, env app.Config) {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	pick := func(name string, apply func()) {
		if !changed(name) {
			apply()
		}
	}
	pick("data-dir", func() { cfg.DataDir = env.DataDir })
	pick("log", func() { cfg.LogPath = env.LogPath })
	pick("debug", func() { cfg.Debug = env.Debug })
	pick("load-for", func() { cfg.LoadFor = env.LoadFor })
	pick("content", func() { cfg.Content = env.Content })
	pick("mode", func() { cfg.Interaction.Mode = env.Interaction.Mode })
	pick("modes", func() { cfg.Interaction.AvailableModes = env.Interaction.AvailableModes })
	pick("switcher", func() { cfg.Interaction.ShowModeSwitcher = env.Interaction.ShowModeSwitcher })
	pick("remember-mode", func() { cfg.Interaction.PersistModePreference = env.Interaction.PersistModePreference })
	pick("transition-ms", func() { cfg.Interaction.TransitionMS = env.Interaction.TransitionMS })
	pick("min-delay", func() { cfg.Interaction.MinDelay = env.Interaction.MinDelay })
	pick("game", func() { cfg.Interaction.Game = env.Interaction.Game })
	pick("facts-dir", func() { cfg.Interaction.FactsDir = env.Interaction.FactsDir })
	pick("theme", func() { cfg.UI.Theme = env.UI.Theme })
	pick("position", func() { cfg.UI.Position = env.UI.Position })
	pick("style", func() { cfg.UI.Style = env.UI.Style })
	pick("motion", func() { cfg.UI.MotionLevel = env.UI.MotionLevel })
	cfg.JournalPath = env.JournalPath
}

func newStateCommand(cfg *app.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or clear stored preferences and game progress",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the stored mode preference and game records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := app.ReadState(cmd.Context(), cfg.StatePath())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "no stored state")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s\t%s\n", e.Key, e.Value)
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Delete the stored mode preference and game records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.ResetState(cmd.Context(), cfg.StatePath()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "state cleared")
			return nil
		},
	})
	return cmd
}
