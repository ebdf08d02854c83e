// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/mdhender/phylotree"
	"github.com/mdhender/phylotree/config"
	"github.com/spf13/cobra"
)

func main() {
	addFlags := func(cmd *cobra.Command) error {
		cmd.PersistentFlags().String("config-file", "", "load configuration from file")
		cmd.PersistentFlags().Bool("debug", false, "log debugging information")
		cmd.PersistentFlags().Bool("log-with-default-flags", false, "log with default flags")
		cmd.PersistentFlags().Bool("log-with-shortfile", true, "log with short file name")
		cmd.PersistentFlags().Bool("log-with-timestamp", false, "log with timestamp")
		cmd.PersistentFlags().Bool("quiet", false, "log less information")
		cmd.PersistentFlags().Bool("show-version", false, "show version")
		cmd.PersistentFlags().Bool("verbose", false, "log more information")
		return nil
	}
	var cmdRoot = &cobra.Command{
		Use:   "phylotree",
		Short: "Annotated phylogenetic tree utility",
		Long:  `Parse, label, combine and store annotated trees from NEXUS files`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logWithDefaultFlags, _ := cmd.Flags().GetBool("log-with-default-flags")
			logWithShortFileName, _ := cmd.Flags().GetBool("log-with-shortfile")
			logWithTimestamp, _ := cmd.Flags().GetBool("log-with-timestamp")
			logFlags := 0
			if logWithShortFileName {
				logFlags |= log.Lshortfile
			}
			if logWithTimestamp {
				logFlags |= log.Ltime
			}
			if logWithDefaultFlags || logFlags == 0 {
				logFlags = log.LstdFlags
			}
			log.SetFlags(logFlags)

			if showVersion, _ := cmd.Flags().GetBool("show-version"); showVersion {
				fmt.Printf("phylotree: version %q\n", phylotree.Version().Core())
			}

			return nil
		},
	}
	cmdRoot.AddCommand(cmdLex())
	cmdRoot.AddCommand(cmdParse())
	cmdRoot.AddCommand(cmdClades())
	cmdRoot.AddCommand(cmdCombine())
	cmdRoot.AddCommand(cmdTrack())
	cmdRoot.AddCommand(cmdStates())
	cmdRoot.AddCommand(cmdInitDb())
	cmdRoot.AddCommand(cmdCompactDb())
	cmdRoot.AddCommand(cmdVersion())
	if err := addFlags(cmdRoot); err != nil {
		log.Fatal(err)
	}

	if err := cmdRoot.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads --config-file, if given, and applies the flags the
// user set on cmd on top of it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if path, _ := cmd.Flags().GetString("config-file"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("index") {
		cfg.Index, _ = flags.GetInt("index")
	}
	if flags.Changed("coding") {
		cfg.Coding, _ = flags.GetString("coding")
	}
	if flags.Changed("burnin") {
		cfg.Burnin, _ = flags.GetInt("burnin")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("db") {
		cfg.Database, _ = flags.GetString("db")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger returns a text logger on stderr when --debug or --verbose is
// set and nil otherwise, which keeps the parser silent.
func newLogger(cmd *cobra.Command) *slog.Logger {
	quiet, _ := cmd.Flags().GetBool("quiet")
	verbose, _ := cmd.Flags().GetBool("verbose")
	debug, _ := cmd.Flags().GetBool("debug")
	if quiet {
		return nil
	}
	switch {
	case debug:
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case verbose:
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return nil
}

// reportError prints a source diagnostic for tokenizer errors. It
// returns err so callers can hand it back to cobra.
func reportError(err error, filename string, src []byte) error {
	if diag, ok := phylotree.DiagnosticFromError(err); ok {
		phylotree.PrintDiagnostic(os.Stderr, diag, filename, src)
	}
	return err
}

func cmdVersion() *cobra.Command {
	showBuildInfo := false
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().BoolVar(&showBuildInfo, "build-info", showBuildInfo, "show build information")
		return nil
	}
	var cmd = &cobra.Command{
		Use:   "version",
		Short: "display the application's version number",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showBuildInfo {
				fmt.Println(phylotree.Version().String())
				return nil
			}
			fmt.Println(phylotree.Version().Core())
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}
