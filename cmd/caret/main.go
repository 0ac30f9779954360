package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/dhamidi/caret/config"
)

const version = "0.1.0"

// options are the flags shared by every subcommand.
type options struct {
	configFile string
	root       string
	hierarchy  string
	verbosity  int
	logFile    string
}

// load reads the configuration and applies flag overrides on top of it.
func (o *options) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(".", o.configFile)
	if err != nil {
		return nil, err
	}

	if o.verbosity > cfg.Log.Verbosity {
		cfg.Log.Verbosity = o.verbosity
	}
	if o.logFile != "" {
		cfg.Log.File = o.logFile
	}
	var logPath *string
	if cfg.Log.File != "" {
		logPath = &cfg.Log.File
	}
	commonlog.Configure(cfg.Log.Verbosity, logPath)

	if cmd.Flags().Changed("root") {
		cfg.Root = o.root
	}
	if cmd.Flags().Changed("hierarchy") {
		cfg.Hierarchy = o.hierarchy
	}
	return cfg, nil
}

// assemble loads the configuration and wires the engine behind it.
func (o *options) assemble(cmd *cobra.Command) (*config.Assembly, error) {
	cfg, err := o.load(cmd)
	if err != nil {
		return nil, err
	}
	a, err := cfg.Assemble()
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	return a, nil
}

func main() {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "caret",
		Short:         "Caret-aware path completion over files and named trees",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "config file (default: ./caret.{yaml,toml,json})")
	flags.StringVarP(&opts.root, "root", "r", ".", "directory serving file paths")
	flags.StringVar(&opts.hierarchy, "hierarchy", "", "YAML or TOML file describing a named hierarchy")
	flags.CountVarP(&opts.verbosity, "verbose", "v", "increase log verbosity")
	flags.StringVar(&opts.logFile, "log", "", "write logs to this file instead of stderr")

	rootCmd.AddCommand(newCompleteCmd(opts))
	rootCmd.AddCommand(newEvalCmd(opts))
	rootCmd.AddCommand(newTreeCmd(opts))
	rootCmd.AddCommand(newLSPCmd(opts))
	rootCmd.AddCommand(newServeCmd(opts))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
