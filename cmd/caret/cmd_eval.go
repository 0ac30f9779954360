package main

import (
	"github.com/spf13/cobra"
)

func newEvalCmd(opts *options) *cobra.Command {
	var outputFormat string
	var showTrace bool

	cmd := &cobra.Command{
		Use:   "eval <expr>",
		Short: "Resolve expr and print the value it names",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args[0], -1, outputFormat, showTrace)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "line", "output format (line, json, yaml)")
	cmd.Flags().BoolVar(&showTrace, "trace", false, "print the parse trace to stderr")

	return cmd
}
