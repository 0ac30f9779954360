package main

import (
	"github.com/spf13/cobra"

	"github.com/dhamidi/caret/lsp"
)

func newLSPCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			return lsp.NewServer(cfg, version).RunStdio()
		},
	}
}
