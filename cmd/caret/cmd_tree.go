package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhamidi/caret/complete"
	"github.com/dhamidi/caret/tree"
)

func newTreeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tree [path]",
		Short: "List the entries below path, or the roots",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.assemble(cmd)
			if err != nil {
				return err
			}
			src := a.Engine.Source()

			var nodes []tree.Node
			if len(args) == 0 {
				nodes, err = src.Roots()
			} else {
				var res complete.Result
				res, err = a.Parse(args[0], -1)
				if err != nil {
					return err
				}
				if res.Kind == complete.Failed {
					return res.Err
				}
				if res.Node == nil {
					return fmt.Errorf("%s does not name an entry", args[0])
				}
				nodes, err = src.Children(res.Node)
			}
			if err != nil {
				return err
			}

			sep := string(a.Engine.Separator())
			for _, n := range nodes {
				if n.IsLeaf() {
					fmt.Fprintln(os.Stdout, n.Name())
				} else {
					fmt.Fprintln(os.Stdout, n.Name()+sep)
				}
			}
			return nil
		},
	}
}
