package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhamidi/caret/format"
	"github.com/dhamidi/caret/trace"
)

func newCompleteCmd(opts *options) *cobra.Command {
	var caret int
	var outputFormat string
	var showTrace bool

	cmd := &cobra.Command{
		Use:   "complete <expr>",
		Short: "List completions for expr at the caret",
		Long: `Parse expr with the caret at byte offset --caret (default: end of
input) and print the completions offered there. A complete expression
prints its value instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr := args[0]
			if !cmd.Flags().Changed("caret") {
				caret = len(expr)
			}
			return run(cmd, opts, expr, caret, outputFormat, showTrace)
		},
	}

	cmd.Flags().IntVar(&caret, "caret", 0, "caret byte offset into expr")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "line", "output format (line, json, yaml)")
	cmd.Flags().BoolVar(&showTrace, "trace", false, "print the parse trace to stderr")

	return cmd
}

// run parses expr once and encodes the result to stdout. Failed parses
// are reported through the encoder and exit non-zero.
func run(cmd *cobra.Command, opts *options, expr string, caret int, outputFormat string, showTrace bool) error {
	encoder, err := format.New(outputFormat, os.Stdout)
	if err != nil {
		return err
	}

	a, err := opts.assemble(cmd)
	if err != nil {
		return err
	}
	if showTrace {
		a.Config.Trace.Enabled = true
	}

	tracer := a.Tracer()
	res, err := a.Engine.Trace(tracer).Parse(expr, caret)
	if rec, ok := tracer.(*trace.Recorder); ok {
		fmt.Fprint(os.Stderr, rec.String())
	}
	if err != nil {
		return err
	}

	if err := encoder.Encode(res); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if res.Err != nil {
		return res.Err
	}
	return nil
}
