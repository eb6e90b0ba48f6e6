package cmd

import (
	"fmt"

	"github.com/dzjyyds666/toonq/parse/toon"
	"github.com/dzjyyds666/toonq/pkg"
	"github.com/spf13/cobra"
)

func newCheckCmd(a *app) *cobra.Command {
	params := &ParseParams{}
	cmd := &cobra.Command{
		Use:   "check file...",
		Short: "check that toon files parse",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.checkRun(cmd, params, args)
		},
	}
	params.bind(cmd.Flags())
	return cmd
}

func (a *app) checkRun(cmd *cobra.Command, params *ParseParams, files []string) error {
	cfg := params.apply(cmd.Flags(), *a.cfg)
	opts := cfg.ParseOptions(a.logger)
	out := cmd.OutOrStdout()

	failed := 0
	for _, file := range files {
		doc, err := checkFile(cmd, file, opts)
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s: %v\n", pkg.InputName(file), err)
			continue
		}
		if n := len(doc.Warnings); n > 0 {
			fmt.Fprintf(out, "%s: ok (%d warnings)\n", pkg.InputName(file), n)
			for _, w := range doc.Warnings {
				fmt.Fprintf(out, "  %v\n", w)
			}
			continue
		}
		fmt.Fprintf(out, "%s: ok\n", pkg.InputName(file))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

func checkFile(cmd *cobra.Command, file string, opts toon.Options) (*toon.Document, error) {
	data, err := pkg.ReadInput(file, cmd.InOrStdin())
	if err != nil {
		return nil, err
	}
	return toon.ParseWithOptions(data, opts)
}
