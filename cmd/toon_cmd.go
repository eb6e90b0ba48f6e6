package cmd

import (
	"fmt"
	"log/slog"

	"github.com/dzjyyds666/toonq/parse/toon"
	"github.com/dzjyyds666/toonq/pkg"
	"github.com/spf13/cobra"
)

type ToonParams struct {
	ParseParams
	Find   string `json:"find"`   // 查找的key，点分路径
	Input  string `json:"input"`  // 输入文件路径，为空时读取stdin
	Output string `json:"output"` // 输出文件地址，为空时写到stdout
	Format string `json:"format"` // 输出格式 json|yaml|tree
}

func newToonCmd(a *app) *cobra.Command {
	params := &ToonParams{}
	cmd := &cobra.Command{
		Use:   "toon",
		Short: "toon parse tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.toonRun(cmd, params)
		},
	}
	cmd.Flags().StringVarP(&params.Find, "find", "f", "", "find")
	cmd.Flags().StringVarP(&params.Input, "input", "i", "", "input file path")
	cmd.Flags().StringVarP(&params.Output, "output", "o", "", "output path")
	cmd.Flags().StringVar(&params.Format, "format", "", "output format: json, yaml or tree")
	params.bind(cmd.Flags())
	return cmd
}

func (a *app) toonRun(cmd *cobra.Command, params *ToonParams) error {
	cfg := params.apply(cmd.Flags(), *a.cfg)
	if cmd.Flags().Changed("format") {
		cfg.Format = params.Format
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	name := pkg.InputName(params.Input)
	data, err := pkg.ReadInput(params.Input, cmd.InOrStdin())
	if err != nil {
		return err
	}
	doc, err := toon.ParseWithOptions(data, cfg.ParseOptions(a.logger))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	a.logger.Debug("document parsed",
		slog.String("input", name),
		slog.String("root", string(doc.Root.Kind())),
		slog.Int("warnings", len(doc.Warnings)))

	node := doc.Root
	if len(params.Find) > 0 {
		found, ok := pkg.Find(doc.Root, params.Find)
		if !ok {
			return fmt.Errorf("%s: key %q not found", name, params.Find)
		}
		node = found
	}

	out, closeOut, err := pkg.OpenOutput(params.Output, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := pkg.Encode(out, cfg.Format, node, cfg.Indent); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}
