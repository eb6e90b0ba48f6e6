package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dzjyyds666/toonq/pkg"
	"github.com/spf13/cobra"
)

const version = "v0.1"

// RootParams 全局参数
type RootParams struct {
	Config  string `json:"config"`  // 配置文件路径
	Verbose bool   `json:"verbose"` // 输出调试日志
}

// app 各子命令共享的运行环境，在 PersistentPreRunE 中初始化
type app struct {
	params RootParams
	cfg    *pkg.Config
	logger *slog.Logger
}

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "toonq",
		Short:         "Toonq is a tool for processing TOON data.",
		Long:          "Toonq is a tool for processing TOON (Token-Oriented Object Notation) data. It can check documents and convert them to JSON, YAML or an annotated syntax tree.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVarP(&a.params.Config, "config", "c", "", "config file path (yaml)")
	cmd.PersistentFlags().BoolVarP(&a.params.Verbose, "verbose", "v", false, "print debug logs")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newToonCmd(a))
	cmd.AddCommand(newCheckCmd(a))
	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	level := slog.LevelInfo
	if a.params.Verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	cfg, err := pkg.LoadConfig(a.params.Config)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger.Debug("config loaded", slog.String("path", a.params.Config), slog.String("format", cfg.Format))
	return nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of Toonq",
		Long:  `All software has versions. This is Toonq's`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Toonq %s -- HEAD\n", version)
		},
	}
}
