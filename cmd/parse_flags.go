package cmd

import (
	"github.com/dzjyyds666/toonq/pkg"
	"github.com/spf13/pflag"
)

// ParseParams 解析相关参数，显式设置时覆盖配置文件
type ParseParams struct {
	Lenient   bool `json:"lenient"`    // 宽松模式，语义错误只告警
	MaxDepth  int  `json:"max_depth"`  // 最大嵌套层数
	AllowTabs bool `json:"allow_tabs"` // 缩进中允许使用 tab
}

func (p *ParseParams) bind(fs *pflag.FlagSet) {
	fs.BoolVar(&p.Lenient, "lenient", false, "report semantic errors as warnings")
	fs.IntVar(&p.MaxDepth, "max-depth", 0, "maximum nesting depth")
	fs.BoolVar(&p.AllowTabs, "allow-tabs", false, "allow tabs in indentation")
}

func (p *ParseParams) apply(fs *pflag.FlagSet, cfg pkg.Config) pkg.Config {
	if fs.Changed("lenient") {
		cfg.Strict = !p.Lenient
	}
	if fs.Changed("max-depth") {
		cfg.MaxDepth = p.MaxDepth
	}
	if fs.Changed("allow-tabs") {
		cfg.AllowTabs = p.AllowTabs
	}
	return cfg
}
