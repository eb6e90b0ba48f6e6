package pkg

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dzjyyds666/toonq/parse/toon"
	"gopkg.in/yaml.v3"
)

// 输出格式
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTree = "tree"
)

// Config 配置文件内容，命令行中显式设置的参数会覆盖它
type Config struct {
	Strict    bool   `yaml:"strict"`     // 严格模式，语义错误直接失败
	MaxDepth  int    `yaml:"max_depth"`  // 最大嵌套层数
	AllowTabs bool   `yaml:"allow_tabs"` // 缩进中允许使用 tab
	TabWidth  int    `yaml:"tab_width"`  // tab 对齐宽度
	Format    string `yaml:"format"`     // 输出格式 json|yaml|tree
	Indent    int    `yaml:"indent"`     // 输出缩进空格数，0 表示紧凑输出
}

func DefaultConfig() *Config {
	opts := toon.DefaultOptions()
	return &Config{
		Strict:   opts.Strict,
		MaxDepth: opts.MaxDepth,
		TabWidth: opts.TabWidth,
		Format:   FormatJSON,
		Indent:   2,
	}
}

// LoadConfig 加载 yaml 配置文件，路径为空时返回默认配置
func LoadConfig(filePath string) (*Config, error) {
	cfg := DefaultConfig()
	if len(filePath) == 0 {
		return cfg, nil
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %s: %w", filePath, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", filePath, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Format {
	case FormatJSON, FormatYAML, FormatTree:
	default:
		return fmt.Errorf("unknown output format %q", c.Format)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative")
	}
	if c.TabWidth < 0 {
		return fmt.Errorf("tab_width must not be negative")
	}
	if c.Indent < 0 {
		return fmt.Errorf("indent must not be negative")
	}
	return nil
}

// ParseOptions 转换为解析参数
func (c *Config) ParseOptions(logger *slog.Logger) toon.Options {
	return toon.Options{
		Strict:    c.Strict,
		MaxDepth:  c.MaxDepth,
		AllowTabs: c.AllowTabs,
		TabWidth:  c.TabWidth,
		Logger:    logger,
	}
}
