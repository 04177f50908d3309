package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/AlexKucera/obsidian-typst-pdf-export-sub001/internal/yamlutil"
)

// Sentinel errors for configuration handling.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("config file could not be parsed")
)

// Config is the YAML configuration file shape. Every field has a flag
// counterpart; flags win on conflict.
type Config struct {
	Input struct {
		DefaultDir string `yaml:"defaultDir"`
	} `yaml:"input"`
	Output struct {
		DefaultDir string `yaml:"defaultDir"`
	} `yaml:"output"`

	Vault   string `yaml:"vault"`
	Workers int    `yaml:"workers"`

	Export struct {
		Format        string  `yaml:"format"`
		Template      string  `yaml:"template"`
		PageSize      string  `yaml:"pageSize"`
		Orientation   string  `yaml:"orientation"`
		MarginTop     float64 `yaml:"marginTop"`
		MarginRight   float64 `yaml:"marginRight"`
		MarginBottom  float64 `yaml:"marginBottom"`
		MarginLeft    float64 `yaml:"marginLeft"`
		BodyFont      string  `yaml:"bodyFont"`
		HeadingFont   string  `yaml:"headingFont"`
		MonospaceFont string  `yaml:"monospaceFont"`
		BodyFontSize  int     `yaml:"bodyFontSize"`
		EmbedPDFs     bool    `yaml:"embedPdfs"`
		EmbedAllFiles bool    `yaml:"embedAllFiles"`
	} `yaml:"export"`

	Renderer struct {
		Engine  string `yaml:"engine"`
		Timeout string `yaml:"timeout"`
	} `yaml:"renderer"`
}

// DefaultConfig returns the zero configuration; defaults live in the
// library, not here.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig reads and strictly parses a YAML config file. Unknown keys
// are an error so typos surface instead of silently doing nothing.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	return cfg, nil
}

// applyEnvConfig fills config fields from environment variables, only
// where the config file left them empty. Flags are merged afterwards
// and win over both.
func applyEnvConfig(env *envConfig, cfg *Config) {
	if env.OutputDir != "" && cfg.Output.DefaultDir == "" {
		cfg.Output.DefaultDir = env.OutputDir
	}
	if env.Engine != "" && cfg.Renderer.Engine == "" {
		cfg.Renderer.Engine = env.Engine
	}
	if env.Timeout > 0 && cfg.Renderer.Timeout == "" {
		cfg.Renderer.Timeout = env.Timeout.String()
	}
	if env.Workers > 0 && cfg.Workers == 0 {
		cfg.Workers = env.Workers
	}
}

// mergeFlags merges CLI flags into config. CLI values override.
func mergeFlags(flags *convertFlags, cfg *Config) {
	if flags.vault != "" {
		cfg.Vault = flags.vault
	}
	if flags.workers > 0 {
		cfg.Workers = flags.workers
	}
	if flags.format != "" {
		cfg.Export.Format = flags.format
	}
	if flags.template != "" {
		cfg.Export.Template = flags.template
	}
	if flags.engine != "" {
		cfg.Renderer.Engine = flags.engine
	}
	if flags.timeout != "" {
		cfg.Renderer.Timeout = flags.timeout
	}

	if flags.page.size != "" {
		cfg.Export.PageSize = flags.page.size
	}
	if flags.page.orientation != "" {
		cfg.Export.Orientation = flags.page.orientation
	}
	if flags.page.margin > 0 {
		cfg.Export.MarginTop = flags.page.margin
		cfg.Export.MarginRight = flags.page.margin
		cfg.Export.MarginBottom = flags.page.margin
		cfg.Export.MarginLeft = flags.page.margin
	}
	if flags.page.marginTop > 0 {
		cfg.Export.MarginTop = flags.page.marginTop
	}
	if flags.page.marginRight > 0 {
		cfg.Export.MarginRight = flags.page.marginRight
	}
	if flags.page.marginBot > 0 {
		cfg.Export.MarginBottom = flags.page.marginBot
	}
	if flags.page.marginLeft > 0 {
		cfg.Export.MarginLeft = flags.page.marginLeft
	}

	if flags.fonts.bodyFont != "" {
		cfg.Export.BodyFont = flags.fonts.bodyFont
	}
	if flags.fonts.headingFont != "" {
		cfg.Export.HeadingFont = flags.fonts.headingFont
	}
	if flags.fonts.monoFont != "" {
		cfg.Export.MonospaceFont = flags.fonts.monoFont
	}
	if flags.fonts.fontSize > 0 {
		cfg.Export.BodyFontSize = flags.fonts.fontSize
	}

	if flags.embeds.pdfs {
		cfg.Export.EmbedPDFs = true
	}
	if flags.embeds.allFiles {
		cfg.Export.EmbedAllFiles = true
	}
}

// resolveTimeout parses the merged timeout string, zero when unset.
func resolveTimeout(cfg *Config) (time.Duration, error) {
	if cfg.Renderer.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(cfg.Renderer.Timeout)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid timeout %q", ErrConfigParse, cfg.Renderer.Timeout)
	}
	return d, nil
}
