package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/cbegin/mxlstruct-go/internal/diag"
	"github.com/cbegin/mxlstruct-go/internal/mxl"
)

const envPrefix = "MXLSTRUCT_"

// Config is the YAML configuration file. Environment variables prefixed
// with MXLSTRUCT_ override file values.
type Config struct {
	Log    LogConfig    `yaml:"log"`
	Trace  TraceConfig  `yaml:"trace"`
	Parser ParserConfig `yaml:"parser"`
	Output OutputConfig `yaml:"output"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type TraceConfig struct {
	Categories []string `yaml:"categories"`
}

type ParserConfig struct {
	Divisions   int  `yaml:"divisions"`
	Harmonies   bool `yaml:"harmonies"`
	FiguredBass bool `yaml:"figured_bass"`
	Lyrics      bool `yaml:"lyrics"`
}

type OutputConfig struct {
	// Format is yaml or text.
	Format string `yaml:"format"`
}

func DefaultConfig() *Config {
	p := mxl.DefaultParserConfig()
	return &Config{
		Log: LogConfig{Level: "info"},
		Parser: ParserConfig{
			Divisions:   p.DefaultDivisions,
			Harmonies:   p.Harmonies,
			FiguredBass: p.FiguredBass,
			Lyrics:      p.Lyrics,
		},
		Output: OutputConfig{Format: "text"},
	}
}

// LoadDotEnv reads .env files into the process environment. Missing files
// are not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return errors.Wrapf(err, "load %s", p)
		}
	}
	return nil
}

// Load reads the file at path, if any, over the defaults and applies
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Log.Level = getEnv(envPrefix+"LOG_LEVEL", c.Log.Level)
	c.Output.Format = getEnv(envPrefix+"OUTPUT_FORMAT", c.Output.Format)
	if v := getEnv(envPrefix+"TRACE", ""); v != "" {
		c.Trace.Categories = splitList(v)
	}
	for key, dst := range map[string]*bool{
		"HARMONIES":    &c.Parser.Harmonies,
		"FIGURED_BASS": &c.Parser.FiguredBass,
		"LYRICS":       &c.Parser.Lyrics,
	} {
		v := getEnv(envPrefix+key, "")
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "%s%s", envPrefix, key)
		}
		*dst = b
	}
	if v := getEnv(envPrefix+"DIVISIONS", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "%sDIVISIONS", envPrefix)
		}
		c.Parser.Divisions = n
	}
	return nil
}

func (c *Config) Validate() error {
	if _, err := c.Categories(); err != nil {
		return err
	}
	switch c.Output.Format {
	case "yaml", "text":
	default:
		return errors.Errorf("unknown output format %q", c.Output.Format)
	}
	if c.Parser.Divisions < 0 {
		return errors.Errorf("negative divisions %d", c.Parser.Divisions)
	}
	return nil
}

// Categories resolves the configured trace category names; "all" enables
// every category.
func (c *Config) Categories() ([]diag.Category, error) {
	var out []diag.Category
	for _, name := range c.Trace.Categories {
		if strings.EqualFold(strings.TrimSpace(name), "all") {
			out = out[:0]
			for cat := diag.CategoryVoices; cat <= diag.CategoryClone; cat++ {
				out = append(out, cat)
			}
			return out, nil
		}
		cat, ok := diag.ParseCategory(name)
		if !ok {
			return nil, errors.Errorf("unknown trace category %q", name)
		}
		out = append(out, cat)
	}
	return out, nil
}

func (c *Config) MXL() mxl.ParserConfig {
	return mxl.ParserConfig{
		DefaultDivisions: c.Parser.Divisions,
		Harmonies:        c.Parser.Harmonies,
		FiguredBass:      c.Parser.FiguredBass,
		Lyrics:           c.Parser.Lyrics,
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
