package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zostay/go-mailparse/message"
)

// Config holds the settings of the command. It may be loaded from a YAML
// file. Flags given on the command line override the file.
type Config struct {
	Parser  ParserConfig  `yaml:"parser"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// ParserConfig holds the options passed to the parser.
type ParserConfig struct {
	MaxHeaderLength  int  `yaml:"max_header_length"`
	MaxDepth         int  `yaml:"max_depth"`
	ChunkSize        int  `yaml:"chunk_size"`
	AttachmentLinks  bool `yaml:"attachment_links"`
	CharsetDetection bool `yaml:"charset_detection"`
}

// OutputConfig controls what is written and where.
type OutputConfig struct {
	Format         string `yaml:"format"`
	AttachmentsDir string `yaml:"attachments_dir"`
	Headers        bool   `yaml:"headers"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used when there is no file.
func DefaultConfig() *Config {
	return &Config{
		Parser: ParserConfig{
			MaxHeaderLength: message.DefaultMaxHeaderLength,
			MaxDepth:        message.DefaultMaxMultipartDepth,
			ChunkSize:       message.DefaultChunkSize,
		},
		Output: OutputConfig{
			Format: "json",
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// LoadConfig loads the YAML file at path over the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the values that have a fixed set of choices.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q", c.Output.Format)
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}

	return nil
}

// ParseOptions returns the parser options for this configuration.
func (c *Config) ParseOptions(logger *slog.Logger) []message.ParseOption {
	return []message.ParseOption{
		message.WithMaxHeaderLength(c.Parser.MaxHeaderLength),
		message.WithMaxDepth(c.Parser.MaxDepth),
		message.WithChunkSize(c.Parser.ChunkSize),
		message.WithAttachmentLinks(c.Parser.AttachmentLinks),
		message.WithCharsetDetection(c.Parser.CharsetDetection),
		message.WithLogger(logger),
	}
}
