package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var (
	configPath string
	config     = DefaultConfig()
	logger     *slog.Logger

	rootCmd = &cobra.Command{
		Use:               "mailparse",
		Short:             "Parse email messages into their text, HTML, and attachments",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "YAML configuration file")
	pf.String("log-level", config.Logging.Level, "log level: debug, info, warn, or error")
	pf.String("log-format", config.Logging.Format, "log format: text or json")
	pf.Int("max-header-length", config.Parser.MaxHeaderLength, "longest header to accept in bytes")
	pf.Int("max-depth", config.Parser.MaxDepth, "deepest multipart nesting to descend into")
	pf.Int("chunk-size", config.Parser.ChunkSize, "longest line to hold in memory")
	pf.Bool("charset-detection", config.Parser.CharsetDetection, "guess the charset of text that does not declare one")
}

// setup loads the config file, applies the flags given over it, and builds
// the logger.
func setup(cmd *cobra.Command, _ []string) error {
	if configPath != "" {
		cfg, err := LoadConfig(configPath)
		if err != nil {
			return err
		}
		config = cfg
	}

	flags := cmd.Flags()
	var err error
	set := func(name string, apply func() error) {
		if err == nil && flags.Changed(name) {
			err = apply()
		}
	}

	set("log-level", func() (e error) { config.Logging.Level, e = flags.GetString("log-level"); return })
	set("log-format", func() (e error) { config.Logging.Format, e = flags.GetString("log-format"); return })
	set("max-header-length", func() (e error) { config.Parser.MaxHeaderLength, e = flags.GetInt("max-header-length"); return })
	set("max-depth", func() (e error) { config.Parser.MaxDepth, e = flags.GetInt("max-depth"); return })
	set("chunk-size", func() (e error) { config.Parser.ChunkSize, e = flags.GetInt("chunk-size"); return })
	set("charset-detection", func() (e error) { config.Parser.CharsetDetection, e = flags.GetBool("charset-detection"); return })
	set("format", func() (e error) { config.Output.Format, e = flags.GetString("format"); return })
	set("attachments", func() (e error) { config.Output.AttachmentsDir, e = flags.GetString("attachments"); return })
	set("headers", func() (e error) { config.Output.Headers, e = flags.GetBool("headers"); return })
	set("links", func() (e error) { config.Parser.AttachmentLinks, e = flags.GetBool("links"); return })
	if err != nil {
		return err
	}

	if err := config.Validate(); err != nil {
		return err
	}

	logger = NewLogger(config.Logging, cmd.ErrOrStderr())
	return nil
}

// Execute runs the command line.
func Execute() error {
	return rootCmd.Execute()
}
