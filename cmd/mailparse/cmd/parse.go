package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zostay/go-mailparse/message"
	"github.com/zostay/go-mailparse/message/header"
	"github.com/zostay/go-mailparse/message/header/param"
)

var parseCmd = &cobra.Command{
	Use:   "parse [message...]",
	Short: "Prints the parsed form of each message",
	Long: `Parses each named message file, or standard input when none is named
or the name is "-", and prints the result as JSON or YAML. Attachments are
streamed into the attachments directory when one is given.`,
	RunE: RunParse,
}

func init() {
	f := parseCmd.Flags()
	f.StringP("format", "f", config.Output.Format, "output format: json or yaml")
	f.StringP("attachments", "a", "", "directory to save attachments into")
	f.Bool("headers", false, "include every header field in the output")
	f.Bool("links", false, "insert links to attachments into the HTML")

	rootCmd.AddCommand(parseCmd)
}

// Report is what is printed for each message.
type Report struct {
	Source  string           `json:"source" yaml:"source"`
	Message *message.Message `json:"message" yaml:"message"`
	Header  map[string][]any `json:"header,omitempty" yaml:"header,omitempty"`

	// Warnings are the messages of message.Message.Warnings
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	// Saved lists the files attachments were written to
	Saved []string `json:"saved,omitempty" yaml:"saved,omitempty"`
}

// RunParse parses the messages named in args.
func RunParse(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{"-"}
	}

	if dir := config.Output.AttachmentsDir; dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("unable to create attachments directory: %w", err)
		}
	}

	p := message.New(config.ParseOptions(logger)...)
	for _, path := range args {
		r, err := parseOne(cmd.Context(), p, path, cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		if err := writeReport(cmd.OutOrStdout(), r); err != nil {
			return err
		}
	}

	return nil
}

// parseOne runs a session over one message and builds its report.
func parseOne(ctx context.Context, p *message.Parser, path string, stdin io.Reader) (*Report, error) {
	in := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	if ctx == nil {
		ctx = context.Background()
	}

	r := &Report{Source: path}
	s := p.NewSession(in)
	for {
		ev, err := s.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, err
		}

		switch ev := ev.(type) {
		case *message.AttachmentEvent:
			saved, err := saveAttachment(ev.Attachment)
			ev.Attachment.Release()
			if err != nil {
				return nil, err
			}
			if saved != "" {
				r.Saved = append(r.Saved, saved)
			}

		case *message.EndEvent:
			r.Message = ev.Message
		}
	}

	for _, w := range r.Message.Warnings {
		r.Warnings = append(r.Warnings, w.Error())
	}

	if config.Output.Headers {
		r.Header = headerView(r.Message.Header)
	}

	logger.Info("message parsed",
		"source", path,
		"attachments", len(r.Message.Attachments),
		"warnings", len(r.Warnings),
	)

	return r, nil
}

// saveAttachment copies the content of the attachment into the attachments
// directory, if there is one. It returns the path written.
func saveAttachment(a *message.Attachment) (string, error) {
	dir := config.Output.AttachmentsDir
	if dir == "" {
		return "", nil
	}

	f, path, err := createUnique(dir, filepath.Base(a.GeneratedFilename))
	if err != nil {
		return "", fmt.Errorf("unable to save attachment: %w", err)
	}

	_, err = io.Copy(f, a.Content)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("unable to save attachment: %w", err)
	}

	logger.Debug("attachment saved", "path", path, "content_type", a.ContentType)
	return path, nil
}

// createUnique creates a new file named name in dir. When that name is taken,
// by an earlier message or an earlier run, a counter is added before the
// extension until an unused name is found.
func createUnique(dir, name string) (*os.File, string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for i := 0; ; i++ {
		path := filepath.Join(dir, name)
		if i > 0 {
			path = filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, i, ext))
		}

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		return f, path, err
	}
}

// headerView turns the header into plain values that encode well.
func headerView(h *header.Map) map[string][]any {
	view := make(map[string][]any, h.Len())
	for _, k := range h.Keys() {
		for _, v := range h.Values(k) {
			if pv, isParam := v.(*param.Value); isParam {
				v = pv.String()
			}
			view[k] = append(view[k], v)
		}
	}
	return view
}

// writeReport prints the report in the configured format.
func writeReport(w io.Writer, r *Report) error {
	if config.Output.Format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
