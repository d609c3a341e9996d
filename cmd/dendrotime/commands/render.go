package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/dendrotime/pkg/dendrogram"
	"github.com/Sumatoshi-tech/dendrotime/pkg/plotpage"
	"github.com/Sumatoshi-tech/dendrotime/pkg/progress"
	"github.com/Sumatoshi-tech/dendrotime/pkg/terminal"
	"github.com/Sumatoshi-tech/dendrotime/pkg/view"
)

// Render output formats.
const (
	FormatHTML = "html"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatText = "text"
)

const (
	renderFilePerm = 0o600
	yamlIndent     = 2
)

// ErrUnknownFormat is returned for an unsupported --format value.
var ErrUnknownFormat = errors.New("unknown output format")

type renderFlags struct {
	format        string
	output        string
	theme         string
	jobID         int64
	force         bool
	equalDistance bool
	timestamps    bool
}

// NewRenderCommand renders a progress snapshot file.
func NewRenderCommand() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "render <snapshot.json>",
		Short: "Render a progress snapshot file",
		Long: `Derive the view of a progress snapshot and write it as an HTML report, as
JSON or YAML, or as text (status, phases, convergence table and dendrogram).
Use "-" to read the snapshot from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			opts := viewOptions(cfg)
			opts.ForceDendrogram = flags.force

			if cmd.Flags().Changed("equal-distance") {
				opts.Layout.Mode = dendrogram.ModeFor(flags.equalDistance)
			}

			if cmd.Flags().Changed("timestamps") {
				opts.UseTimestamps = flags.timestamps
			}

			theme := cfg.Dashboard.Theme
			if flags.theme != "" {
				theme = flags.theme
			}

			snap, err := readSnapshot(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			v := view.Derive(flags.jobID, snap, opts)

			return writeOutput(cmd.OutOrStdout(), flags.output, func(w io.Writer) error {
				return renderView(w, v, flags.format, plotpage.ParseTheme(theme))
			})
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", FormatHTML, "output format: html, json, yaml or text")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&flags.theme, "theme", "", "report theme: dark or light (overrides dashboard.theme)")
	cmd.Flags().Int64Var(&flags.jobID, "job", 0, "job id shown in the report")
	cmd.Flags().BoolVar(&flags.force, "force", false, "lay out the dendrogram regardless of dashboard.max_leaves")
	cmd.Flags().BoolVar(&flags.equalDistance, "equal-distance", false, "place nodes by height instead of merge distance")
	cmd.Flags().BoolVar(&flags.timestamps, "timestamps", false, "index convergence by timestamps instead of steps")

	return cmd
}

func readSnapshot(stdin io.Reader, path string) (*progress.Snapshot, error) {
	if path == "-" {
		return progress.Decode(stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	return progress.Decode(f)
}

func writeOutput(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, renderFilePerm)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	writeErr := write(f)
	closeErr := f.Close()

	return errors.Join(writeErr, closeErr)
}

func renderView(w io.Writer, v view.View, format string, theme plotpage.Theme) error {
	switch format {
	case FormatHTML:
		return plotpage.Report(v, theme).Render(w)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(yamlIndent)

		err := enc.Encode(v)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}

		return enc.Close()
	case FormatText:
		return renderText(w, terminal.Config{Width: terminal.DetectWidth(), NoColor: true}, v)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func renderText(w io.Writer, term terminal.Config, v view.View) error {
	_, err := fmt.Fprintln(w, term.StatusLine(v))
	if err != nil {
		return err
	}

	printSummary(w, term, v, true)

	return nil
}
