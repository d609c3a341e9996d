package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/dendrotime/pkg/observability"
	"github.com/Sumatoshi-tech/dendrotime/pkg/progress"
	"github.com/Sumatoshi-tech/dendrotime/pkg/recording"
	"github.com/Sumatoshi-tech/dendrotime/pkg/terminal"
	"github.com/Sumatoshi-tech/dendrotime/pkg/view"
)

// NewWatchCommand follows a job in the terminal.
func NewWatchCommand() *cobra.Command {
	var showTree bool

	cmd := &cobra.Command{
		Use:   "watch <job-id>",
		Short: "Follow a job in the terminal",
		Long: `Poll a job and print a status line per snapshot. When the job finishes the
phase list and the convergence table are printed, and with --tree the final
dendrogram as text.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := parseJobID(args[0])
			if err != nil {
				return err
			}

			a, err := newApp(cmd, observability.ModeWatch)
			if err != nil {
				return err
			}
			defer a.close()

			return runWatch(cmd.Context(), a, jobID, cmd.OutOrStdout(), showTree)
		},
	}

	cmd.Flags().String(flagBackend, "", backendUsage)
	cmd.Flags().BoolVar(&showTree, "tree", false, "print the final dendrogram as text")

	return cmd
}

func runWatch(ctx context.Context, a *app, jobID int64, out io.Writer, showTree bool) error {
	client, err := a.jobClient()
	if err != nil {
		return err
	}

	rec, err := a.recorder(jobID)
	if err != nil {
		return err
	}

	deriver := a.deriver()
	term := terminal.NewConfig()
	ctx = observability.ContextWithJob(ctx, jobID)

	var last view.View

	pollErr := a.poller(client).Run(ctx, jobID, func(ctx context.Context, snap *progress.Snapshot) error {
		recordErr := record(rec, snap)
		if recordErr != nil {
			return recordErr
		}

		last = deriver.Derive(ctx, jobID, snap)
		fmt.Fprintln(out, term.StatusLine(last))

		return nil
	})

	closeErr := closeRecorder(rec)

	if last.Finished() {
		printSummary(out, term, last, showTree)
	}

	if pollErr != nil {
		return pollErr
	}

	return closeErr
}

func printSummary(out io.Writer, term terminal.Config, v view.View, showTree bool) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, term.PhaseList(v.Phases))

	if len(v.Series) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, terminal.RenderSeriesTable(v.Series))
	}

	if showTree && v.Tree != nil {
		fmt.Fprintln(out)
		fmt.Fprint(out, terminal.RenderTree(v.Tree))
	}
}

func record(rec *recording.Recorder, snap *progress.Snapshot) error {
	if rec == nil {
		return nil
	}

	return rec.Record(snap)
}

func closeRecorder(rec *recording.Recorder) error {
	if rec == nil {
		return nil
	}

	return rec.Close()
}
