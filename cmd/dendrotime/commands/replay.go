package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/dendrotime/pkg/recording"
	"github.com/Sumatoshi-tech/dendrotime/pkg/terminal"
	"github.com/Sumatoshi-tech/dendrotime/pkg/view"
)

type replayFlags struct {
	delay    time.Duration
	diff     bool
	showTree bool
}

// NewReplayCommand re-derives the frames of a recording.
func NewReplayCommand() *cobra.Command {
	var flags replayFlags

	cmd := &cobra.Command{
		Use:   "replay <recording" + recording.Extension + ">",
		Short: "Replay a recorded job",
		Long: `Re-derive every frame of a recording and print its status line. With --diff
the text dendrogram of each frame is compared with the previous one and the
changed lines are printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			rd, err := recording.Open(args[0])
			if err != nil {
				return err
			}

			replayErr := replay(cmd.Context(), rd, view.NewDeriver(viewOptions(cfg)), cmd.OutOrStdout(), flags)

			return errors.Join(replayErr, rd.Close())
		},
	}

	cmd.Flags().BoolVar(&flags.diff, "diff", false, "print dendrogram changes between frames")
	cmd.Flags().BoolVar(&flags.showTree, "tree", false, "print the final dendrogram as text")
	cmd.Flags().DurationVar(&flags.delay, "delay", 0, "pause between frames")

	return cmd
}

func replay(ctx context.Context, rd *recording.Reader, deriver *view.Deriver, out io.Writer, flags replayFlags) error {
	term := terminal.NewConfig()

	var (
		last     view.View
		prevTree string
		frames   int
	)

	for {
		frame, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return err
		}

		last = deriver.Derive(ctx, frame.JobID, frame.Snapshot)
		frames++

		fmt.Fprintf(out, "#%d %s %s\n", frame.Seq, frame.RecordedAt.Format(time.TimeOnly), term.StatusLine(last))

		if flags.diff {
			tree := terminal.RenderTree(last.Tree)
			fmt.Fprint(out, term.DiffFrames(prevTree, tree))
			prevTree = tree
		}

		if flags.delay > 0 {
			err = sleep(ctx, flags.delay)
			if err != nil {
				return err
			}
		}
	}

	fmt.Fprintf(out, "%d frames\n", frames)

	if frames > 0 {
		printSummary(out, term, last, flags.showTree)
	}

	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
