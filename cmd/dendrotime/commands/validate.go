package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/dendrotime/pkg/progress"
)

// ErrValidationFailed is returned when at least one file is not a valid snapshot.
var ErrValidationFailed = errors.New("validation failed")

// NewValidateCommand checks snapshot files against the progress schema.
func NewValidateCommand() *cobra.Command {
	var printSchema bool

	cmd := &cobra.Command{
		Use:   "validate <snapshot.json>...",
		Short: "Check progress snapshot files against the schema",
		Args: func(cmd *cobra.Command, args []string) error {
			if printSchema {
				return nil
			}

			return cobra.MinimumNArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if printSchema {
				_, err := out.Write(progress.Schema())

				return err
			}

			var failed int

			for _, path := range args {
				data, err := os.ReadFile(path) //nolint:gosec // user-selected snapshot.
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}

				err = progress.Validate(data)
				if err != nil {
					failed++

					fmt.Fprintf(out, "%s: %v\n", path, err)

					continue
				}

				fmt.Fprintf(out, "%s: ok\n", path)
			}

			if failed > 0 {
				return fmt.Errorf("%w: %d of %d files", ErrValidationFailed, failed, len(args))
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&printSchema, "schema", false, "print the snapshot JSON schema and exit")

	return cmd
}
