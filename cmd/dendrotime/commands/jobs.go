package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/dendrotime/pkg/jobclient"
	"github.com/Sumatoshi-tech/dendrotime/pkg/observability"
)

// ErrUnknownDataset is returned when start names a dataset the server does not offer.
var ErrUnknownDataset = errors.New("unknown dataset")

const backendUsage = "clustering server url (overrides backend.url)"

// NewDatasetsCommand lists the datasets offered by the server.
func NewDatasetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "List datasets offered by the clustering server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, observability.ModeCLI)
			if err != nil {
				return err
			}
			defer a.close()

			client, err := a.jobClient()
			if err != nil {
				return err
			}

			datasets, err := client.Datasets(cmd.Context())
			if err != nil {
				return err
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.SetStyle(table.StyleLight)
			tw.AppendHeader(table.Row{"ID", "Name"})

			for _, ds := range datasets {
				tw.AppendRow(table.Row{ds.ID, ds.Name})
			}

			tw.Render()

			return nil
		},
	}

	cmd.Flags().String(flagBackend, "", backendUsage)

	return cmd
}

// NewStartCommand starts a clustering job on a dataset given by id or name.
func NewStartCommand() *cobra.Command {
	params := jobclient.DefaultParams()

	cmd := &cobra.Command{
		Use:   "start <dataset>",
		Short: "Start a clustering job",
		Long: `Start a clustering job on a dataset, given by id or by name, and print the job id.

Distances:  ` + fmt.Sprint(jobclient.Distances()) + `
Linkages:   ` + fmt.Sprint(jobclient.Linkages()) + `
Strategies: ` + fmt.Sprint(jobclient.Strategies()),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := params.Validate()
			if err != nil {
				return err
			}

			a, err := newApp(cmd, observability.ModeCLI)
			if err != nil {
				return err
			}
			defer a.close()

			client, err := a.jobClient()
			if err != nil {
				return err
			}

			datasets, err := client.Datasets(cmd.Context())
			if err != nil {
				return err
			}

			dataset, err := findDataset(datasets, args[0])
			if err != nil {
				return err
			}

			jobID, err := client.StartJob(cmd.Context(), dataset, params)
			if err != nil {
				return err
			}

			a.logger().Info("job started", "job", jobID, "dataset", dataset.Name)
			fmt.Fprintln(cmd.OutOrStdout(), jobID)

			return nil
		},
	}

	cmd.Flags().String(flagBackend, "", backendUsage)
	cmd.Flags().StringVar(&params.Distance, "distance", params.Distance, "distance measure")
	cmd.Flags().StringVar(&params.Linkage, "linkage", params.Linkage, "linkage function")
	cmd.Flags().StringVar(&params.Strategy, "strategy", params.Strategy, "processing strategy")

	return cmd
}

// NewCancelCommand cancels a running job.
func NewCancelCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel a running job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := parseJobID(args[0])
			if err != nil {
				return err
			}

			a, err := newApp(cmd, observability.ModeCLI)
			if err != nil {
				return err
			}
			defer a.close()

			client, err := a.jobClient()
			if err != nil {
				return err
			}

			msg, err := client.Cancel(cmd.Context(), jobID)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), msg)

			return nil
		},
	}

	cmd.Flags().String(flagBackend, "", backendUsage)

	return cmd
}

func findDataset(datasets []jobclient.Dataset, ref string) (jobclient.Dataset, error) {
	id, idErr := strconv.ParseInt(ref, 10, 64)

	for _, ds := range datasets {
		if (idErr == nil && ds.ID == id) || ds.Name == ref {
			return ds, nil
		}
	}

	return jobclient.Dataset{}, fmt.Errorf("%w: %q", ErrUnknownDataset, ref)
}
