package main

import (
	"github.com/spf13/cobra"

	sindri "github.com/sindri-labs/sindri-go"
)

type deployConfig struct {
	tags   []string
	meta   map[string]string
	noWait bool
}

func newDeployCmd(opts *globalOptions) *cobra.Command {
	cfg := &deployConfig{}

	cmd := &cobra.Command{
		Use:   "deploy <path>",
		Short: "Upload a circuit and compile it",
		Long:  `Upload a circuit directory (or a prepared .tar.gz/.zip archive) to the proving service and wait for compilation to finish.`,
		Example: `  # Deploy a circuit directory and wait for compilation
  sindri deploy ./circuits/multiplier2

  # Submit without waiting, tag the deployment
  sindri deploy ./circuits/multiplier2 --no-wait --tag staging`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			circuitID, err := client.CreateCircuit(cmd.Context(), args[0], sindri.CreateCircuitOptions{
				Tags:   cfg.tags,
				Meta:   cfg.meta,
				NoWait: cfg.noWait,
			})
			if err != nil {
				return err
			}
			cmd.Println(circuitID)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&cfg.tags, "tag", "t", nil, "Tags to assign (repeatable, defaults to latest)")
	cmd.Flags().StringToStringVar(&cfg.meta, "meta", nil, "Metadata key=value pairs to attach")
	cmd.Flags().BoolVar(&cfg.noWait, "no-wait", false, "Submit and return without polling for completion")

	return cmd
}
