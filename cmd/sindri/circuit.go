package main

import (
	"github.com/spf13/cobra"

	sindri "github.com/sindri-labs/sindri-go"
)

func newCircuitCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "circuit",
		Short: "Inspect and manage deployed circuits",
	}

	var includeVK bool
	detailCmd := &cobra.Command{
		Use:   "detail <circuit-id>",
		Short: "Show the detail for a circuit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			info, err := client.GetCircuit(cmd.Context(), args[0], sindri.CircuitDetailOptions{
				IncludeVerificationKey: includeVK,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, info)
		},
	}
	detailCmd.Flags().BoolVar(&includeVK, "include-verification-key", false, "Include the verification key in the output")

	statusCmd := &cobra.Command{
		Use:   "status <circuit-id>",
		Short: "Show the compilation status for a circuit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			status, finished, err := client.GetCircuitStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{
				"status":              status,
				"finished_processing": finished,
			})
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all circuits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			infos, err := client.ListCircuits(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, infos)
		},
	}

	proofsCmd := &cobra.Command{
		Use:   "proofs <circuit-id>",
		Short: "List the proofs of a circuit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			infos, err := client.ListCircuitProofs(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, infos)
		},
	}

	verifierCmd := &cobra.Command{
		Use:   "verifier <circuit-id>",
		Short: "Print the Solidity verifier contract for a circuit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			code, err := client.GetSmartContractVerifier(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Println(code)
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <circuit-id>",
		Short: "Delete a circuit and its proofs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			return client.DeleteCircuit(cmd.Context(), args[0])
		},
	}

	cmd.AddCommand(detailCmd, statusCmd, listCmd, proofsCmd, verifierCmd, deleteCmd)
	return cmd
}
