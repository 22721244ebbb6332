package main

import (
	"fmt"

	"github.com/spf13/cobra"

	sindri "github.com/sindri-labs/sindri-go"
	"github.com/sindri-labs/sindri-go/verify"
)

func newProofCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proof",
		Short: "Inspect and manage proofs",
	}

	var detail sindri.ProofDetailOptions
	detailCmd := &cobra.Command{
		Use:   "detail <proof-id>",
		Short: "Show the detail for a proof",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			info, err := client.GetProof(cmd.Context(), args[0], detail)
			if err != nil {
				return err
			}
			return printJSON(cmd, info)
		},
	}
	detailCmd.Flags().BoolVar(&detail.IncludeProof, "include-proof", true, "Include the proof blob")
	detailCmd.Flags().BoolVar(&detail.IncludePublic, "include-public", true, "Include the public inputs")
	detailCmd.Flags().BoolVar(&detail.IncludeVerificationKey, "include-verification-key", true, "Include the verification key")
	detailCmd.Flags().BoolVar(&detail.IncludeSmartContractCalldata, "include-smart-contract-calldata", false, "Include smart contract calldata")

	statusCmd := &cobra.Command{
		Use:   "status <proof-id>",
		Short: "Show the proving status for a proof",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			status, finished, err := client.GetProofStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{
				"status":              status,
				"finished_processing": finished,
			})
		},
	}

	verifyCmd := &cobra.Command{
		Use:   "verify <proof-id>",
		Short: "Fetch a proof and verify it locally (gnark circuits only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			info, err := client.GetProof(cmd.Context(), args[0], sindri.ProofDetailOptions{
				IncludeProof:           true,
				IncludePublic:          true,
				IncludeVerificationKey: true,
			})
			if err != nil {
				return err
			}
			if err := verify.ProofDetail(info); err != nil {
				return fmt.Errorf("proof %s: %w", args[0], err)
			}
			cmd.Println("ok")
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <proof-id>",
		Short: "Delete a proof",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			return client.DeleteProof(cmd.Context(), args[0])
		},
	}

	cmd.AddCommand(detailCmd, statusCmd, verifyCmd, deleteCmd)
	return cmd
}
