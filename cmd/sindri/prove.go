package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	sindri "github.com/sindri-labs/sindri-go"
	"github.com/sindri-labs/sindri-go/verify"
)

type proveConfig struct {
	inputFile     string
	performVerify bool
	verifyLocal   bool
	noWait        bool
	meta          map[string]string
}

func newProveCmd(opts *globalOptions) *cobra.Command {
	cfg := &proveConfig{}

	cmd := &cobra.Command{
		Use:   "prove <circuit-id>",
		Short: "Generate a proof for a deployed circuit",
		Long:  `Submit proof input for a compiled circuit and wait for the proof. Input is read from --input or stdin.`,
		Example: `  # Prove with input from a file
  sindri prove 11111111-2222-3333-4444-555555555555 --input input.json

  # Prove from stdin and verify the returned proof locally
  echo '{"X": 3, "Y": 35}' | sindri prove <circuit-id> --verify-local`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proofInput, err := readProofInput(cfg.inputFile)
			if err != nil {
				return err
			}

			client, err := opts.client()
			if err != nil {
				return err
			}
			circuitID := args[0]
			proofID, err := client.ProveCircuit(cmd.Context(), circuitID, proofInput, sindri.ProveOptions{
				PerformVerify: cfg.performVerify,
				Meta:          cfg.meta,
				NoWait:        cfg.noWait,
			})
			if err != nil {
				return err
			}

			if cfg.verifyLocal {
				if cfg.noWait {
					return fmt.Errorf("--verify-local cannot be combined with --no-wait")
				}
				detail, err := client.GetProof(cmd.Context(), proofID, sindri.ProofDetailOptions{
					IncludeProof:           true,
					IncludePublic:          true,
					IncludeVerificationKey: true,
				})
				if err != nil {
					return err
				}
				if err := verify.ProofDetail(detail); err != nil {
					return fmt.Errorf("local verification of proof %s: %w", proofID, err)
				}
				cmd.PrintErrln("local verification: ok")
			}

			cmd.Println(proofID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&cfg.inputFile, "input", "i", "", "Proof input file (defaults to stdin)")
	cmd.Flags().BoolVar(&cfg.performVerify, "perform-verify", false, "Ask the service to verify the proof during creation")
	cmd.Flags().BoolVar(&cfg.verifyLocal, "verify-local", false, "Verify the returned proof locally (gnark circuits only)")
	cmd.Flags().BoolVar(&cfg.noWait, "no-wait", false, "Submit and return without polling for completion")
	cmd.Flags().StringToStringVar(&cfg.meta, "meta", nil, "Metadata key=value pairs to attach")

	return cmd
}

func readProofInput(inputFile string) (string, error) {
	if inputFile == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading proof input from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(inputFile)
	if err != nil {
		return "", fmt.Errorf("reading proof input: %w", err)
	}
	return string(data), nil
}
