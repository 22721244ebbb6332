package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	sindri "github.com/sindri-labs/sindri-go"
)

// globalOptions hold the connection flags shared by every API command.
type globalOptions struct {
	apiKey  string
	baseURL string
	timeout time.Duration
}

// client builds an SDK client from flags, falling back to SINDRI_API_KEY
// and SINDRI_API_URL.
func (g *globalOptions) client() (*sindri.Client, error) {
	return sindri.NewClient(sindri.Config{
		APIKey:  g.apiKey,
		BaseURL: g.baseURL,
		Timeout: g.timeout,
	})
}

// Init the cmd
func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "sindri",
		Short: "Sindri proving API client",
		Long:  `Deploy zero-knowledge circuits to the Sindri proving API, generate proofs, and inspect compilation and proving jobs.`,
	}

	rootCmd.PersistentFlags().StringVar(&opts.apiKey, "api-key", "", "API key (defaults to $"+sindri.EnvAPIKey+")")
	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "API base URL (defaults to $"+sindri.EnvBaseURL+", then "+sindri.DefaultBaseURL+")")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "per-request HTTP timeout")

	rootCmd.AddCommand(
		newDeployCmd(opts),
		newProveCmd(opts),
		newCircuitCmd(opts),
		newProofCmd(opts),
		newWhoamiCmd(opts),
		newServeCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// printJSON renders API payloads for the terminal.
func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("rendering response: %w", err)
	}
	cmd.Println(string(out))
	return nil
}
