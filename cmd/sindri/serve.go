package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/sindri-labs/sindri-go/server"
)

func newServeCmd() *cobra.Command {
	cfg := &server.Config{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local emulation of the proving API",
		Long:  `Start an in-memory emulation of the hosted proving API. Any non-empty API key is accepted; gnark uploads are compiled and proven for real against the built-in circuits.`,
		Example: `  # Start the emulator on the default port
  sindri serve

  # Point the SDK or CLI at it
  SINDRI_API_KEY=local SINDRI_API_URL=http://localhost:8080 sindri whoami

  # Slow jobs down to exercise polling
  sindri serve --compile-delay 2s --prove-delay 2s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return server.Run(cfg)
		},
	}

	// Server flags
	cmd.Flags().StringVar(&cfg.Host, "host", "localhost", "Host to bind to")
	cmd.Flags().IntVarP(&cfg.Port, "port", "p", 8080, "Port to listen on")

	// Job flags
	cmd.Flags().DurationVar(&cfg.CompileDelay, "compile-delay", 0, "Artificial delay before compile jobs start")
	cmd.Flags().DurationVar(&cfg.ProveDelay, "prove-delay", 0, "Artificial delay before prove jobs start")

	// Performance flags
	cmd.Flags().Int64Var(&cfg.MaxRequestSize, "max-request-size", 64*1024*1024, "Maximum request body size in bytes")
	cmd.Flags().DurationVar(&cfg.ReadTimeout, "read-timeout", 15*time.Second, "HTTP read timeout")
	cmd.Flags().DurationVar(&cfg.WriteTimeout, "write-timeout", 120*time.Second, "HTTP write timeout")
	cmd.Flags().DurationVar(&cfg.IdleTimeout, "idle-timeout", 120*time.Second, "HTTP idle timeout")
	cmd.Flags().DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", 30*time.Second, "Graceful shutdown timeout")

	// Security flags
	cmd.Flags().BoolVar(&cfg.EnableCORS, "enable-cors", true, "Enable CORS middleware")
	cmd.Flags().StringSliceVar(&cfg.CorsOrigins, "cors-origins", []string{"*"}, "Allowed CORS origins")

	// Observability flags
	cmd.Flags().StringVar(&cfg.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&cfg.LogFormat, "log-format", "text", "Log format (text, json)")

	return cmd
}
