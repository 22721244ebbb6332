package server_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sindri "github.com/sindri-labs/sindri-go"
	"github.com/sindri-labs/sindri-go/server"
	"github.com/sindri-labs/sindri-go/verify"
)

// startEmulator mounts the emulator on an httptest server and returns an
// SDK client pointed at it.
func startEmulator(t *testing.T) *sindri.Client {
	t.Helper()

	cfg := &server.Config{
		MaxRequestSize: 64 << 20,
		WriteTimeout:   2 * time.Minute,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(server.NewHandler(cfg, logger))
	t.Cleanup(srv.Close)

	client, err := sindri.NewClient(sindri.Config{
		APIKey:       "local",
		BaseURL:      srv.URL,
		Timeout:      2 * time.Minute,
		PollInterval: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	return client
}

func gnarkCircuitDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "cubic")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	manifest := `{"name": "cubic", "circuit_type": "gnark"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sindri.json"), []byte(manifest), 0o644))
	return dir
}

// Exercises the whole deploy -> prove -> fetch -> verify -> delete flow
// against the emulator, with real groth16 proving underneath.
func TestEndToEndProvingFlow(t *testing.T) {
	client := startEmulator(t)
	ctx := context.Background()

	circuitID, err := client.CreateCircuit(ctx, gnarkCircuitDir(t), sindri.CreateCircuitOptions{
		Tags: []string{"e2e"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, circuitID)

	status, finished, err := client.GetCircuitStatus(ctx, circuitID)
	require.NoError(t, err)
	assert.True(t, finished)
	assert.Equal(t, sindri.StatusReady, status)

	detail, err := client.GetCircuit(ctx, circuitID, sindri.CircuitDetailOptions{IncludeVerificationKey: true})
	require.NoError(t, err)
	assert.Equal(t, "cubic", detail.ProjectName)
	assert.Contains(t, detail.Tags, "e2e")
	assert.NotEmpty(t, detail.VerificationKey)

	proofID, err := client.ProveCircuit(ctx, circuitID, `{"X": 3, "Y": 35}`, sindri.ProveOptions{
		PerformVerify: true,
	})
	require.NoError(t, err)

	proof, err := client.GetProof(ctx, proofID, sindri.ProofDetailOptions{
		IncludeProof:           true,
		IncludePublic:          true,
		IncludeVerificationKey: true,
	})
	require.NoError(t, err)
	assert.Equal(t, circuitID, proof.CircuitID)
	require.Equal(t, sindri.StatusReady, proof.Status)

	// The returned proof verifies locally.
	require.NoError(t, verify.ProofDetail(proof))

	proofs, err := client.ListCircuitProofs(ctx, circuitID)
	require.NoError(t, err)
	require.Len(t, proofs, 1)
	assert.Equal(t, proofID, proofs[0].ProofID)
	assert.Empty(t, proofs[0].Proof, "list responses must not carry blobs")

	circuits, err := client.ListCircuits(ctx)
	require.NoError(t, err)
	require.Len(t, circuits, 1)

	code, err := client.GetSmartContractVerifier(ctx, circuitID)
	require.NoError(t, err)
	assert.Contains(t, code, "pragma solidity")

	require.NoError(t, client.DeleteProof(ctx, proofID))
	require.NoError(t, client.DeleteCircuit(ctx, circuitID))

	_, err = client.GetCircuit(ctx, circuitID, sindri.CircuitDetailOptions{})
	assert.True(t, sindri.IsNotFound(err))
}

func TestEmulatorRejectsBadProofInput(t *testing.T) {
	client := startEmulator(t)
	ctx := context.Background()

	circuitID, err := client.CreateCircuit(ctx, gnarkCircuitDir(t), sindri.CreateCircuitOptions{})
	require.NoError(t, err)

	// x=2 contradicts the public output, so the prove job fails and the
	// waiting client reports the failure.
	_, err = client.ProveCircuit(ctx, circuitID, `{"X": 2, "Y": 35}`, sindri.ProveOptions{})
	require.Error(t, err)
}

func TestEmulatorUnknownCircuit(t *testing.T) {
	client := startEmulator(t)

	_, err := client.ProveCircuit(context.Background(), "nonexistent", `{"X": 3, "Y": 35}`, sindri.ProveOptions{})
	require.True(t, sindri.IsNotFound(err), "got %v", err)
}

func TestEmulatorRequiresAPIKey(t *testing.T) {
	cfg := &server.Config{MaxRequestSize: 1 << 20, WriteTimeout: time.Minute}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(server.NewHandler(cfg, logger))
	t.Cleanup(srv.Close)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/team/me", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthIsUnauthenticated(t *testing.T) {
	cfg := &server.Config{MaxRequestSize: 1 << 20, WriteTimeout: time.Minute}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(server.NewHandler(cfg, logger))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
