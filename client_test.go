package sindri_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sindri "github.com/sindri-labs/sindri-go"
)

// newTestClient points a client with fast polling at handler.
func newTestClient(t *testing.T, handler http.Handler) *sindri.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := sindri.NewClient(sindri.Config{
		APIKey:       "test-key",
		BaseURL:      srv.URL,
		Timeout:      5 * time.Second,
		PollInterval: 5 * time.Millisecond,
	})
	require.NoError(t, err)
	return client
}

// circuitDir writes a minimal circuit upload directory.
func circuitDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	manifest := `{"name": "multiplier2", "circuit_type": "gnark"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sindri.json"), []byte(manifest), 0o644))
	return dir
}

func TestCreateCircuitReturnsID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/circuit/create", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, header, err := r.FormFile("files")
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(header.Filename, ".tar.gz"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"circuit_id": "abc123"}`))
	})

	client := newTestClient(t, mux)
	circuitID, err := client.CreateCircuit(context.Background(), circuitDir(t), sindri.CreateCircuitOptions{NoWait: true})
	require.NoError(t, err)
	assert.Equal(t, "abc123", circuitID)
}

func TestCreateCircuitWaitsForCompilation(t *testing.T) {
	var polls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/circuit/create", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"circuit_id": "abc123"}`))
	})
	mux.HandleFunc("GET /api/v1/circuit/abc123/status", func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) < 3 {
			w.Write([]byte(`{"status": "In Progress", "finished_processing": false}`))
			return
		}
		w.Write([]byte(`{"status": "Ready", "finished_processing": true}`))
	})
	mux.HandleFunc("GET /api/v1/circuit/abc123/detail", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("include_verification_key"))
		w.Write([]byte(`{"circuit_id": "abc123", "status": "Ready"}`))
	})

	client := newTestClient(t, mux)
	circuitID, err := client.CreateCircuit(context.Background(), circuitDir(t), sindri.CreateCircuitOptions{})
	require.NoError(t, err)
	assert.Equal(t, "abc123", circuitID)
	assert.GreaterOrEqual(t, polls.Load(), int32(3))
}

func TestCreateCircuitCompilationFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/circuit/create", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"circuit_id": "abc123"}`))
	})
	mux.HandleFunc("GET /api/v1/circuit/abc123/status", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "Failed", "finished_processing": true}`))
	})
	mux.HandleFunc("GET /api/v1/circuit/abc123/detail", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"circuit_id": "abc123", "status": "Failed", "error": "syntax error"}`))
	})

	client := newTestClient(t, mux)
	_, err := client.CreateCircuit(context.Background(), circuitDir(t), sindri.CreateCircuitOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "syntax error")
}

func TestCreateCircuitMissingPath(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request should be made for a missing upload path")
	}))

	_, err := client.CreateCircuit(context.Background(), filepath.Join(t.TempDir(), "nope"), sindri.CreateCircuitOptions{})
	var ve *sindri.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestProveCircuitUnknownCircuit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/circuit/nonexistent/prove", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "circuit 'nonexistent' not found"}`))
	})

	client := newTestClient(t, mux)
	_, err := client.ProveCircuit(context.Background(), "nonexistent", `{"X": 3}`, sindri.ProveOptions{})
	require.True(t, sindri.IsNotFound(err))

	apiErr, ok := sindri.IsAPIError(err)
	require.True(t, ok, "NotFoundError must also match as *APIError")
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "nonexistent")
}

func TestProveCircuitWaitsForProof(t *testing.T) {
	var polls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/circuit/abc123/prove", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, `{"X": 3, "Y": 35}`, r.FormValue("proof_input"))
		assert.Equal(t, "true", r.FormValue("perform_verify"))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"proof_id": "proof-1"}`))
	})
	mux.HandleFunc("GET /api/v1/proof/proof-1/status", func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) < 2 {
			w.Write([]byte(`{"status": "Queued", "finished_processing": false}`))
			return
		}
		w.Write([]byte(`{"status": "Ready", "finished_processing": true}`))
	})
	mux.HandleFunc("GET /api/v1/proof/proof-1/detail", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"proof_id": "proof-1", "circuit_id": "abc123", "status": "Ready"}`))
	})

	client := newTestClient(t, mux)
	proofID, err := client.ProveCircuit(context.Background(), "abc123", `{"X": 3, "Y": 35}`, sindri.ProveOptions{PerformVerify: true})
	require.NoError(t, err)
	assert.Equal(t, "proof-1", proofID)
}

func TestServerErrorIsAPIError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "boom"}`))
	}))

	_, err := client.GetCircuit(context.Background(), "abc123", sindri.CircuitDetailOptions{})
	apiErr, ok := sindri.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "boom", apiErr.Message)
	assert.False(t, sindri.IsNotFound(err))
}

func TestGetProofStatusNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "proof 'nonexistent' not found"}`))
	}))

	_, _, err := client.GetProofStatus(context.Background(), "nonexistent")
	var nf *sindri.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, http.StatusNotFound, nf.StatusCode)
}

func TestTimeoutIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	t.Cleanup(srv.Close)

	client, err := sindri.NewClient(sindri.Config{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		Timeout:    20 * time.Millisecond,
		MaxRetries: 1,
	})
	require.NoError(t, err)

	_, err = client.TeamDetails(context.Background())
	var ne *sindri.NetworkError
	require.ErrorAs(t, err, &ne, "timeouts must surface as NetworkError, got %T", err)
}

func TestConnectionRefusedIsNetworkError(t *testing.T) {
	client, err := sindri.NewClient(sindri.Config{
		APIKey:     "test-key",
		BaseURL:    "http://127.0.0.1:1",
		MaxRetries: 1,
	})
	require.NoError(t, err)

	_, err = client.TeamDetails(context.Background())
	var ne *sindri.NetworkError
	require.ErrorAs(t, err, &ne)
}

func TestRetryOnServiceUnavailable(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"slug": "team", "name": "Team"}`))
	}))

	info, err := client.TeamDetails(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "team", info.Slug)
	assert.Equal(t, int32(2), calls.Load())
}

func TestBadRequestIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "bad input"}`))
	}))

	_, err := client.TeamDetails(context.Background())
	_, ok := sindri.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAuthHeaders(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.True(t, strings.HasPrefix(r.Header.Get("Sindri-Client"), "sindri-go-sdk/"))
		w.Write([]byte(`{"slug": "team"}`))
	}))

	_, err := client.TeamDetails(context.Background())
	require.NoError(t, err)
}

func TestCircuitIDRoundTrip(t *testing.T) {
	const circuitID = "7449bdc6-5c8a-4a23-a356-e77c4e6b618c"

	var sawStatus, sawProve bool
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/circuit/create", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"circuit_id": "` + circuitID + `"}`))
	})
	mux.HandleFunc("GET /api/v1/circuit/"+circuitID+"/status", func(w http.ResponseWriter, r *http.Request) {
		sawStatus = true
		w.Write([]byte(`{"status": "Ready", "finished_processing": true}`))
	})
	mux.HandleFunc("POST /api/v1/circuit/"+circuitID+"/prove", func(w http.ResponseWriter, r *http.Request) {
		sawProve = true
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"proof_id": "proof-1"}`))
	})

	client := newTestClient(t, mux)
	ctx := context.Background()

	id, err := client.CreateCircuit(ctx, circuitDir(t), sindri.CreateCircuitOptions{NoWait: true})
	require.NoError(t, err)
	require.Equal(t, circuitID, id)

	_, _, err = client.GetCircuitStatus(ctx, id)
	require.NoError(t, err)

	_, err = client.ProveCircuit(ctx, id, `{"X": 3}`, sindri.ProveOptions{NoWait: true})
	require.NoError(t, err)

	assert.True(t, sawStatus, "status path must use the ID unmodified")
	assert.True(t, sawProve, "prove path must use the ID unmodified")
}

func TestAwaitProofContextCancellation(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "Queued", "finished_processing": false}`))
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.AwaitProof(ctx, "proof-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "expected deadline error, got %v", err)
}

func TestEmptyStatusIsAPIError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"finished_processing": false}`))
	}))

	_, _, err := client.GetCircuitStatus(context.Background(), "abc123")
	_, ok := sindri.IsAPIError(err)
	require.True(t, ok)
}

func TestUndecodableBodyIsAPIError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))

	_, err := client.TeamDetails(context.Background())
	apiErr, ok := sindri.IsAPIError(err)
	require.True(t, ok)
	assert.Contains(t, apiErr.Message, "unable to decode response as JSON")
}
