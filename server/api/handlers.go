package api

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	sindri "github.com/sindri-labs/sindri-go"
)

// ManifestFilename is where the emulator looks for circuit metadata inside
// an upload.
const ManifestFilename = "sindri.json"

const maxUploadBytes = 64 << 20

// Server handles HTTP requests for the emulated proving API.
type Server struct {
	registry *Registry
}

// NewServer creates a new HTTP server around a registry.
func NewServer(registry *Registry) *Server {
	return &Server{
		registry: registry,
	}
}

// RequireBearerToken rejects requests without an Authorization bearer
// token. The emulator accepts any non-empty key.
func RequireBearerToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			respondError(w, http.StatusUnauthorized, "invalid_api_key", "invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ==== Request/Response Types ====

// statusResponse is the circuit/proof status envelope.
type statusResponse struct {
	Status             sindri.Status `json:"status"`
	FinishedProcessing bool          `json:"finished_processing"`
}

// verifierResponse carries a Solidity verifier contract.
type verifierResponse struct {
	ContractCode string `json:"contract_code"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      string    `json:"code,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ==== Handlers ====

// HandleHealth handles health check requests
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// HandleCreateCircuit accepts a multipart circuit upload and starts its
// compile job. Responds 201 with the circuit info, status Queued.
func (s *Server) HandleCreateCircuit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request",
			fmt.Sprintf("failed to parse multipart form: %v", err))
		return
	}

	file, header, err := r.FormFile("files")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing_files",
			"circuit upload requires a 'files' archive")
		return
	}
	defer file.Close()

	archive, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request",
			"failed to read circuit archive")
		return
	}

	manifest, err := readManifest(header.Filename, archive)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_upload", err.Error())
		return
	}

	meta, err := parseMeta(r.FormValue("meta"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_meta", err.Error())
		return
	}

	info := s.registry.CreateCircuit(*manifest, r.Form["tags"], meta)
	respondJSON(w, http.StatusCreated, info)
}

// HandleListCircuits lists every circuit. Verification keys are never
// included in list responses.
func (s *Server) HandleListCircuits(w http.ResponseWriter, r *http.Request) {
	infos := s.registry.Circuits()
	for i := range infos {
		infos[i].VerificationKey = nil
	}
	respondJSON(w, http.StatusOK, infos)
}

// HandleCircuitDetail returns the detail for one circuit.
func (s *Server) HandleCircuitDetail(w http.ResponseWriter, r *http.Request) {
	circuitID := chi.URLParam(r, "circuitID")
	info, ok := s.registry.Circuit(circuitID)
	if !ok {
		respondError(w, http.StatusNotFound, "circuit_not_found",
			fmt.Sprintf("circuit '%s' not found", circuitID))
		return
	}
	if r.URL.Query().Get("include_verification_key") != "true" {
		info.VerificationKey = nil
	}
	respondJSON(w, http.StatusOK, info)
}

// HandleCircuitStatus returns the compile status for one circuit.
func (s *Server) HandleCircuitStatus(w http.ResponseWriter, r *http.Request) {
	circuitID := chi.URLParam(r, "circuitID")
	info, ok := s.registry.Circuit(circuitID)
	if !ok {
		respondError(w, http.StatusNotFound, "circuit_not_found",
			fmt.Sprintf("circuit '%s' not found", circuitID))
		return
	}
	respondJSON(w, http.StatusOK, statusResponse{
		Status:             info.Status,
		FinishedProcessing: info.Status.Terminal(),
	})
}

// HandleCircuitProofs lists the proofs of one circuit.
func (s *Server) HandleCircuitProofs(w http.ResponseWriter, r *http.Request) {
	circuitID := chi.URLParam(r, "circuitID")
	if _, ok := s.registry.Circuit(circuitID); !ok {
		respondError(w, http.StatusNotFound, "circuit_not_found",
			fmt.Sprintf("circuit '%s' not found", circuitID))
		return
	}
	proofs := s.registry.ProofsForCircuit(circuitID)
	for i := range proofs {
		stripProofBlobs(&proofs[i])
	}
	respondJSON(w, http.StatusOK, proofs)
}

// HandleSmartContractVerifier renders the Solidity verifier for a circuit.
func (s *Server) HandleSmartContractVerifier(w http.ResponseWriter, r *http.Request) {
	circuitID := chi.URLParam(r, "circuitID")
	if _, ok := s.registry.Circuit(circuitID); !ok {
		respondError(w, http.StatusNotFound, "circuit_not_found",
			fmt.Sprintf("circuit '%s' not found", circuitID))
		return
	}
	code, err := s.registry.SmartContractVerifier(circuitID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "verifier_unavailable", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, verifierResponse{ContractCode: code})
}

// HandleProve starts a proving job for a circuit. Responds 201 with the
// proof info, status Queued.
func (s *Server) HandleProve(w http.ResponseWriter, r *http.Request) {
	circuitID := chi.URLParam(r, "circuitID")

	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request",
			fmt.Sprintf("failed to parse form: %v", err))
		return
	}
	proofInput := r.FormValue("proof_input")
	if proofInput == "" {
		respondError(w, http.StatusBadRequest, "missing_input",
			"proof_input is required")
		return
	}
	performVerify := r.FormValue("perform_verify") == "true"

	meta, err := parseMeta(r.FormValue("meta"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_meta", err.Error())
		return
	}

	info, ok := s.registry.CreateProof(circuitID, proofInput, performVerify, meta)
	if !ok {
		respondError(w, http.StatusNotFound, "circuit_not_found",
			fmt.Sprintf("circuit '%s' not found", circuitID))
		return
	}
	respondJSON(w, http.StatusCreated, info)
}

// HandleProofDetail returns the detail for one proof, with the blob fields
// filtered by the include_* query parameters.
func (s *Server) HandleProofDetail(w http.ResponseWriter, r *http.Request) {
	proofID := chi.URLParam(r, "proofID")
	info, ok := s.registry.Proof(proofID)
	if !ok {
		respondError(w, http.StatusNotFound, "proof_not_found",
			fmt.Sprintf("proof '%s' not found", proofID))
		return
	}

	q := r.URL.Query()
	if q.Get("include_proof") != "true" {
		info.Proof = nil
	}
	if q.Get("include_public") != "true" {
		info.Public = nil
	}
	if q.Get("include_verification_key") != "true" {
		info.VerificationKey = nil
	}
	if q.Get("include_smart_contract_calldata") != "true" {
		info.SmartContractCalldata = nil
	}
	respondJSON(w, http.StatusOK, info)
}

// HandleProofStatus returns the proving status for one proof.
func (s *Server) HandleProofStatus(w http.ResponseWriter, r *http.Request) {
	proofID := chi.URLParam(r, "proofID")
	info, ok := s.registry.Proof(proofID)
	if !ok {
		respondError(w, http.StatusNotFound, "proof_not_found",
			fmt.Sprintf("proof '%s' not found", proofID))
		return
	}
	respondJSON(w, http.StatusOK, statusResponse{
		Status:             info.Status,
		FinishedProcessing: info.Status.Terminal(),
	})
}

// HandleDeleteCircuit deletes a circuit and its proofs.
func (s *Server) HandleDeleteCircuit(w http.ResponseWriter, r *http.Request) {
	circuitID := chi.URLParam(r, "circuitID")
	if !s.registry.DeleteCircuit(circuitID) {
		respondError(w, http.StatusNotFound, "circuit_not_found",
			fmt.Sprintf("circuit '%s' not found", circuitID))
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"circuit_id": circuitID})
}

// HandleDeleteProof deletes a proof.
func (s *Server) HandleDeleteProof(w http.ResponseWriter, r *http.Request) {
	proofID := chi.URLParam(r, "proofID")
	if !s.registry.DeleteProof(proofID) {
		respondError(w, http.StatusNotFound, "proof_not_found",
			fmt.Sprintf("proof '%s' not found", proofID))
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"proof_id": proofID})
}

// HandleTeamMe describes the emulated team.
func (s *Server) HandleTeamMe(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, sindri.TeamInfo{
		Slug:        "local",
		Name:        "Local Development",
		Description: "in-memory proving API emulator",
	})
}

// ==== Helper Functions ====

func stripProofBlobs(info *sindri.ProofInfo) {
	info.Proof = nil
	info.Public = nil
	info.VerificationKey = nil
	info.SmartContractCalldata = nil
}

func parseMeta(raw string) (map[string]string, error) {
	if raw == "" {
		return nil, nil
	}
	var meta map[string]string
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("meta must be a JSON object of strings: %v", err)
	}
	return meta, nil
}

// readManifest digs the sindri.json out of an uploaded archive. Both
// gzipped tarballs and zip files are accepted, matching what the SDK sends.
func readManifest(filename string, archive []byte) (*Manifest, error) {
	var (
		raw []byte
		err error
	)
	if strings.HasSuffix(strings.ToLower(filename), ".zip") {
		raw, err = manifestFromZip(archive)
	} else {
		raw, err = manifestFromTarGz(archive)
	}
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("invalid %s: %v", ManifestFilename, err)
	}
	if manifest.Name == "" {
		return nil, fmt.Errorf("%s is missing the project name", ManifestFilename)
	}
	if manifest.CircuitType == "" {
		return nil, fmt.Errorf("%s is missing the circuit type", ManifestFilename)
	}
	return &manifest, nil
}

func manifestFromTarGz(archive []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(archive))
	if err != nil {
		return nil, fmt.Errorf("upload is not a gzipped tarball: %v", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading upload: %v", err)
		}
		if path.Base(hdr.Name) == ManifestFilename {
			return io.ReadAll(io.LimitReader(tr, 1<<20))
		}
	}
	return nil, fmt.Errorf("upload does not contain %s", ManifestFilename)
}

func manifestFromZip(archive []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("upload is not a zip archive: %v", err)
	}
	for _, f := range zr.File {
		if path.Base(f.Name) == ManifestFilename {
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("reading upload: %v", err)
			}
			defer rc.Close()
			return io.ReadAll(io.LimitReader(rc, 1<<20))
		}
	}
	return nil, fmt.Errorf("upload does not contain %s", ManifestFilename)
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:     message,
		Code:      code,
		Timestamp: time.Now(),
	})
}
