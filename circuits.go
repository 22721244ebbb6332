package sindri

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
)

// CreateCircuitOptions tune circuit creation.
type CreateCircuitOptions struct {
	// Tags to assign to the circuit. The service defaults to ["latest"].
	Tags []string

	// Meta is an arbitrary mapping of metadata keys to string values, e.g.
	// an ID from an external system.
	Meta map[string]string

	// NoWait submits the circuit and returns immediately instead of
	// polling until compilation finishes.
	NoWait bool
}

// CreateCircuit uploads the circuit at uploadPath (a directory, or an
// existing .tar.gz/.zip archive) and returns the circuit ID assigned by the
// service. Unless opts.NoWait is set it polls until compilation finishes
// and fails if the circuit ends up Failed.
func (c *Client) CreateCircuit(ctx context.Context, uploadPath string, opts CreateCircuitOptions) (string, error) {
	filename, contents, err := packageCircuit(uploadPath)
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("files", filename)
	if err != nil {
		return "", &ValidationError{Field: "upload", Reason: fmt.Sprintf("building upload form: %v", err)}
	}
	if _, err := part.Write(contents); err != nil {
		return "", &ValidationError{Field: "upload", Reason: fmt.Sprintf("building upload form: %v", err)}
	}
	for _, tag := range opts.Tags {
		if err := mw.WriteField("tags", tag); err != nil {
			return "", &ValidationError{Field: "tags", Reason: fmt.Sprintf("building upload form: %v", err)}
		}
	}
	if opts.Meta != nil {
		meta, err := json.Marshal(opts.Meta)
		if err != nil {
			return "", &ValidationError{Field: "meta", Reason: fmt.Sprintf("encoding meta: %v", err)}
		}
		if err := mw.WriteField("meta", string(meta)); err != nil {
			return "", &ValidationError{Field: "meta", Reason: fmt.Sprintf("building upload form: %v", err)}
		}
	}
	if err := mw.Close(); err != nil {
		return "", &ValidationError{Field: "upload", Reason: fmt.Sprintf("building upload form: %v", err)}
	}

	var created struct {
		CircuitID string `json:"circuit_id"`
	}
	err = c.do(ctx, http.MethodPost, "circuit/create", nil, mw.FormDataContentType(), body.Bytes(), http.StatusCreated, &created)
	if err != nil {
		return "", err
	}
	if created.CircuitID == "" {
		return "", apiError(http.MethodPost, "circuit/create", http.StatusCreated, "response is missing circuit_id")
	}

	if opts.NoWait {
		return created.CircuitID, nil
	}

	if _, err := c.AwaitCircuit(ctx, created.CircuitID); err != nil {
		return "", err
	}
	detail, err := c.GetCircuit(ctx, created.CircuitID, CircuitDetailOptions{IncludeVerificationKey: true})
	if err != nil {
		return "", err
	}
	if detail.Status == StatusFailed {
		return "", fmt.Errorf("circuit %s compilation failed: %s", created.CircuitID, detail.Error)
	}
	return created.CircuitID, nil
}

// CircuitDetailOptions tune the circuit detail response.
type CircuitDetailOptions struct {
	IncludeVerificationKey bool
}

// GetCircuit fetches the detail for an existing circuit.
func (c *Client) GetCircuit(ctx context.Context, circuitID string, opts CircuitDetailOptions) (*CircuitInfo, error) {
	if circuitID == "" {
		return nil, &ValidationError{Field: "circuitID", Reason: "circuit ID is required"}
	}
	query := url.Values{
		"include_verification_key": {strconv.FormatBool(opts.IncludeVerificationKey)},
	}
	var info CircuitInfo
	err := c.do(ctx, http.MethodGet, "circuit/"+circuitID+"/detail", query, "", nil, http.StatusOK, &info)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// GetCircuitStatus fetches the current compilation status of a circuit and
// whether the job has finished processing.
func (c *Client) GetCircuitStatus(ctx context.Context, circuitID string) (Status, bool, error) {
	if circuitID == "" {
		return "", false, &ValidationError{Field: "circuitID", Reason: "circuit ID is required"}
	}
	var resp statusResponse
	err := c.do(ctx, http.MethodGet, "circuit/"+circuitID+"/status", nil, "", nil, http.StatusOK, &resp)
	if err != nil {
		return "", false, err
	}
	if resp.Status == "" {
		return "", false, apiError(http.MethodGet, "circuit/"+circuitID+"/status", http.StatusOK, "response is missing status")
	}
	return resp.Status, resp.FinishedProcessing, nil
}

// ListCircuits returns the infos for every circuit owned by the team.
func (c *Client) ListCircuits(ctx context.Context) ([]CircuitInfo, error) {
	var infos []CircuitInfo
	if err := c.do(ctx, http.MethodGet, "circuit/list", nil, "", nil, http.StatusOK, &infos); err != nil {
		return nil, err
	}
	return infos, nil
}

// ListCircuitProofs returns the proof infos for a circuit.
func (c *Client) ListCircuitProofs(ctx context.Context, circuitID string) ([]ProofInfo, error) {
	if circuitID == "" {
		return nil, &ValidationError{Field: "circuitID", Reason: "circuit ID is required"}
	}
	var infos []ProofInfo
	if err := c.do(ctx, http.MethodGet, "circuit/"+circuitID+"/proofs", nil, "", nil, http.StatusOK, &infos); err != nil {
		return nil, err
	}
	return infos, nil
}

// DeleteCircuit marks the circuit and all of its proofs as deleted.
func (c *Client) DeleteCircuit(ctx context.Context, circuitID string) error {
	if circuitID == "" {
		return &ValidationError{Field: "circuitID", Reason: "circuit ID is required"}
	}
	return c.do(ctx, http.MethodDelete, "circuit/"+circuitID+"/delete", nil, "", nil, http.StatusOK, nil)
}

// GetSmartContractVerifier fetches the Solidity verifier contract for a
// circuit. Not every circuit type supports this.
func (c *Client) GetSmartContractVerifier(ctx context.Context, circuitID string) (string, error) {
	if circuitID == "" {
		return "", &ValidationError{Field: "circuitID", Reason: "circuit ID is required"}
	}
	var resp verifierResponse
	err := c.do(ctx, http.MethodGet, "circuit/"+circuitID+"/smart_contract_verifier", nil, "", nil, http.StatusOK, &resp)
	if err != nil {
		return "", err
	}
	if resp.ContractCode == "" {
		return "", apiError(http.MethodGet, "circuit/"+circuitID+"/smart_contract_verifier", http.StatusOK, "response is missing contract_code")
	}
	return resp.ContractCode, nil
}
