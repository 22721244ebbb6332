package sindri

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// ProveOptions tune proof creation.
type ProveOptions struct {
	// PerformVerify asks the service to verify the proof internally as
	// part of creation.
	PerformVerify bool

	// ProverImplementation selects a non-default prover backend.
	ProverImplementation string

	// Meta is an arbitrary mapping of metadata keys to string values.
	Meta map[string]string

	// NoWait submits the proof request and returns immediately instead of
	// polling until proving finishes.
	NoWait bool
}

// ProveCircuit submits proofInput (JSON, or TOML for Noir circuits) for an
// existing circuit and returns the proof ID assigned by the service. A
// circuit ID unknown to the service yields a *NotFoundError. Unless
// opts.NoWait is set it polls until proving finishes and fails if the proof
// ends up Failed.
func (c *Client) ProveCircuit(ctx context.Context, circuitID, proofInput string, opts ProveOptions) (string, error) {
	if circuitID == "" {
		return "", &ValidationError{Field: "circuitID", Reason: "circuit ID is required"}
	}
	if proofInput == "" {
		return "", &ValidationError{Field: "proofInput", Reason: "proof input is required"}
	}

	form := url.Values{
		"proof_input":    {proofInput},
		"perform_verify": {strconv.FormatBool(opts.PerformVerify)},
	}
	if opts.ProverImplementation != "" {
		form.Set("prover_implementation", opts.ProverImplementation)
	}
	if opts.Meta != nil {
		meta, err := json.Marshal(opts.Meta)
		if err != nil {
			return "", &ValidationError{Field: "meta", Reason: fmt.Sprintf("encoding meta: %v", err)}
		}
		form.Set("meta", string(meta))
	}

	path := "circuit/" + circuitID + "/prove"
	var created struct {
		ProofID string `json:"proof_id"`
	}
	err := c.do(ctx, http.MethodPost, path, nil, "application/x-www-form-urlencoded", []byte(form.Encode()), http.StatusCreated, &created)
	if err != nil {
		return "", err
	}
	if created.ProofID == "" {
		return "", apiError(http.MethodPost, path, http.StatusCreated, "response is missing proof_id")
	}

	if opts.NoWait {
		return created.ProofID, nil
	}

	if _, err := c.AwaitProof(ctx, created.ProofID); err != nil {
		return "", err
	}
	detail, err := c.GetProof(ctx, created.ProofID, ProofDetailOptions{
		IncludeProof:                 true,
		IncludePublic:                true,
		IncludeSmartContractCalldata: true,
		IncludeVerificationKey:       true,
	})
	if err != nil {
		return "", err
	}
	if detail.Status == StatusFailed {
		return "", fmt.Errorf("proving circuit %s failed: %s", circuitID, detail.Error)
	}
	return created.ProofID, nil
}

// ProofDetailOptions tune the proof detail response.
type ProofDetailOptions struct {
	IncludeProof                 bool
	IncludePublic                bool
	IncludeSmartContractCalldata bool
	IncludeVerificationKey       bool
}

// GetProof fetches the detail for an existing proof.
func (c *Client) GetProof(ctx context.Context, proofID string, opts ProofDetailOptions) (*ProofInfo, error) {
	if proofID == "" {
		return nil, &ValidationError{Field: "proofID", Reason: "proof ID is required"}
	}
	query := url.Values{
		"include_proof":                   {strconv.FormatBool(opts.IncludeProof)},
		"include_public":                  {strconv.FormatBool(opts.IncludePublic)},
		"include_smart_contract_calldata": {strconv.FormatBool(opts.IncludeSmartContractCalldata)},
		"include_verification_key":        {strconv.FormatBool(opts.IncludeVerificationKey)},
	}
	var info ProofInfo
	err := c.do(ctx, http.MethodGet, "proof/"+proofID+"/detail", query, "", nil, http.StatusOK, &info)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// GetProofStatus fetches the current status of a proving job and whether it
// has finished processing.
func (c *Client) GetProofStatus(ctx context.Context, proofID string) (Status, bool, error) {
	if proofID == "" {
		return "", false, &ValidationError{Field: "proofID", Reason: "proof ID is required"}
	}
	var resp statusResponse
	err := c.do(ctx, http.MethodGet, "proof/"+proofID+"/status", nil, "", nil, http.StatusOK, &resp)
	if err != nil {
		return "", false, err
	}
	if resp.Status == "" {
		return "", false, apiError(http.MethodGet, "proof/"+proofID+"/status", http.StatusOK, "response is missing status")
	}
	return resp.Status, resp.FinishedProcessing, nil
}

// DeleteProof marks the proof as deleted.
func (c *Client) DeleteProof(ctx context.Context, proofID string) error {
	if proofID == "" {
		return &ValidationError{Field: "proofID", Reason: "proof ID is required"}
	}
	return c.do(ctx, http.MethodDelete, "proof/"+proofID+"/delete", nil, "", nil, http.StatusOK, nil)
}
