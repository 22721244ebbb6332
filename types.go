package sindri

import (
	"encoding/json"
	"time"
)

// Status of a circuit compilation or proving job.
type Status string

const (
	StatusQueued     Status = "Queued"
	StatusInProgress Status = "In Progress"
	StatusReady      Status = "Ready"
	StatusFailed     Status = "Failed"
)

// Terminal reports whether the job has finished, successfully or not.
func (s Status) Terminal() bool {
	return s == StatusReady || s == StatusFailed
}

// CircuitInfo is the circuit detail payload.
type CircuitInfo struct {
	CircuitID   string   `json:"circuit_id"`
	ProjectName string   `json:"project_name"`
	CircuitType string   `json:"circuit_type"`
	Status      Status   `json:"status"`
	Tags        []string `json:"tags"`

	DateCreated time.Time `json:"date_created"`
	ComputeTime string    `json:"compute_time,omitempty"`
	Error       string    `json:"error,omitempty"`

	// Only populated when requested with IncludeVerificationKey.
	VerificationKey json.RawMessage `json:"verification_key,omitempty"`

	Meta map[string]string `json:"meta,omitempty"`
}

// ProofInfo is the proof detail payload.
type ProofInfo struct {
	ProofID     string `json:"proof_id"`
	CircuitID   string `json:"circuit_id"`
	ProjectName string `json:"project_name"`
	CircuitType string `json:"circuit_type"`
	Status      Status `json:"status"`

	DateCreated time.Time `json:"date_created"`
	ComputeTime string    `json:"compute_time,omitempty"`
	Error       string    `json:"error,omitempty"`

	// Optional blobs, populated according to the Include* options.
	Proof                 json.RawMessage `json:"proof,omitempty"`
	Public                json.RawMessage `json:"public,omitempty"`
	VerificationKey       json.RawMessage `json:"verification_key,omitempty"`
	SmartContractCalldata json.RawMessage `json:"smart_contract_calldata,omitempty"`

	Meta map[string]string `json:"meta,omitempty"`
}

// TeamInfo describes the team or user bound to the configured API key.
type TeamInfo struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

// statusResponse is the circuit/{id}/status and proof/{id}/status envelope.
type statusResponse struct {
	Status             Status `json:"status"`
	FinishedProcessing bool   `json:"finished_processing"`
}

// verifierResponse is the smart_contract_verifier envelope.
type verifierResponse struct {
	ContractCode string `json:"contract_code"`
}
