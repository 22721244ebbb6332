package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/google/uuid"

	sindri "github.com/sindri-labs/sindri-go"
)

// JobDelays adds artificial latency before compile and prove jobs start,
// so polling behaviour can be exercised against the emulator.
type JobDelays struct {
	Compile time.Duration
	Prove   time.Duration
}

// circuitRecord is a stored circuit plus the emulator-internal builtin the
// upload was mapped onto.
type circuitRecord struct {
	info    sindri.CircuitInfo
	builtin string
}

// Registry is the emulator's in-memory store of circuits and proofs.
// Compile and prove jobs run on their own goroutines and drive the status
// transitions Queued -> In Progress -> Ready/Failed.
type Registry struct {
	mu       sync.RWMutex
	circuits map[string]*circuitRecord
	proofs   map[string]*sindri.ProofInfo

	logger *slog.Logger
	delays JobDelays
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger, delays JobDelays) *Registry {
	return &Registry{
		circuits: make(map[string]*circuitRecord),
		proofs:   make(map[string]*sindri.ProofInfo),
		logger:   logger,
		delays:   delays,
	}
}

// Manifest is the sindri.json file expected inside a circuit upload.
type Manifest struct {
	Name        string `json:"name"`
	CircuitType string `json:"circuit_type"`

	// Circuit names the builtin the emulator should stand the upload in
	// for. Defaults to DefaultBuiltin.
	Circuit string `json:"circuit,omitempty"`
}

// CreateCircuit registers an uploaded circuit and starts its compile job.
func (r *Registry) CreateCircuit(m Manifest, tags []string, meta map[string]string) sindri.CircuitInfo {
	if len(tags) == 0 {
		tags = []string{"latest"}
	}
	builtin := m.Circuit
	if builtin == "" {
		builtin = DefaultBuiltin
	}

	record := &circuitRecord{
		info: sindri.CircuitInfo{
			CircuitID:   uuid.NewString(),
			ProjectName: m.Name,
			CircuitType: m.CircuitType,
			Status:      sindri.StatusQueued,
			Tags:        tags,
			DateCreated: time.Now().UTC(),
			Meta:        meta,
		},
		builtin: builtin,
	}

	r.mu.Lock()
	r.circuits[record.info.CircuitID] = record
	r.mu.Unlock()

	go r.runCompile(record.info.CircuitID)
	return record.info
}

func (r *Registry) runCompile(circuitID string) {
	if r.delays.Compile > 0 {
		time.Sleep(r.delays.Compile)
	}
	r.setCircuitStatus(circuitID, sindri.StatusInProgress, "")

	start := time.Now()

	r.mu.RLock()
	record, ok := r.circuits[circuitID]
	r.mu.RUnlock()
	if !ok {
		return // deleted while queued
	}

	if record.info.CircuitType != CircuitTypeGnark {
		r.setCircuitStatus(circuitID, sindri.StatusFailed,
			fmt.Sprintf("unsupported circuit type %q", record.info.CircuitType))
		return
	}
	builtin, ok := Builtin(record.builtin)
	if !ok {
		r.setCircuitStatus(circuitID, sindri.StatusFailed,
			fmt.Sprintf("unknown circuit %q", record.builtin))
		return
	}

	setup, err := builtin.Setup()
	if err != nil {
		r.logger.Error("compile job failed", "circuit_id", circuitID, "error", err)
		r.setCircuitStatus(circuitID, sindri.StatusFailed, err.Error())
		return
	}

	vkBlob, err := verificationKeyBlob(setup)
	if err != nil {
		r.setCircuitStatus(circuitID, sindri.StatusFailed, err.Error())
		return
	}

	r.mu.Lock()
	if record, ok := r.circuits[circuitID]; ok {
		record.info.Status = sindri.StatusReady
		record.info.ComputeTime = time.Since(start).String()
		record.info.VerificationKey = vkBlob
	}
	r.mu.Unlock()

	r.logger.Info("circuit compiled", "circuit_id", circuitID, "builtin", record.builtin,
		"constraints", setup.CS.GetNbConstraints(), "took", time.Since(start))
}

func (r *Registry) setCircuitStatus(circuitID string, status sindri.Status, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record, ok := r.circuits[circuitID]; ok {
		record.info.Status = status
		record.info.Error = errMsg
	}
}

// Circuit returns a copy of the circuit info.
func (r *Registry) Circuit(circuitID string) (sindri.CircuitInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.circuits[circuitID]
	if !ok {
		return sindri.CircuitInfo{}, false
	}
	return record.info, true
}

// Circuits returns copies of all circuit infos, newest first.
func (r *Registry) Circuits() []sindri.CircuitInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]sindri.CircuitInfo, 0, len(r.circuits))
	for _, record := range r.circuits {
		infos = append(infos, record.info)
	}
	sortByDate(infos, func(ci sindri.CircuitInfo) time.Time { return ci.DateCreated })
	return infos
}

// DeleteCircuit removes a circuit and every proof attached to it.
func (r *Registry) DeleteCircuit(circuitID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.circuits[circuitID]; !ok {
		return false
	}
	delete(r.circuits, circuitID)
	for proofID, proof := range r.proofs {
		if proof.CircuitID == circuitID {
			delete(r.proofs, proofID)
		}
	}
	return true
}

// SmartContractVerifier renders the Solidity verifier for a Ready circuit.
func (r *Registry) SmartContractVerifier(circuitID string) (string, error) {
	r.mu.RLock()
	record, ok := r.circuits[circuitID]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("circuit %s not found", circuitID)
	}
	if record.info.Status != sindri.StatusReady {
		return "", fmt.Errorf("circuit %s is not Ready", circuitID)
	}
	builtin, ok := Builtin(record.builtin)
	if !ok {
		return "", fmt.Errorf("unknown circuit %q", record.builtin)
	}
	setup, err := builtin.Setup()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := setup.VK.ExportSolidity(&buf); err != nil {
		return "", fmt.Errorf("exporting verifier: %w", err)
	}
	return buf.String(), nil
}

// CreateProof registers a proving job for an existing circuit. The second
// return value is false when the circuit is unknown.
func (r *Registry) CreateProof(circuitID, proofInput string, performVerify bool, meta map[string]string) (sindri.ProofInfo, bool) {
	r.mu.Lock()
	record, ok := r.circuits[circuitID]
	if !ok {
		r.mu.Unlock()
		return sindri.ProofInfo{}, false
	}
	info := sindri.ProofInfo{
		ProofID:     uuid.NewString(),
		CircuitID:   circuitID,
		ProjectName: record.info.ProjectName,
		CircuitType: record.info.CircuitType,
		Status:      sindri.StatusQueued,
		DateCreated: time.Now().UTC(),
		Meta:        meta,
	}
	r.proofs[info.ProofID] = &info
	r.mu.Unlock()

	go r.runProve(info.ProofID, record.builtin, proofInput, performVerify)
	return info, true
}

func (r *Registry) runProve(proofID, builtinName, proofInput string, performVerify bool) {
	if r.delays.Prove > 0 {
		time.Sleep(r.delays.Prove)
	}
	r.setProofStatus(proofID, sindri.StatusInProgress, "")

	start := time.Now()
	blobs, err := r.prove(proofID, builtinName, proofInput, performVerify)
	if err != nil {
		r.logger.Error("prove job failed", "proof_id", proofID, "error", err)
		r.setProofStatus(proofID, sindri.StatusFailed, err.Error())
		return
	}

	r.mu.Lock()
	if proof, ok := r.proofs[proofID]; ok {
		proof.Status = sindri.StatusReady
		proof.ComputeTime = time.Since(start).String()
		proof.Proof = blobs.proof
		proof.Public = blobs.public
		proof.VerificationKey = blobs.verificationKey
	}
	r.mu.Unlock()

	r.logger.Info("proof generated", "proof_id", proofID, "took", time.Since(start))
}

type proofBlobs struct {
	proof           json.RawMessage
	public          json.RawMessage
	verificationKey json.RawMessage
}

func (r *Registry) prove(proofID, builtinName, proofInput string, performVerify bool) (*proofBlobs, error) {
	r.mu.RLock()
	proof, ok := r.proofs[proofID]
	var circuitReady bool
	if ok {
		if record, found := r.circuits[proof.CircuitID]; found {
			circuitReady = record.info.Status == sindri.StatusReady
		}
	}
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("proof %s disappeared", proofID)
	}
	if !circuitReady {
		return nil, fmt.Errorf("circuit is not Ready")
	}

	builtin, found := Builtin(builtinName)
	if !found {
		return nil, fmt.Errorf("unknown circuit %q", builtinName)
	}
	setup, err := builtin.Setup()
	if err != nil {
		return nil, err
	}

	assignment, err := builtin.Parse([]byte(proofInput))
	if err != nil {
		return nil, err
	}
	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("witness creation failed: %w", err)
	}

	gproof, err := groth16.Prove(setup.CS, setup.PK, w)
	if err != nil {
		return nil, fmt.Errorf("proof creation failed: %w", err)
	}

	public, err := w.Public()
	if err != nil {
		return nil, fmt.Errorf("extracting public witness: %w", err)
	}
	if performVerify {
		if err := groth16.Verify(gproof, setup.VK, public); err != nil {
			return nil, fmt.Errorf("proof verification failed: %w", err)
		}
	}

	var proofBuf, publicBuf bytes.Buffer
	if _, err := gproof.WriteTo(&proofBuf); err != nil {
		return nil, fmt.Errorf("serializing proof: %w", err)
	}
	if _, err := public.WriteTo(&publicBuf); err != nil {
		return nil, fmt.Errorf("serializing public witness: %w", err)
	}
	vkBlob, err := verificationKeyBlob(setup)
	if err != nil {
		return nil, err
	}

	return &proofBlobs{
		proof:           blob("proof", proofBuf.Bytes()),
		public:          blob("public", publicBuf.Bytes()),
		verificationKey: vkBlob,
	}, nil
}

func (r *Registry) setProofStatus(proofID string, status sindri.Status, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if proof, ok := r.proofs[proofID]; ok {
		proof.Status = status
		proof.Error = errMsg
	}
}

// Proof returns a copy of the proof info.
func (r *Registry) Proof(proofID string) (sindri.ProofInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	proof, ok := r.proofs[proofID]
	if !ok {
		return sindri.ProofInfo{}, false
	}
	return *proof, true
}

// ProofsForCircuit returns copies of a circuit's proofs, newest first.
func (r *Registry) ProofsForCircuit(circuitID string) []sindri.ProofInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]sindri.ProofInfo, 0)
	for _, proof := range r.proofs {
		if proof.CircuitID == circuitID {
			infos = append(infos, *proof)
		}
	}
	sortByDate(infos, func(pi sindri.ProofInfo) time.Time { return pi.DateCreated })
	return infos
}

// DeleteProof removes a proof.
func (r *Registry) DeleteProof(proofID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.proofs[proofID]; !ok {
		return false
	}
	delete(r.proofs, proofID)
	return true
}

func verificationKeyBlob(setup *CircuitSetup) (json.RawMessage, error) {
	var buf bytes.Buffer
	if _, err := setup.VK.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("serializing verification key: %w", err)
	}
	return blob("verification_key", buf.Bytes()), nil
}

// blob wraps raw bytes as a {"<field>": "<base64>"} JSON envelope.
func blob(field string, data []byte) json.RawMessage {
	out, _ := json.Marshal(map[string]string{field: base64.StdEncoding.EncodeToString(data)})
	return out
}

// sortByDate orders items newest first.
func sortByDate[T any](items []T, date func(T) time.Time) {
	sort.Slice(items, func(i, j int) bool {
		return date(items[i]).After(date(items[j]))
	})
}
