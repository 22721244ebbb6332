// Package verify checks proofs returned by the API locally, without
// trusting the service's own verification. It understands the gnark
// circuit type: the proof, verification key, and public witness come back
// as base64 blobs of the gnark wire formats and are verified on BN254.
package verify

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"

	sindri "github.com/sindri-labs/sindri-go"
)

// CircuitTypeGnark is the circuit type whose proof blobs this package can
// verify.
const CircuitTypeGnark = "gnark"

// gnark proof detail blobs. Each envelope wraps a single base64 field so
// the JSON stays self-describing.
type proofEnvelope struct {
	Proof string `json:"proof"`
}

type publicEnvelope struct {
	Public string `json:"public"`
}

type verificationKeyEnvelope struct {
	VerificationKey string `json:"verification_key"`
}

// ProofDetail verifies a proof detail payload locally. The detail must have
// been fetched with IncludeProof, IncludePublic, and IncludeVerificationKey
// set, and must belong to a gnark circuit.
func ProofDetail(info *sindri.ProofInfo) error {
	if info == nil {
		return errors.New("nil proof detail")
	}
	if info.CircuitType != CircuitTypeGnark {
		return fmt.Errorf("cannot verify circuit type %q locally, only %q", info.CircuitType, CircuitTypeGnark)
	}
	if len(info.Proof) == 0 || len(info.Public) == 0 || len(info.VerificationKey) == 0 {
		return errors.New("proof detail is missing proof, public, or verification_key (fetch with the Include* options set)")
	}

	proofBytes, err := decodeBlob(info.Proof, &proofEnvelope{})
	if err != nil {
		return fmt.Errorf("decoding proof: %w", err)
	}
	publicBytes, err := decodeBlob(info.Public, &publicEnvelope{})
	if err != nil {
		return fmt.Errorf("decoding public witness: %w", err)
	}
	vkBytes, err := decodeBlob(info.VerificationKey, &verificationKeyEnvelope{})
	if err != nil {
		return fmt.Errorf("decoding verification key: %w", err)
	}

	return Blobs(proofBytes, vkBytes, publicBytes)
}

// Blobs verifies raw gnark wire-format blobs: a groth16 proof, its
// verification key, and the public witness, all on BN254.
func Blobs(proofBytes, vkBytes, publicBytes []byte) error {
	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(proofBytes)); err != nil {
		return fmt.Errorf("reading proof: %w", err)
	}

	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(bytes.NewReader(vkBytes)); err != nil {
		return fmt.Errorf("reading verification key: %w", err)
	}

	public, err := witness.New(ecc.BN254.ScalarField())
	if err != nil {
		return fmt.Errorf("allocating witness: %w", err)
	}
	if _, err := public.ReadFrom(bytes.NewReader(publicBytes)); err != nil {
		return fmt.Errorf("reading public witness: %w", err)
	}

	if err := groth16.Verify(proof, vk, public); err != nil {
		return fmt.Errorf("proof verification failed: %w", err)
	}
	return nil
}

// decodeBlob unmarshals one of the single-field envelopes above and base64
// decodes its value.
func decodeBlob(raw json.RawMessage, envelope any) ([]byte, error) {
	if err := json.Unmarshal(raw, envelope); err != nil {
		return nil, err
	}
	var encoded string
	switch e := envelope.(type) {
	case *proofEnvelope:
		encoded = e.Proof
	case *publicEnvelope:
		encoded = e.Public
	case *verificationKeyEnvelope:
		encoded = e.VerificationKey
	}
	if encoded == "" {
		return nil, errors.New("empty blob")
	}
	return base64.StdEncoding.DecodeString(encoded)
}
