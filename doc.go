// Package sindri is a Go SDK for the Sindri zero-knowledge proving API.
//
// The client uploads circuit packages, requests proofs for compiled
// circuits, and polls compilation and proving jobs until they finish:
//
//	client, err := sindri.NewClient(sindri.Config{APIKey: os.Getenv("SINDRI_API_KEY")})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	circuitID, err := client.CreateCircuit(ctx, "./circuits/multiplier2", sindri.CreateCircuitOptions{})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	proofID, err := client.ProveCircuit(ctx, circuitID, proofInput, sindri.ProveOptions{})
//
// All failures are typed: local input problems surface as *ValidationError
// before any network traffic, transport failures as *NetworkError, and
// non-2xx responses as *APIError (404s as *NotFoundError, which also
// matches *APIError through errors.As).
package sindri
