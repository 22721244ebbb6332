package sindri

import (
	"context"
	"time"
)

// AwaitCircuit polls the circuit status at the configured PollInterval
// until the job reports finished_processing, returning the final status.
// Bound the wait with a context deadline; cancellation surfaces as a
// *NetworkError from the in-flight poll or ctx.Err from the ticker wait.
func (c *Client) AwaitCircuit(ctx context.Context, circuitID string) (Status, error) {
	return c.await(ctx, func() (Status, bool, error) {
		return c.GetCircuitStatus(ctx, circuitID)
	})
}

// AwaitProof polls the proof status at the configured PollInterval until
// the job reports finished_processing, returning the final status.
func (c *Client) AwaitProof(ctx context.Context, proofID string) (Status, error) {
	return c.await(ctx, func() (Status, bool, error) {
		return c.GetProofStatus(ctx, proofID)
	})
}

func (c *Client) await(ctx context.Context, poll func() (Status, bool, error)) (Status, error) {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		status, finished, err := poll()
		if err != nil {
			return "", err
		}
		if finished {
			return status, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}
