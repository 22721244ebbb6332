package sindri

import (
	"context"
	"net/http"
)

// TeamDetails fetches the team or user bound to the configured API key.
func (c *Client) TeamDetails(ctx context.Context) (*TeamInfo, error) {
	var info TeamInfo
	if err := c.do(ctx, http.MethodGet, "team/me", nil, "", nil, http.StatusOK, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
