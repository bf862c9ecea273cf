package ai

import (
	"context"
	"encoding/json"
	"net/http"
)

// ValidateKey checks the credential against the model listing endpoint.
// Only a 200 proves the key; a 401 or any other failure counts as
// invalid.
func (c *Client) ValidateKey(ctx context.Context, apiKey string) bool {
	resp, err := c.transport.get(ctx, modelsPath, apiKey)
	if err != nil {
		c.log.Warn().Err(err).Msg("key validation request failed")
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		return false
	}
	return resp.StatusCode == http.StatusOK
}

// ListModels fetches the model identifiers available to the credential.
// Any failure yields an empty list.
func (c *Client) ListModels(ctx context.Context, apiKey string) []string {
	resp, err := c.transport.get(ctx, modelsPath, apiKey)
	if err != nil {
		c.log.Warn().Err(err).Msg("model listing request failed")
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var payload struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.log.Warn().Err(err).Msg("model listing decode failed")
		return nil
	}
	ids := make([]string, 0, len(payload.Data))
	for _, m := range payload.Data {
		ids = append(ids, m.ID)
	}
	return ids
}
