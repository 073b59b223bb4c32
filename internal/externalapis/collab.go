package externalapis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/fabriq/collab/data/events"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const requestTimeout = time.Second * 5

// CollabAPI posts presence signals to the collaboration backend. Calls are
// best-effort; callers log and drop errors.
type CollabAPI struct {
	BaseURL   string
	Token     string
	SessionID string
	Client    *http.Client
}

func NewCollabAPI(baseURL, token, sessionID string) *CollabAPI {
	return &CollabAPI{
		BaseURL:   baseURL,
		Token:     token,
		SessionID: sessionID,
		Client:    http.DefaultClient,
	}
}

func (c *CollabAPI) SendEditing(ctx context.Context, p events.EditingPayload) error {
	return c.post(ctx, "/collaboration/editing", p)
}

func (c *CollabAPI) SendViewing(ctx context.Context, p events.ViewingPayload) error {
	return c.post(ctx, "/collaboration/viewing", p)
}

func (c *CollabAPI) post(ctx context.Context, route string, body interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+route, bytes.NewReader(b))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	if c.Token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.Token))
	}

	if c.SessionID != "" {
		req.Header.Set("X-Session-Id", c.SessionID)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)

		return fmt.Errorf("bad resp from collab backend: %d - %s", resp.StatusCode, msg)
	}

	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}
