// Package zulip posts messages to a Zulip stream through the REST API.
package zulip

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/korjavin/mensaplan/pkg/delivery"
	"github.com/korjavin/mensaplan/pkg/logger"
)

const backend = "zulip"

// Client sends stream messages as a Zulip bot user
type Client struct {
	site       string
	email      string
	apiKey     string
	httpClient *http.Client
	logger     *logger.Logger
}

// New creates a Zulip client for the server at site
func New(site, email, apiKey string, timeout time.Duration) *Client {
	return &Client{
		site:       strings.TrimRight(site, "/"),
		email:      email,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.New("zulip"),
	}
}

type response struct {
	Result string `json:"result"`
	Msg    string `json:"msg"`
	ID     int64  `json:"id"`
}

// SendMessage posts body to the stream channel under the topic subject
func (c *Client) SendMessage(ctx context.Context, channel, subject, body string) error {
	form := url.Values{
		"type":    {"stream"},
		"to":      {channel},
		"topic":   {subject},
		"content": {body},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.site+"/api/v1/messages", strings.NewReader(form.Encode()))
	if err != nil {
		return delivery.Failed(backend, channel, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.email, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return delivery.Failed(backend, channel, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return delivery.Failed(backend, channel, errors.Wrap(err, "read response"))
	}

	var r response
	if err := json.Unmarshal(data, &r); err != nil {
		return delivery.Failed(backend, channel, fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(data))))
	}
	if resp.StatusCode != http.StatusOK || r.Result != "success" {
		return delivery.Failed(backend, channel, fmt.Errorf("%s: %s", resp.Status, r.Msg))
	}

	c.logger.Info("Posted message %d to %s > %s", r.ID, channel, subject)
	return nil
}
