// Package telex delivers outbound notifications to a Telex incoming
// webhook.
package telex

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-retryablehttp"
)

type Message struct {
	ChannelID string `json:"channel_id"`
	Text      string `json:"text"`
}

type Client struct {
	webhookURL string
	httpCl     *retryablehttp.Client
}

func NewClient(webhookURL string) *Client {
	cl := retryablehttp.NewClient()
	cl.RetryMax = 2
	cl.RetryWaitMin = 250 * time.Millisecond
	cl.RetryWaitMax = 2 * time.Second
	cl.HTTPClient.Timeout = 5 * time.Second
	cl.Logger = nil
	return &Client{
		webhookURL: webhookURL,
		httpCl:     cl,
	}
}

// Send posts text to the named channel. Best effort: it reports success but
// never surfaces an error to the caller. Without a webhook URL configured
// the client logs the would-be payload and pretends delivery succeeded.
func (c *Client) Send(ctx context.Context, channelID, text string) bool {
	if c.webhookURL == "" {
		log.Info("TELEX_WEBHOOK_URL not set - would send", "channelID", channelID, "text", text)
		return true
	}

	body, err := json.Marshal(Message{ChannelID: channelID, Text: text})
	if err != nil {
		log.Error("failed to marshal telex payload", "channelID", channelID, "err", err)
		return false
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		log.Error("failed to build telex request", "err", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpCl.Do(req)
	if err != nil {
		log.Error("failed to send to telex", "channelID", channelID, "err", err)
		return false
	}
	defer resp.Body.Close() //nolint
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error("telex webhook rejected message", "channelID", channelID, "status", resp.StatusCode)
		return false
	}
	return true
}
