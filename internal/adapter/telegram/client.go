// Package telegram delivers digests through the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/outage-alert-service/internal/domain"
)

// maxRetryAfter caps how long a rate-limited send waits before its single retry.
const maxRetryAfter = 30 * time.Second

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// APIError is a request the Bot API rejected.
type APIError struct {
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram api error %d: %s", e.Code, e.Description)
}

// Client sends HTML messages with sendMessage.
type Client struct {
	client *resty.Client
	token  string
	logger *slog.Logger
}

var _ domain.Transport = (*Client)(nil)

// New creates a Client for the Bot API at baseURL.
func New(baseURL, token string, timeout time.Duration, logger *slog.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &Client{client: client, token: token, logger: logger}
}

// SendMessage posts text to the chat groupID. A 429 answer is retried once
// after the advertised delay.
func (c *Client) SendMessage(ctx context.Context, groupID, text string) error {
	req := sendMessageRequest{
		ChatID:                groupID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	}

	res, err := c.send(ctx, req)
	if err == nil || res.ErrorCode != http.StatusTooManyRequests || res.Parameters.RetryAfter <= 0 {
		return err
	}

	wait := min(time.Duration(res.Parameters.RetryAfter)*time.Second, maxRetryAfter)
	c.logger.Warn("telegram rate limited", "group_id", groupID, "retry_after", wait)
	if !retry.SleepWithContext(ctx, wait) {
		return ctx.Err()
	}
	_, err = c.send(ctx, req)
	return err
}

func (c *Client) send(ctx context.Context, req sendMessageRequest) (apiResponse, error) {
	var res apiResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&res).
		SetError(&res).
		Post("/bot" + c.token + "/sendMessage")
	if err != nil {
		// url.Error carries the request URL, which contains the token.
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return res, fmt.Errorf("telegram sendMessage: %w", err)
	}
	if !res.OK {
		code := res.ErrorCode
		if code == 0 {
			code = resp.StatusCode()
		}
		return res, &APIError{Code: code, Description: res.Description}
	}
	return res, nil
}

// DryRun logs messages instead of sending them.
type DryRun struct {
	logger *slog.Logger
}

var _ domain.Transport = (*DryRun)(nil)

// NewDryRun creates a DryRun transport.
func NewDryRun(logger *slog.Logger) *DryRun {
	return &DryRun{logger: logger}
}

// SendMessage logs the message and reports success.
func (d *DryRun) SendMessage(_ context.Context, groupID, text string) error {
	d.logger.Info("dry run: message not sent", "group_id", groupID, "text", text)
	return nil
}
