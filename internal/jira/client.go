// Package jira is the outbound client for the tracker's create-issue API.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"legalbridge.app/bridge/internal/adf"
	"legalbridge.app/bridge/internal/model"
)

// Creator is the one operation the pipeline needs from the tracker.
type Creator interface {
	CreateTicket(ctx context.Context, content *model.TicketContent) (*model.TicketResult, error)
}

type Config struct {
	// BaseURL overrides the derived https://<domain> endpoint. Used by tests.
	BaseURL     string
	Domain      string
	Email       string
	APIToken    string
	MaxAttempts int
	Timeout     time.Duration
}

type client struct {
	http        *http.Client
	sleep       SleepFunc
	baseURL     string
	browseURL   string
	email       string
	apiToken    string
	maxAttempts int
	logger      *slog.Logger
}

// New builds a Jira Cloud client. sleep may be nil, in which case backoff
// delays use a real context-aware sleep.
func New(cfg Config, sleep SleepFunc, logger *slog.Logger) Creator {
	if logger == nil {
		logger = slog.Default()
	}
	if sleep == nil {
		sleep = Sleep
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://" + cfg.Domain
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &client{
		http:        &http.Client{Timeout: timeout},
		sleep:       sleep,
		baseURL:     baseURL,
		browseURL:   baseURL + "/browse/",
		email:       cfg.Email,
		apiToken:    cfg.APIToken,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

type createIssueRequest struct {
	Fields issueFields `json:"fields"`
}

type issueFields struct {
	Project     projectRef `json:"project"`
	Summary     string     `json:"summary"`
	Description *adf.Doc   `json:"description"`
	IssueType   typeRef    `json:"issuetype"`
}

type projectRef struct {
	Key string `json:"key"`
}

type typeRef struct {
	Name string `json:"name"`
}

type createIssueResponse struct {
	Key string `json:"key"`
}

// CreateTicket performs the authenticated create-issue call, retrying
// transient failures with exponential backoff and jitter. Permanent
// rejections (4xx other than 429) surface immediately.
func (c *client) CreateTicket(ctx context.Context, content *model.TicketContent) (*model.TicketResult, error) {
	body, err := json.Marshal(createIssueRequest{
		Fields: issueFields{
			Project:     projectRef{Key: content.ProjectKey},
			Summary:     content.Summary,
			Description: content.Description,
			IssueType:   typeRef{Name: content.IssueType},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling issue payload: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		result, err := c.attempt(ctx, body, attempt)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsTransient(err) {
			c.logger.ErrorContext(ctx, "ticket creation rejected, not retrying",
				"attempt", attempt, "error", err)
			return nil, err
		}
		if attempt == c.maxAttempts {
			break
		}

		delay := backoff(attempt)
		c.logger.WarnContext(ctx, "transient ticket creation failure, will retry",
			"attempt", attempt, "max_attempts", c.maxAttempts, "delay", delay, "error", err)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("waiting for retry: %w", err)
		}
	}

	c.logger.ErrorContext(ctx, "ticket creation failed, retries exhausted",
		"attempts", c.maxAttempts, "error", lastErr)
	return nil, fmt.Errorf("creating ticket after %d attempts: %w", c.maxAttempts, lastErr)
}

func (c *client) attempt(ctx context.Context, body []byte, attempt int) (*model.TicketResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rest/api/3/issue", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.SetBasicAuth(c.email, c.apiToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &DispatchError{Transient: true, Message: fmt.Sprintf("network error: %v", err)}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	c.logger.InfoContext(ctx, "create issue attempt",
		"attempt", attempt, "status_code", resp.StatusCode)

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		var created createIssueResponse
		if err := json.Unmarshal(respBody, &created); err != nil || created.Key == "" {
			return nil, &DispatchError{
				StatusCode: resp.StatusCode,
				Message:    "ticket created but no key returned",
			}
		}
		return &model.TicketResult{Key: created.Key, URL: c.browseURL + created.Key}, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &DispatchError{
			StatusCode: resp.StatusCode,
			Transient:  true,
			Message:    truncate(string(respBody), 512),
		}
	default:
		return nil, &DispatchError{
			StatusCode: resp.StatusCode,
			Message:    truncate(string(respBody), 512),
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
