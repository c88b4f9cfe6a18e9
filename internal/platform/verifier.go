// Package platform checks bot tokens against the Bot API.
package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m3rciful/subbot/core/logger"
	"github.com/m3rciful/subbot/internal/identity"
)

// DefaultAPIURL is the public Bot API endpoint.
const DefaultAPIURL = "https://api.telegram.org"

const maxBody = 1 << 20

// Result is the outcome of a token check: Valid or Invalid.
type Result interface {
	isResult()
}

// Valid means the platform accepted the token.
type Valid struct {
	Profile identity.BotProfile
}

// Invalid means the platform answered and rejected the token.
type Invalid struct {
	Code        int
	Description string
}

func (Valid) isResult()   {}
func (Invalid) isResult() {}

// CallError reports that no usable answer was received: network failure,
// timeout, 5xx or an unreadable body.
type CallError struct {
	Op  string
	Err error
}

func (e *CallError) Error() string { return fmt.Sprintf("platform %s: %v", e.Op, e.Err) }

// Unwrap returns the transport error.
func (e *CallError) Unwrap() error { return e.Err }

// Code classifies the error for handler summaries.
func (e *CallError) Code() string { return "EXTERNAL_CALL" }

// Doer is the part of *http.Client the verifier uses.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Verifier calls getMe for candidate tokens.
type Verifier struct {
	apiURL  string
	client  Doer
	timeout time.Duration
}

// NewVerifier builds a verifier. An empty apiURL selects DefaultAPIURL, a nil
// client selects http.DefaultClient, a non-positive timeout disables the
// per-call deadline.
func NewVerifier(apiURL string, client Doer, timeout time.Duration) *Verifier {
	apiURL = strings.TrimRight(strings.TrimSpace(apiURL), "/")
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Verifier{apiURL: apiURL, client: client, timeout: timeout}
}

type getMeResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Result      struct {
		ID                      int64  `json:"id"`
		IsBot                   bool   `json:"is_bot"`
		FirstName               string `json:"first_name"`
		Username                string `json:"username"`
		CanJoinGroups           bool   `json:"can_join_groups"`
		CanReadAllGroupMessages bool   `json:"can_read_all_group_messages"`
		SupportsInlineQueries   bool   `json:"supports_inline_queries"`
		CanConnectToBusiness    bool   `json:"can_connect_to_business"`
		HasMainWebApp           bool   `json:"has_main_web_app"`
	} `json:"result"`
}

// Verify asks the platform who token belongs to. A nil error always comes
// with a Valid or Invalid result.
func (v *Verifier) Verify(ctx context.Context, token string) (Result, error) {
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " /?#\n\t") {
		return Invalid{Description: "malformed token"}, nil
	}
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := v.getMe(ctx, token)
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.Duration("duration", logger.Took(start)),
	}
	switch r := res.(type) {
	case Valid:
		attrs = append(attrs, slog.String("outcome", "valid"), slog.Int64("bot_id", r.Profile.ID))
	case Invalid:
		attrs = append(attrs, slog.String("outcome", "invalid"), slog.Int("error_code", r.Code))
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", err.Error()))
		logger.Warn(ctx, logger.CompPlatform, "platform.get_me", attrs...)
		return nil, err
	}
	logger.Info(ctx, logger.CompPlatform, "platform.get_me", attrs...)
	return res, nil
}

func (v *Verifier) getMe(ctx context.Context, token string) (Result, error) {
	endpoint := v.apiURL + "/bot" + url.PathEscape(token) + "/getMe"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &CallError{Op: "build request", Err: redact(err, token)}
	}
	resp, err := v.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
			err = ctxErr
		}
		return nil, &CallError{Op: "getMe", Err: redact(err, token)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return nil, &CallError{Op: "getMe", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &CallError{Op: "read getMe", Err: redact(err, token)}
	}
	var payload getMeResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &CallError{Op: "decode getMe", Err: fmt.Errorf("status %d: %w", resp.StatusCode, err)}
	}
	if !payload.OK {
		code := payload.ErrorCode
		if code == 0 {
			code = resp.StatusCode
		}
		// flood control says nothing about the token
		if code == http.StatusTooManyRequests || resp.StatusCode == http.StatusTooManyRequests {
			return nil, &CallError{Op: "getMe", Err: fmt.Errorf("status %d: %s", code, payload.Description)}
		}
		return Invalid{Code: code, Description: payload.Description}, nil
	}
	r := payload.Result
	return Valid{Profile: identity.BotProfile{
		ID:                      r.ID,
		IsBot:                   r.IsBot,
		FirstName:               r.FirstName,
		Username:                r.Username,
		CanJoinGroups:           r.CanJoinGroups,
		CanReadAllGroupMessages: r.CanReadAllGroupMessages,
		SupportsInlineQueries:   r.SupportsInlineQueries,
		CanConnectToBusiness:    r.CanConnectToBusiness,
		HasMainWebApp:           r.HasMainWebApp,
	}}, nil
}

// redact keeps the token out of error texts that embed the request URL.
func redact(err error, token string) error {
	msg := err.Error()
	if !strings.Contains(msg, token) {
		return err
	}
	return errors.New(strings.ReplaceAll(msg, token, "<token>"))
}
