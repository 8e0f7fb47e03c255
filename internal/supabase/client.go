// Package supabase implements a small client for the hosted platform's
// PostgREST data API.
//
// WHY A HAND-ROLLED CLIENT?
// The platform's REST dialect is tiny from this service's point of view:
// four verbs against /rest/v1/{table} with filters encoded in the query
// string ("user_id=eq.X"), ordering ("order=col.asc"), and a Prefer header
// controlling whether writes echo the affected rows back. Wrapping that in
// a few explicit methods keeps the whole dialect in one file.
//
// OWNERSHIP:
// Earlier iterations of this service used one ambient, package-global client
// handle touched by every data function. Here the client is an explicitly
// constructed value: main.go builds it once, the server owns it, and each
// store receives it as a dependency. Same "initialize once, reuse across
// requests" behaviour, no hidden global coupling.
//
// CREDENTIAL TIERS:
// Data calls authenticate with the service (privileged) key — row filtering
// is applied by this service's queries and by the platform's row-level
// policies. The anonymous key exists for the auth surface and is carried in
// Config for the identity bridge.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sakif/gardenhub/internal/apperror"
)

// Config carries the platform endpoint and both credential tiers.
type Config struct {
	BaseURL    string // e.g. https://abcdefgh.supabase.co
	AnonKey    string // public key — auth endpoints
	ServiceKey string // privileged key — data endpoints and admin calls
}

// Client talks to the platform's /rest/v1 data API.
type Client struct {
	baseURL    string
	serviceKey string
	http       *http.Client
	logger     *slog.Logger
}

// restTimeout bounds every data call. The platform normally answers in
// well under a second; anything slower is treated as a fault, not waited out.
const restTimeout = 10 * time.Second

// New validates the configuration and builds a client. A missing URL or key
// is a deployment error and should stop the process at startup, not surface
// as a 500 on the first request.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" || cfg.ServiceKey == "" {
		return nil, errors.New("supabase: base URL and service key are required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("supabase: invalid base URL: %w", err)
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		serviceKey: cfg.ServiceKey,
		http:       &http.Client{Timeout: restTimeout},
		logger:     logger,
	}, nil
}

// restError is the error body PostgREST returns on failed calls.
// Code "23505" is Postgres's unique constraint violation — the one code
// this service classifies specially (duplicate collection names).
type restError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

// Select runs a filtered GET against a table and decodes the result array
// into dest (a pointer to a slice). Zero rows decode to an empty slice —
// the caller decides whether empty is an error; the client never does.
func (c *Client) Select(ctx context.Context, table string, query url.Values, dest any) error {
	return c.do(ctx, http.MethodGet, table, query, nil, dest, "")
}

// Insert POSTs a record. When dest is non-nil the platform is asked to echo
// the inserted rows back (Prefer: return=representation) and they are
// decoded into dest; otherwise the write is fire-and-forget.
func (c *Client) Insert(ctx context.Context, table string, record, dest any) error {
	prefer := "return=minimal"
	if dest != nil {
		prefer = "return=representation"
	}
	return c.do(ctx, http.MethodPost, table, nil, record, dest, prefer)
}

// Update PATCHes all rows matching the filters and decodes the updated rows
// into dest. An update that matched zero rows yields an empty slice, which
// callers translate to "not found" — distinct from an error.
func (c *Client) Update(ctx context.Context, table string, query url.Values, patch, dest any) error {
	return c.do(ctx, http.MethodPatch, table, query, patch, dest, "return=representation")
}

// Delete removes all rows matching the filters and decodes the deleted rows
// into dest. Same zero-rows contract as Update.
func (c *Client) Delete(ctx context.Context, table string, query url.Values, dest any) error {
	return c.do(ctx, http.MethodDelete, table, query, nil, dest, "return=representation")
}

// do builds, sends, and classifies one data-API request.
func (c *Client) do(ctx context.Context, method, table string, query url.Values, body, dest any, prefer string) error {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, table)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("supabase: encoding %s body: %w", table, err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("supabase: building %s request: %w", table, err)
	}
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Network faults and timeouts fail closed: never "not found".
		return apperror.Upstream(err, "Database query failed.")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.classifyFailure(table, resp)
	}

	if dest != nil {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return apperror.Upstream(
				fmt.Errorf("supabase: decoding %s response: %w", table, err),
				"Database returned a malformed response.",
			)
		}
	}
	return nil
}

// classifyFailure turns a PostgREST error response into a domain error.
// The raw body is logged, never returned to callers — it can include SQL
// fragments and constraint names.
func (c *Client) classifyFailure(table string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var pgErr restError
	_ = json.Unmarshal(raw, &pgErr)

	c.logger.Error("platform query failed",
		slog.String("table", table),
		slog.Int("status", resp.StatusCode),
		slog.String("code", pgErr.Code),
		slog.String("message", pgErr.Message),
	)

	if pgErr.Code == "23505" {
		return &apperror.AppError{
			Err:     apperror.ErrConflict,
			Message: "A record with this name already exists.",
		}
	}

	return apperror.Upstream(
		fmt.Errorf("supabase: %s %s: status %d (code %s)", table, resp.Request.Method, resp.StatusCode, pgErr.Code),
		"Database query failed.",
	)
}

// Eq formats a PostgREST equality filter value ("eq.<value>").
func Eq(value string) string { return "eq." + value }

// In formats a PostgREST set-membership filter value ("in.(a,b,c)").
func In(values []string) string {
	out := "in.("
	for i, v := range values {
		if i > 0 {
			out += ","
		}
		out += v
	}
	return out + ")"
}
