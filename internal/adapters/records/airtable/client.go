// Package airtable implements records.Client against an Airtable-style REST
// API: one base, one table per collection, bearer-token auth.
package airtable

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
	"strings"
	"time"

	"facultyhub/internal/adapters/http/perf"
	"facultyhub/internal/adapters/metrics"
	"facultyhub/internal/adapters/records"
	"facultyhub/internal/domain/changerequest"
	"facultyhub/internal/domain/faculty"
	"facultyhub/internal/domain/session"
)

// DefaultTimeout bounds a single backend call when no HTTP client is supplied.
const DefaultTimeout = 15 * time.Second

// maxErrorBody caps how much of a failed response is kept for logs.
const maxErrorBody = 512

// Options configures a Client.
type Options struct {
	APIURL     string // e.g. https://api.airtable.com/v0
	BaseID     string
	Token      string
	HTTPClient *http.Client
	Metrics    *metrics.Recorder
	Perf       *perf.Collector
}

// Client talks to one base of the hosted record backend.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	metrics *metrics.Recorder
	perf    *perf.Collector
}

var _ records.Client = (*Client)(nil)

// New builds a Client.
// PRE: opts.APIURL, opts.BaseID and opts.Token are non-empty
// POST: Returns a client whose calls honour the caller's context
func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(opts.APIURL, "/") + "/" + url.PathEscape(opts.BaseID),
		token:   opts.Token,
		http:    hc,
		metrics: opts.Metrics,
		perf:    opts.Perf,
	}
}

// ListFaculty fetches the whole Faculty collection.
func (c *Client) ListFaculty(ctx context.Context) ([]faculty.Faculty, error) {
	recs, err := listAll[facultyFields](ctx, c, records.CollectionFaculty)
	if err != nil {
		return nil, err
	}
	out := make([]faculty.Faculty, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Fields.toDomain(r.ID))
	}
	return out, nil
}

// ListSessions fetches the whole Sessions collection, normalised so that
// unassigned sessions carry the unassigned status.
func (c *Client) ListSessions(ctx context.Context) ([]session.Session, error) {
	recs, err := listAll[sessionFields](ctx, c, records.CollectionSessions)
	if err != nil {
		return nil, err
	}
	out := make([]session.Session, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Fields.toDomain(r.ID))
	}
	return out, nil
}

// ListChangeRequests fetches the whole Change Requests collection.
func (c *Client) ListChangeRequests(ctx context.Context) ([]changerequest.Request, error) {
	recs, err := listAll[changeRequestFields](ctx, c, records.CollectionChangeRequests)
	if err != nil {
		return nil, err
	}
	out := make([]changerequest.Request, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Fields.toDomain(r.ID, r.CreatedTime))
	}
	return out, nil
}

// SetSessionStatus patches a session's Status field. No read-back.
// PRE: sessionID is a backend record ID
// POST: nil means the backend accepted the write
func (c *Client) SetSessionStatus(ctx context.Context, sessionID string, status session.Status) error {
	body := writeBody{Fields: map[string]any{"Status": status.Stored()}}
	return c.do(ctx, http.MethodPatch, records.CollectionSessions, "update", sessionID, body, nil)
}

// SetChangeRequestDecision patches the decision fields of a change request.
func (c *Client) SetChangeRequestDecision(ctx context.Context, req changerequest.Request) error {
	fields := map[string]any{
		"Status":      changerequest.StoredStatus(req.Status),
		"Admin Notes": req.AdminNotes,
		"Decided By":  req.DecidedBy,
	}
	if !req.DecidedAt.IsZero() {
		fields["Decided At"] = req.DecidedAt.UTC().Format(time.RFC3339)
	}
	return c.do(ctx, http.MethodPatch, records.CollectionChangeRequests, "update", req.ID, writeBody{Fields: fields}, nil)
}

// CreateChangeRequest posts a new change request and returns the stored record.
func (c *Client) CreateChangeRequest(ctx context.Context, req changerequest.Request) (changerequest.Request, error) {
	var created record[changeRequestFields]
	body := writeBody{Fields: newChangeRequestFields(req)}
	if err := c.do(ctx, http.MethodPost, records.CollectionChangeRequests, "create", "", body, &created); err != nil {
		return changerequest.Request{}, err
	}
	if created.ID == "" {
		return changerequest.Request{}, fmt.Errorf("%w: created %s record has no id", records.ErrDecode, records.CollectionChangeRequests)
	}
	return created.Fields.toDomain(created.ID, created.CreatedTime), nil
}

// listAll follows the offset cursor until the collection is exhausted.
// A cursor the backend has already handed out is a malformed reply.
func listAll[F any](ctx context.Context, c *Client, collection string) ([]record[F], error) {
	var all []record[F]
	offset := ""
	seen := make(map[string]bool)
	for {
		var page listResponse[F]
		query := ""
		if offset != "" {
			query = "?offset=" + url.QueryEscape(offset)
		}
		if err := c.do(ctx, http.MethodGet, collection, "list", query, nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Records...)
		if page.Offset == "" {
			return all, nil
		}
		if seen[page.Offset] {
			return nil, fmt.Errorf("%w: %s offset %q repeated", records.ErrDecode, collection, page.Offset)
		}
		seen[page.Offset] = true
		offset = page.Offset
	}
}

// do performs one call. suffix is either "/{id}" material (a record ID) or a
// query string starting with "?".
func (c *Client) do(ctx context.Context, method, collection, op, suffix string, in, out any) error {
	target := c.baseURL + "/" + url.PathEscape(collection)
	switch {
	case strings.HasPrefix(suffix, "?"):
		target += suffix
	case suffix != "":
		target += "/" + url.PathEscape(suffix)
	}

	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s body: %w", collection, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return fmt.Errorf("%w: build %s request: %w", records.ErrTransport, collection, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	status, err := c.roundTrip(req, collection, out)
	elapsed := time.Since(start)

	outcome := records.Category(err)
	c.metrics.ObserveRecordCall(collection, op, outcome, elapsed)
	c.perf.Record(perf.Entry{
		Kind:       perf.KindRemote,
		Path:       method + " " + collection,
		StatusCode: status,
		Failed:     err != nil,
		DurationMs: float64(elapsed.Microseconds()) / 1000.0,
		Timestamp:  start,
	})

	if err != nil {
		slog.Error("records_call_failed", "collection", collection, "op", op, "category", outcome,
			"status", status, "duration_ms", elapsed.Milliseconds(), "error", err)
		return err
	}
	slog.Debug("records_call", "collection", collection, "op", op, "status", status, "duration_ms", elapsed.Milliseconds())
	return nil
}

func (c *Client) roundTrip(req *http.Request, collection string, out any) (int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %s: %w", records.ErrTransport, req.Method, collection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, &records.StatusError{
			Collection: collection,
			Code:       resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return resp.StatusCode, fmt.Errorf("%w: read %s: %w", records.ErrTransport, collection, err)
		}
		return resp.StatusCode, fmt.Errorf("%w: %s: %w", records.ErrDecode, collection, err)
	}
	return resp.StatusCode, nil
}
