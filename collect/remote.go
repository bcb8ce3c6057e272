package collect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RemoteStore is the authoritative backend data service, reduced to the
// four operations the sync engine needs. Implementations must signal
// uniqueness conflicts distinguishably from generic errors (a 409-coded
// RemoteError) so the duplicate-detection path can react, and must
// bound every call with a timeout.
type RemoteStore interface {
	// Insert creates a record remotely and returns the stored row with
	// its server-assigned id. A uniqueness violation yields a
	// RemoteError whose IsConflict() is true.
	Insert(ctx context.Context, rec Record) (Record, error)
	// SelectAll returns all records visible to the caller, ordered by
	// creation time descending.
	SelectAll(ctx context.Context) ([]Record, error)
	// DeleteByID removes a record by server id. A missing row yields a
	// RemoteError whose IsNotFound() is true.
	DeleteByID(ctx context.Context, id string) error
	// UpdateByID applies a partial update to a record by server id.
	UpdateByID(ctx context.Context, id string, patch RecordPatch) error
}

// HTTPRemoteStore talks to the remote record service over REST/JSON.
type HTTPRemoteStore struct {
	baseURL string
	token   func() (string, error)
	client  *http.Client
	timeout time.Duration
}

// NewHTTPRemoteStore creates a remote store client. token resolves the
// bearer token per request so a refreshed session is picked up without
// rebuilding the client; it may be nil for unauthenticated reads.
func NewHTTPRemoteStore(baseURL string, token func() (string, error)) (*HTTPRemoteStore, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("invalid remote URL %q", baseURL)
	}
	return &HTTPRemoteStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		timeout: 15 * time.Second,
	}, nil
}

func (r *HTTPRemoteStore) getClient() *http.Client {
	if r.client == nil {
		r.client = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     30 * time.Second,
			},
			Timeout: r.timeout,
		}
	}
	return r.client
}

func (r *HTTPRemoteStore) Insert(ctx context.Context, rec Record) (Record, error) {
	// The server owns id and timestamps; device-local fields stay home.
	payload := map[string]string{
		"source_text": rec.SourceText,
		"target_text": rec.TargetText,
		"owner_id":    rec.OwnerID,
	}
	if rec.Context != "" {
		payload["context"] = rec.Context
	}

	body, err := r.do(ctx, "Insert", http.MethodPost, "/records", payload)
	if err != nil {
		return Record{}, err
	}

	var stored Record
	if err := json.Unmarshal(body, &stored); err != nil {
		return Record{}, &RemoteError{Op: "Insert", Message: "malformed response body", Err: err}
	}
	stored.SyncStatus = StatusSynced
	return stored, nil
}

func (r *HTTPRemoteStore) SelectAll(ctx context.Context) ([]Record, error) {
	body, err := r.do(ctx, "SelectAll", http.MethodGet, "/records?order=created_at.desc", nil)
	if err != nil {
		return nil, err
	}

	var records []Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, &RemoteError{Op: "SelectAll", Message: "malformed response body", Err: err}
	}
	for i := range records {
		records[i].SyncStatus = StatusSynced
	}
	return records, nil
}

func (r *HTTPRemoteStore) DeleteByID(ctx context.Context, id string) error {
	_, err := r.do(ctx, "DeleteByID", http.MethodDelete, "/records/"+url.PathEscape(id), nil)
	return err
}

func (r *HTTPRemoteStore) UpdateByID(ctx context.Context, id string, patch RecordPatch) error {
	_, err := r.do(ctx, "UpdateByID", http.MethodPatch, "/records/"+url.PathEscape(id), patch)
	return err
}

// do issues a single request and maps failures to RemoteError. A
// request that never completes (DNS, connect, timeout) carries status
// code 0 and classifies as transient.
func (r *HTTPRemoteStore) do(ctx context.Context, op, method, path string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, &RemoteError{Op: op, Message: "failed to encode payload", Err: err}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reqBody)
	if err != nil {
		return nil, &RemoteError{Op: op, Message: "failed to build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != nil {
		token, err := r.token()
		if err != nil {
			return nil, &RemoteError{Op: op, Message: "failed to resolve auth token", Err: err}
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := r.getClient().Do(req)
	if err != nil {
		return nil, &RemoteError{Op: op, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &RemoteError{Op: op, Message: "failed to read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RemoteError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       string(body),
		}
	}
	return body, nil
}
