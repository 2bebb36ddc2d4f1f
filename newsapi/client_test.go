package newsapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// fakeTokenSource scripts token resolution for client tests.
type fakeTokenSource struct {
	tokens      []string
	next        int
	err         error
	invalidated int
}

func (f *fakeTokenSource) Token(ctx context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.next >= len(f.tokens) {
		return f.tokens[len(f.tokens)-1], nil
	}
	token := f.tokens[f.next]
	f.next++
	return token, nil
}

func (f *fakeTokenSource) Invalidate() {
	f.invalidated++
}

func newTestClient(auth tokenSource) *Client {
	return &Client{
		auth:       auth,
		httpClient: http.DefaultClient,
		logger:     testLogger(),
	}
}

func TestClient_AttachesBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
			t.Fatalf("expected bearer header, got %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Fatalf("expected json content type, got %q", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := newTestClient(&fakeTokenSource{tokens: []string{"token-1"}})
	resp, err := client.Do(context.Background(), http.MethodGet, srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
}

func TestClient_FailsFastWithoutToken(t *testing.T) {
	auth := &fakeTokenSource{err: errors.New("no credentials")}
	client := newTestClient(auth)

	_, err := client.Do(context.Background(), http.MethodGet, "http://unused.invalid")
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestClient_RetriesOnceOn401(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Header.Get("Authorization") == "Bearer stale" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	auth := &fakeTokenSource{tokens: []string{"stale", "fresh"}}
	client := newTestClient(auth)

	resp, err := client.Do(context.Background(), http.MethodGet, srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 after retry, got %d", resp.StatusCode)
	}
	if requests != 2 {
		t.Fatalf("expected 2 requests, got %d", requests)
	}
	if auth.invalidated != 1 {
		t.Fatalf("expected one cache invalidation, got %d", auth.invalidated)
	}
}

func TestClient_SecondConsecutive401IsReturned(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	auth := &fakeTokenSource{tokens: []string{"a", "b"}}
	client := newTestClient(auth)

	resp, err := client.Do(context.Background(), http.MethodGet, srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 passed through, got %d", resp.StatusCode)
	}
	if requests != 2 {
		t.Fatalf("expected exactly 2 requests (no retry loop), got %d", requests)
	}
}

func TestClient_TransportErrorIsNotRetried(t *testing.T) {
	auth := &fakeTokenSource{tokens: []string{"token"}}
	client := newTestClient(auth)

	// Closed server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	if _, err := client.Do(context.Background(), http.MethodGet, url); err == nil {
		t.Fatalf("expected transport error")
	}
	if auth.invalidated != 0 {
		t.Fatalf("transport errors must not invalidate the cache, got %d invalidations", auth.invalidated)
	}
}

func TestClient_GetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"storyId":"urn:1"}]}`))
	}))
	defer srv.Close()

	client := newTestClient(&fakeTokenSource{tokens: []string{"token"}})

	var out struct {
		Data []struct {
			StoryID string `json:"storyId"`
		} `json:"data"`
	}
	if err := client.GetJSON(context.Background(), srv.URL, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Data) != 1 || out.Data[0].StoryID != "urn:1" {
		t.Fatalf("unexpected decode result: %+v", out)
	}
}

func TestClient_GetJSONNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(&fakeTokenSource{tokens: []string{"token"}})

	var out map[string]interface{}
	if err := client.GetJSON(context.Background(), srv.URL, &out); err == nil {
		t.Fatalf("expected error for 404")
	}
}
