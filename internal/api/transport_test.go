package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

// fakeSource is a TokenSource with scripted behavior.
type fakeSource struct {
	token      string
	hasToken   bool
	refreshed  string
	refreshErr error

	refreshCalls atomic.Int32
}

func (s *fakeSource) AccessToken() (string, bool) {
	return s.token, s.hasToken
}

func (s *fakeSource) Refresh(ctx context.Context) (string, error) {
	s.refreshCalls.Add(1)
	if s.refreshErr != nil {
		return "", s.refreshErr
	}
	s.token = s.refreshed
	s.hasToken = true
	return s.refreshed, nil
}

func TestAuthTransportAttachesBearer(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	source := &fakeSource{token: "access-1", hasToken: true}
	client := &http.Client{Transport: NewAuthTransport(source, nil)}

	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()

	if gotAuth != "Bearer access-1" {
		t.Errorf("Authorization = %q, want \"Bearer access-1\"", gotAuth)
	}
}

func TestAuthTransportNoTokenNoHeader(t *testing.T) {
	var gotAuth string
	var hasAuth bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, hasAuth = r.Header["Authorization"]
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	source := &fakeSource{}
	client := &http.Client{Transport: NewAuthTransport(source, nil)}

	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()

	if hasAuth {
		t.Errorf("Authorization header sent without a token: %q", gotAuth)
	}
}

func TestAuthTransportRetriesOnceAfterRenewal(t *testing.T) {
	var requests atomic.Int32
	var secondAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch requests.Add(1) {
		case 1:
			w.WriteHeader(http.StatusUnauthorized)
		default:
			secondAuth = r.Header.Get("Authorization")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer server.Close()

	source := &fakeSource{token: "stale", hasToken: true, refreshed: "fresh"}
	client := &http.Client{Transport: NewAuthTransport(source, nil)}

	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if n := requests.Load(); n != 2 {
		t.Errorf("server saw %d requests, want 2", n)
	}
	if n := source.refreshCalls.Load(); n != 1 {
		t.Errorf("Refresh called %d times, want 1", n)
	}
	if secondAuth != "Bearer fresh" {
		t.Errorf("retry Authorization = %q, want \"Bearer fresh\"", secondAuth)
	}
}

func TestAuthTransportRetryReplaysBody(t *testing.T) {
	var bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(body))
		if len(bodies) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	source := &fakeSource{token: "stale", hasToken: true, refreshed: "fresh"}
	client := &http.Client{Transport: NewAuthTransport(source, nil)}

	// http.NewRequest with a *strings.Reader sets GetBody, so the retry can
	// replay the payload.
	resp, err := client.Post(server.URL, "application/json", strings.NewReader(`{"n":1}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()

	if len(bodies) != 2 {
		t.Fatalf("server saw %d requests, want 2", len(bodies))
	}
	if bodies[0] != bodies[1] {
		t.Errorf("retry body %q differs from original %q", bodies[1], bodies[0])
	}
}

func TestAuthTransportNoSecondRetry(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	source := &fakeSource{token: "stale", hasToken: true, refreshed: "fresh"}
	client := &http.Client{Transport: NewAuthTransport(source, nil)}

	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()

	// One renewal, one retry; the second 401 is final.
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
	if n := requests.Load(); n != 2 {
		t.Errorf("server saw %d requests, want 2", n)
	}
	if n := source.refreshCalls.Load(); n != 1 {
		t.Errorf("Refresh called %d times, want 1", n)
	}
}

func TestAuthTransportRenewalFailureReturnsOriginal401(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	source := &fakeSource{token: "stale", hasToken: true, refreshErr: errors.New("session renewal rejected")}
	client := &http.Client{Transport: NewAuthTransport(source, nil)}

	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want the original 401", resp.StatusCode)
	}
	if n := requests.Load(); n != 1 {
		t.Errorf("server saw %d requests, want 1 (no retry after failed renewal)", n)
	}
}

func TestAuthTransportUnreplayableBodyNotRetried(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	source := &fakeSource{token: "stale", hasToken: true, refreshed: "fresh"}
	client := &http.Client{Transport: NewAuthTransport(source, nil)}

	// An io.Pipe body has no GetBody, so it cannot be replayed.
	pr, pw := io.Pipe()
	go func() {
		_, _ = pw.Write([]byte(`{"n":1}`))
		_ = pw.Close()
	}()

	req, err := http.NewRequest(http.MethodPost, server.URL, pr)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
	if n := source.refreshCalls.Load(); n != 0 {
		t.Errorf("Refresh called %d times for unreplayable body, want 0", n)
	}
}
