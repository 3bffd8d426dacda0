package gateway

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
)

// staticSource is a TokenSource holding a fixed token.
type staticSource struct {
	token string
}

func (s *staticSource) AccessToken() (string, bool) {
	return s.token, s.token != ""
}

func (s *staticSource) Refresh(ctx context.Context) (string, error) {
	return s.token, nil
}

func TestGatewayForwardsWithBearer(t *testing.T) {
	var gotAuth, gotPath string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count": 0, "results": []}`))
	}))
	defer backend.Close()

	gw, err := New(&staticSource{token: "access-1"}, backend.URL)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	front := httptest.NewServer(gw)
	defer front.Close()

	resp, err := http.Get(front.URL + "/api/auth/properties/")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if gotPath != "/api/auth/properties/" {
		t.Errorf("backend path = %s, want /api/auth/properties/", gotPath)
	}
	if gotAuth != "Bearer access-1" {
		t.Errorf("backend Authorization = %q, want \"Bearer access-1\"", gotAuth)
	}
}

func TestGatewayUnknownPath(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("backend reached for unknown path %s", r.URL.Path)
	}))
	defer backend.Close()

	gw, err := New(&staticSource{token: "access-1"}, backend.URL)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	front := httptest.NewServer(gw)
	defer front.Close()

	resp, err := http.Get(front.URL + "/admin/")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestGatewaySessionState(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{name: "logged in", token: "access-1", want: true},
		{name: "logged out", token: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw, err := New(&staticSource{token: tt.token}, "http://backend.invalid")
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}

			front := httptest.NewServer(gw)
			defer front.Close()

			resp, err := http.Get(front.URL + "/session")
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer func() { _ = resp.Body.Close() }()

			var state SessionStateResponse
			if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if state.Authenticated != tt.want {
				t.Errorf("Authenticated = %v, want %v", state.Authenticated, tt.want)
			}
		})
	}
}

func TestGatewayRejectsBadBackendURL(t *testing.T) {
	if _, err := New(&staticSource{}, "/relative"); err == nil {
		t.Error("New succeeded with a relative backend URL")
	}
}

func TestGatewayStartAndShutdown(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	gw, err := New(&staticSource{token: "access-1"}, backend.URL)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	errCh, err := gw.Start(context.Background(), "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := gw.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Errorf("runtime error after shutdown: %v", err)
	}
}

func TestGatewayStartPortInUse(t *testing.T) {
	// Occupy a port, then try to start a gateway on it.
	occupied, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	defer func() { _ = occupied.Close() }()

	gw, err := New(&staticSource{}, "http://backend.invalid")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := gw.Start(context.Background(), occupied.Addr().String()); err == nil {
		t.Error("Start succeeded on an occupied port")
		_ = gw.Shutdown(context.Background())
	}
}
