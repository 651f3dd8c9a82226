package agentimpl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sdbench/sdb/internal/authz"
	"github.com/sdbench/sdb/pkg/sdb"
)

func TestHTTPAgentActParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req httpAgentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.MatchID != "m1" || req.Game != "avalon" {
			t.Fatalf("unexpected request: %+v", req)
		}
		json.NewEncoder(w).Encode(httpAgentResponse{Kind: "vote", Data: map[string]any{"approve": true}})
	}))
	defer srv.Close()

	agent := NewHTTPAgent(srv.URL, "m1", 2, "avalon")
	action, err := agent.Act(context.Background(), sdb.Observation{
		Player: 2, Phase: "TeamVoting", Data: map[string]any{"type": "act"},
	})
	if err != nil {
		t.Fatalf("Act: %v", err)
	}
	if action.Kind != "vote" || action.Data["approve"] != true {
		t.Fatalf("unexpected action: %+v", action)
	}
}

func TestHTTPAgentCarriesModelParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req httpAgentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "claude-test" || req.Temperature != 0.3 {
			t.Fatalf("expected model params to be carried through, got %+v", req)
		}
		json.NewEncoder(w).Encode(httpAgentResponse{Kind: "noop"})
	}))
	defer srv.Close()

	agent := NewHTTPAgent(srv.URL, "m1", 0, "spyfall", WithModelParams("claude-test", 0.3))
	if _, err := agent.Act(context.Background(), sdb.Observation{Player: 0, Data: map[string]any{"type": "act"}}); err != nil {
		t.Fatalf("Act: %v", err)
	}
}

func TestHTTPAgentUsesOAuthProviderToken(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"access_token": "provider-token", "token_type": "bearer"})
	}))
	defer tokenSrv.Close()

	var gotAuth string
	agentSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(httpAgentResponse{Kind: "noop"})
	}))
	defer agentSrv.Close()

	ts := authz.NewProviderTokenSource("anthropic", "client-id", "client-secret", tokenSrv.URL, nil)
	agent := NewHTTPAgent(agentSrv.URL, "m1", 0, "amongus", WithOAuthProvider(ts), WithAuth(authz.NewJWTManager("secret", time.Hour)))

	if _, err := agent.Act(context.Background(), sdb.Observation{Player: 0, Data: map[string]any{"type": "act"}}); err != nil {
		t.Fatalf("Act: %v", err)
	}
	if gotAuth != "Bearer provider-token" {
		t.Fatalf("expected oauth provider token to take precedence over JWT, got %q", gotAuth)
	}
}

func TestHTTPAgentFallsBackOnTransportError(t *testing.T) {
	fallback := NewRandomAgent(4, 1)
	agent := NewHTTPAgent("http://127.0.0.1:0/unreachable", "m1", 0, "werewolf", WithFallback(fallback))

	action, err := agent.Act(context.Background(), sdb.Observation{
		Player: 0, Phase: "NightWerewolf", Data: map[string]any{"type": "act"},
	})
	if err != nil {
		t.Fatalf("expected fallback to absorb the error, got %v", err)
	}
	if action.Kind != "kill_target" {
		t.Fatalf("expected fallback RandomAgent action, got %+v", action)
	}
}

func TestHTTPAgentReturnsErrorWithoutFallback(t *testing.T) {
	agent := NewHTTPAgent("http://127.0.0.1:0/unreachable", "m1", 0, "werewolf")
	if _, err := agent.Act(context.Background(), sdb.Observation{Player: 0, Data: map[string]any{"type": "act"}}); err == nil {
		t.Fatal("expected error with no fallback configured")
	}
}
