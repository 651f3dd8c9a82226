package agentimpl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sdbench/sdb/internal/authz"
	"github.com/sdbench/sdb/pkg/sdb"
)

// HTTPAgent delegates decisions to an external process reachable over HTTP:
// one request per decision, a bounded wait, and a safe fallback on failure
// rather than blocking the match. It speaks JSON over a webhook URL, since an
// external LLM-backed agent process is a network peer, not a child process.
type HTTPAgent struct {
	url         string
	httpClient  *http.Client
	jwtMgr      *authz.JWTManager
	oauth       *authz.ProviderTokenSource
	matchID     string
	player      int
	game        string
	model       string
	temperature float64
	fallback    sdb.Agent
}

// HTTPAgentOption configures an HTTPAgent before use.
type HTTPAgentOption func(*HTTPAgent)

// WithHTTPClient overrides the default client (mainly for tests).
func WithHTTPClient(c *http.Client) HTTPAgentOption {
	return func(a *HTTPAgent) { a.httpClient = c }
}

// WithAuth attaches a JWTManager so every request carries a short-lived
// match/player/game-scoped bearer token.
func WithAuth(mgr *authz.JWTManager) HTTPAgentOption {
	return func(a *HTTPAgent) { a.jwtMgr = mgr }
}

// WithOAuthProvider attaches an OAuth2 client-credentials token source for
// agent providers that expect a provider-issued bearer token instead of a
// match-scoped JWT. When set, it takes precedence over WithAuth.
func WithOAuthProvider(ts *authz.ProviderTokenSource) HTTPAgentOption {
	return func(a *HTTPAgent) { a.oauth = ts }
}

// WithModelParams attaches the model identifier and sampling temperature the
// CLI's play/tournament entry points accept; the core passes
// these through verbatim and never interprets them.
func WithModelParams(model string, temperature float64) HTTPAgentOption {
	return func(a *HTTPAgent) { a.model, a.temperature = model, temperature }
}

// WithFallback sets the agent to delegate to when the remote call fails or
// times out, rather than returning an error that would stall the match.
func WithFallback(fallback sdb.Agent) HTTPAgentOption {
	return func(a *HTTPAgent) { a.fallback = fallback }
}

// NewHTTPAgent creates an HTTPAgent that posts observations to url for one
// player of one match.
func NewHTTPAgent(url, matchID string, player int, game string, opts ...HTTPAgentOption) *HTTPAgent {
	a := &HTTPAgent{
		url:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		matchID:    matchID,
		player:     player,
		game:       game,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

var _ sdb.Agent = (*HTTPAgent)(nil)

type httpAgentRequest struct {
	MatchID     string          `json:"match_id"`
	Game        string          `json:"game"`
	Model       string          `json:"model,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
	Obs         sdb.Observation `json:"observation"`
}

type httpAgentResponse struct {
	Kind     string         `json:"kind"`
	Data     map[string]any `json:"data"`
	Metadata map[string]any `json:"metadata"`
}

// Act posts the observation to the remote agent and parses its action. On
// any transport, auth, or decode failure, it falls back to a.fallback if set,
// or returns the error so the driver can log an AgentFailure and substitute
// its own safe default.
func (a *HTTPAgent) Act(ctx context.Context, obs sdb.Observation) (sdb.Action, error) {
	action, err := a.call(ctx, obs)
	if err != nil {
		if a.fallback != nil {
			return a.fallback.Act(ctx, obs)
		}
		return sdb.Action{}, err
	}
	return action, nil
}

func (a *HTTPAgent) call(ctx context.Context, obs sdb.Observation) (sdb.Action, error) {
	body, err := json.Marshal(httpAgentRequest{MatchID: a.matchID, Game: a.game, Model: a.model, Temperature: a.temperature, Obs: obs})
	if err != nil {
		return sdb.Action{}, fmt.Errorf("encode agent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return sdb.Action{}, fmt.Errorf("build agent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	switch {
	case a.oauth != nil:
		token, err := a.oauth.Token(ctx)
		if err != nil {
			return sdb.Action{}, fmt.Errorf("fetch oauth token for provider %s: %w", a.oauth.Name(), err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	case a.jwtMgr != nil:
		token, err := a.jwtMgr.GenerateAgentToken(a.matchID, a.player, a.game)
		if err != nil {
			return sdb.Action{}, fmt.Errorf("mint agent token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return sdb.Action{}, fmt.Errorf("agent request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return sdb.Action{}, fmt.Errorf("read agent response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return sdb.Action{}, fmt.Errorf("agent returned status %d: %s", resp.StatusCode, payload)
	}

	var out httpAgentResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return sdb.Action{}, fmt.Errorf("decode agent response: %w", err)
	}

	return sdb.Action{Player: sdb.PlayerID(a.player), Kind: out.Kind, Data: out.Data, Metadata: out.Metadata}, nil
}

// Notify implements sdb.Notifier by posting a best-effort, fire-and-forget
// notification; delivery failures are swallowed since notifications are
// advisory.
func (a *HTTPAgent) Notify(ctx context.Context, kind string, data map[string]any) {
	body, err := json.Marshal(map[string]any{
		"match_id": a.matchID, "game": a.game, "notification": kind, "data": data,
	})
	if err != nil {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url+"/notify", bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}
