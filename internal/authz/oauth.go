package authz

import (
	"context"

	"golang.org/x/oauth2/clientcredentials"
)

// ProviderTokenSource wraps a machine-to-machine OAuth2 client-credentials
// flow for an agent provider that requires a bearer token rather than a
// static API key. There is no end user and no browser redirect here:
// HTTPAgent is the sole client.
type ProviderTokenSource struct {
	cfg  clientcredentials.Config
	name string
}

// NewProviderTokenSource builds a token source for the named agent provider.
func NewProviderTokenSource(name, clientID, clientSecret, tokenURL string, scopes []string) *ProviderTokenSource {
	return &ProviderTokenSource{
		name: name,
		cfg: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			Scopes:       scopes,
		},
	}
}

// Token fetches (and caches, via the underlying oauth2.TokenSource) a bearer
// token suitable for an Authorization header on an agent webhook call.
func (p *ProviderTokenSource) Token(ctx context.Context) (string, error) {
	tok, err := p.cfg.Token(ctx)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// Name returns the provider name this token source was configured for.
func (p *ProviderTokenSource) Name() string {
	return p.name
}
