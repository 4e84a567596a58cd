package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/youtube/v3"

	"whitkirk-services/internal/store"
)

const (
	ClientSecretKey = "client_secret.json"
	TokenKey        = "token.json"
)

// ErrNoToken is returned when no stored token exists and the auth command has
// to be run first.
var ErrNoToken = errors.New("no stored youtube token")

// Scopes are the OAuth scopes requested for the channel account.
var Scopes = []string{youtube.YoutubeForceSslScope}

// LoadOAuthConfig reads the OAuth client secret from the store.
func LoadOAuthConfig(ctx context.Context, s store.Store) (*oauth2.Config, error) {
	data, err := s.Get(ctx, ClientSecretKey)
	if err != nil {
		return nil, fmt.Errorf("loading client secret: %w", err)
	}
	cfg, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parsing client secret: %w", err)
	}
	return cfg, nil
}

// LoadToken reads the stored user token.
func LoadToken(ctx context.Context, s store.Store) (*oauth2.Token, error) {
	var tok oauth2.Token
	err := store.GetJSON(ctx, s, TokenKey, &tok)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("loading token: %w", err)
	}
	return &tok, nil
}

// SaveToken writes tok to the store.
func SaveToken(ctx context.Context, s store.Store, tok *oauth2.Token) error {
	if err := store.SetJSON(ctx, s, TokenKey, tok); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	return nil
}

// TokenSource returns a refreshing token source that writes every new token
// back to the store, so the next run starts from the refreshed credentials.
func TokenSource(ctx context.Context, cfg *oauth2.Config, s store.Store, tok *oauth2.Token) oauth2.TokenSource {
	return &persistingTokenSource{
		ctx:   ctx,
		base:  cfg.TokenSource(ctx, tok),
		store: s,
		last:  tok.AccessToken,
	}
}

type persistingTokenSource struct {
	ctx   context.Context
	base  oauth2.TokenSource
	store store.Store

	mu   sync.Mutex
	last string
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last {
		if err := SaveToken(p.ctx, p.store, tok); err != nil {
			return nil, err
		}
		p.last = tok.AccessToken
	}
	return tok, nil
}

// CallbackResult is the outcome of the authorization redirect.
type CallbackResult struct {
	Token *oauth2.Token
	Err   error
}

// CallbackHandler receives the OAuth redirect on the loopback address and
// exchanges the code for a token. It delivers exactly one result.
type CallbackHandler struct {
	config *oauth2.Config
	state  string
	result chan CallbackResult
	once   sync.Once
}

// NewCallbackHandler creates a handler expecting state.
func NewCallbackHandler(cfg *oauth2.Config, state string) *CallbackHandler {
	return &CallbackHandler{
		config: cfg,
		state:  state,
		result: make(chan CallbackResult, 1),
	}
}

// AuthCodeURL is the consent page the user must visit.
func (h *CallbackHandler) AuthCodeURL() string {
	return h.config.AuthCodeURL(h.state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("state") != h.state {
		h.send(CallbackResult{Err: errors.New("invalid state parameter")})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := q.Get("code")
	if code == "" {
		h.send(CallbackResult{Err: fmt.Errorf("authorization failed: %s", q.Get("error"))})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	tok, err := h.config.Exchange(r.Context(), code)
	if err != nil {
		h.send(CallbackResult{Err: fmt.Errorf("exchanging code: %w", err)})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.send(CallbackResult{Token: tok})
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "Authorization complete. You can close this window.")
}

// Result delivers the single callback outcome.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.result
}

func (h *CallbackHandler) send(r CallbackResult) {
	h.once.Do(func() {
		h.result <- r
		close(h.result)
	})
}
