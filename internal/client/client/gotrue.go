package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/authboot/internal/client/models"
	"github.com/dmitrijs2005/authboot/internal/clock"
	"github.com/dmitrijs2005/authboot/internal/common"
	"github.com/dmitrijs2005/authboot/internal/logging"
)

const authPath = "/auth/v1"

// GoTrueClient implements AuthProvider over the GoTrue REST API used by
// Supabase projects.
type GoTrueClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	store   SessionStore
	hub     *Hub[models.AuthEvent]
	clock   clock.Clock
	log     logging.Logger

	mu      sync.Mutex
	current *models.Session
	loaded  bool
	// bumped by every sign-in, sign-up and sign-out; a result carrying an
	// older epoch is not adopted
	epoch uint64
}

// NewGoTrueClient creates a client for the project at baseURL
// (e.g. "https://xyz.supabase.co"). A nil store keeps the session in memory.
func NewGoTrueClient(baseURL, apiKey string, store SessionStore, log logging.Logger, c clock.Clock) *GoTrueClient {
	if store == nil {
		store = NewMemorySessionStore()
	}
	if log == nil {
		log = logging.Discard()
	}
	if c == nil {
		c = clock.Real{}
	}
	return &GoTrueClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{},
		store:   store,
		hub:     NewHub[models.AuthEvent](),
		clock:   c,
		log:     log.With("module", "gotrue"),
	}
}

// HealthURL is the unauthenticated liveness endpoint of the project at
// baseURL.
func HealthURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + authPath + "/health"
}

type tokenResponse struct {
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
	ExpiresIn    int64                `json:"expires_in"`
	ExpiresAt    int64                `json:"expires_at"`
	User         *models.UserIdentity `json:"user"`
}

// signUpResponse is either a token response (auto-confirmed projects) or a
// bare user object (confirmation email sent).
type signUpResponse struct {
	tokenResponse
	models.UserIdentity
}

func (c *GoTrueClient) endpoint(path string, query url.Values) string {
	u := c.baseURL + authPath + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do sends a JSON request and decodes a 2xx JSON body into out (if non-nil).
// Transport failures are reported as common.ErrUnavailable.
func (c *GoTrueClient) do(ctx context.Context, method, path string, query url.Values, in any, bearer string, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return err
	}
	req.Header.Set(common.APIKeyHeaderName, c.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer == "" {
		bearer = c.apiKey
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %w", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapAPIError(resp.StatusCode, decodeAPIError(data))
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%w: decode response: %w", common.ErrProvider, err)
		}
	}
	return nil
}

// sessionFrom builds a Session from a token response, falling back to the
// access token claims for the identity and expiry.
func (c *GoTrueClient) sessionFrom(tr tokenResponse) (*models.Session, error) {
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("%w: response has no access token", common.ErrProvider)
	}

	s := &models.Session{AccessToken: tr.AccessToken, RefreshToken: tr.RefreshToken}
	switch {
	case tr.ExpiresAt > 0:
		s.Expiry = time.Unix(tr.ExpiresAt, 0).UTC()
	case tr.ExpiresIn > 0:
		s.Expiry = c.clock.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}

	if tr.User != nil && tr.User.ID != "" {
		s.User = *tr.User
	}
	if s.User.ID == "" || s.Expiry.IsZero() {
		id, exp, err := identityFromToken(tr.AccessToken)
		if err != nil {
			return nil, err
		}
		if s.User.ID == "" {
			s.User = id
		}
		if s.Expiry.IsZero() {
			s.Expiry = exp
		}
	}
	return s, nil
}

// begin starts a new auth attempt and returns its epoch.
func (c *GoTrueClient) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	return c.epoch
}

func (c *GoTrueClient) currentEpoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// adopt stores s as the current session and notifies subscribers. A session
// that arrives after ctx was abandoned, or after a newer attempt started, is
// dropped.
func (c *GoTrueClient) adopt(ctx context.Context, epoch uint64, s *models.Session, kind models.AuthEventKind) error {
	c.mu.Lock()
	if err := ctx.Err(); err != nil {
		c.mu.Unlock()
		return err
	}
	if epoch != c.epoch {
		c.mu.Unlock()
		return fmt.Errorf("%w: superseded by a newer auth call", context.Canceled)
	}
	c.current = s
	c.loaded = true
	c.mu.Unlock()

	if err := c.store.Save(context.WithoutCancel(ctx), s); err != nil {
		c.log.Warn(ctx, "session not persisted", "error", err)
	}

	c.hub.Publish(models.AuthEvent{Kind: kind, Session: s})
	return nil
}

func (c *GoTrueClient) SignIn(ctx context.Context, creds models.Credentials) (*models.AuthResult, error) {
	epoch := c.begin()

	var tr tokenResponse
	err := c.do(ctx, http.MethodPost, "/token", url.Values{"grant_type": {"password"}},
		map[string]string{"email": creds.Email, "password": creds.Password}, "", &tr)
	if err != nil {
		return nil, err
	}

	s, err := c.sessionFrom(tr)
	if err != nil {
		return nil, err
	}
	if err := c.adopt(ctx, epoch, s, models.EventSignedIn); err != nil {
		return nil, err
	}

	return &models.AuthResult{User: s.User, Session: s}, nil
}

func (c *GoTrueClient) SignUp(ctx context.Context, creds models.Credentials, metadata map[string]any) (*models.AuthResult, error) {
	epoch := c.begin()

	in := map[string]any{"email": creds.Email, "password": creds.Password}
	if len(metadata) > 0 {
		in["data"] = metadata
	}

	var sr signUpResponse
	if err := c.do(ctx, http.MethodPost, "/signup", nil, in, "", &sr); err != nil {
		return nil, err
	}

	if sr.AccessToken == "" {
		// confirmation pending: identity only
		if sr.UserIdentity.ID == "" {
			return nil, fmt.Errorf("%w: sign-up response has no user", common.ErrProvider)
		}
		return &models.AuthResult{User: sr.UserIdentity}, nil
	}

	s, err := c.sessionFrom(sr.tokenResponse)
	if err != nil {
		return nil, err
	}
	if err := c.adopt(ctx, epoch, s, models.EventSignedIn); err != nil {
		return nil, err
	}
	return &models.AuthResult{User: s.User, Session: s}, nil
}

// GetSession returns the current session, restoring it from the store on
// first use. An expired session is refreshed; if the refresh token has been
// revoked the stored session is dropped and (nil, nil) is returned.
func (c *GoTrueClient) GetSession(ctx context.Context) (*models.Session, error) {
	c.mu.Lock()
	s, loaded := c.current, c.loaded
	c.mu.Unlock()

	if !loaded {
		stored, err := c.store.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load session: %w", err)
		}
		c.mu.Lock()
		if !c.loaded {
			c.current, c.loaded = stored, true
		}
		s = c.current
		c.mu.Unlock()
	}

	if s == nil {
		return nil, nil
	}
	if !s.Expired(c.clock.Now()) {
		return s, nil
	}

	refreshed, err := c.refresh(ctx, s)
	if err != nil {
		if errors.Is(err, common.ErrInvalidToken) || errors.Is(err, common.ErrorUnauthorized) {
			c.log.Info(ctx, "stored session rejected, signing out locally", "user_id", s.User.ID)
			c.dropSession(ctx)
			return nil, nil
		}
		return nil, err
	}
	return refreshed, nil
}

func (c *GoTrueClient) refresh(ctx context.Context, s *models.Session) (*models.Session, error) {
	if s.RefreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token", common.ErrInvalidToken)
	}
	epoch := c.currentEpoch()

	var tr tokenResponse
	err := c.do(ctx, http.MethodPost, "/token", url.Values{"grant_type": {"refresh_token"}},
		map[string]string{"refresh_token": s.RefreshToken}, "", &tr)
	if err != nil {
		return nil, err
	}

	ns, err := c.sessionFrom(tr)
	if err != nil {
		return nil, err
	}
	if err := c.adopt(ctx, epoch, ns, models.EventTokenRefreshed); err != nil {
		return nil, err
	}
	c.log.Debug(ctx, "session refreshed", "user_id", ns.User.ID, "expires_at", ns.Expiry)
	return ns, nil
}

func (c *GoTrueClient) dropSession(ctx context.Context) {
	if err := c.store.Clear(ctx); err != nil {
		c.log.Warn(ctx, "stored session not cleared", "error", err)
	}
	c.mu.Lock()
	c.current = nil
	c.loaded = true
	c.mu.Unlock()
}

// SignOut revokes the session at the provider, then drops it locally and
// publishes SIGNED_OUT. The local session is dropped even when the remote
// call fails, so the user is never stuck signed in.
func (c *GoTrueClient) SignOut(ctx context.Context) error {
	c.mu.Lock()
	c.epoch++
	s := c.current
	c.mu.Unlock()

	if s != nil && s.AccessToken != "" {
		if err := c.do(ctx, http.MethodPost, "/logout", nil, nil, s.AccessToken, nil); err != nil {
			c.log.Warn(ctx, "remote sign-out failed", "user_id", s.User.ID, "error", err)
		}
	}

	c.dropSession(ctx)
	c.hub.Publish(models.AuthEvent{Kind: models.EventSignedOut})
	return nil
}

func (c *GoTrueClient) OnAuthStateChange(fn func(models.AuthEvent)) Subscription {
	return c.hub.Subscribe(fn)
}

// Ping probes the health endpoint.
func (c *GoTrueClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, "", nil)
}

// Close drops every auth-state subscriber.
func (c *GoTrueClient) Close() error {
	c.hub.Close()
	return nil
}
