package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Tyrowin/campuschat/internal/chat"
)

// CookieName carries the session token in browsers.
const CookieName = "sid"

// LoginRequest is the login form.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=32"`
	AvatarID string `json:"avatarId" validate:"required"`
}

// Provider issues sessions at login and resolves them at handshake.
type Provider struct {
	store    Store
	tokens   *Tokens
	ttl      time.Duration
	log      *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

func NewProvider(store Store, tokens *Tokens, ttl time.Duration, log *slog.Logger) *Provider {
	return &Provider{
		store:    store,
		tokens:   tokens,
		ttl:      ttl,
		log:      log,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
}

// Login stores a fresh session for the user and returns it with its token.
// Every login gets a new user id.
func (p *Provider) Login(ctx context.Context, req LoginRequest) (Record, string, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := p.validate.Struct(req); err != nil {
		return Record{}, "", fmt.Errorf("%w: %v", ErrInvalidLogin, err)
	}

	rec := Record{
		ID:        uuid.NewString(),
		UserID:    uuid.NewString(),
		Username:  req.Username,
		AvatarID:  req.AvatarID,
		CreatedAt: p.now().UTC(),
	}
	if err := p.store.Save(ctx, rec, p.ttl); err != nil {
		return Record{}, "", fmt.Errorf("save session: %w", err)
	}
	token, err := p.tokens.Issue(rec.ID)
	if err != nil {
		return Record{}, "", err
	}
	p.log.Info("User logged in", "userId", rec.UserID, "username", rec.Username)
	return rec, token, nil
}

// Logout forgets the session named by the request's token, if any. A
// missing or unverifiable token names no session, so there is nothing to
// delete and Logout succeeds. Only store failures are returned.
func (p *Provider) Logout(r *http.Request) error {
	sessionID, err := p.tokens.Verify(tokenFromRequest(r))
	if err != nil {
		p.log.Debug("Logout without a valid session token", "error", err)
		return nil
	}
	return p.store.Delete(r.Context(), sessionID)
}

// ResolveIdentity looks up the identity bound to the request's session. It
// reports false unless the token is valid, the session exists, and every
// identity field is present.
func (p *Provider) ResolveIdentity(r *http.Request) (chat.Identity, bool) {
	token := tokenFromRequest(r)
	if token == "" {
		return chat.Identity{}, false
	}
	sessionID, err := p.tokens.Verify(token)
	if err != nil {
		p.log.Debug("Rejected session token", "error", err)
		return chat.Identity{}, false
	}
	rec, err := p.store.Load(r.Context(), sessionID)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			p.log.Error("Session lookup failed", "error", err)
		}
		return chat.Identity{}, false
	}
	who := rec.Identity()
	return who, who.Complete()
}

// Cookie wraps a token for the login response.
func (p *Provider) Cookie(token string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(p.ttl / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// tokenFromRequest looks in the cookie, then the Authorization header, then
// the token query parameter.
func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
