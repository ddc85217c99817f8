package session_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Tyrowin/campuschat/internal/chat"
	"github.com/Tyrowin/campuschat/internal/mocks"
	"github.com/Tyrowin/campuschat/internal/session"
)

const secret = "a-test-secret-that-is-long-enough"

func newProvider(store session.Store) *session.Provider {
	return session.NewProvider(store, session.NewTokens(secret, time.Hour), time.Hour, slog.New(slog.DiscardHandler))
}

func TestProvider_LoginThenResolve(t *testing.T) {
	req := require.New(t)
	provider := newProvider(session.NewMemoryStore())

	rec, token, err := provider.Login(context.Background(), session.LoginRequest{Username: "  alice ", AvatarID: "3"})
	req.NoError(err)
	req.Equal("alice", rec.Username)
	req.NotEmpty(rec.UserID)
	req.NotEqual(rec.ID, rec.UserID)

	want := chat.Identity{ID: rec.UserID, Name: "alice", AvatarID: "3"}

	t.Run("cookie", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		r.AddCookie(provider.Cookie(token, false))
		who, ok := provider.ResolveIdentity(r)
		require.True(t, ok)
		require.Equal(t, want, who)
	})

	t.Run("bearer header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		who, ok := provider.ResolveIdentity(r)
		require.True(t, ok)
		require.Equal(t, want, who)
	})

	t.Run("query parameter", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
		who, ok := provider.ResolveIdentity(r)
		require.True(t, ok)
		require.Equal(t, want, who)
	})
}

func TestProvider_LoginValidation(t *testing.T) {
	provider := newProvider(session.NewMemoryStore())

	for name, login := range map[string]session.LoginRequest{
		"missing username": {AvatarID: "3"},
		"blank username":   {Username: "   ", AvatarID: "3"},
		"missing avatar":   {Username: "alice"},
	} {
		t.Run(name, func(t *testing.T) {
			_, token, err := provider.Login(context.Background(), login)
			require.ErrorIs(t, err, session.ErrInvalidLogin)
			require.Empty(t, token)
		})
	}
}

func TestProvider_LoginStoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	provider := newProvider(store)

	store.EXPECT().Save(gomock.Any(), gomock.Any(), time.Hour).Return(errors.New("disk full"))

	_, token, err := provider.Login(context.Background(), session.LoginRequest{Username: "alice", AvatarID: "3"})

	require.Error(t, err)
	require.Empty(t, token)
}

func TestProvider_ResolveRejects(t *testing.T) {
	t.Run("no token", func(t *testing.T) {
		provider := newProvider(session.NewMemoryStore())
		_, ok := provider.ResolveIdentity(httptest.NewRequest(http.MethodGet, "/ws", nil))
		require.False(t, ok)
	})

	t.Run("valid token for a forgotten session", func(t *testing.T) {
		req := require.New(t)
		store := session.NewMemoryStore()
		provider := newProvider(store)
		rec, token, err := provider.Login(context.Background(), session.LoginRequest{Username: "alice", AvatarID: "3"})
		req.NoError(err)
		req.NoError(store.Delete(context.Background(), rec.ID))

		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		_, ok := provider.ResolveIdentity(r)
		req.False(ok)
	})

	t.Run("session missing a field", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		store := mocks.NewMockStore(ctrl)
		provider := newProvider(store)
		token, err := session.NewTokens(secret, time.Hour).Issue("s1")
		req.NoError(err)

		store.EXPECT().Load(gomock.Any(), "s1").Return(session.Record{ID: "s1", UserID: "u1", Username: "alice"}, nil)

		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		_, ok := provider.ResolveIdentity(r)
		req.False(ok)
	})
}

func TestProvider_Logout(t *testing.T) {
	req := require.New(t)
	provider := newProvider(session.NewMemoryStore())
	_, token, err := provider.Login(context.Background(), session.LoginRequest{Username: "alice", AvatarID: "3"})
	req.NoError(err)

	r := httptest.NewRequest(http.MethodPost, "/logout", nil)
	r.AddCookie(provider.Cookie(token, false))
	req.NoError(provider.Logout(r))

	_, ok := provider.ResolveIdentity(r)
	req.False(ok)
}

func TestProvider_LogoutWithoutSessionIsNoop(t *testing.T) {
	provider := newProvider(session.NewMemoryStore())

	for name, auth := range map[string]string{
		"no token":      "",
		"garbage token": "Bearer garbage",
	} {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/logout", nil)
			if auth != "" {
				r.Header.Set("Authorization", auth)
			}
			require.NoError(t, provider.Logout(r))
		})
	}
}

func TestProvider_LogoutStoreFailure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	provider := newProvider(store)
	token, err := session.NewTokens(secret, time.Hour).Issue("s1")
	req.NoError(err)

	boom := errors.New("disk full")
	store.EXPECT().Delete(gomock.Any(), "s1").Return(boom)

	r := httptest.NewRequest(http.MethodPost, "/logout", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	req.ErrorIs(provider.Logout(r), boom)
}
