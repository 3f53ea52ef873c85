package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visadesk/visadesk/internal/backend"
	"github.com/visadesk/visadesk/internal/session"
	"github.com/visadesk/visadesk/shared/notice"
)

type mockProvider struct {
	signInFn         func(ctx context.Context, email, password string) (*backend.AuthResponse, error)
	signUpFn         func(ctx context.Context, email, password, redirectTo string) (*backend.AuthResponse, error)
	resetFn          func(ctx context.Context, email, redirectTo string) error
	verifyFn         func(ctx context.Context, tokenHash, otpType string) (*backend.AuthResponse, error)
	updatePasswordFn func(ctx context.Context, accessToken, password string) (*backend.User, error)
	signOutFn        func(ctx context.Context, accessToken, scope string) error
	calls            int
}

func (m *mockProvider) SignInWithPassword(ctx context.Context, email, password string) (*backend.AuthResponse, error) {
	m.calls++
	return m.signInFn(ctx, email, password)
}

func (m *mockProvider) SignUp(ctx context.Context, email, password, redirectTo string) (*backend.AuthResponse, error) {
	m.calls++
	return m.signUpFn(ctx, email, password, redirectTo)
}

func (m *mockProvider) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	m.calls++
	return m.resetFn(ctx, email, redirectTo)
}

func (m *mockProvider) VerifyOTP(ctx context.Context, tokenHash, otpType string) (*backend.AuthResponse, error) {
	m.calls++
	return m.verifyFn(ctx, tokenHash, otpType)
}

func (m *mockProvider) UpdatePassword(ctx context.Context, accessToken, password string) (*backend.User, error) {
	m.calls++
	return m.updatePasswordFn(ctx, accessToken, password)
}

func (m *mockProvider) SignOut(ctx context.Context, accessToken, scope string) error {
	m.calls++
	return m.signOutFn(ctx, accessToken, scope)
}

const redirect = "http://localhost:8080/auth/callback"

var (
	rateLimited = &backend.Error{Status: 429, Code: "over_request_rate_limit", Message: "rate limited"}
	badCreds    = &backend.Error{Status: 400, Code: "invalid_credentials", Message: "Invalid login credentials"}
)

func okSession() *backend.AuthResponse {
	return &backend.AuthResponse{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresIn:    3600,
		User:         &backend.User{ID: "user-1", Email: "a@example.com"},
	}
}

func newTestService(t *testing.T, p *mockProvider) (*Service, *session.Manager, *[]session.Kind) {
	t.Helper()
	store, err := session.NewMemoryStore()
	require.NoError(t, err)
	m := session.NewManager(store)
	var kinds []session.Kind
	m.Subscribe(func(e session.Event) { kinds = append(kinds, e.Kind) })
	return NewService(p, m, redirect), m, &kinds
}

func TestSignIn(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantLevel notice.Level
		wantMsg   string
	}{
		{name: "success", wantLevel: notice.LevelSuccess, wantMsg: MsgSignedIn},
		{name: "rate limited", err: rateLimited, wantLevel: notice.LevelError, wantMsg: MsgRateLimited},
		{name: "bad credentials", err: badCreds, wantLevel: notice.LevelError, wantMsg: MsgSignInFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &mockProvider{signInFn: func(ctx context.Context, email, password string) (*backend.AuthResponse, error) {
				if tt.err != nil {
					return nil, tt.err
				}
				return okSession(), nil
			}}
			svc, m, kinds := newTestService(t, p)

			sess, n, err := svc.SignIn(context.Background(), "a@example.com", "secret")
			assert.Equal(t, tt.wantLevel, n.Level)
			assert.Equal(t, tt.wantMsg, n.Message)

			if tt.err != nil {
				require.Error(t, err)
				assert.Nil(t, sess)
				assert.Empty(t, *kinds)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "user-1", sess.UserID)
			assert.WithinDuration(t, time.Now().Add(time.Hour), sess.ExpiresAt, time.Minute)
			assert.Equal(t, []session.Kind{session.SignedIn}, *kinds)

			stored, err := m.Current(context.Background(), sess.ID)
			require.NoError(t, err)
			assert.Equal(t, "access", stored.AccessToken)
		})
	}
}

func TestRateLimitMessageDiffersFromCredentialMessage(t *testing.T) {
	assert.NotEqual(t, MsgRateLimited, MsgSignInFailed)
	assert.NotEqual(t, MsgResetRateLimited, MsgResetFailed)
}

func TestSignUpPasswordMismatchMakesNoCall(t *testing.T) {
	p := &mockProvider{}
	svc, _, _ := newTestService(t, p)

	sess, n, err := svc.SignUp(context.Background(), "a@example.com", "one", "two")
	assert.ErrorIs(t, err, ErrPasswordMismatch)
	assert.Nil(t, sess)
	assert.Equal(t, MsgPasswordMismatch, n.Message)
	assert.Zero(t, p.calls)
}

func TestSignUp(t *testing.T) {
	var gotRedirect string
	p := &mockProvider{signUpFn: func(ctx context.Context, email, password, redirectTo string) (*backend.AuthResponse, error) {
		gotRedirect = redirectTo
		return &backend.AuthResponse{User: &backend.User{ID: "user-1", Email: email}}, nil
	}}
	svc, _, kinds := newTestService(t, p)

	sess, n, err := svc.SignUp(context.Background(), "a@example.com", "pw", "pw")
	require.NoError(t, err)
	assert.Nil(t, sess)
	assert.Equal(t, MsgSignedUp, n.Message)
	assert.Equal(t, redirect, gotRedirect)
	assert.Empty(t, *kinds)
}

func TestSignUpRateLimited(t *testing.T) {
	p := &mockProvider{signUpFn: func(ctx context.Context, email, password, redirectTo string) (*backend.AuthResponse, error) {
		return nil, rateLimited
	}}
	svc, _, _ := newTestService(t, p)

	_, n, err := svc.SignUp(context.Background(), "a@example.com", "pw", "pw")
	require.Error(t, err)
	assert.Equal(t, MsgRateLimited, n.Message)
}

func TestResetPassword(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{name: "sent", wantMsg: MsgResetSent},
		{name: "rate limited", err: rateLimited, wantMsg: MsgResetRateLimited},
		{name: "other failure", err: errors.New("boom"), wantMsg: MsgResetFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &mockProvider{resetFn: func(ctx context.Context, email, redirectTo string) error {
				assert.Equal(t, redirect, redirectTo)
				return tt.err
			}}
			svc, _, _ := newTestService(t, p)

			n, err := svc.ResetPassword(context.Background(), "a@example.com")
			assert.Equal(t, tt.wantMsg, n.Message)
			assert.Equal(t, tt.err != nil, err != nil)
		})
	}
}

func TestSignOut(t *testing.T) {
	tests := []struct {
		name      string
		scope     string
		wantScope string
		wantMsg   string
	}{
		{name: "local", scope: "", wantScope: backend.ScopeLocal, wantMsg: MsgSignedOut},
		{name: "global", scope: backend.ScopeGlobal, wantScope: backend.ScopeGlobal, wantMsg: MsgSignedOutAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotScope string
			p := &mockProvider{
				signInFn: func(ctx context.Context, email, password string) (*backend.AuthResponse, error) {
					return okSession(), nil
				},
				signOutFn: func(ctx context.Context, accessToken, scope string) error {
					gotScope = scope
					return nil
				},
			}
			svc, m, kinds := newTestService(t, p)
			ctx := context.Background()

			sess, _, err := svc.SignIn(ctx, "a@example.com", "pw")
			require.NoError(t, err)

			n, err := svc.SignOut(ctx, sess, tt.scope)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMsg, n.Message)
			assert.Equal(t, tt.wantScope, gotScope)
			assert.Equal(t, []session.Kind{session.SignedIn, session.SignedOut}, *kinds)

			_, err = m.Current(ctx, sess.ID)
			assert.ErrorIs(t, err, session.ErrNotFound)
		})
	}
}

func TestSignOutProviderFailureStillDropsSession(t *testing.T) {
	p := &mockProvider{
		signInFn: func(ctx context.Context, email, password string) (*backend.AuthResponse, error) {
			return okSession(), nil
		},
		signOutFn: func(ctx context.Context, accessToken, scope string) error {
			return errors.New("network down")
		},
	}
	svc, m, _ := newTestService(t, p)
	ctx := context.Background()

	sess, _, err := svc.SignIn(ctx, "a@example.com", "pw")
	require.NoError(t, err)

	n, err := svc.SignOut(ctx, sess, backend.ScopeLocal)
	require.Error(t, err)
	assert.True(t, n.IsError())

	_, err = m.Current(ctx, sess.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestUpdatePassword(t *testing.T) {
	p := &mockProvider{updatePasswordFn: func(ctx context.Context, accessToken, password string) (*backend.User, error) {
		assert.Equal(t, "access", accessToken)
		return &backend.User{ID: "user-1", Email: "a@example.com"}, nil
	}}
	svc, _, kinds := newTestService(t, p)
	sess := &session.Session{ID: "s", UserID: "user-1", AccessToken: "access"}

	n, err := svc.UpdatePassword(context.Background(), sess, "new", "other")
	assert.ErrorIs(t, err, ErrPasswordMismatch)
	assert.Equal(t, MsgPasswordMismatch, n.Message)
	assert.Zero(t, p.calls)

	n, err = svc.UpdatePassword(context.Background(), sess, "new", "new")
	require.NoError(t, err)
	assert.Equal(t, MsgPasswordUpdated, n.Message)
	assert.Equal(t, []session.Kind{session.UserUpdated}, *kinds)
}

func TestConfirmEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("no token without session", func(t *testing.T) {
		p := &mockProvider{}
		svc, _, _ := newTestService(t, p)
		sess, n, err := svc.ConfirmEmail(ctx, nil, "", "")
		require.NoError(t, err)
		assert.Nil(t, sess)
		assert.Equal(t, notice.LevelSuccess, n.Level)
		assert.Zero(t, p.calls)
	})

	t.Run("no token with session", func(t *testing.T) {
		svc, _, _ := newTestService(t, &mockProvider{})
		current := &session.Session{ID: "s"}
		sess, n, err := svc.ConfirmEmail(ctx, current, "", "")
		require.NoError(t, err)
		assert.Same(t, current, sess)
		assert.Equal(t, MsgEmailConfirmed, n.Message)
	})

	t.Run("recovery opens session", func(t *testing.T) {
		p := &mockProvider{verifyFn: func(ctx context.Context, tokenHash, otpType string) (*backend.AuthResponse, error) {
			assert.Equal(t, "recovery", otpType)
			return okSession(), nil
		}}
		svc, _, kinds := newTestService(t, p)
		sess, n, err := svc.ConfirmEmail(ctx, nil, "hash", "recovery")
		require.NoError(t, err)
		require.NotNil(t, sess)
		assert.Equal(t, MsgEmailConfirmed, n.Message)
		assert.Equal(t, []session.Kind{session.SignedIn, session.PasswordRecovery}, *kinds)
	})

	t.Run("invalid token", func(t *testing.T) {
		p := &mockProvider{verifyFn: func(ctx context.Context, tokenHash, otpType string) (*backend.AuthResponse, error) {
			assert.Equal(t, "email", otpType)
			return nil, &backend.Error{Status: 403, Code: "otp_expired"}
		}}
		svc, _, _ := newTestService(t, p)
		_, n, err := svc.ConfirmEmail(ctx, nil, "hash", "")
		require.Error(t, err)
		assert.Equal(t, MsgConfirmFailed, n.Message)
	})
}
