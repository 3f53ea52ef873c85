// Package auth turns identity-provider calls into sessions and user notices.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/visadesk/visadesk/internal/backend"
	"github.com/visadesk/visadesk/internal/session"
	"github.com/visadesk/visadesk/shared/notice"
	"github.com/visadesk/visadesk/shared/utils"
)

const (
	MsgRateLimited      = "Too many attempts. Please wait a few minutes before trying again."
	MsgResetRateLimited = "Too many reset requests. Please wait a few minutes before trying again."
	MsgSignInFailed     = "Sign-in failed. Check your credentials."
	MsgSignedIn         = "Signed in successfully!"
	MsgPasswordMismatch = "Passwords do not match"
	MsgSignUpFailed     = "Could not create the account."
	MsgSignedUp         = "Account created! Check your email to confirm your account."
	MsgResetFailed      = "Could not send the reset email."
	MsgResetSent        = "A password reset email has been sent."
	MsgSignedOut        = "Signed out successfully"
	MsgSignedOutAll     = "Signed out of all sessions"
	MsgSignOutFailed    = "Could not sign out"
	MsgPasswordUpdated  = "Password updated successfully"
	MsgPasswordFailed   = "Could not update the password"
	MsgEmailConfirmed   = "Your account is confirmed! You can now sign in."
	MsgConfirmFailed    = "Confirmation failed. Please try again."

	otpTypeRecovery = "recovery"
	defaultOTPType  = "email"
)

var ErrPasswordMismatch = errors.New("passwords do not match")

// Provider is the identity provider. *backend.AuthClient satisfies it.
type Provider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*backend.AuthResponse, error)
	SignUp(ctx context.Context, email, password, redirectTo string) (*backend.AuthResponse, error)
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	VerifyOTP(ctx context.Context, tokenHash, otpType string) (*backend.AuthResponse, error)
	UpdatePassword(ctx context.Context, accessToken, password string) (*backend.User, error)
	SignOut(ctx context.Context, accessToken, scope string) error
}

type Service struct {
	provider   Provider
	sessions   *session.Manager
	redirectTo string
	now        func() time.Time
}

// NewService builds the service. redirectTo is where confirmation and reset
// emails send the user back.
func NewService(provider Provider, sessions *session.Manager, redirectTo string) *Service {
	return &Service{
		provider:   provider,
		sessions:   sessions,
		redirectTo: redirectTo,
		now:        time.Now,
	}
}

func (s *Service) newSession(resp *backend.AuthResponse) *session.Session {
	sess := &session.Session{
		ID:           utils.GenerateSessionID(),
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		CreatedAt:    s.now().UTC(),
	}
	switch {
	case resp.ExpiresAt > 0:
		sess.ExpiresAt = time.Unix(resp.ExpiresAt, 0).UTC()
	case resp.ExpiresIn > 0:
		sess.ExpiresAt = sess.CreatedAt.Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	if resp.User != nil {
		sess.UserID = resp.User.ID
		sess.Email = resp.User.Email
	}
	return sess
}

func (s *Service) open(ctx context.Context, resp *backend.AuthResponse) (*session.Session, error) {
	sess := s.newSession(resp)
	if err := s.sessions.Start(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Service) SignIn(ctx context.Context, email, password string) (*session.Session, notice.Notice, error) {
	resp, err := s.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		logrus.WithError(err).WithField("operation", "signin").Error("sign-in failed")
		if backend.IsRateLimited(err) {
			return nil, notice.Error(MsgRateLimited), err
		}
		return nil, notice.Error(MsgSignInFailed), err
	}

	sess, err := s.open(ctx, resp)
	if err != nil {
		logrus.WithError(err).Error("failed to store session")
		return nil, notice.Error(MsgSignInFailed), err
	}
	return sess, notice.Success(MsgSignedIn), nil
}

// SignUp creates the account. When the provider auto-confirms, the returned
// session is non-nil.
func (s *Service) SignUp(ctx context.Context, email, password, confirm string) (*session.Session, notice.Notice, error) {
	if password != confirm {
		return nil, notice.Error(MsgPasswordMismatch), ErrPasswordMismatch
	}

	resp, err := s.provider.SignUp(ctx, email, password, s.redirectTo)
	if err != nil {
		logrus.WithError(err).WithField("operation", "signup").Error("sign-up failed")
		if backend.IsRateLimited(err) {
			return nil, notice.Error(MsgRateLimited), err
		}
		return nil, notice.Error(MsgSignUpFailed), err
	}

	if resp.AccessToken == "" {
		return nil, notice.Success(MsgSignedUp), nil
	}
	sess, err := s.open(ctx, resp)
	if err != nil {
		logrus.WithError(err).Error("failed to store session")
		return nil, notice.Error(MsgSignUpFailed), err
	}
	return sess, notice.Success(MsgSignedUp), nil
}

func (s *Service) ResetPassword(ctx context.Context, email string) (notice.Notice, error) {
	if err := s.provider.ResetPasswordForEmail(ctx, email, s.redirectTo); err != nil {
		logrus.WithError(err).WithField("operation", "reset-password").Error("reset request failed")
		if backend.IsRateLimited(err) {
			return notice.Error(MsgResetRateLimited), err
		}
		return notice.Error(MsgResetFailed), err
	}
	return notice.Success(MsgResetSent), nil
}

// SignOut ends the session locally or, with scope global, on every device.
// The local record is dropped even when the provider call fails.
func (s *Service) SignOut(ctx context.Context, sess *session.Session, scope string) (notice.Notice, error) {
	global := scope == backend.ScopeGlobal
	if !global {
		scope = backend.ScopeLocal
	}

	providerErr := s.provider.SignOut(ctx, sess.AccessToken, scope)
	if providerErr != nil {
		logrus.WithError(providerErr).WithField("operation", "signout").Error("sign-out failed")
	}

	if err := s.sessions.End(ctx, sess, global); err != nil {
		logrus.WithError(err).Error("failed to drop session")
		return notice.Error(MsgSignOutFailed), err
	}

	if providerErr != nil {
		return notice.Error(MsgSignOutFailed), providerErr
	}
	if global {
		return notice.Success(MsgSignedOutAll), nil
	}
	return notice.Success(MsgSignedOut), nil
}

func (s *Service) UpdatePassword(ctx context.Context, sess *session.Session, password, confirm string) (notice.Notice, error) {
	if password != confirm {
		return notice.Error(MsgPasswordMismatch), ErrPasswordMismatch
	}

	user, err := s.provider.UpdatePassword(ctx, sess.AccessToken, password)
	if err != nil {
		logrus.WithError(err).WithField("operation", "update-password").Error("password update failed")
		if backend.IsRateLimited(err) {
			return notice.Error(MsgRateLimited), err
		}
		return notice.Error(MsgPasswordFailed), err
	}

	if user != nil && user.Email != "" {
		sess.Email = user.Email
	}
	s.sessions.Signal(session.UserUpdated, sess)
	return notice.Success(MsgPasswordUpdated), nil
}

// ConfirmEmail redeems the token from a confirmation or recovery email.
// Without a token the provider has already confirmed the address before
// redirecting, so only the current session is reported back.
func (s *Service) ConfirmEmail(ctx context.Context, current *session.Session, tokenHash, otpType string) (*session.Session, notice.Notice, error) {
	if tokenHash == "" {
		return current, notice.Success(MsgEmailConfirmed), nil
	}
	if otpType == "" {
		otpType = defaultOTPType
	}

	resp, err := s.provider.VerifyOTP(ctx, tokenHash, otpType)
	if err != nil {
		logrus.WithError(err).WithField("operation", "verify").Error("email confirmation failed")
		return nil, notice.Error(MsgConfirmFailed), err
	}
	if resp.AccessToken == "" {
		return nil, notice.Success(MsgEmailConfirmed), nil
	}

	sess, err := s.open(ctx, resp)
	if err != nil {
		logrus.WithError(err).Error("failed to store session")
		return nil, notice.Error(MsgConfirmFailed), err
	}
	if otpType == otpTypeRecovery {
		s.sessions.Signal(session.PasswordRecovery, sess)
	}
	return sess, notice.Success(MsgEmailConfirmed), nil
}
