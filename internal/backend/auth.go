package backend

import (
	"context"
	"net/http"
	"net/url"
)

// Auth returns an auth client.
func (c *Client) Auth() *AuthClient {
	return &AuthClient{client: c}
}

// AuthClient handles authentication operations. It holds no tokens itself;
// callers pass the user's access token where one is required.
type AuthClient struct {
	client *Client
}

// AuthResponse is the response from operations that open a session.
// AccessToken is empty when sign-up is waiting for email confirmation.
type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

// User represents an identity-provider user.
type User struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	Role             string         `json:"role"`
	EmailConfirmedAt string         `json:"email_confirmed_at"`
	CreatedAt        string         `json:"created_at"`
	UpdatedAt        string         `json:"updated_at"`
	AppMetadata      map[string]any `json:"app_metadata"`
	UserMetadata     map[string]any `json:"user_metadata"`
}

// Sign-out scopes.
const (
	ScopeLocal  = "local"
	ScopeGlobal = "global"
)

func withRedirect(path, redirectTo string) string {
	if redirectTo == "" {
		return path
	}
	return path + "?redirect_to=" + url.QueryEscape(redirectTo)
}

func (a *AuthClient) post(ctx context.Context, path, operation string, body any) (*Response, error) {
	req, err := a.client.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	return a.client.do(req, operation)
}

func decodeSession(resp *Response) (*AuthResponse, error) {
	var authResp AuthResponse
	if resp.Get("access_token").Exists() {
		if err := resp.Decode(&authResp); err != nil {
			return nil, err
		}
		return &authResp, nil
	}
	// Confirmation pending: the body is the bare user.
	var user User
	if err := resp.Decode(&user); err != nil {
		return nil, err
	}
	authResp.User = &user
	return &authResp, nil
}

// SignInWithPassword opens a session with email and password.
func (a *AuthClient) SignInWithPassword(ctx context.Context, email, password string) (*AuthResponse, error) {
	resp, err := a.post(ctx, "/auth/v1/token?grant_type=password", "auth.signin", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	return decodeSession(resp)
}

// SignUp registers a user. The confirmation email links back to redirectTo.
func (a *AuthClient) SignUp(ctx context.Context, email, password, redirectTo string) (*AuthResponse, error) {
	resp, err := a.post(ctx, withRedirect("/auth/v1/signup", redirectTo), "auth.signup", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	return decodeSession(resp)
}

// ResetPasswordForEmail sends a recovery email linking back to redirectTo.
func (a *AuthClient) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	_, err := a.post(ctx, withRedirect("/auth/v1/recover", redirectTo), "auth.recover", map[string]string{
		"email": email,
	})
	return err
}

// VerifyOTP redeems the token hash carried by a confirmation or recovery link.
func (a *AuthClient) VerifyOTP(ctx context.Context, tokenHash, otpType string) (*AuthResponse, error) {
	resp, err := a.post(ctx, "/auth/v1/verify", "auth.verify", map[string]string{
		"type":       otpType,
		"token_hash": tokenHash,
	})
	if err != nil {
		return nil, err
	}
	return decodeSession(resp)
}

// GetUser returns the user owning accessToken.
func (a *AuthClient) GetUser(ctx context.Context, accessToken string) (*User, error) {
	ctx = ContextWithAccessToken(ctx, accessToken)
	req, err := a.client.newRequest(ctx, http.MethodGet, "/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.client.do(req, "auth.user")
	if err != nil {
		return nil, err
	}
	var user User
	if err := resp.Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdatePassword changes the password of the user owning accessToken.
func (a *AuthClient) UpdatePassword(ctx context.Context, accessToken, password string) (*User, error) {
	ctx = ContextWithAccessToken(ctx, accessToken)
	req, err := a.client.newRequest(ctx, http.MethodPut, "/auth/v1/user", map[string]string{
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	resp, err := a.client.do(req, "auth.update")
	if err != nil {
		return nil, err
	}
	var user User
	if err := resp.Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SignOut revokes the session behind accessToken, or every session of the
// user when scope is ScopeGlobal.
func (a *AuthClient) SignOut(ctx context.Context, accessToken, scope string) error {
	if scope == "" {
		scope = ScopeLocal
	}
	ctx = ContextWithAccessToken(ctx, accessToken)
	req, err := a.client.newRequest(ctx, http.MethodPost, "/auth/v1/logout?scope="+url.QueryEscape(scope), nil)
	if err != nil {
		return err
	}
	_, err = a.client.do(req, "auth.signout")
	return err
}
