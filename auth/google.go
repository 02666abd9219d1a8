package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rpupo63/projecthub-backend/errs"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// GoogleUser is the subset of the OpenID userinfo response we keep.
type GoogleUser struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

func NewGoogleProvider(clientID, clientSecret, redirectURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

func (g *GoogleProvider) AuthURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (g *GoogleProvider) Exchange(ctx context.Context, code string) (*GoogleUser, error) {
	if code == "" {
		return nil, errs.NewInvalidFieldError("code", "authorization code is required")
	}
	tok, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, errs.NewUnauthenticatedError(fmt.Sprintf("google code exchange failed: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, errs.NewInternalErrorWithCause("failed to build userinfo request", err)
	}
	resp, err := g.config.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, errs.NewInternalErrorWithCause("google userinfo request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errs.NewUnauthenticatedError(fmt.Sprintf("google userinfo returned status %d", resp.StatusCode))
	}

	var user GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, errs.NewInternalErrorWithCause("failed to decode google userinfo", err)
	}
	if user.Email == "" {
		return nil, errs.NewUnauthenticatedError("google account has no email")
	}
	return &user, nil
}
