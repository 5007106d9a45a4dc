// Package googleauth wraps the Google sign-in flow: exchanging an OAuth
// authorization code for tokens and validating the resulting ID token. The
// platform only needs a verified email out of it; votes themselves never
// touch Google.
package googleauth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

// Identity is the subset of the Google ID token the platform cares about.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// Verifier exchanges and validates Google credentials.
type Verifier struct {
	clientID    string
	oauthConfig *oauth2.Config
}

// NewVerifier builds a Verifier for the given OAuth client. clientSecret and
// redirectURL are only needed for the code-exchange flow; ID token
// validation works with the client ID alone.
func NewVerifier(clientID, clientSecret, redirectURL string) *Verifier {
	return &Verifier{
		clientID: clientID,
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
	}
}

// AuthCodeURL returns the Google consent page URL for the given state.
func (v *Verifier) AuthCodeURL(state string) string {
	return v.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// ExchangeCode trades an authorization code for the ID token inside Google's
// token response, then validates it.
func (v *Verifier) ExchangeCode(ctx context.Context, code string) (*Identity, error) {
	token, err := v.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("token response did not include an id_token")
	}

	return v.VerifyIDToken(ctx, rawIDToken)
}

// VerifyIDToken validates a Google ID token against the configured client ID
// and extracts the identity claims.
func (v *Verifier) VerifyIDToken(ctx context.Context, rawIDToken string) (*Identity, error) {
	payload, err := idtoken.Validate(ctx, rawIDToken, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to validate ID token: %w", err)
	}

	identity := &Identity{Subject: payload.Subject}
	if email, ok := payload.Claims["email"].(string); ok {
		identity.Email = email
	}
	if verified, ok := payload.Claims["email_verified"].(bool); ok {
		identity.EmailVerified = verified
	}
	if name, ok := payload.Claims["name"].(string); ok {
		identity.Name = name
	}

	if identity.Email == "" {
		return nil, fmt.Errorf("ID token carried no email claim")
	}

	return identity, nil
}
