package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/masa-finance/masa-twitter-guess/httpwrap"
	"github.com/masa-finance/masa-twitter-guess/types"
)

// CallbackOOB is the callback value for clients that cannot receive a
// redirect; the provider shows the verifier as a PIN instead.
const CallbackOOB = "oob"

// ErrMalformedResponse is returned when a token endpoint answers without
// the fields the flow requires.
var ErrMalformedResponse = errors.New("malformed token response")

// FetchRequestToken performs the first leg of the handshake: a POST to the
// request token endpoint signed with the consumer credentials only.
//
// Returns:
//   - the temporary request token.
//   - an httpwrap.HTTPError if the endpoint rejects the request, an error
//     wrapping ErrMalformedResponse if token or secret is missing, or the
//     transport error.
func FetchRequestToken(ctx context.Context, client *httpwrap.Client, endpoint string, creds Credentials) (*RequestToken, error) {
	signer := NewSigner(creds, "", "")
	resp, err := postTokenRequest(ctx, client, endpoint, signer, map[string]string{"oauth_callback": CallbackOOB})
	if err != nil {
		return nil, err
	}
	if !resp.OAuthCallbackConfirmed {
		logrus.WithField("endpoint", endpoint).Warn("Provider did not confirm the oob callback")
	}
	return &RequestToken{
		Token:             resp.OAuthToken,
		Secret:            resp.OAuthTokenSecret,
		CallbackConfirmed: resp.OAuthCallbackConfirmed,
	}, nil
}

// AuthorizationURL returns the page the user visits to grant access to the
// request token.
func AuthorizationURL(endpoint string, token *RequestToken) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid authorize URL: %w", err)
	}
	q := u.Query()
	q.Set("oauth_token", token.Token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FetchAccessToken performs the third leg: the request token is exchanged,
// together with the verifier, for the access token. The signer is rebuilt
// from the request token and its secret.
func FetchAccessToken(ctx context.Context, client *httpwrap.Client, endpoint string, creds Credentials, token *RequestToken, verifier string) (*AccessToken, error) {
	signer := NewSigner(creds, token.Token, token.Secret)
	resp, err := postTokenRequest(ctx, client, endpoint, signer, map[string]string{"oauth_verifier": verifier})
	if err != nil {
		return nil, err
	}
	return &AccessToken{
		Token:      resp.OAuthToken,
		Secret:     resp.OAuthTokenSecret,
		UserID:     resp.UserID,
		ScreenName: resp.ScreenName,
	}, nil
}

func postTokenRequest(ctx context.Context, client *httpwrap.Client, endpoint string, signer *Signer, extra map[string]string) (*types.TokenResponse, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid token endpoint: %w", err)
	}

	headers := httpwrap.NewHeader()
	headers.AddContentType(formContentType)
	headers.Add("Authorization", signer.Sign(http.MethodPost, u, nil, extra))

	body, _, err := client.DoRequest(ctx, http.MethodPost, u.String(), nil, headers)
	if err != nil {
		return nil, err
	}

	resp, err := parseTokenResponse(string(body))
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"endpoint": endpoint,
			"content":  string(body),
		}).Error("Unexpected token response")
		return nil, err
	}
	logrus.WithField("endpoint", endpoint).Debug("Received token from provider")
	return resp, nil
}

func parseTokenResponse(body string) (*types.TokenResponse, error) {
	values, err := url.ParseQuery(strings.TrimSpace(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	resp := &types.TokenResponse{
		OAuthToken:             values.Get("oauth_token"),
		OAuthTokenSecret:       values.Get("oauth_token_secret"),
		OAuthCallbackConfirmed: values.Get("oauth_callback_confirmed") == "true",
		UserID:                 values.Get("user_id"),
		ScreenName:             values.Get("screen_name"),
	}
	if resp.OAuthToken == "" || resp.OAuthTokenSecret == "" {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, "token or secret is empty")
	}
	return resp, nil
}
