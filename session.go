package twitterguess

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/masa-finance/masa-twitter-guess/auth"
	"github.com/masa-finance/masa-twitter-guess/httpwrap"
)

// State of the three-legged handshake.
type State int

const (
	// StateUnauthenticated - nothing fetched yet
	StateUnauthenticated State = iota
	// StateHasRequestToken - first leg done, waiting for the user
	StateHasRequestToken
	// StateHasVerifier - user supplied the PIN
	StateHasVerifier
	// StateAuthorized - access token obtained, Request may be used
	StateAuthorized
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateHasRequestToken:
		return "has-request-token"
	case StateHasVerifier:
		return "has-verifier"
	case StateAuthorized:
		return "authorized"
	}
	return "unknown"
}

var errEmptyVerifier = errors.New("verifier is empty")

// Session drives the OAuth1 three-legged handshake and, once authorized,
// signs and sends API requests on behalf of the user.
//
// A Session is not safe for concurrent use.
type Session struct {
	cfg       Config
	creds     auth.Credentials
	client    *httpwrap.Client
	api       *httpwrap.Client
	userAgent string

	state        State
	requestToken *auth.RequestToken
	verifier     string
	accessToken  *auth.AccessToken
}

// NewSession creates an unauthenticated Session.
func NewSession(creds auth.Credentials, cfg Config) (*Session, error) {
	if !creds.Valid() {
		return nil, errors.New("consumer key and secret are required")
	}
	client, err := cfg.newHTTPClient()
	if err != nil {
		return nil, err
	}
	return &Session{
		cfg:       cfg,
		creds:     creds,
		client:    client,
		userAgent: cfg.userAgent(),
	}, nil
}

// State returns the current handshake state.
func (s *Session) State() State {
	return s.state
}

// AccessToken returns the access token, or nil before authorization.
func (s *Session) AccessToken() *auth.AccessToken {
	return s.accessToken
}

// Authorize runs the whole handshake: request token, verifier, access token.
func (s *Session) Authorize(ctx context.Context, prompter VerifierPrompter) error {
	if err := s.FetchRequestToken(ctx); err != nil {
		return err
	}
	if err := s.ObtainVerifier(prompter); err != nil {
		return err
	}
	return s.FetchAccessToken(ctx)
}

// FetchRequestToken performs the first leg of the handshake.
func (s *Session) FetchRequestToken(ctx context.Context) error {
	const op = "fetch request token"
	if err := s.expect(op, StateUnauthenticated); err != nil {
		return err
	}

	token, err := auth.FetchRequestToken(ctx, s.client, s.cfg.Endpoint.RequestTokenURL, s.creds)
	if err != nil {
		logrus.WithError(err).Error("Failed to fetch request token")
		return classify(op, err)
	}

	s.requestToken = token
	s.state = StateHasRequestToken
	logrus.WithField("callback_confirmed", token.CallbackConfirmed).Info("Obtained request token")
	return nil
}

// AuthorizationURL returns the page where the user grants access.
func (s *Session) AuthorizationURL() (string, error) {
	if err := s.expect("authorization url", StateHasRequestToken); err != nil {
		return "", err
	}
	return auth.AuthorizationURL(s.cfg.Endpoint.AuthorizeURL, s.requestToken)
}

// ObtainVerifier presents the authorization URL to the user and blocks until
// the prompter returns the PIN.
func (s *Session) ObtainVerifier(prompter VerifierPrompter) error {
	authURL, err := s.AuthorizationURL()
	if err != nil {
		return err
	}
	verifier, err := prompter.PromptVerifier(authURL)
	if err != nil {
		return err
	}
	return s.SetVerifier(verifier)
}

// SetVerifier records the PIN obtained out of band.
func (s *Session) SetVerifier(verifier string) error {
	const op = "set verifier"
	if err := s.expect(op, StateHasRequestToken); err != nil {
		return err
	}
	verifier = strings.TrimSpace(verifier)
	if verifier == "" {
		return errEmptyVerifier
	}
	s.verifier = verifier
	s.state = StateHasVerifier
	return nil
}

// FetchAccessToken exchanges the request token and verifier for the access
// token. The request token is discarded afterwards.
func (s *Session) FetchAccessToken(ctx context.Context) error {
	const op = "fetch access token"
	if err := s.expect(op, StateHasVerifier); err != nil {
		return err
	}

	token, err := auth.FetchAccessToken(ctx, s.client, s.cfg.Endpoint.AccessTokenURL, s.creds, s.requestToken, s.verifier)
	if err != nil {
		logrus.WithError(err).Error("Failed to fetch access token")
		return classify(op, err)
	}

	api, err := s.cfg.newHTTPClient()
	if err != nil {
		return err
	}
	signer := auth.NewSigner(s.creds, token.Token, token.Secret)
	s.api = api.WithSigner(signer.SignRequest)

	s.accessToken = token
	s.requestToken = nil
	s.verifier = ""
	s.state = StateAuthorized
	logrus.WithField("screen_name", token.ScreenName).Info("Successfully authorized")
	return nil
}

// Request signs the request with the access token and sends it. The raw
// response is returned whatever its status; the caller must close the body.
func (s *Session) Request(ctx context.Context, method, rawURL string, body io.Reader, headers httpwrap.Header) (*http.Response, error) {
	const op = "request"
	if err := s.expect(op, StateAuthorized); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if req.Header.Get("User-Agent") == "" && s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	logrus.WithFields(logrus.Fields{
		"URL":    req.URL.String(),
		"Method": req.Method,
	}).Debug("Sending signed request")

	resp, err := s.api.Do(req)
	if err != nil {
		logrus.WithError(err).Error("Failed to execute request")
		return nil, &NetworkError{Op: op, Err: err}
	}
	return resp, nil
}

func (s *Session) expect(op string, want State) error {
	if s.state != want {
		return &IllegalStateError{Op: op, State: s.state, Want: want}
	}
	return nil
}
