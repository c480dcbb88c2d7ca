package twitterguess

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/masa-finance/masa-twitter-guess/auth"
	"github.com/masa-finance/masa-twitter-guess/types"
)

const (
	testConsumerKey    = "consumer-key"
	testConsumerSecret = "consumer-secret"
	testRequestToken   = "req-token"
	testRequestSecret  = "req-secret"
	testAccessToken    = "acc-token"
	testAccessSecret   = "acc-secret"
	testVerifier       = "1234567"
)

var testCreds = auth.Credentials{ConsumerKey: testConsumerKey, ConsumerSecret: testConsumerSecret}

// parseAuthorization splits an OAuth Authorization header into its parameters.
func parseAuthorization(header string) (map[string]string, bool) {
	if !strings.HasPrefix(header, "OAuth ") {
		return nil, false
	}
	params := make(map[string]string)
	for _, part := range strings.Split(strings.TrimPrefix(header, "OAuth "), ", ") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, false
		}
		decoded, err := url.PathUnescape(strings.Trim(value, `"`))
		if err != nil {
			return nil, false
		}
		params[key] = decoded
	}
	return params, true
}

// verifySignature recomputes the HMAC-SHA1 signature the way the provider does.
func verifySignature(r *http.Request, tokenSecret string) (map[string]string, bool) {
	params, ok := parseAuthorization(r.Header.Get("Authorization"))
	if !ok || params["oauth_consumer_key"] != testConsumerKey {
		return nil, false
	}
	if err := r.ParseForm(); err != nil {
		return nil, false
	}
	u := &url.URL{Scheme: "http", Host: r.Host, Path: r.URL.Path, RawQuery: r.URL.RawQuery}
	base := auth.BaseString(r.Method, u, r.PostForm, params)
	mac := hmac.New(sha1.New, []byte(auth.Escape(testConsumerSecret)+"&"+auth.Escape(tokenSecret)))
	mac.Write([]byte(base))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return params, hmac.Equal([]byte(want), []byte(params["oauth_signature"]))
}

// simulatedProvider serves the OAuth endpoints and a user timeline.
type simulatedProvider struct {
	*httptest.Server
	timelines     map[string][]types.Tweet
	timelineCalls int
}

func newSimulatedProvider(t *testing.T) *simulatedProvider {
	t.Helper()
	p := &simulatedProvider{timelines: make(map[string][]types.Tweet)}

	handler := http.NewServeMux()
	handler.HandleFunc("/oauth/request_token", func(w http.ResponseWriter, r *http.Request) {
		params, ok := verifySignature(r, "")
		if !ok || params["oauth_callback"] != "oob" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte("oauth_token=" + testRequestToken + "&oauth_token_secret=" + testRequestSecret + "&oauth_callback_confirmed=true"))
	})
	handler.HandleFunc("/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		params, ok := verifySignature(r, testRequestSecret)
		if !ok || params["oauth_token"] != testRequestToken || params["oauth_verifier"] != testVerifier {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte("oauth_token=" + testAccessToken + "&oauth_token_secret=" + testAccessSecret + "&user_id=42&screen_name=player"))
	})
	handler.HandleFunc("/1.1/statuses/user_timeline.json", func(w http.ResponseWriter, r *http.Request) {
		p.timelineCalls++
		params, ok := verifySignature(r, testAccessSecret)
		if !ok || params["oauth_token"] != testAccessToken {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"errors":[{"code":89,"message":"Invalid or expired token."}]}`))
			return
		}
		tweets, found := p.timelines[r.URL.Query().Get("screen_name")]
		if !found {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[{"code":34,"message":"Sorry, that page does not exist."}]}`))
			return
		}
		count, _ := strconv.Atoi(r.URL.Query().Get("count"))
		maxID, _ := strconv.ParseUint(r.URL.Query().Get("max_id"), 10, 64)
		page := make([]types.Tweet, 0)
		for _, tweet := range tweets {
			if maxID != 0 && tweet.ID > maxID {
				continue
			}
			if len(page) == count {
				break
			}
			page = append(page, tweet)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(page)
	})
	p.Server = httptest.NewServer(handler)
	t.Cleanup(p.Close)
	return p
}

func (p *simulatedProvider) config() Config {
	return DefaultConfig().
		WithEndpoint(auth.Endpoint{
			RequestTokenURL: p.URL + "/oauth/request_token",
			AuthorizeURL:    p.URL + "/oauth/authorize",
			AccessTokenURL:  p.URL + "/oauth/access_token",
		}).
		WithTimelineURL(p.URL + "/1.1/statuses/user_timeline.json")
}

type stubPrompter struct {
	verifier string
	err      error
	shownURL string
}

func (s *stubPrompter) PromptVerifier(authorizationURL string) (string, error) {
	s.shownURL = authorizationURL
	return s.verifier, s.err
}

func newTestSession(t *testing.T, cfg Config) *Session {
	t.Helper()
	session, err := NewSession(testCreds, cfg)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	return session
}

func TestAuthorizeCompletesHandshake(t *testing.T) {
	provider := newSimulatedProvider(t)
	session := newTestSession(t, provider.config())
	prompter := &stubPrompter{verifier: " " + testVerifier + "\n"}

	if err := session.Authorize(context.Background(), prompter); err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}

	if session.State() != StateAuthorized {
		t.Errorf("expected state %s, got %s", StateAuthorized, session.State())
	}
	if want := provider.URL + "/oauth/authorize?oauth_token=" + testRequestToken; prompter.shownURL != want {
		t.Errorf("expected authorization URL %q, got %q", want, prompter.shownURL)
	}
	want := &auth.AccessToken{Token: testAccessToken, Secret: testAccessSecret, UserID: "42", ScreenName: "player"}
	if diff := cmp.Diff(want, session.AccessToken()); diff != "" {
		t.Error("Resulting access token does not match", diff)
	}
}

func TestRequestIsSignedWithAccessToken(t *testing.T) {
	provider := newSimulatedProvider(t)
	provider.timelines["alice"] = []types.Tweet{{ID: 1, Text: "hello"}}
	session := newTestSession(t, provider.config())
	if err := session.Authorize(context.Background(), &stubPrompter{verifier: testVerifier}); err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}

	resp, err := session.Request(context.Background(), http.MethodGet, provider.URL+"/1.1/statuses/user_timeline.json?screen_name=alice&count=5", nil, nil)
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected signed request to be accepted, got %s", resp.Status)
	}
}

func TestRequestBeforeAuthorization(t *testing.T) {
	provider := newSimulatedProvider(t)
	session := newTestSession(t, provider.config())
	ctx := context.Background()
	timelineURL := provider.URL + "/1.1/statuses/user_timeline.json"

	steps := []func() error{
		func() error { return nil },
		func() error { return session.FetchRequestToken(ctx) },
		func() error { return session.SetVerifier(testVerifier) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("handshake step failed: %v", err)
		}
		_, err := session.Request(ctx, http.MethodGet, timelineURL, nil, nil)
		if !errors.Is(err, ErrIllegalState) {
			t.Errorf("in state %s: expected ErrIllegalState, got %v", session.State(), err)
		}
		var stateErr *IllegalStateError
		if !errors.As(err, &stateErr) || stateErr.Want != StateAuthorized {
			t.Errorf("in state %s: expected IllegalStateError wanting %s, got %v", session.State(), StateAuthorized, err)
		}
	}
	if provider.timelineCalls != 0 {
		t.Errorf("expected no timeline call, got %d", provider.timelineCalls)
	}
}

func TestHandshakeStepsCannotBeReordered(t *testing.T) {
	provider := newSimulatedProvider(t)
	ctx := context.Background()

	session := newTestSession(t, provider.config())
	if err := session.FetchAccessToken(ctx); !errors.Is(err, ErrIllegalState) {
		t.Errorf("access token before request token: expected ErrIllegalState, got %v", err)
	}
	if err := session.SetVerifier(testVerifier); !errors.Is(err, ErrIllegalState) {
		t.Errorf("verifier before request token: expected ErrIllegalState, got %v", err)
	}
	if _, err := session.AuthorizationURL(); !errors.Is(err, ErrIllegalState) {
		t.Errorf("authorization URL before request token: expected ErrIllegalState, got %v", err)
	}

	if err := session.FetchRequestToken(ctx); err != nil {
		t.Fatal(err)
	}
	if err := session.FetchRequestToken(ctx); !errors.Is(err, ErrIllegalState) {
		t.Errorf("second request token: expected ErrIllegalState, got %v", err)
	}
	if err := session.FetchAccessToken(ctx); !errors.Is(err, ErrIllegalState) {
		t.Errorf("access token before verifier: expected ErrIllegalState, got %v", err)
	}

	if err := session.SetVerifier(testVerifier); err != nil {
		t.Fatal(err)
	}
	if err := session.FetchAccessToken(ctx); err != nil {
		t.Fatal(err)
	}
	if err := session.FetchAccessToken(ctx); !errors.Is(err, ErrIllegalState) {
		t.Errorf("second access token: expected ErrIllegalState, got %v", err)
	}
}

func TestFetchAccessTokenRejectedIsProtocolError(t *testing.T) {
	provider := newSimulatedProvider(t)
	session := newTestSession(t, provider.config())

	err := session.Authorize(context.Background(), &stubPrompter{verifier: "wrong"})

	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
	if protoErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", protoErr.StatusCode)
	}
	if session.State() != StateHasVerifier {
		t.Errorf("expected session to stay in %s, got %s", StateHasVerifier, session.State())
	}
}

func TestFetchRequestTokenMalformedIsProtocolError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer server.Close()
	cfg := DefaultConfig().WithEndpoint(auth.Endpoint{RequestTokenURL: server.URL})

	err := newTestSession(t, cfg).FetchRequestToken(context.Background())

	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
	if !errors.Is(err, auth.ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse in chain, got %v", err)
	}
}

func TestFetchRequestTokenUnreachableIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL + "/oauth/request_token"
	server.Close()
	cfg := DefaultConfig().WithEndpoint(auth.Endpoint{RequestTokenURL: endpoint})
	session := newTestSession(t, cfg)

	err := session.FetchRequestToken(context.Background())

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if session.State() != StateUnauthenticated {
		t.Errorf("expected session to stay %s, got %s", StateUnauthenticated, session.State())
	}
}

func TestObtainVerifierPromptError(t *testing.T) {
	provider := newSimulatedProvider(t)
	session := newTestSession(t, provider.config())
	promptErr := errors.New("stdin closed")

	err := session.Authorize(context.Background(), &stubPrompter{err: promptErr})
	if !errors.Is(err, promptErr) {
		t.Errorf("expected prompt error, got %v", err)
	}
	if session.State() != StateHasRequestToken {
		t.Errorf("expected %s, got %s", StateHasRequestToken, session.State())
	}
}

func TestNewSessionRequiresCredentials(t *testing.T) {
	if _, err := NewSession(auth.Credentials{ConsumerKey: "key"}, DefaultConfig()); err == nil {
		t.Error("expected an error without consumer secret")
	}
}
