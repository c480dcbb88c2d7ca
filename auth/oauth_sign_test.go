package auth

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"
)

// Example request from Twitter's "Creating a signature" documentation.
func twitterDocSigner() *Signer {
	return &Signer{
		ConsumerKey:    "xvz1evFS4wEEPTGEFPHBog",
		ConsumerSecret: "kAcSOqF21Fu85e7zjz7ZN2U4ZRhfV3WpwPAoE3Z7kBw",
		Token:          "370773112-GmHxMAgYyLbNEtIKZeRNFsMKPR9EyMZeS9weJAEb",
		TokenSecret:    "LswwdoUaIvS8ltyTt5jkRh4J50vUPVVHtR2YPi5kE",
		Nonce:          func() string { return "kYjzVBB8Y0ZFabxSWbWovY3uYSQ2pTgmZeNu2VS4cg" },
		Now:            func() time.Time { return time.Unix(1318622958, 0) },
	}
}

func TestSignMatchesDocumentedSignature(t *testing.T) {
	u, err := url.Parse("https://api.twitter.com/1.1/statuses/update.json?include_entities=true")
	if err != nil {
		t.Fatal(err)
	}
	form := url.Values{"status": {"Hello Ladies + Gentlemen, a signed OAuth request!"}}

	header := twitterDocSigner().Sign(http.MethodPost, u, form, nil)

	want := `oauth_signature="hCtSmYh%2BiHYCEqBWrE7C7hYmtUk%3D"`
	if !strings.Contains(header, want) {
		t.Errorf("expected header to contain %s, got %s", want, header)
	}
	if !strings.HasPrefix(header, "OAuth ") {
		t.Errorf("expected OAuth scheme, got %s", header)
	}
}

func TestSignRequestSignsFormBody(t *testing.T) {
	body := "status=" + url.QueryEscape("Hello Ladies + Gentlemen, a signed OAuth request!")
	req, err := http.NewRequest(http.MethodPost, "https://api.twitter.com/1.1/statuses/update.json?include_entities=true", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if err := twitterDocSigner().SignRequest(req); err != nil {
		t.Fatalf("SignRequest() error = %v", err)
	}
	if got := req.Header.Get("Authorization"); !strings.Contains(got, `oauth_signature="hCtSmYh%2BiHYCEqBWrE7C7hYmtUk%3D"`) {
		t.Errorf("unexpected Authorization header %s", got)
	}

	// the body is still readable after signing
	raw, err := io.ReadAll(req.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != body {
		t.Errorf("expected body %q, got %q", body, raw)
	}
}

func TestSignIncludesExtraParams(t *testing.T) {
	u, _ := url.Parse("https://api.twitter.com/oauth/request_token")
	signer := &Signer{ConsumerKey: "key", ConsumerSecret: "secret"}

	header := signer.Sign(http.MethodPost, u, nil, map[string]string{"oauth_callback": "oob"})

	if !strings.Contains(header, `oauth_callback="oob"`) {
		t.Errorf("expected oauth_callback in %s", header)
	}
	if strings.Contains(header, "oauth_token=") {
		t.Errorf("expected no oauth_token without a token, got %s", header)
	}
}

func TestEscape(t *testing.T) {
	tests := map[string]string{
		"abcXYZ019-._~":      "abcXYZ019-._~",
		"a b":                "a%20b",
		"+":                  "%2B",
		"Ladies + Gentlemen": "Ladies%20%2B%20Gentlemen",
		"☃":                  "%E2%98%83",
		"!*'()":              "%21%2A%27%28%29",
	}
	for in, want := range tests {
		if got := Escape(in); got != want {
			t.Errorf("Escape(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBaseStringNormalizesURL(t *testing.T) {
	u, _ := url.Parse("HTTPS://API.Twitter.com:443/1.1/x.json?b=2&a=1")
	got := BaseString("get", u, nil, map[string]string{"oauth_signature": "ignored"})
	want := "GET&https%3A%2F%2Fapi.twitter.com%2F1.1%2Fx.json&a%3D1%26b%3D2"
	if got != want {
		t.Errorf("BaseString() = %q, want %q", got, want)
	}
}
