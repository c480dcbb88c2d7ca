package auth

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	SignatureMethod = "HMAC-SHA1"
	Version         = "1.0"

	formContentType = "application/x-www-form-urlencoded"
)

// Signer produces OAuth 1.0a HMAC-SHA1 Authorization headers.
//
// Token and TokenSecret are empty while fetching a request token, hold the
// request token during the verifier exchange and the access token afterwards.
type Signer struct {
	ConsumerKey    string
	ConsumerSecret string
	Token          string
	TokenSecret    string

	// Nonce and Now default to a random hex nonce and time.Now.
	Nonce func() string
	Now   func() time.Time
}

// NewSigner returns a Signer for the given consumer credentials and token.
func NewSigner(creds Credentials, token, tokenSecret string) *Signer {
	return &Signer{
		ConsumerKey:    creds.ConsumerKey,
		ConsumerSecret: creds.ConsumerSecret,
		Token:          token,
		TokenSecret:    tokenSecret,
	}
}

// Sign generates the Authorization header value for a request.
//
// Parameters:
//   - httpMethod: the HTTP method of the request.
//   - requestURL: the request URL; its query parameters are signed.
//   - form: decoded application/x-www-form-urlencoded body parameters, or nil.
//   - extra: additional protocol parameters such as oauth_callback or
//     oauth_verifier.
//
// The signature base string is METHOD&enc(base URL)&enc(normalized params)
// and the key is enc(consumer secret)&enc(token secret), per RFC 5849.
func (s *Signer) Sign(httpMethod string, requestURL *url.URL, form url.Values, extra map[string]string) string {
	oauthParams := map[string]string{
		"oauth_consumer_key":     s.ConsumerKey,
		"oauth_nonce":            s.nonce(),
		"oauth_signature_method": SignatureMethod,
		"oauth_timestamp":        strconv.FormatInt(s.now().Unix(), 10),
		"oauth_version":          Version,
	}
	if s.Token != "" {
		oauthParams["oauth_token"] = s.Token
	}
	for key, value := range extra {
		oauthParams[key] = value
	}

	oauthParams["oauth_signature"] = s.signature(httpMethod, requestURL, form, oauthParams)

	keys := make([]string, 0, len(oauthParams))
	for key := range oauthParams {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var authorizationHeaderBuffer bytes.Buffer
	for _, key := range keys {
		if authorizationHeaderBuffer.Len() > 0 {
			authorizationHeaderBuffer.WriteString(", ")
		}
		authorizationHeaderBuffer.WriteString(Escape(key))
		authorizationHeaderBuffer.WriteString(`="`)
		authorizationHeaderBuffer.WriteString(Escape(oauthParams[key]))
		authorizationHeaderBuffer.WriteByte('"')
	}

	return "OAuth " + authorizationHeaderBuffer.String()
}

// SignRequest sets the Authorization header on req. A form-encoded body is
// read, signed and restored.
func (s *Signer) SignRequest(req *http.Request) error {
	var form url.Values
	if req.Body != nil && req.Body != http.NoBody && isFormContentType(req.Header.Get("Content-Type")) {
		raw, err := io.ReadAll(req.Body)
		if err != nil {
			return fmt.Errorf("reading request body: %w", err)
		}
		_ = req.Body.Close()
		req.Body = io.NopCloser(bytes.NewReader(raw))
		form, err = url.ParseQuery(string(raw))
		if err != nil {
			return fmt.Errorf("parsing form body: %w", err)
		}
	}
	req.Header.Set("Authorization", s.Sign(req.Method, req.URL, form, nil))
	return nil
}

func (s *Signer) signature(httpMethod string, requestURL *url.URL, form url.Values, oauthParams map[string]string) string {
	signingKey := []byte(Escape(s.ConsumerSecret) + "&" + Escape(s.TokenSecret))
	hmacHasher := hmac.New(sha1.New, signingKey)
	hmacHasher.Write([]byte(BaseString(httpMethod, requestURL, form, oauthParams)))
	return base64.StdEncoding.EncodeToString(hmacHasher.Sum(nil))
}

// BaseString builds the OAuth 1.0a signature base string.
func BaseString(httpMethod string, requestURL *url.URL, form url.Values, oauthParams map[string]string) string {
	type pair struct{ key, value string }
	var pairs []pair
	for key, values := range requestURL.Query() {
		for _, value := range values {
			pairs = append(pairs, pair{Escape(key), Escape(value)})
		}
	}
	for key, values := range form {
		for _, value := range values {
			pairs = append(pairs, pair{Escape(key), Escape(value)})
		}
	}
	for key, value := range oauthParams {
		if key == "oauth_signature" || key == "realm" {
			continue
		}
		pairs = append(pairs, pair{Escape(key), Escape(value)})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].key != pairs[j].key {
			return pairs[i].key < pairs[j].key
		}
		return pairs[i].value < pairs[j].value
	})

	var paramBuffer bytes.Buffer
	for _, p := range pairs {
		if paramBuffer.Len() > 0 {
			paramBuffer.WriteByte('&')
		}
		paramBuffer.WriteString(p.key)
		paramBuffer.WriteByte('=')
		paramBuffer.WriteString(p.value)
	}

	signatureBaseComponents := []string{strings.ToUpper(httpMethod), baseURL(requestURL), paramBuffer.String()}
	var signatureBaseBuffer bytes.Buffer
	for _, component := range signatureBaseComponents {
		if signatureBaseBuffer.Len() > 0 {
			signatureBaseBuffer.WriteByte('&')
		}
		signatureBaseBuffer.WriteString(Escape(component))
	}
	return signatureBaseBuffer.String()
}

// baseURL drops query, fragment and default ports, and lowercases scheme and host.
func baseURL(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" && !(scheme == "http" && port == "80") && !(scheme == "https" && port == "443") {
		host = host + ":" + port
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return scheme + "://" + host + path
}

// Escape percent-encodes s per RFC 3986: everything but ALPHA, DIGIT and
// "-._~" is encoded with uppercase hex.
func Escape(s string) string {
	const hexDigits = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hexDigits[c>>4])
		b.WriteByte(hexDigits[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}

func isFormContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == formContentType
}

func (s *Signer) nonce() string {
	if s.Nonce != nil {
		return s.Nonce()
	}
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return hex.EncodeToString(buf)
}

func (s *Signer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
