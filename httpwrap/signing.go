package httpwrap

import "net/http"

// SigningTransport is a custom RoundTripper that signs every request
// before sending it, e.g. with an OAuth1 Authorization header.
type SigningTransport struct {
	Transport http.RoundTripper
	Sign      func(req *http.Request) error
}

// RoundTrip signs a clone of the request and executes it.
func (t *SigningTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original
	reqClone := req.Clone(req.Context())
	if err := t.Sign(reqClone); err != nil {
		if req.Body != nil {
			_ = req.Body.Close()
		}
		return nil, err
	}

	transport := t.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	return transport.RoundTrip(reqClone)
}
