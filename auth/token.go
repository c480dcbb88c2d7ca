package auth

// Credentials identify the application (the "API Key" pair in the
// developer portal).
type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
}

// Valid reports whether both halves of the pair are set.
func (c Credentials) Valid() bool {
	return c.ConsumerKey != "" && c.ConsumerSecret != ""
}

// RequestToken is the temporary credential issued by the request token
// endpoint. It is consumed by the verifier exchange.
type RequestToken struct {
	Token             string
	Secret            string
	CallbackConfirmed bool
}

// AccessToken is the token credential used to sign API requests for the
// remainder of the process.
type AccessToken struct {
	Token      string
	Secret     string
	UserID     string
	ScreenName string
}

// Endpoint groups the three URLs of the three-legged flow.
type Endpoint struct {
	RequestTokenURL string
	AuthorizeURL    string
	AccessTokenURL  string
}

// TwitterEndpoint uses oauth/authorize, which always asks the user to grant
// access and then shows a PIN for out-of-band clients.
var TwitterEndpoint = Endpoint{
	RequestTokenURL: "https://api.twitter.com/oauth/request_token",
	AuthorizeURL:    "https://api.twitter.com/oauth/authorize",
	AccessTokenURL:  "https://api.twitter.com/oauth/access_token",
}
