package twitterguess

import (
	"time"

	"github.com/masa-finance/masa-twitter-guess/auth"
	"github.com/masa-finance/masa-twitter-guess/httpwrap"
)

const (
	userTimelineURL = "https://api.twitter.com/1.1/statuses/user_timeline.json"

	// MaxPageSize is the largest count user_timeline accepts.
	MaxPageSize = 200
	// MaxTimelineDepth is how far back user_timeline can go.
	MaxTimelineDepth = 3200
)

// Config is copied into every Session and Fetcher; changing a Config after
// construction has no effect on them.
type Config struct {
	Endpoint        auth.Endpoint
	TimelineURL     string
	PageSize        int
	RedactionMarker string
	// CheckEachPost makes the reply/retweet check look at each post. By
	// default only the first post of a page is looked at, for the whole page.
	CheckEachPost bool
	ClientTimeout time.Duration
	Proxy         string
	UserAgent     string
}

// DefaultConfig targets the Twitter API.
func DefaultConfig() Config {
	return Config{
		Endpoint:        auth.TwitterEndpoint,
		TimelineURL:     userTimelineURL,
		PageSize:        MaxPageSize,
		RedactionMarker: RedactionMarker,
		ClientTimeout:   httpwrap.DefaultClientTimeout,
	}
}

// WithEndpoint sets the three OAuth endpoints
func (c Config) WithEndpoint(endpoint auth.Endpoint) Config {
	c.Endpoint = endpoint
	return c
}

// WithTimelineURL sets the user timeline endpoint
func (c Config) WithTimelineURL(timelineURL string) Config {
	c.TimelineURL = timelineURL
	return c
}

// WithPageSize sets the number of tweets requested per page, capped at MaxPageSize
func (c Config) WithPageSize(size int) Config {
	if size <= 0 || size > MaxPageSize {
		size = MaxPageSize
	}
	c.PageSize = size
	return c
}

// WithCheckEachPost enable/disable the per-post reply and retweet check
func (c Config) WithCheckEachPost(b bool) Config {
	c.CheckEachPost = b
	return c
}

// client timeout
func (c Config) WithClientTimeout(timeout time.Duration) Config {
	c.ClientTimeout = timeout
	return c
}

// WithProxy
// set http proxy in the format `http://HOST:PORT`
// set socket proxy in the format `socks5://HOST:PORT`
func (c Config) WithProxy(proxyAddr string) Config {
	c.Proxy = proxyAddr
	return c
}

// WithUserAgent sets the user agent sent with every request
func (c Config) WithUserAgent(userAgent string) Config {
	c.UserAgent = userAgent
	return c
}

func (c Config) newHTTPClient() (*httpwrap.Client, error) {
	client := httpwrap.NewClient().WithTimeout(c.ClientTimeout)
	if c.Proxy != "" {
		if err := client.SetProxy(c.Proxy); err != nil {
			return nil, err
		}
	}
	return client, nil
}
