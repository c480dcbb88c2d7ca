package twitterguess

import "golang.org/x/exp/rand"

var UserAgents = []string{
	// Chrome on Mac OS
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36",
	// Firefox on Linux
	"Mozilla/5.0 (X11; Linux x86_64; rv:130.0) Gecko/20100101 Firefox/130.0",
}

// GetRandomUserAgent picks one of UserAgents.
func GetRandomUserAgent() string {
	return UserAgents[rand.Intn(len(UserAgents))]
}

func (c Config) userAgent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return GetRandomUserAgent()
}
