package httpwrap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/proxy"
)

const DefaultClientTimeout = 10 * time.Second

// Client is a wrapper around http.Client that provides simplified HTTP methods.
type Client struct {
	httpClient *http.Client
	proxy      string
	sign       func(req *http.Request) error
}

// NewClient creates a new Client with the default timeout.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: DefaultClientTimeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 10,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		},
	}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

// DoRequest sends an HTTP request with the given method, URL, body, and headers
// and returns the response body. A status >= 300 is returned as an HTTPError.
// The second return value is X-Rate-Limit-Remaining, or -1 when absent.
func (c *Client) DoRequest(ctx context.Context, method, url string, bodyReader io.Reader, headers Header) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, -1, err
	}

	// Set headers
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, -1, err
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			logrus.Errorf("error closing response body: %v\n", err)
		}
	}(resp.Body)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, -1, fmt.Errorf("error reading response: %w", err)
	}
	if err := CheckStatus(resp, respBody); err != nil {
		return nil, -1, err
	}
	return respBody, RateLimitRemaining(resp), nil
}

// CheckStatus returns an HTTPError for statuses >= 300.
func CheckStatus(resp *http.Response, body []byte) error {
	if resp.StatusCode < 300 {
		return nil
	}
	httpErr := HTTPError{
		Status:     resp.Status,
		StatusCode: resp.StatusCode,
		Body:       body,
		Err:        fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
	httpErr.Log()
	return httpErr
}

// RateLimitRemaining parses X-Rate-Limit-Remaining, returning -1 if it is
// missing or invalid.
func RateLimitRemaining(resp *http.Response) int {
	value := resp.Header.Get("X-Rate-Limit-Remaining")
	if value == "" {
		return -1
	}
	limitCount, err := strconv.Atoi(value)
	if err != nil {
		return -1
	}
	return limitCount
}

// SetTimeout sets the timeout for the underlying http.Client.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// SetProxy sets the proxy for the underlying http.Client.
// An empty address restores a direct transport.
func (c *Client) SetProxy(proxyAddr string) error {
	if proxyAddr == "" {
		c.setTransport(&http.Transport{
			TLSNextProto: make(map[string]func(authority string, c *tls.Conn) http.RoundTripper),
			DialContext: (&net.Dialer{
				Timeout: c.httpClient.Timeout,
			}).DialContext,
		})
		c.proxy = ""
	} else if strings.HasPrefix(proxyAddr, "http") {
		urlproxy, err := url.Parse(proxyAddr)
		if err != nil {
			return err
		}
		c.setTransport(&http.Transport{
			Proxy:        http.ProxyURL(urlproxy),
			TLSNextProto: make(map[string]func(authority string, c *tls.Conn) http.RoundTripper),
			DialContext: (&net.Dialer{
				Timeout: c.httpClient.Timeout,
			}).DialContext,
		})
		c.proxy = proxyAddr
	} else if strings.HasPrefix(proxyAddr, "socks5") {
		baseDialer := &net.Dialer{
			Timeout:   c.httpClient.Timeout,
			KeepAlive: c.httpClient.Timeout,
		}
		proxyURL, err := url.Parse(proxyAddr)
		if err != nil {
			return err
		}

		var auth *proxy.Auth
		if proxyURL.User != nil {
			password, _ := proxyURL.User.Password()
			auth = &proxy.Auth{User: proxyURL.User.Username(), Password: password}
		}

		dialSocksProxy, err := proxy.SOCKS5("tcp", proxyURL.Host, auth, baseDialer)
		if err != nil {
			return errors.New("error creating socks5 proxy :" + err.Error())
		}
		contextDialer, ok := dialSocksProxy.(proxy.ContextDialer)
		if !ok {
			return errors.New("failed type assertion to DialContext")
		}
		c.setTransport(&http.Transport{
			DialContext: contextDialer.DialContext,
		})
		c.proxy = proxyAddr
	} else {
		return errors.New("only support http(s) or socks5 protocol")
	}
	return nil
}

// Proxy returns the configured proxy address.
func (c *Client) Proxy() string {
	return c.proxy
}

func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// WithSigner signs every request sent through the client.
func (c *Client) WithSigner(sign func(req *http.Request) error) *Client {
	c.sign = sign
	c.setTransport(c.httpClient.Transport)
	return c
}

func (c *Client) setTransport(transport http.RoundTripper) {
	if st, ok := transport.(*SigningTransport); ok {
		transport = st.Transport
	}
	if c.sign != nil {
		transport = &SigningTransport{Transport: transport, Sign: c.sign}
	}
	c.httpClient.Transport = transport
}
