package twitterguess

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/masa-finance/masa-twitter-guess/httpwrap"
	"github.com/masa-finance/masa-twitter-guess/types"
)

// errCursorNotDecreasing is returned when the oldest tweet of a page is newer
// than the max_id that requested it.
var errCursorNotDecreasing = errors.New("provider returned tweets newer than max_id")

// Requester sends a signed request. *Session implements it.
type Requester interface {
	Request(ctx context.Context, method, rawURL string, body io.Reader, headers httpwrap.Header) (*http.Response, error)
}

// Post is a tweet as seen by the game.
type Post struct {
	ID        uint64
	Text      string
	IsReply   bool
	IsReshare bool
}

// Fetcher pages through user timelines, keeping only original tweets.
type Fetcher struct {
	requester Requester
	cfg       Config
	filter    *Filter
}

// NewFetcher returns a Fetcher sending its requests through requester.
func NewFetcher(requester Requester, cfg Config) *Fetcher {
	if cfg.PageSize <= 0 || cfg.PageSize > MaxPageSize {
		cfg.PageSize = MaxPageSize
	}
	return &Fetcher{
		requester: requester,
		cfg:       cfg,
		filter:    NewFilter(cfg.RedactionMarker),
	}
}

// FetchFilteredTweets returns up to n of the latest original tweets of
// screenName, newest first, with links redacted.
//
// Replies, retweets, tweets tagging a user and tweets made of a single link
// are skipped. Unless Config.CheckEachPost is set, whether a tweet is a
// reply or a retweet is decided by the first tweet of its page: a page
// starting with a reply or a retweet contributes nothing.
//
// The result is shorter than n when the history runs out. Any failure
// discards everything fetched so far and returns a *FetchError. n <= 0
// returns an empty slice without any request.
func (f *Fetcher) FetchFilteredTweets(ctx context.Context, screenName string, n int) ([]Post, error) {
	accepted := make([]Post, 0)
	if n <= 0 {
		return accepted, nil
	}
	var lastID uint64

	for page := 1; len(accepted) < n; page++ {
		posts, err := f.fetchPage(ctx, screenName, lastID)
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"screen_name": screenName,
				"page":        page,
			}).Error("Failed to fetch timeline page")
			return nil, &FetchError{ScreenName: screenName, Page: page, Err: err}
		}
		if len(posts) == 0 {
			break
		}

		oldestID := posts[len(posts)-1].ID
		if oldestID == lastID {
			// only the boundary tweet came back: end of history
			break
		}
		if lastID != 0 && oldestID > lastID {
			return nil, &FetchError{ScreenName: screenName, Page: page, Err: errCursorNotDecreasing}
		}

		first := posts[0]
		kept := 0
		for _, post := range posts {
			if lastID != 0 && post.ID == lastID {
				// already looked at as the oldest tweet of the previous page
				continue
			}
			gate := first
			if f.cfg.CheckEachPost {
				gate = post
			}
			if gate.IsReply || gate.IsReshare {
				continue
			}
			text, ok := f.filter.Apply(post.Text)
			if !ok {
				continue
			}
			post.Text = text
			accepted = append(accepted, post)
			kept++
		}

		logrus.WithFields(logrus.Fields{
			"screen_name": screenName,
			"page":        page,
			"received":    len(posts),
			"kept":        kept,
			"max_id":      lastID,
		}).Debug("Processed timeline page")
		lastID = oldestID
	}

	if len(accepted) > n {
		accepted = accepted[:n]
	}
	return accepted, nil
}

// FetchFilteredTexts is FetchFilteredTweets returning only the texts.
func (f *Fetcher) FetchFilteredTexts(ctx context.Context, screenName string, n int) ([]string, error) {
	posts, err := f.FetchFilteredTweets(ctx, screenName, n)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(posts))
	for i, post := range posts {
		texts[i] = post.Text
	}
	return texts, nil
}

// fetchPage gets one page of the timeline, newest first. maxID 0 means the
// newest tweets; otherwise tweets with an id <= maxID.
func (f *Fetcher) fetchPage(ctx context.Context, screenName string, maxID uint64) ([]Post, error) {
	u, err := url.Parse(f.cfg.TimelineURL)
	if err != nil {
		return nil, fmt.Errorf("invalid timeline URL: %w", err)
	}
	q := u.Query()
	q.Set("screen_name", screenName)
	q.Set("count", strconv.Itoa(f.cfg.PageSize))
	if maxID != 0 {
		q.Set("max_id", strconv.FormatUint(maxID, 10))
	}
	u.RawQuery = q.Encode()

	resp, err := f.requester.Request(ctx, http.MethodGet, u.String(), nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}
	if err := httpwrap.CheckStatus(resp, content); err != nil {
		return nil, err
	}
	if remaining := httpwrap.RateLimitRemaining(resp); remaining >= 0 {
		logrus.WithField("remaining", remaining).Debug("Timeline rate limit")
	}

	var tweets []types.Tweet
	if err := json.Unmarshal(content, &tweets); err != nil {
		var apiErr types.ErrorResponse
		if json.Unmarshal(content, &apiErr) == nil && len(apiErr.Errors) > 0 {
			return nil, fmt.Errorf("api error (%d): %v", apiErr.Errors[0].Code, apiErr.Errors[0].Message)
		}
		return nil, fmt.Errorf("decoding timeline: %w", err)
	}

	posts := make([]Post, len(tweets))
	for i, tweet := range tweets {
		posts[i] = Post{
			ID:        tweet.ID,
			Text:      tweet.Text,
			IsReply:   tweet.IsReply(),
			IsReshare: tweet.IsRetweet(),
		}
	}
	return posts, nil
}
