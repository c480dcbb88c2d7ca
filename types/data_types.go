package types

type Error struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the body returned by the v1.1 API on failure.
type ErrorResponse struct {
	Errors []Error `json:"errors"`
}

// Tweet is a status as returned by statuses/user_timeline.json.
type Tweet struct {
	ID                uint64  `json:"id"`
	Text              string  `json:"text"`
	InReplyToStatusID *uint64 `json:"in_reply_to_status_id"`
	Retweeted         bool    `json:"retweeted"`
	RetweetedStatus   *struct {
		ID uint64 `json:"id"`
	} `json:"retweeted_status,omitempty"`
}

// IsReply reports whether the tweet answers another status.
func (t Tweet) IsReply() bool {
	return t.InReplyToStatusID != nil && *t.InReplyToStatusID != 0
}

// IsRetweet reports whether the tweet re-publishes another status.
func (t Tweet) IsRetweet() bool {
	return t.Retweeted || t.RetweetedStatus != nil
}

// TokenResponse holds the form-encoded fields returned by the
// oauth/request_token and oauth/access_token endpoints.
type TokenResponse struct {
	OAuthToken             string
	OAuthTokenSecret       string
	OAuthCallbackConfirmed bool
	UserID                 string
	ScreenName             string
}
