package httpwrap

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// HTTPError is returned when the server answers with a status >= 300.
type HTTPError struct {
	Status     string
	StatusCode int
	Body       []byte
	Err        error
}

func (e HTTPError) Error() string {
	return fmt.Sprintf("status %d: %v", e.StatusCode, e.Err)
}

func (e HTTPError) Unwrap() error {
	return e.Err
}

func (e HTTPError) Log() {
	logrus.WithFields(logrus.Fields{
		"status":  e.Status,
		"content": string(e.Body),
	}).Error("Unexpected response status")
}
