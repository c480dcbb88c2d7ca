package twitterguess

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/sirupsen/logrus"
)

// VerifierPrompter shows the authorization URL to the user and returns the
// PIN they enter. It blocks until input arrives.
type VerifierPrompter interface {
	PromptVerifier(authorizationURL string) (string, error)
}

// ConsolePrompter asks questions on a writer and reads answers line by line.
type ConsolePrompter struct {
	in  *bufio.Reader
	out io.Writer
	// OpenBrowser is tried before asking for the PIN. Its failure, including
	// a panic, is ignored.
	OpenBrowser func(url string) error
}

// NewConsolePrompter prompts on out and reads from in.
func NewConsolePrompter(in io.Reader, out io.Writer) *ConsolePrompter {
	return &ConsolePrompter{
		in:          bufio.NewReader(in),
		out:         out,
		OpenBrowser: OpenBrowser,
	}
}

// Ask prints question and returns the next line, without surrounding whitespace.
func (p *ConsolePrompter) Ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	line, err := p.in.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// PromptVerifier implements VerifierPrompter.
func (p *ConsolePrompter) PromptVerifier(authorizationURL string) (string, error) {
	fmt.Fprintf(p.out, "Please authorize this application at %s\n", authorizationURL)
	if p.OpenBrowser != nil {
		bestEffort("open browser", func() error { return p.OpenBrowser(authorizationURL) })
	}
	return p.Ask("Upon authorization, please enter your PIN here: ")
}

// OpenBrowser opens url in the system's default browser.
func OpenBrowser(url string) error {
	launcher.Open(url)
	return nil
}

// bestEffort runs action and returns normally whatever it does.
func bestEffort(name string, action func() error) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("action", name).Debugf("recovered: %v", r)
		}
	}()
	if err := action(); err != nil {
		logrus.WithError(err).WithField("action", name).Debug("Best-effort action failed")
	}
}
