package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	twitterguess "github.com/masa-finance/masa-twitter-guess"
	"github.com/masa-finance/masa-twitter-guess/auth"
)

func main() {
	maxTweets := flag.Int("n", twitterguess.MaxTimelineDepth, "maximum number of tweets loaded per user")
	proxyAddr := flag.String("proxy", "", "http(s):// or socks5:// proxy")
	timeout := flag.Duration("timeout", 10*time.Second, "HTTP client timeout")
	checkEachPost := flag.Bool("check-each-post", false, "check every tweet for replies and retweets instead of only the first of each page")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.SetLevel(logrus.WarnLevel)
	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	cfg := twitterguess.DefaultConfig().
		WithClientTimeout(*timeout).
		WithProxy(*proxyAddr).
		WithCheckEachPost(*checkEachPost)

	if err := run(context.Background(), cfg, *maxTweets); err != nil {
		logrus.WithError(err).Fatal("twitter-guess failed")
	}
}

func run(ctx context.Context, cfg twitterguess.Config, maxTweets int) error {
	prompter := twitterguess.NewConsolePrompter(os.Stdin, os.Stdout)

	consumerKey, err := prompter.Ask("Please Enter Your Client Key (available in your developer portal as API Key): ")
	if err != nil {
		return err
	}
	consumerSecret, err := prompter.Ask("Please Enter Your Client Secret (available in your developer portal as API Key Secret): ")
	if err != nil {
		return err
	}

	session, err := twitterguess.NewSession(auth.Credentials{ConsumerKey: consumerKey, ConsumerSecret: consumerSecret}, cfg)
	if err != nil {
		return err
	}
	if err := session.Authorize(ctx, prompter); err != nil {
		return fmt.Errorf("authorization: %w", err)
	}

	handleA, err := prompter.Ask("\nPlease enter the handle of a twitter user: ")
	if err != nil {
		return err
	}
	handleB, err := prompter.Ask("Please enter the handle of a second twitter user: ")
	if err != nil {
		return err
	}

	fmt.Printf("\nLoading the latest <=%d tweets from %s & %s...\n", maxTweets, handleA, handleB)
	fetcher := twitterguess.NewFetcher(session, cfg)
	tweetsA, err := fetcher.FetchFilteredTexts(ctx, handleA, maxTweets)
	if err != nil {
		return err
	}
	tweetsB, err := fetcher.FetchFilteredTexts(ctx, handleB, maxTweets)
	if err != nil {
		return err
	}

	game, err := twitterguess.NewGame(
		twitterguess.Player{Handle: handleA, Tweets: tweetsA},
		twitterguess.Player{Handle: handleB, Tweets: tweetsB},
		uint64(time.Now().UnixNano()),
	)
	if err != nil {
		return err
	}
	return play(game, prompter)
}

func play(game *twitterguess.Game, prompter *twitterguess.ConsolePrompter) error {
	handleA, handleB := game.Players()
	for {
		round := game.NextRound()
		fmt.Printf("\nRound #%d\nTweet: %s\n", round.Number, round.Tweet)

		for {
			guess, err := prompter.Ask(fmt.Sprintf("\tDo you think this came from %s (type %s) or %s (type %s)?: ", handleA, handleA, handleB, handleB))
			if err != nil {
				return err
			}
			correct, err := game.Guess(round, guess)
			if errors.Is(err, twitterguess.ErrInvalidGuess) {
				fmt.Println("\tInvalid selection, try again.")
				continue
			}
			if correct {
				fmt.Println("\tCongrats, you guessed right!")
			} else {
				fmt.Printf("\tSorry, you guessed wrong. It was %s.\n", game.Author(round))
			}
			break
		}

		answer, err := prompter.Ask("\tType 'q' and press enter to quit, or enter anything else to continue: ")
		if err != nil || answer == twitterguess.QuitAnswer {
			break
		}
	}

	right, played := game.Score()
	fmt.Printf("Your Score: %d/%d\n", right, played)
	return nil
}
