package twitterguess

import (
	"errors"
	"fmt"

	"golang.org/x/exp/rand"
)

// QuitAnswer ends the game when entered at the continue prompt.
const QuitAnswer = "q"

var (
	ErrInvalidGuess = errors.New("invalid selection")
	ErrSamePlayer   = errors.New("both players have the same handle")
)

// Player is a Twitter handle and the tweets the game draws from.
type Player struct {
	Handle string
	Tweets []string
}

// Round is one tweet to attribute.
type Round struct {
	Number int
	Tweet  string
	author int
}

// Game asks the user which of two players wrote a random tweet and keeps
// the score.
type Game struct {
	players [2]Player
	rng     *rand.Rand
	played  int
	right   int
}

// NewGame validates both players. seed drives the tweet selection.
func NewGame(a, b Player, seed uint64) (*Game, error) {
	if a.Handle == b.Handle {
		return nil, ErrSamePlayer
	}
	for _, p := range []Player{a, b} {
		if len(p.Tweets) == 0 {
			return nil, fmt.Errorf("no tweets to play with for %s", p.Handle)
		}
	}
	return &Game{
		players: [2]Player{a, b},
		rng:     rand.New(rand.NewSource(seed)),
	}, nil
}

// Players returns the two handles in order.
func (g *Game) Players() (string, string) {
	return g.players[0].Handle, g.players[1].Handle
}

// NextRound picks a player, then one of their tweets, uniformly.
func (g *Game) NextRound() Round {
	author := g.rng.Intn(2)
	tweets := g.players[author].Tweets
	return Round{
		Number: g.played + 1,
		Tweet:  tweets[g.rng.Intn(len(tweets))],
		author: author,
	}
}

// Guess scores the round. guess must be one of the two handles; otherwise
// ErrInvalidGuess is returned and the round is not counted.
func (g *Game) Guess(round Round, guess string) (bool, error) {
	choice := -1
	for i, p := range g.players {
		if guess == p.Handle {
			choice = i
		}
	}
	if choice < 0 {
		return false, ErrInvalidGuess
	}
	g.played++
	if choice == round.author {
		g.right++
		return true, nil
	}
	return false, nil
}

// Author returns the handle that wrote the round's tweet.
func (g *Game) Author(round Round) string {
	return g.players[round.author].Handle
}

// Score returns the rounds guessed right and the rounds played.
func (g *Game) Score() (right, played int) {
	return g.right, g.played
}
