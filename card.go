package alsaroute

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	// CardsPath lists the registered sound cards
	CardsPath = "/proc/asound/cards"
	// CardIDPath holds the identification string of the first card
	CardIDPath = "/proc/asound/card0/id"
)

// Card is a sound card listed in /proc/asound/cards as:
//
//	## [ID             ]: Driver - ShortName
//	                      LongName
type Card struct {
	Number    int
	ID        string
	Driver    string
	ShortName string
	LongName  string
}

// String returns a string representation of the card
func (c Card) String() string {
	return fmt.Sprintf("Card %d: %s (%s)", c.Number, c.ID, c.ShortName)
}

// noCards is the whole file when no card is registered
const noCards = "--- no soundcards ---\n"

// cardHeader matches the first of the two lines each card occupies:
// number, id padded to 15 columns, driver and short name
var cardHeader = regexp.MustCompile(`^\s?(\d+) \[(.{15})\]: (\S+) - (.+)$`)

// ParseCards decodes the contents of /proc/asound/cards. Each card is a
// header line followed by an indented long name line.
func ParseCards(s string) ([]Card, error) {
	switch {
	case s == noCards:
		return nil, nil
	case s == "":
		return nil, errors.New("card list is empty")
	case !strings.HasSuffix(s, "\n"):
		return nil, errors.New("card list is truncated")
	}

	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	if len(lines)%2 != 0 {
		return nil, errors.Errorf("card list has %d lines, want header and long name pairs", len(lines))
	}

	cards := make([]Card, 0, len(lines)/2)
	for i := 0; i < len(lines); i += 2 {
		m := cardHeader.FindStringSubmatch(lines[i])
		if m == nil {
			return nil, errors.Errorf("line %d: bad card header %q", i+1, lines[i])
		}
		number, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: card number", i+1)
		}
		longName := strings.TrimSpace(lines[i+1])
		if longName == "" {
			return nil, errors.Errorf("line %d: card %d has no long name", i+2, number)
		}
		cards = append(cards, Card{
			Number:    number,
			ID:        strings.TrimSpace(m[2]),
			Driver:    m[3],
			ShortName: m[4],
			LongName:  longName,
		})
	}
	return cards, nil
}

// ListCards returns the cards registered in /proc/asound/cards
func ListCards() ([]Card, error) {
	b, err := os.ReadFile(CardsPath)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", CardsPath)
	}
	return ParseCards(string(b))
}

// FindCard finds a card by number or by id/name substring
func FindCard(identifier string) (Card, error) {
	cards, err := ListCards()
	if err != nil {
		return Card{}, err
	}

	if number, err := strconv.Atoi(identifier); err == nil {
		for _, card := range cards {
			if card.Number == number {
				return card, nil
			}
		}
		return Card{}, errors.Errorf("card %d not found", number)
	}

	identifierLower := strings.ToLower(identifier)
	for _, card := range cards {
		if strings.Contains(strings.ToLower(card.ID), identifierLower) ||
			strings.Contains(strings.ToLower(card.ShortName), identifierLower) {
			return card, nil
		}
	}
	return Card{}, errors.Errorf("no card matching '%s' found", identifier)
}

// ReadCardID reads a card identification file and strips the trailing newline
func ReadCardID(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "read %s", path)
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}
