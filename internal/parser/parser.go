// Package parser extracts cards from markdown notes.
//
// A card starts at a "Q:" line and may carry "A:" and "C:" (context) blocks.
// Blocks run until the next prefix, a "---" separator or the end of input.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/knolstudy/internal/domain"
)

type field int

const (
	none field = iota
	front
	back
	context
)

var prefixes = []struct {
	prefix string
	field  field
}{
	{"Q:", front},
	{"A:", back},
	{"C:", context},
}

// MissingAnswerError reports a question without an answer block.
type MissingAnswerError struct {
	Line     int
	Question string
}

func (e *MissingAnswerError) Error() string {
	return fmt.Sprintf("line %d: question %q has no answer", e.Line, e.Question)
}

// ParseFile reads a file from the given path and extracts all cards.
func ParseFile(path string) ([]domain.CardContent, []error, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse extracts all cards from r. Malformed cards are skipped and reported
// in the second return value; the error is reserved for read failures.
func Parse(r io.Reader) ([]domain.CardContent, []error, error) {
	var (
		cards   []domain.CardContent
		skipped []error
		card    domain.CardContent
		block   []string
		current = none
		start   int
	)

	flushBlock := func() {
		if current == none || len(block) == 0 {
			return
		}
		text := strings.TrimRight(strings.Join(block, "\n"), "\n")
		switch current {
		case front:
			card.Front = text
		case back:
			card.Back = text
		case context:
			card.Context = text
		}
		block = nil
	}
	finishCard := func() {
		flushBlock()
		switch {
		case strings.TrimSpace(card.Front) == "":
		case strings.TrimSpace(card.Back) == "":
			skipped = append(skipped, &MissingAnswerError{Line: start, Question: card.Front})
		default:
			cards = append(cards, card)
		}
		card = domain.CardContent{}
		current = none
	}

	scanner := bufio.NewScanner(r)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := scanner.Text()
		if line == "---" {
			finishCard()
			continue
		}

		next, rest, ok := cutPrefix(line)
		if !ok {
			if current != none {
				block = append(block, line)
			}
			continue
		}

		if next == front {
			// A new question always starts a new card.
			finishCard()
			start = lineNo
		} else {
			flushBlock()
		}
		current = next
		block = append(block, rest)
	}
	finishCard()

	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return cards, skipped, nil
}

func cutPrefix(line string) (field, string, bool) {
	for _, p := range prefixes {
		if rest, ok := strings.CutPrefix(line, p.prefix); ok {
			return p.field, strings.TrimPrefix(rest, " "), true
		}
	}
	return none, "", false
}
