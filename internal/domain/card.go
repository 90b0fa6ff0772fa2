package domain

import "time"

// Default scheduling state for a card that has never been reviewed.
const (
	DefaultEaseFactor = 2.5
	MinEaseFactor     = 1.3
)

// CardContent is the question-answer-context text of a card.
type CardContent struct {
	Front   string
	Back    string
	Context string
}

// Card is a flashcard together with its SM-2 scheduling state.
type Card struct {
	ID          string     `json:"id"`
	DeckID      string     `json:"deckId"`
	Front       string     `json:"front"`
	Back        string     `json:"back"`
	Context     string     `json:"context,omitempty"`
	ContentHash string     `json:"-"`
	EaseFactor  float64    `json:"easeFactor"`
	Interval    int        `json:"interval"`
	Repetitions int        `json:"repetitions"`
	NextReview  time.Time  `json:"nextReviewAt"`
	LastReview  *time.Time `json:"lastReviewAt"`
	Version     int64      `json:"-"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Content returns the text of the card.
func (c *Card) Content() CardContent {
	return CardContent{Front: c.Front, Back: c.Back, Context: c.Context}
}

// IsNew reports whether the card has no successful review in its current run.
func (c *Card) IsNew() bool {
	return c.Repetitions == 0
}

// ResetSchedule restores the default scheduling state. Review history is not touched.
func (c *Card) ResetSchedule(now time.Time) {
	c.EaseFactor = DefaultEaseFactor
	c.Interval = 0
	c.Repetitions = 0
	c.NextReview = now
	c.LastReview = nil
}

// Deck groups cards. Decks form a tree per owner through ParentID.
type Deck struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	ParentID  *string   `json:"parentId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session groups the reviews of one study sitting on one deck.
type Session struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"ownerId"`
	DeckID    string     `json:"deckId"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt"`
}

// Open reports whether the session has not been ended.
func (s *Session) Open() bool {
	return s.EndedAt == nil
}

// Review is an immutable record of a single rating event.
// Quality is the SM-2 self assessment:
// 0-2: failed recall
// 3: recalled with serious difficulty
// 4: recalled after hesitation
// 5: perfect recall
type Review struct {
	ID                 string
	OwnerID            string
	CardID             string
	SessionID          string
	Quality            int
	PreviousInterval   int
	PreviousEaseFactor float64
	NewInterval        int
	NewEaseFactor      float64
	ReviewedAt         time.Time
}

// Successful reports whether the review counts as a successful recall.
func (r *Review) Successful() bool {
	return r.Quality >= 3
}
