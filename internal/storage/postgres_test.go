package storage

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/knolstudy/internal/domain"
)

// postgresDSNEnv names a PostgreSQL database the storage tests may write to.
const postgresDSNEnv = "KNOLSTUDY_TEST_POSTGRES_DSN"

func openPostgres(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv(postgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", postgresDSNEnv)
	}
	db, err := Open(DriverPostgres, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPostgres(t *testing.T) {
	ctx := context.Background()
	db := openPostgres(t)
	owner := "pg-" + uuid.NewString()

	deck := mustDeck(t, db, owner, nil)
	child := mustDeck(t, db, owner, deck)
	first := mustCard(t, db, deck, base, 0, base)
	second := mustCard(t, db, child, base.Add(time.Hour), 0, base)

	t.Run("lists new cards oldest first", func(t *testing.T) {
		cards, err := db.ListCards(ctx, &FindCard{DeckIDs: []string{deck.ID, child.ID}, Filter: NewCards, Limit: 5})
		require.NoError(t, err)
		require.Len(t, cards, 2)
		assert.Equal(t, first.ID, cards[0].ID)
		assert.Equal(t, second.ID, cards[1].ID)
	})

	t.Run("duplicate content is a unique violation", func(t *testing.T) {
		dup := *first
		dup.ID = uuid.NewString()
		assert.Error(t, db.CreateCard(ctx, &dup))
	})

	t.Run("concurrent reviews serialize on the row lock", func(t *testing.T) {
		var wg sync.WaitGroup
		errs := make(chan error, 4)
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := db.ApplyReview(ctx, owner, first.ID, func(c *domain.Card) (*domain.Review, error) {
					c.Repetitions++
					c.UpdatedAt = base
					return &domain.Review{
						ID:                 uuid.NewString(),
						OwnerID:            owner,
						CardID:             c.ID,
						SessionID:          "s1",
						Quality:            4,
						PreviousEaseFactor: c.EaseFactor,
						NewInterval:        1,
						NewEaseFactor:      c.EaseFactor,
						ReviewedAt:         base,
					}, nil
				})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		stored, err := db.GetCard(ctx, owner, first.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, stored.Repetitions)
		assert.Equal(t, int64(4), stored.Version)

		totals, err := db.GetReviewTotals(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, 4, totals.Total)
	})

	t.Run("stale version is a conflict", func(t *testing.T) {
		stale, err := db.GetCard(ctx, owner, second.ID)
		require.NoError(t, err)
		stale.Version--
		err = db.inTx(ctx, func(tx *sql.Tx) error {
			return db.updateSchedule(ctx, tx, stale)
		})
		assert.True(t, errors.Is(err, ErrConflict))
	})

	t.Run("other owners see nothing", func(t *testing.T) {
		_, err := db.GetCard(ctx, "pg-"+uuid.NewString(), first.ID)
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}
