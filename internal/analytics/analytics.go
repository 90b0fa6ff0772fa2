// Package analytics summarizes a user's study history.
//
// Nothing here writes. Reviews and session starts are the only inputs, so
// statistics stay consistent with the history no matter how cards were reset.
package analytics

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/conorfennell/knolstudy/internal/apperr"
	"github.com/conorfennell/knolstudy/internal/domain"
	"github.com/conorfennell/knolstudy/internal/sm2"
	"github.com/conorfennell/knolstudy/internal/storage"
)

// RecentDays is the length of the recent activity series.
const RecentDays = 7

// Store is the read-only data access needed for statistics.
type Store interface {
	CountCards(ctx context.Context, ownerID string) (int, error)
	CountDecks(ctx context.Context, ownerID string) (int, error)
	CountDueCards(ctx context.Context, ownerID string, before time.Time) (int, error)
	GetReviewTotals(ctx context.Context, ownerID string) (storage.ReviewTotals, error)
	ListReviews(ctx context.Context, find *storage.FindReview) ([]*domain.Review, error)
	ListSessionStarts(ctx context.Context, ownerID string) ([]time.Time, error)
}

// Service computes user statistics.
type Service struct {
	store  Store
	engine *sm2.Params
}

// NewService creates an analytics service. Calendar days follow engine's location.
func NewService(store Store, engine *sm2.Params) *Service {
	return &Service{store: store, engine: engine}
}

// GetUserStats summarizes the history of ownerID as of now.
// A user without any history gets zero values, not an error.
func (s *Service) GetUserStats(ctx context.Context, ownerID string, now time.Time) (*domain.Stats, error) {
	if ownerID == "" {
		return nil, apperr.InvalidInput("owner is required", nil)
	}

	var (
		stats   domain.Stats
		totals  storage.ReviewTotals
		reviews []*domain.Review
		starts  []time.Time
	)
	today := s.engine.StartOfDay(now)
	weekStart := today.AddDate(0, 0, -(RecentDays - 1))
	tomorrow := today.AddDate(0, 0, 1)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalCards, err = s.store.CountCards(ctx, ownerID)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalDecks, err = s.store.CountDecks(ctx, ownerID)
		return err
	})
	g.Go(func() (err error) {
		stats.CardsDueToday, err = s.store.CountDueCards(ctx, ownerID, s.engine.EndOfDay(now))
		return err
	})
	g.Go(func() (err error) {
		totals, err = s.store.GetReviewTotals(ctx, ownerID)
		return err
	})
	g.Go(func() (err error) {
		reviews, err = s.store.ListReviews(ctx, &storage.FindReview{OwnerID: ownerID, Since: &weekStart, Until: &tomorrow})
		return err
	})
	g.Go(func() (err error) {
		starts, err = s.store.ListSessionStarts(ctx, ownerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Internal("failed to load study history", err)
	}

	stats.TotalReviews = totals.Total
	stats.AverageRetention = Retention(totals.Total, totals.Successful)
	stats.CurrentStreak, stats.LongestStreak = Streaks(starts, now, s.engine.Location)
	stats.RecentActivity = DailyActivity(reviews, now, RecentDays, s.engine.Location)
	for _, day := range stats.RecentActivity {
		stats.CardsStudiedThisWeek += day.CardsStudied
	}
	stats.CardsStudiedToday = stats.RecentActivity[len(stats.RecentActivity)-1].CardsStudied
	return &stats, nil
}
