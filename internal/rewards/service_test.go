package rewards

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	state  State
	err    error
	grants []Grant
	stats  PickupStats
	limit  int
}

func (s *stubStore) MerchantState(ctx context.Context, merchantID string) (State, error) {
	return s.state, s.err
}

func (s *stubStore) ListGrants(ctx context.Context, merchantID string, limit int) ([]Grant, error) {
	s.limit = limit
	return s.grants, nil
}

func (s *stubStore) PickupStats(ctx context.Context, merchantID string) (PickupStats, error) {
	return s.stats, nil
}

func TestSummary(t *testing.T) {
	store := &stubStore{
		state: State{MerchantID: "m-1", PickupOrdersCount: 30, PickupRewardsPoints: 300, DiscountPercentage: 5},
		stats: PickupStats{Completed: 30, TotalCents: 90000},
	}
	svc := &Service{Store: store, Milestones: DefaultMilestones()}

	sum, err := svc.Summary(context.Background(), "m-1")
	require.NoError(t, err)

	assert.Equal(t, 10, store.limit)
	assert.Equal(t, 300, sum.State.PickupRewardsPoints)
	require.NotNil(t, sum.Progress.Next)
	assert.Equal(t, 50, sum.Progress.Next.PickupsRequired)
	assert.InDelta(t, 20.0, sum.Progress.Percent, 0.001)
	require.Len(t, sum.Ladder, 6)
	assert.Equal(t, StatusAchieved, sum.Ladder[1].Status)
	assert.Equal(t, StatusCurrent, sum.Ladder[2].Status)
	assert.Equal(t, StatusLocked, sum.Ladder[3].Status)
	assert.NotNil(t, sum.Recent)
	assert.Equal(t, int64(90000), sum.Stats.TotalCents)
}

func TestSummaryUnknownMerchant(t *testing.T) {
	svc := &Service{Store: &stubStore{err: ErrMerchantNotFound}, Milestones: DefaultMilestones()}
	_, err := svc.Summary(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrMerchantNotFound))
}
