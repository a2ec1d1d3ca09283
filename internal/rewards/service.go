package rewards

import (
	"context"
	"fmt"
)

type Store interface {
	MerchantState(ctx context.Context, merchantID string) (State, error)
	ListGrants(ctx context.Context, merchantID string, limit int) ([]Grant, error)
	PickupStats(ctx context.Context, merchantID string) (PickupStats, error)
}

type LadderEntry struct {
	Milestone
	Status MilestoneStatus `json:"status"`
}

type Summary struct {
	State    State         `json:"state"`
	Progress Progress      `json:"progress"`
	Ladder   []LadderEntry `json:"milestones"`
	Recent   []Grant       `json:"recent_rewards"`
	Stats    PickupStats   `json:"stats"`
}

type Service struct {
	Store      Store
	Milestones []Milestone
}

const recentGrants = 10

func (s *Service) Summary(ctx context.Context, merchantID string) (Summary, error) {
	st, err := s.Store.MerchantState(ctx, merchantID)
	if err != nil {
		return Summary{}, err
	}
	grants, err := s.Store.ListGrants(ctx, merchantID, recentGrants)
	if err != nil {
		return Summary{}, fmt.Errorf("list grants: %w", err)
	}
	stats, err := s.Store.PickupStats(ctx, merchantID)
	if err != nil {
		return Summary{}, fmt.Errorf("pickup stats: %w", err)
	}

	p := ComputeProgress(st.PickupOrdersCount, s.Milestones)
	ladder := make([]LadderEntry, 0, len(s.Milestones))
	for _, m := range s.Milestones {
		ladder = append(ladder, LadderEntry{Milestone: m, Status: Status(m, st.PickupOrdersCount, p.Next)})
	}
	if grants == nil {
		grants = []Grant{}
	}
	return Summary{State: st, Progress: p, Ladder: ladder, Recent: grants, Stats: stats}, nil
}
