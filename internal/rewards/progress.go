package rewards

// Progress is the position of a merchant on the milestone ladder.
// Current and Next are nil below the first and above the last threshold.
type Progress struct {
	Count     int        `json:"pickup_orders_count"`
	Current   *Milestone `json:"current_milestone"`
	Next      *Milestone `json:"next_milestone"`
	Percent   float64    `json:"progress_percent"`
	Remaining int        `json:"pickups_to_next"`
}

// ComputeProgress expects ms sorted ascending by threshold.
func ComputeProgress(count int, ms []Milestone) Progress {
	p := Progress{Count: count}
	for i := range ms {
		if ms[i].PickupsRequired <= count {
			p.Current = &ms[i]
			continue
		}
		p.Next = &ms[i]
		break
	}
	if p.Next == nil {
		p.Percent = 100
		return p
	}

	start := 0
	if p.Current != nil {
		start = p.Current.PickupsRequired
	}
	span := p.Next.PickupsRequired - start
	pct := float64(count-start) / float64(span) * 100
	switch {
	case pct < 0:
		pct = 0
	case pct > 100:
		pct = 100
	}
	p.Percent = pct
	p.Remaining = p.Next.PickupsRequired - count
	return p
}

// Crossed returns the milestones reached by moving from one count to
// another, i.e. from < threshold <= to.
func Crossed(ms []Milestone, from, to int) []Milestone {
	var out []Milestone
	for _, m := range ms {
		if m.PickupsRequired > from && m.PickupsRequired <= to {
			out = append(out, m)
		}
	}
	return out
}

type MilestoneStatus string

const (
	StatusAchieved MilestoneStatus = "achieved"
	StatusCurrent  MilestoneStatus = "current"
	StatusLocked   MilestoneStatus = "locked"
)

// Status is "current" for the milestone being worked towards.
func Status(m Milestone, count int, next *Milestone) MilestoneStatus {
	if count >= m.PickupsRequired {
		return StatusAchieved
	}
	if next != nil && next.ID == m.ID {
		return StatusCurrent
	}
	return StatusLocked
}

// DiscountPercent is the best subscription discount unlocked by ms.
func DiscountPercent(ms []Milestone) int {
	best := 0
	for _, m := range ms {
		if m.RewardType.Percentage() && m.RewardValue > best {
			best = m.RewardValue
		}
	}
	if best > 100 {
		best = 100
	}
	return best
}
