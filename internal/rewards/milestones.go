package rewards

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

type RewardType string

const (
	RewardDiscount RewardType = "discount"
	RewardBoost    RewardType = "boost"
	RewardBadge    RewardType = "badge"
	RewardVIP      RewardType = "vip"
)

func (t RewardType) Valid() bool {
	switch t {
	case RewardDiscount, RewardBoost, RewardBadge, RewardVIP:
		return true
	}
	return false
}

// Percentage reports whether the reward value is a subscription discount.
func (t RewardType) Percentage() bool {
	return t == RewardDiscount || t == RewardBadge || t == RewardVIP
}

type Milestone struct {
	ID              string     `yaml:"id" json:"id"`
	PickupsRequired int        `yaml:"pickups_required" json:"pickups_required"`
	RewardType      RewardType `yaml:"reward_type" json:"reward_type"`
	RewardValue     int        `yaml:"reward_value" json:"reward_value"`
	Description     string     `yaml:"description" json:"description"`
	DescriptionAr   string     `yaml:"description_ar,omitempty" json:"description_ar,omitempty"`
}

var ErrInvalidMilestones = errors.New("invalid milestones")

func DefaultMilestones() []Milestone {
	return []Milestone{
		{ID: "pickup-10", PickupsRequired: 10, RewardType: RewardDiscount, RewardValue: 5,
			Description: "5% discount on next subscription", DescriptionAr: "خصم 5% على الاشتراك القادم"},
		{ID: "pickup-25", PickupsRequired: 25, RewardType: RewardBoost, RewardValue: 10,
			Description: "Featured listing for 10 days", DescriptionAr: "ظهور مميز لمدة 10 أيام"},
		{ID: "pickup-50", PickupsRequired: 50, RewardType: RewardDiscount, RewardValue: 10,
			Description: "10% discount on next subscription", DescriptionAr: "خصم 10% على الاشتراك القادم"},
		{ID: "pickup-100", PickupsRequired: 100, RewardType: RewardBadge, RewardValue: 15,
			Description: "Pickup Champion badge + 15% discount", DescriptionAr: "شارة بطل الاستلام + خصم 15%"},
		{ID: "pickup-200", PickupsRequired: 200, RewardType: RewardDiscount, RewardValue: 20,
			Description: "20% discount on next subscription", DescriptionAr: "خصم 20% على الاشتراك القادم"},
		{ID: "pickup-500", PickupsRequired: 500, RewardType: RewardVIP, RewardValue: 30,
			Description: "VIP merchant status + 30% discount", DescriptionAr: "حالة تاجر VIP + خصم 30%"},
	}
}

type milestoneFile struct {
	Milestones []Milestone `yaml:"milestones"`
}

// LoadMilestones reads the ladder from a YAML file. An empty path yields the
// built-in ladder.
func LoadMilestones(path string) ([]Milestone, error) {
	if path == "" {
		return DefaultMilestones(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read milestones: %w", err)
	}
	var f milestoneFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse milestones: %w", err)
	}
	return Normalize(f.Milestones)
}

// Normalize validates the ladder and returns a copy sorted by threshold.
func Normalize(ms []Milestone) ([]Milestone, error) {
	if len(ms) == 0 {
		return nil, fmt.Errorf("%w: empty ladder", ErrInvalidMilestones)
	}
	out := make([]Milestone, len(ms))
	copy(out, ms)
	sort.SliceStable(out, func(i, j int) bool { return out[i].PickupsRequired < out[j].PickupsRequired })

	ids := make(map[string]bool, len(out))
	for i, m := range out {
		switch {
		case m.ID == "":
			return nil, fmt.Errorf("%w: milestone %d has no id", ErrInvalidMilestones, i)
		case ids[m.ID]:
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidMilestones, m.ID)
		case m.PickupsRequired <= 0:
			return nil, fmt.Errorf("%w: %s threshold must be positive", ErrInvalidMilestones, m.ID)
		case i > 0 && out[i-1].PickupsRequired == m.PickupsRequired:
			return nil, fmt.Errorf("%w: duplicate threshold %d", ErrInvalidMilestones, m.PickupsRequired)
		case !m.RewardType.Valid():
			return nil, fmt.Errorf("%w: %s has unknown reward type %q", ErrInvalidMilestones, m.ID, m.RewardType)
		case m.RewardValue < 0 || (m.RewardType.Percentage() && m.RewardValue > 100):
			return nil, fmt.Errorf("%w: %s reward value %d out of range", ErrInvalidMilestones, m.ID, m.RewardValue)
		}
		ids[m.ID] = true
	}
	return out, nil
}
