package loyalty

import (
	"fmt"
	"math"

	"github.com/poynt/relay/internal/models"
)

const (
	// CampaignCompletionAction is the only action business programs award points for
	CampaignCompletionAction = "campaign_completion"
	// XPPerCampaign converts a campaign count into the XP requirement of a business tier
	XPPerCampaign = 40
	// BusinessTierCount is the number of tiers in every business program
	BusinessTierCount = 4
	// MaxCampaignRequirement keeps the XP requirement of a tier within int64
	MaxCampaignRequirement = math.MaxInt64 / XPPerCampaign
)

var businessTiers = [BusinessTierCount]struct {
	name    string
	rewards []string
}{
	{name: "Bronze", rewards: []string{"Welcome badge"}},
	{name: "Silver", rewards: []string{"Priority campaign access"}},
	{name: "Gold", rewards: []string{"Reduced campaign fees"}},
	{name: "Platinum", rewards: []string{"Featured placement", "Dedicated support"}},
}

// DefaultCampaignRequirements is the number of completed campaigns needed per business tier.
var DefaultCampaignRequirements = []int64{0, 5, 15, 30}

var protocolTiers = []models.Tier{
	{Name: "Explorer", XPRequired: 0, Rewards: []string{"Access to campaigns"}},
	{Name: "Builder", XPRequired: 500, Rewards: []string{"Bonus point multiplier"}},
	{Name: "Champion", XPRequired: 2000, Rewards: []string{"Early access to campaigns"}},
	{Name: "Legend", XPRequired: 5000, Rewards: []string{"Exclusive rewards", "Governance voice"}},
}

var protocolPointsPerAction = map[string]int64{
	"ad_view":       5,
	"ad_click":      10,
	"campaign_join": 25,
	"referral":      50,
}

// ValidateCampaignRequirements checks a custom business tier template.
func ValidateCampaignRequirements(requirements []int64) error {
	if len(requirements) != BusinessTierCount {
		return fmt.Errorf("Custom tier requirements must contain exactly %d values", BusinessTierCount)
	}
	for i, r := range requirements {
		if r < 0 {
			return fmt.Errorf("Custom tier requirements must not be negative")
		}
		if r > MaxCampaignRequirement {
			return fmt.Errorf("Custom tier requirements must not exceed %d", MaxCampaignRequirement)
		}
		if i > 0 && r <= requirements[i-1] {
			return fmt.Errorf("Custom tier requirements must be in ascending order")
		}
	}
	return nil
}

// BusinessTiers builds the business tier template; nil requirements use the defaults.
// Requirements must have been validated with ValidateCampaignRequirements.
func BusinessTiers(requirements []int64) []models.Tier {
	if requirements == nil {
		requirements = DefaultCampaignRequirements
	}
	tiers := make([]models.Tier, BusinessTierCount)
	for i, t := range businessTiers {
		tiers[i] = models.Tier{
			Name:       t.name,
			XPRequired: requirements[i] * XPPerCampaign,
			Rewards:    append([]string(nil), t.rewards...),
		}
	}
	return tiers
}

func BusinessPointsPerAction() map[string]int64 {
	return map[string]int64{CampaignCompletionAction: XPPerCampaign}
}

// ProtocolTiers returns a copy of the protocol tier preset.
func ProtocolTiers() []models.Tier {
	tiers := make([]models.Tier, len(protocolTiers))
	for i, t := range protocolTiers {
		t.Rewards = append([]string(nil), t.Rewards...)
		tiers[i] = t
	}
	return tiers
}

// ProtocolPointsPerAction returns a copy of the protocol points preset.
func ProtocolPointsPerAction() map[string]int64 {
	out := make(map[string]int64, len(protocolPointsPerAction))
	for k, v := range protocolPointsPerAction {
		out[k] = v
	}
	return out
}
