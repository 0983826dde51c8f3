package loyalty

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBusinessTiers_Defaults(t *testing.T) {
	tiers := BusinessTiers(nil)
	require.Len(t, tiers, BusinessTierCount)

	names := []string{"Bronze", "Silver", "Gold", "Platinum"}
	xp := []int64{0, 200, 600, 1200}
	for i, tier := range tiers {
		require.Equal(t, names[i], tier.Name)
		require.Equal(t, xp[i], tier.XPRequired)
		require.NotEmpty(t, tier.Rewards)
	}
}

func TestBusinessTiers_Custom(t *testing.T) {
	tiers := BusinessTiers([]int64{1, 2, 3, 10})
	require.Equal(t, int64(40), tiers[0].XPRequired)
	require.Equal(t, int64(400), tiers[3].XPRequired)
}

func TestBusinessTiers_LargestRequirementStaysPositive(t *testing.T) {
	tiers := BusinessTiers([]int64{0, 1, 2, MaxCampaignRequirement})
	require.Greater(t, tiers[3].XPRequired, tiers[2].XPRequired)
}

func TestValidateCampaignRequirements(t *testing.T) {
	tests := []struct {
		name    string
		reqs    []int64
		wantErr string
	}{
		{name: "valid", reqs: []int64{0, 5, 15, 30}},
		{name: "too few", reqs: []int64{0, 5, 15}, wantErr: "Custom tier requirements must contain exactly 4 values"},
		{name: "too many", reqs: []int64{0, 5, 15, 30, 50}, wantErr: "Custom tier requirements must contain exactly 4 values"},
		{name: "not ascending", reqs: []int64{0, 15, 5, 30}, wantErr: "Custom tier requirements must be in ascending order"},
		{name: "duplicate", reqs: []int64{0, 5, 5, 30}, wantErr: "Custom tier requirements must be in ascending order"},
		{name: "negative", reqs: []int64{-1, 5, 15, 30}, wantErr: "Custom tier requirements must not be negative"},
		{name: "largest allowed", reqs: []int64{0, 5, 15, MaxCampaignRequirement}},
		{name: "xp overflow", reqs: []int64{0, 5, 15, MaxCampaignRequirement + 1}, wantErr: fmt.Sprintf("Custom tier requirements must not exceed %d", MaxCampaignRequirement)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCampaignRequirements(tt.reqs)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestProtocolPresetsAreCopies(t *testing.T) {
	tiers := ProtocolTiers()
	require.Equal(t, "Explorer", tiers[0].Name)
	require.Equal(t, int64(5000), tiers[3].XPRequired)
	tiers[0].Name = "changed"
	tiers[0].Rewards[0] = "changed"
	require.Equal(t, "Explorer", ProtocolTiers()[0].Name)
	require.NotEqual(t, "changed", ProtocolTiers()[0].Rewards[0])

	points := ProtocolPointsPerAction()
	require.Equal(t, map[string]int64{"ad_view": 5, "ad_click": 10, "campaign_join": 25, "referral": 50}, points)
	points["ad_view"] = 99
	require.Equal(t, int64(5), ProtocolPointsPerAction()["ad_view"])

	require.Equal(t, map[string]int64{"campaign_completion": 40}, BusinessPointsPerAction())
}
