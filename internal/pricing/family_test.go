package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeFamilySiblingDiscount(t *testing.T) {
	one := []SelectedPlayer{{PlayerID: "p1", PackagePrice: 30_000}}
	two := append(one, SelectedPlayer{PlayerID: "p2", PackagePrice: 25_000})

	require.Zero(t, ComputeFamily(one, nil, 0).SiblingDiscount)

	summary := ComputeFamily(two, nil, 0)
	require.Equal(t, SiblingDiscountAmount, summary.SiblingDiscount)
	require.Equal(t, Money(55_000), summary.Subtotal)
	require.Equal(t, Money(52_500), summary.Total)
}

func TestComputeFamilyVolunteerDiscount(t *testing.T) {
	players := []SelectedPlayer{{PlayerID: "p1", PackagePrice: 30_000}}
	positions := []VolunteerPosition{
		{ID: "coach", DiscountAmount: 5_000},
		{ID: "snacks", DiscountAmount: 1_500},
		{ID: "flexible"}, // no discount configured, counts as zero
	}
	summary := ComputeFamily(players, positions, 0)
	require.Equal(t, Money(6_500), summary.VolunteerDiscount)
	require.Equal(t, Money(23_500), summary.Total)
}

func TestComputeFamilyDueTodayUsesPlanAmount(t *testing.T) {
	players := []SelectedPlayer{
		{PlayerID: "p1", PackagePrice: 30_000, DueToday: 10_000},
		{PlayerID: "p2", PackagePrice: 25_000}, // no plan chosen, falls back to package price
	}
	summary := ComputeFamily(players, nil, 0)
	require.Equal(t, Money(55_000), summary.Subtotal)
	require.Equal(t, Money(32_500), summary.DueToday)
}

func TestComputeFamilyClampsAtZero(t *testing.T) {
	players := []SelectedPlayer{{PlayerID: "p1", PackagePrice: 1_000}}
	positions := []VolunteerPosition{{ID: "coach", DiscountAmount: 50_000}}

	summary := ComputeFamily(players, positions, 0)
	require.Zero(t, summary.Total)
	require.Zero(t, summary.DueToday)

	// a donation may cancel discounts before the floor is applied
	withDonation := ComputeFamily(players, positions, 51_000)
	require.Equal(t, Money(2_000), withDonation.Total)
}

func TestComputeFamilyDonationOnly(t *testing.T) {
	players := []SelectedPlayer{{PlayerID: "p1", PackagePrice: 30_000}}
	summary := ComputeFamily(players, nil, 2_500)
	require.Equal(t, Money(32_500), summary.Total)
	require.Equal(t, Money(32_500), summary.DueToday)
	require.Equal(t, Money(2_500), summary.Donation)
}
