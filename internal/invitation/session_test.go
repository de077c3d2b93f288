package invitation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thryvyng/club-api/internal/pricing"
)

func TestNewSessionSeedsInvitedPlayer(t *testing.T) {
	snap := Snapshot{
		Token:     "tok-1",
		Placement: Placement{ID: "pl-1"},
		Player:    Player{ID: "p-1", FirstName: "Ada", LastName: "Nkemelu"},
		Team:      Team{ID: "t-1", Name: "U10 Hawks"},
	}
	session := NewSession(snap)
	require.Len(t, session.Players, 1)
	require.Equal(t, "Ada Nkemelu", session.Players[0].PlayerName)
	require.Equal(t, "pl-1", session.Players[0].PlacementID)
}

func TestSessionStepsProduceCopies(t *testing.T) {
	base := Session{Token: "tok-1"}
	players := []pricing.SelectedPlayer{{PlayerID: "p-1", PackagePrice: 30_000}}

	withPlayers := base.WithPlayers(players)
	players[0].PackagePrice = 1 // caller mutation must not leak into the session
	require.Equal(t, pricing.Money(30_000), withPlayers.Players[0].PackagePrice)
	require.Empty(t, base.Players, "the original session is untouched")

	withDonation := withPlayers.WithDonation(2_500)
	require.Zero(t, withPlayers.Donation)
	require.Equal(t, pricing.Money(2_500), withDonation.Donation)
}

func TestSessionSummaryTwoSiblings(t *testing.T) {
	// two players, packages 300 and 250, no volunteer/donation
	snap := Snapshot{}
	session := Session{}.WithPlayers([]pricing.SelectedPlayer{
		{PlayerID: "p-1", PackagePrice: 30_000},
		{PlayerID: "p-2", PackagePrice: 25_000},
	})
	summary := session.Summary(snap)
	require.Equal(t, pricing.Money(55_000), summary.Subtotal)
	require.Equal(t, pricing.Money(2_500), summary.SiblingDiscount)
	require.Equal(t, pricing.Money(52_500), summary.Total)
}

func TestResolvePlayersRepricesFromSnapshot(t *testing.T) {
	snap := Snapshot{
		Packages: []Package{{
			ID:    "gold",
			Name:  "Gold",
			Price: 50_000,
			Plans: []pricing.PaymentPlan{
				{ID: "plan-3", Name: "3 payments", TotalAmount: 50_000, NumInstallments: 3},
			},
		}},
	}

	// the payload claims its own price and due-today; both must be replaced
	resolved, err := snap.ResolvePlayers([]pricing.SelectedPlayer{{
		PlayerID:     "p-1",
		PackageID:    "gold",
		PackageName:  "Bargain",
		PackagePrice: 1,
		PlanID:       "plan-3",
		DueToday:     1,
	}})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	require.Equal(t, "Gold", resolved[0].PackageName)
	require.Equal(t, pricing.Money(50_000), resolved[0].PackagePrice)
	require.Equal(t, "3 payments", resolved[0].PlanName)
	require.Equal(t, pricing.Money(16_667), resolved[0].DueToday)
}

func TestResolvePlayersPayInFullWithoutPlan(t *testing.T) {
	snap := Snapshot{Packages: []Package{{ID: "gold", Name: "Gold", Price: 50_000}}}

	resolved, err := snap.ResolvePlayers([]pricing.SelectedPlayer{
		{PlayerID: "p-1", PackageID: "gold", DueToday: 99},
	})
	require.NoError(t, err)
	require.Zero(t, resolved[0].DueToday, "no plan means the package price is due")
	require.Equal(t, pricing.Money(50_000), resolved[0].PackagePrice)

	// the synthesised pay-in-full id is always accepted
	resolved, err = snap.ResolvePlayers([]pricing.SelectedPlayer{
		{PlayerID: "p-1", PackageID: "gold", PlanID: pricing.PayInFullPlanID},
	})
	require.NoError(t, err)
	require.Equal(t, pricing.Money(50_000), resolved[0].DueToday)
}

func TestResolvePlayersRejectsUnknownIDs(t *testing.T) {
	snap := Snapshot{Packages: []Package{{ID: "gold", Price: 50_000}}}

	_, err := snap.ResolvePlayers([]pricing.SelectedPlayer{{PlayerID: "p-1", PackageID: "platinum"}})
	require.ErrorIs(t, err, ErrUnknownPackage)

	_, err = snap.ResolvePlayers([]pricing.SelectedPlayer{{PlayerID: "p-1", PackageID: "gold", PlanID: "plan-9"}})
	require.ErrorIs(t, err, ErrUnknownPlan)
}

func TestSessionWithAid(t *testing.T) {
	base := Session{Token: "tok-1"}
	withAid := base.WithAid(true, "between jobs this season")
	require.True(t, withAid.AidRequested)
	require.Equal(t, "between jobs this season", withAid.AidNote)
	require.False(t, base.AidRequested, "the original session is untouched")
}

func TestSessionSummaryResolvesVolunteerPositions(t *testing.T) {
	snap := Snapshot{
		VolunteerPositions: []pricing.VolunteerPosition{
			{ID: "coach", DiscountAmount: 5_000},
			{ID: "snacks", DiscountAmount: 1_500},
		},
	}
	session := Session{}.
		WithPlayers([]pricing.SelectedPlayer{{PlayerID: "p-1", PackagePrice: 30_000}}).
		WithVolunteerPositions([]string{"coach", "unknown-position"})

	summary := session.Summary(snap)
	require.Equal(t, pricing.Money(5_000), summary.VolunteerDiscount, "unknown position ids are skipped")
	require.Equal(t, pricing.Money(25_000), summary.Total)
}
