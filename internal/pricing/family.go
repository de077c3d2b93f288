package pricing

// SiblingDiscountAmount is the flat reduction applied when two or more
// players are registered together in one checkout. It is a currency amount,
// not a percentage, and does not grow with additional siblings.
const SiblingDiscountAmount Money = 2500

// SelectedPlayer carries one player's choices through the invitation wizard.
// Each wizard step builds a fresh slice; entries are never mutated in place.
type SelectedPlayer struct {
	PlacementID  string `json:"placementId"`
	PlayerID     string `json:"playerId"`
	PlayerName   string `json:"playerName"`
	TeamID       string `json:"teamId"`
	TeamName     string `json:"teamName"`
	PackageID    string `json:"packageId"`
	PackageName  string `json:"packageName"`
	PackagePrice Money  `json:"packagePrice"`
	PlanID       string `json:"planId,omitempty"`
	PlanName     string `json:"planName,omitempty"`
	DueToday     Money  `json:"dueToday,omitempty"`
}

// VolunteerPosition is a program role a parent can take on in exchange for a
// discount.
type VolunteerPosition struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	DiscountAmount Money  `json:"discountAmount"`
	SlotsAvailable int    `json:"slotsAvailable,omitempty"`
}

// FamilySummary aggregates the derived totals for a family checkout.
type FamilySummary struct {
	Subtotal          Money `json:"subtotal"`
	SiblingDiscount   Money `json:"siblingDiscount"`
	VolunteerDiscount Money `json:"volunteerDiscount"`
	Donation          Money `json:"donation"`
	Total             Money `json:"total"`
	DueToday          Money `json:"dueToday"`
}

// ComputeFamily derives the registration totals from the selected players,
// volunteer positions and optional donation. Intermediate terms may go
// negative and cancel against each other; the zero floor is applied once at
// the end, not per term.
func ComputeFamily(players []SelectedPlayer, positions []VolunteerPosition, donation Money) FamilySummary {
	var subtotal, dueBase Money
	for _, p := range players {
		subtotal += p.PackagePrice
		if p.DueToday > 0 {
			dueBase += p.DueToday
		} else {
			dueBase += p.PackagePrice
		}
	}

	var sibling Money
	if len(players) >= 2 {
		sibling = SiblingDiscountAmount
	}

	var volunteer Money
	for _, pos := range positions {
		volunteer += pos.DiscountAmount
	}

	total := subtotal - sibling - volunteer + donation
	if total < 0 {
		total = 0
	}
	dueToday := dueBase - sibling - volunteer + donation
	if dueToday < 0 {
		dueToday = 0
	}

	return FamilySummary{
		Subtotal:          subtotal,
		SiblingDiscount:   sibling,
		VolunteerDiscount: volunteer,
		Donation:          donation,
		Total:             total,
		DueToday:          dueToday,
	}
}
