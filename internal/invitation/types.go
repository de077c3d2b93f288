package invitation

import (
	"errors"
	"fmt"

	"github.com/thryvyng/club-api/internal/pricing"
)

// ErrUnknownPackage is returned when a selected package id is not part of the
// snapshot.
var ErrUnknownPackage = errors.New("unknown package")

// ErrUnknownPlan is returned when a selected payment plan id does not belong
// to the selected package.
var ErrUnknownPlan = errors.New("unknown payment plan")

// Placement links a player to a team pending acceptance of an invitation.
type Placement struct {
	ID       string `json:"id"`
	PlayerID string `json:"playerId"`
	TeamID   string `json:"teamId"`
	Status   string `json:"status"`
}

// Player is the child being registered.
type Player struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	BirthYear int    `json:"birthYear,omitempty"`
}

// FullName joins the player's name parts.
func (p Player) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// Team is the squad the placement targets.
type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Club is the organisation running the program.
type Club struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	LogoURL string `json:"logoUrl,omitempty"`
}

// Program is a season or league the team plays in.
type Program struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Season string `json:"season,omitempty"`
}

// ProgramSettings carries the feature flags that gate wizard steps.
type ProgramSettings struct {
	DonationsEnabled    bool `json:"donationsEnabled"`
	FinancialAidEnabled bool `json:"financialAidEnabled"`
}

// Package is a purchasable registration tier with its payment plans.
type Package struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Price       pricing.Money         `json:"price"`
	Plans       []pricing.PaymentPlan `json:"plans"`
}

// Snapshot is the read-only aggregate a wizard run is based on. It is
// fetched once per token and treated as immutable for the wizard's duration.
type Snapshot struct {
	Token              string                      `json:"token"`
	Placement          Placement                   `json:"placement"`
	Player             Player                      `json:"player"`
	Team               Team                        `json:"team"`
	Club               Club                        `json:"club"`
	Program            Program                     `json:"program"`
	Packages           []Package                   `json:"packages"`
	Questions          []Question                  `json:"questions"`
	VolunteerPositions []pricing.VolunteerPosition `json:"volunteerPositions"`
	Settings           ProgramSettings             `json:"settings"`
}

// PackageByID looks up a package in the snapshot.
func (s Snapshot) PackageByID(id string) (Package, bool) {
	for _, pkg := range s.Packages {
		if pkg.ID == id {
			return pkg, true
		}
	}
	return Package{}, false
}

// ResolvePlayers prices the selected players against the snapshot. Package
// and plan identifiers must exist in the snapshot; any names, prices and
// due-today amounts carried in the input are discarded and recomputed, so a
// tampered payload can never set its own charge. An empty plan id means pay
// in full.
func (s Snapshot) ResolvePlayers(players []pricing.SelectedPlayer) ([]pricing.SelectedPlayer, error) {
	out := make([]pricing.SelectedPlayer, 0, len(players))
	for _, p := range players {
		pkg, found := s.PackageByID(p.PackageID)
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPackage, p.PackageID)
		}
		p.PackageName = pkg.Name
		p.PackagePrice = pkg.Price
		p.PlanName = ""
		p.DueToday = 0
		if p.PlanID != "" {
			plan, found := pkg.planByID(p.PlanID)
			if !found {
				return nil, fmt.Errorf("%w: %s", ErrUnknownPlan, p.PlanID)
			}
			p.PlanName = plan.Name
			p.DueToday = pricing.DueToday(plan)
		}
		out = append(out, p)
	}
	return out, nil
}

// planByID looks up a plan on the package. The synthesised pay-in-full id is
// always accepted: it is what the wizard offers when plan loading degraded.
func (p Package) planByID(id string) (pricing.PaymentPlan, bool) {
	for _, plan := range p.Plans {
		if plan.ID == id {
			return plan, true
		}
	}
	if id == pricing.PayInFullPlanID {
		return pricing.PayInFull(p.Price), true
	}
	return pricing.PaymentPlan{}, false
}

// VolunteerPositionsByID resolves the selected position identifiers against
// the snapshot, skipping unknown entries.
func (s Snapshot) VolunteerPositionsByID(ids []string) []pricing.VolunteerPosition {
	out := make([]pricing.VolunteerPosition, 0, len(ids))
	for _, id := range ids {
		for _, pos := range s.VolunteerPositions {
			if pos.ID == id {
				out = append(out, pos)
				break
			}
		}
	}
	return out
}
