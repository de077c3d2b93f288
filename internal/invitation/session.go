package invitation

import (
	"github.com/thryvyng/club-api/internal/pricing"
)

// Session is the state a family accumulates while stepping through the
// wizard. It is an explicit immutable value passed between step handlers:
// each With* method returns a copy, and slices are never shared with the
// caller, so no step can observe another step's in-progress mutation.
type Session struct {
	Token              string                   `json:"token"`
	Players            []pricing.SelectedPlayer `json:"players"`
	Answers            []Answer                 `json:"answers,omitempty"`
	VolunteerPositions []string                 `json:"volunteerPositions,omitempty"`
	Donation           pricing.Money            `json:"donation,omitempty"`
	AidRequested       bool                     `json:"aidRequested,omitempty"`
	AidNote            string                   `json:"aidNote,omitempty"`
}

// NewSession starts a session for the snapshot with the invited player
// pre-selected and no package chosen yet.
func NewSession(snap Snapshot) Session {
	return Session{
		Token: snap.Token,
		Players: []pricing.SelectedPlayer{{
			PlacementID: snap.Placement.ID,
			PlayerID:    snap.Player.ID,
			PlayerName:  snap.Player.FullName(),
			TeamID:      snap.Team.ID,
			TeamName:    snap.Team.Name,
		}},
	}
}

// WithPlayers replaces the selected players.
func (s Session) WithPlayers(players []pricing.SelectedPlayer) Session {
	cp := s
	cp.Players = append([]pricing.SelectedPlayer(nil), players...)
	return cp
}

// WithAnswers replaces the question answers.
func (s Session) WithAnswers(answers []Answer) Session {
	cp := s
	cp.Answers = append([]Answer(nil), answers...)
	return cp
}

// WithVolunteerPositions replaces the selected volunteer position IDs.
func (s Session) WithVolunteerPositions(ids []string) Session {
	cp := s
	cp.VolunteerPositions = append([]string(nil), ids...)
	return cp
}

// WithDonation sets the optional donation amount.
func (s Session) WithDonation(amount pricing.Money) Session {
	cp := s
	cp.Donation = amount
	return cp
}

// WithAid records a financial aid request.
func (s Session) WithAid(requested bool, note string) Session {
	cp := s
	cp.AidRequested = requested
	cp.AidNote = note
	return cp
}

// Summary derives the registration totals for the session against the
// snapshot. Totals are never stored; they are recomputed from the session on
// every call.
func (s Session) Summary(snap Snapshot) pricing.FamilySummary {
	positions := snap.VolunteerPositionsByID(s.VolunteerPositions)
	return pricing.ComputeFamily(s.Players, positions, s.Donation)
}
