package invitation

import "encoding/json"

// Step identifies one stage of the invitation wizard.
type Step int

// Canonical step order. The order never changes; steps are enabled or
// disabled per program configuration.
const (
	StepReview Step = iota
	StepQuestions
	StepPayment
	StepVolunteer
	StepDonate
	StepAid
	StepCheckout
)

var stepNames = [...]string{
	StepReview:    "review",
	StepQuestions: "questions",
	StepPayment:   "payment",
	StepVolunteer: "volunteer",
	StepDonate:    "donate",
	StepAid:       "aid",
	StepCheckout:  "checkout",
}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return "unknown"
	}
	return stepNames[s]
}

// MarshalJSON renders the step as its canonical name.
func (s Step) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// StepState pairs a step with whether the program enables it.
type StepState struct {
	Step    Step `json:"step"`
	Enabled bool `json:"enabled"`
}

// Steps derives the full canonical step list for the snapshot. Review,
// Payment and Checkout are always enabled; Questions and Volunteer depend on
// whether the program defines any; Donate and Aid follow the settings flags.
func Steps(snap Snapshot) []StepState {
	return []StepState{
		{Step: StepReview, Enabled: true},
		{Step: StepQuestions, Enabled: len(snap.Questions) > 0},
		{Step: StepPayment, Enabled: true},
		{Step: StepVolunteer, Enabled: len(snap.VolunteerPositions) > 0},
		{Step: StepDonate, Enabled: snap.Settings.DonationsEnabled},
		{Step: StepAid, Enabled: snap.Settings.FinancialAidEnabled},
		{Step: StepCheckout, Enabled: true},
	}
}

// Enabled filters the canonical list down to the enabled subset, preserving
// order.
func Enabled(states []StepState) []Step {
	out := make([]Step, 0, len(states))
	for _, st := range states {
		if st.Enabled {
			out = append(out, st.Step)
		}
	}
	return out
}

// Position returns the 1-based position of the step within the enabled
// subset. The step indicator numbers against the enabled subset, not the
// full canonical list, so disabled steps never leave gaps in the count.
func Position(states []StepState, s Step) (int, bool) {
	pos := 0
	for _, st := range states {
		if !st.Enabled {
			continue
		}
		pos++
		if st.Step == s {
			return pos, true
		}
	}
	return 0, false
}

// Next returns the enabled step that follows s in canonical order.
func Next(states []StepState, s Step) (Step, bool) {
	seen := false
	for _, st := range states {
		if st.Step == s {
			seen = true
			continue
		}
		if seen && st.Enabled {
			return st.Step, true
		}
	}
	return 0, false
}
