package invitation

import (
	"testing"

	"github.com/thryvyng/club-api/internal/pricing"
)

func snapshotWith(questions int, volunteers int, donations, aid bool) Snapshot {
	snap := Snapshot{
		Settings: ProgramSettings{DonationsEnabled: donations, FinancialAidEnabled: aid},
	}
	for i := 0; i < questions; i++ {
		snap.Questions = append(snap.Questions, Question{ID: "q", Kind: KindShortText})
	}
	for i := 0; i < volunteers; i++ {
		snap.VolunteerPositions = append(snap.VolunteerPositions, pricing.VolunteerPosition{ID: "v"})
	}
	return snap
}

func TestStepsAlwaysEnabled(t *testing.T) {
	states := Steps(snapshotWith(0, 0, false, false))
	enabled := Enabled(states)
	want := []Step{StepReview, StepPayment, StepCheckout}
	if len(enabled) != len(want) {
		t.Fatalf("expected %d enabled steps, got %v", len(want), enabled)
	}
	for i, step := range want {
		if enabled[i] != step {
			t.Fatalf("expected step %s at index %d, got %s", step, i, enabled[i])
		}
	}
}

func TestStepsEnabledByConfiguration(t *testing.T) {
	states := Steps(snapshotWith(2, 1, true, true))
	enabled := Enabled(states)
	if len(enabled) != 7 {
		t.Fatalf("expected all 7 steps enabled, got %v", enabled)
	}
}

func TestPositionCountsEnabledSubsetOnly(t *testing.T) {
	// questions disabled, volunteer enabled: payment is the 2nd visible step
	// and volunteer the 3rd, with no gap left by the disabled questions step.
	states := Steps(snapshotWith(0, 1, false, false))

	pos, ok := Position(states, StepPayment)
	if !ok || pos != 2 {
		t.Fatalf("expected payment at position 2, got %d (ok=%v)", pos, ok)
	}
	pos, ok = Position(states, StepVolunteer)
	if !ok || pos != 3 {
		t.Fatalf("expected volunteer at position 3, got %d (ok=%v)", pos, ok)
	}
	pos, ok = Position(states, StepCheckout)
	if !ok || pos != 4 {
		t.Fatalf("expected checkout at position 4, got %d (ok=%v)", pos, ok)
	}
	if _, ok := Position(states, StepQuestions); ok {
		t.Fatal("disabled step must not have a position")
	}
}

func TestNextSkipsDisabledSteps(t *testing.T) {
	states := Steps(snapshotWith(0, 0, true, false))

	next, ok := Next(states, StepReview)
	if !ok || next != StepPayment {
		t.Fatalf("expected payment after review, got %s", next)
	}
	next, ok = Next(states, StepPayment)
	if !ok || next != StepDonate {
		t.Fatalf("expected donate after payment, got %s", next)
	}
	next, ok = Next(states, StepDonate)
	if !ok || next != StepCheckout {
		t.Fatalf("expected checkout after donate, got %s", next)
	}
	if _, ok := Next(states, StepCheckout); ok {
		t.Fatal("checkout is terminal")
	}
}
