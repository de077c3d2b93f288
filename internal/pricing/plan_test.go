package pricing

import "testing"

func TestDueTodayPayInFull(t *testing.T) {
	for _, installments := range []int{0, 1} {
		plan := PaymentPlan{TotalAmount: 30_000, NumInstallments: installments}
		if got := DueToday(plan); got != 30_000 {
			t.Fatalf("installments=%d: expected due today 30000, got %d", installments, got)
		}
	}
}

func TestDueTodayEvenSplit(t *testing.T) {
	// package price 300, 3 installments, no initial payment
	plan := PaymentPlan{TotalAmount: 30_000, NumInstallments: 3}
	if got := DueToday(plan); got != 10_000 {
		t.Fatalf("expected due today 10000, got %d", got)
	}
	if got := PerInstallment(plan); got != 10_000 {
		t.Fatalf("expected per installment 10000, got %d", got)
	}
}

func TestDueTodayWithInitialPayment(t *testing.T) {
	// package price 500, initial payment 150, 4 installments
	plan := PaymentPlan{TotalAmount: 50_000, NumInstallments: 4, InitialPaymentAmount: 15_000}
	if got := DueToday(plan); got != 15_000 {
		t.Fatalf("expected due today 15000, got %d", got)
	}
	// remaining 350 across 3 installments of 116.67
	if got := PerInstallment(plan); got != 11_667 {
		t.Fatalf("expected per installment 11667, got %d", got)
	}
	if got := RemainingInstallments(plan); got != 3 {
		t.Fatalf("expected 3 remaining installments, got %d", got)
	}
}

func TestInstallmentsRoughlySumToTotal(t *testing.T) {
	plans := []PaymentPlan{
		{TotalAmount: 50_000, NumInstallments: 4, InitialPaymentAmount: 15_000},
		{TotalAmount: 30_000, NumInstallments: 3},
		{TotalAmount: 19_999, NumInstallments: 7},
		{TotalAmount: 100_001, NumInstallments: 12, InitialPaymentAmount: 25_000},
	}
	for _, plan := range plans {
		sum := DueToday(plan) + Money(RemainingInstallments(plan))*PerInstallment(plan)
		diff := sum - plan.TotalAmount
		if diff < 0 {
			diff = -diff
		}
		if diff > Money(plan.NumInstallments) {
			t.Fatalf("plan %+v: schedule sums to %d, want ~%d", plan, sum, plan.TotalAmount)
		}
	}
}

func TestDefaultPlanFallsBackToPayInFull(t *testing.T) {
	plan := DefaultPlan(nil, 27_500)
	if plan.NumInstallments != 1 || plan.TotalAmount != 27_500 {
		t.Fatalf("expected pay-in-full fallback, got %+v", plan)
	}
	if got := DueToday(plan); got != 27_500 {
		t.Fatalf("expected due today 27500, got %d", got)
	}
}

func TestDefaultPlanPrefersFlaggedEntry(t *testing.T) {
	plans := []PaymentPlan{
		{ID: "a", TotalAmount: 30_000, NumInstallments: 3},
		{ID: "b", TotalAmount: 30_000, NumInstallments: 1, IsDefault: true},
	}
	if got := DefaultPlan(plans, 30_000); got.ID != "b" {
		t.Fatalf("expected default plan b, got %s", got.ID)
	}
}
