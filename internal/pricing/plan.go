package pricing

// Money represents a monetary value stored in minor units.
type Money = int64

// PaymentPlan describes one schedule for paying a registration package.
// A zero InitialPaymentAmount means the plan has no separate down payment.
type PaymentPlan struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	TotalAmount          Money  `json:"totalAmount"`
	NumInstallments      int    `json:"numInstallments"`
	InitialPaymentAmount Money  `json:"initialPaymentAmount,omitempty"`
	IsDefault            bool   `json:"isDefault"`
}

// PayInFullPlanID identifies the synthesised single-payment plan.
const PayInFullPlanID = "pay-in-full"

// PayInFull returns the fallback plan used when no plan rows could be loaded
// for a package. The wizard degrades to this instead of failing the flow.
func PayInFull(packagePrice Money) PaymentPlan {
	return PaymentPlan{
		ID:              PayInFullPlanID,
		Name:            "Pay in full",
		TotalAmount:     packagePrice,
		NumInstallments: 1,
		IsDefault:       true,
	}
}

// DueToday computes the amount charged when the plan is selected.
// NumInstallments <= 1 (including 0) means pay-in-full; the branch order
// guards the division below against a zero installment count.
func DueToday(p PaymentPlan) Money {
	if p.NumInstallments <= 1 {
		return p.TotalAmount
	}
	if p.InitialPaymentAmount > 0 {
		return p.InitialPaymentAmount
	}
	return roundDiv(p.TotalAmount, int64(p.NumInstallments))
}

// PerInstallment computes the amount of each installment after the initial
// payment. Plans without an initial payment split the total evenly, so the
// installment equals the due-today amount.
func PerInstallment(p PaymentPlan) Money {
	if p.NumInstallments <= 1 {
		return p.TotalAmount
	}
	if p.InitialPaymentAmount > 0 {
		return roundDiv(p.TotalAmount-p.InitialPaymentAmount, int64(p.NumInstallments-1))
	}
	return roundDiv(p.TotalAmount, int64(p.NumInstallments))
}

// RemainingInstallments reports how many payments follow the due-today charge.
func RemainingInstallments(p PaymentPlan) int {
	if p.NumInstallments <= 1 {
		return 0
	}
	return p.NumInstallments - 1
}

// DefaultPlan picks the plan flagged as default, falling back to the first
// entry and finally to a synthesised pay-in-full plan.
func DefaultPlan(plans []PaymentPlan, packagePrice Money) PaymentPlan {
	for _, p := range plans {
		if p.IsDefault {
			return p
		}
	}
	if len(plans) > 0 {
		return plans[0]
	}
	return PayInFull(packagePrice)
}

func roundDiv(amount, n Money) Money {
	if n <= 0 {
		return amount
	}
	return (amount*2 + n) / (n * 2)
}
