package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"underwriting-agent/domain"
	"underwriting-agent/policy"
)

// roundTo2Decimals redondea un float64 a 2 decimales
func roundTo2Decimals(value float64) float64 {
	return math.Round(value*100) / 100
}

// Evaluator computes financial ratios for a borrower record, checks them
// against the underwriting policy, and derives risk flags and a decision.
// It is a pure function of (record, policy): no I/O, no state.
type Evaluator struct {
	policy policy.Policy
}

// NewEvaluator creates an Evaluator for the given policy. The policy must
// already be validated.
func NewEvaluator(p policy.Policy) *Evaluator {
	return &Evaluator{policy: p}
}

// Evaluate runs the full pipeline: ratios, risk flags, decision.
func (e *Evaluator) Evaluate(record domain.BorrowerRecord) (domain.Evaluation, error) {
	ratios, err := e.ComputeRatios(record)
	if err != nil {
		return domain.Evaluation{}, err
	}

	flags := e.BuildRiskFlags(ratios, record)
	decision := e.Decide(ratios, flags)

	return domain.Evaluation{
		Ratios:    ratios,
		RiskFlags: flags,
		Decision:  decision,
	}, nil
}

// ComputeRatios validates the record and computes every ratio the record
// carries data for, in a fixed order. Ratios whose optional inputs are
// absent are skipped; invalid denominators fail the whole computation.
func (e *Evaluator) ComputeRatios(record domain.BorrowerRecord) ([]domain.RatioResult, error) {
	if err := validateRecord(record); err != nil {
		return nil, err
	}

	results := []domain.RatioResult{}
	add := func(name domain.Ratio, value float64) {
		rule, ok := e.policy.Rules[name]
		if !ok {
			return
		}
		status := domain.StatusFail
		if rule.Satisfied(value) {
			status = domain.StatusPass
		}
		results = append(results, domain.RatioResult{
			Name:      name,
			Value:     value,
			Threshold: rule.Threshold,
			Required:  rule.Requirement(name.Percent()),
			Status:    status,
		})
	}

	annualDebt := record.MonthlyDebt * 12
	add(domain.RatioDTI, roundTo2Decimals(annualDebt/record.AnnualIncome*100))

	if record.HousingPayment != nil {
		backEnd := (record.MonthlyDebt + *record.HousingPayment) * 12
		add(domain.RatioBackEndDTI, roundTo2Decimals(backEnd/record.AnnualIncome*100))
	}

	if record.PropertyValue != nil {
		add(domain.RatioLTV, roundTo2Decimals(record.LoanAmount / *record.PropertyValue * 100))
	}

	if record.RevolvingBalance != nil && record.RevolvingLimit != nil {
		add(domain.RatioCreditUtilization,
			roundTo2Decimals(*record.RevolvingBalance / *record.RevolvingLimit * 100))
	}

	add(domain.RatioSavingsToIncome, roundTo2Decimals(record.Savings/record.AnnualIncome*100))

	netWorth := record.Assets - record.Liabilities
	add(domain.RatioNetWorthToIncome, roundTo2Decimals(netWorth/record.AnnualIncome*100))

	if record.NetOperatingIncome != nil && record.DebtService != nil {
		add(domain.RatioDSCR, roundTo2Decimals(*record.NetOperatingIncome / *record.DebtService))
	}

	return results, nil
}

// BuildRiskFlags returns one flag per failing ratio plus the qualitative
// flags derived from the record, in ratio order then qualitative order.
func (e *Evaluator) BuildRiskFlags(ratios []domain.RatioResult, record domain.BorrowerRecord) []string {
	flags := []string{}
	for _, r := range ratios {
		if r.Status != domain.StatusFail {
			continue
		}
		rule := e.policy.Rules[r.Name]
		word := "above"
		if rule.Direction == policy.AtLeast {
			word = "below"
		}
		flags = append(flags, fmt.Sprintf("%s %s threshold (Required %s)",
			r.Name.DisplayName(), word, r.Required))
	}

	if record.Employment == domain.EmploymentSelfEmployed &&
		record.IncomeProofYears < e.policy.MinIncomeProofYears {
		flags = append(flags, fmt.Sprintf("Self-employed income without %d-year proof",
			e.policy.MinIncomeProofYears))
	}

	return flags
}

// Decide applies the rule table: any critical failure denies; any failure
// or qualitative flag without a critical one gives a conditional approval
// with a follow-up request; a clean record approves.
func (e *Evaluator) Decide(ratios []domain.RatioResult, flags []string) domain.Decision {
	failing := []domain.RatioResult{}
	critical := false
	for _, r := range ratios {
		if r.Status != domain.StatusFail {
			continue
		}
		failing = append(failing, r)
		if e.policy.Rules[r.Name].Critical(r.Value) {
			critical = true
		}
	}

	if critical {
		return domain.Decision{
			Status:  domain.DecisionDeny,
			Message: "Application does not meet minimum underwriting requirements",
		}
	}

	if len(failing) == 0 && len(flags) == 0 {
		return domain.Decision{
			Status:  domain.DecisionApprove,
			Message: "Application meets all policy requirements",
		}
	}

	// Flags beyond the per-ratio ones are qualitative.
	qualitative := flags[len(failing):]

	return domain.Decision{
		Status:   domain.DecisionConditional,
		Message:  "Application shows promise but requires additional documentation",
		FollowUp: e.followUp(failing, qualitative),
	}
}

// followUp names the weakest evidence in the application. Qualitative
// documentation gaps come first since they name a concrete document;
// otherwise the failing ratio with the largest relative breach.
func (e *Evaluator) followUp(failing []domain.RatioResult, qualitative []string) string {
	for _, flag := range qualitative {
		if strings.HasPrefix(flag, "Self-employed income") {
			return "Please upload business bank statements from the last 6 months to verify self-employment income."
		}
	}
	if len(qualitative) > 0 {
		return fmt.Sprintf("Please provide documentation addressing: %s.", qualitative[0])
	}

	worst := failing[0]
	worstBreach := e.relativeBreach(worst)
	for _, r := range failing[1:] {
		if b := e.relativeBreach(r); b > worstBreach {
			worst, worstBreach = r, b
		}
	}

	return fmt.Sprintf("Please provide supporting documentation addressing %s (currently %s, required %s).",
		worst.Name.DisplayName(), formatRatioValue(worst), worst.Required)
}

func (e *Evaluator) relativeBreach(r domain.RatioResult) float64 {
	rule := e.policy.Rules[r.Name]
	if rule.Direction == policy.AtLeast {
		return (rule.Threshold - r.Value) / rule.Threshold
	}
	return (r.Value - rule.Threshold) / rule.Threshold
}

func formatRatioValue(r domain.RatioResult) string {
	value := strconv.FormatFloat(r.Value, 'f', -1, 64)
	if r.Name.Percent() {
		return value + "%"
	}
	return value
}

// validateRecord rejects records the evaluator cannot compute on. Negative
// amounts are rejected, never clamped.
func validateRecord(record domain.BorrowerRecord) error {
	switch record.Employment {
	case domain.EmploymentSalaried, domain.EmploymentSelfEmployed, domain.EmploymentOther:
	default:
		return invalidInput("employment", fmt.Sprintf("must be one of %q, %q, %q",
			domain.EmploymentSalaried, domain.EmploymentSelfEmployed, domain.EmploymentOther))
	}

	if record.AnnualIncome <= 0 {
		return invalidInput("annualIncome", "must be greater than 0")
	}
	if record.AnnualIncome > MaxAnnualIncome {
		return invalidInput("annualIncome", fmt.Sprintf("exceeds the maximum of %.0f", MaxAnnualIncome))
	}
	if record.MonthlyDebt < 0 {
		return invalidInput("monthlyDebt", "must not be negative")
	}
	if record.MonthlyDebt > MaxMonthlyDebt {
		return invalidInput("monthlyDebt", fmt.Sprintf("exceeds the maximum of %.0f", MaxMonthlyDebt))
	}
	if record.Savings < 0 {
		return invalidInput("savings", "must not be negative")
	}
	if record.Assets < 0 || record.Assets > MaxAssetValue {
		return invalidInput("assets", "must be between 0 and the maximum asset value")
	}
	if record.Liabilities < 0 {
		return invalidInput("liabilities", "must not be negative")
	}
	if record.LoanAmount < 0 {
		return invalidInput("loanAmount", "must not be negative")
	}
	if record.LoanAmount > MaxLoanAmount {
		return invalidInput("loanAmount", fmt.Sprintf("exceeds the maximum of %.0f", MaxLoanAmount))
	}
	if record.IncomeProofYears < 0 || record.IncomeProofYears > MaxIncomeProofYears {
		return invalidInput("incomeProofYears", "must be between 0 and 50")
	}

	if record.HousingPayment != nil && *record.HousingPayment < 0 {
		return invalidInput("housingPayment", "must not be negative")
	}
	if record.PropertyValue != nil && *record.PropertyValue <= 0 {
		return invalidInput("propertyValue", "must be greater than 0")
	}
	if record.RevolvingBalance != nil && *record.RevolvingBalance < 0 {
		return invalidInput("revolvingBalance", "must not be negative")
	}
	if record.RevolvingLimit != nil && *record.RevolvingLimit <= 0 {
		return invalidInput("revolvingLimit", "must be greater than 0")
	}
	if record.NetOperatingIncome != nil && *record.NetOperatingIncome < 0 {
		return invalidInput("netOperatingIncome", "must not be negative")
	}
	if record.DebtService != nil && *record.DebtService <= 0 {
		return invalidInput("debtService", "must be greater than 0")
	}

	return nil
}
