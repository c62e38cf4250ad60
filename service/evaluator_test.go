package service

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"underwriting-agent/domain"
	"underwriting-agent/policy"
)

func f(v float64) *float64 { return &v }

// baseRecord passes every default policy check.
func baseRecord() domain.BorrowerRecord {
	return domain.BorrowerRecord{
		Name:             "Jordan Rivera",
		Employment:       domain.EmploymentSalaried,
		AnnualIncome:     120000,
		MonthlyDebt:      1000,
		Savings:          20000,
		Assets:           100000,
		Liabilities:      30000,
		LoanAmount:       300000,
		IncomeProofYears: 3,

		HousingPayment:     f(1500),
		PropertyValue:      f(400000),
		RevolvingBalance:   f(2000),
		RevolvingLimit:     f(10000),
		NetOperatingIncome: f(1500),
		DebtService:        f(1000),
	}
}

func findRatio(t *testing.T, ratios []domain.RatioResult, name domain.Ratio) domain.RatioResult {
	t.Helper()
	for _, r := range ratios {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("ratio %s not computed", name)
	return domain.RatioResult{}
}

func TestComputeRatios_GrossDTI(t *testing.T) {
	evaluator := NewEvaluator(policy.Default())

	record := baseRecord()
	record.AnnualIncome = 85000
	record.MonthlyDebt = 1200
	record.HousingPayment = nil

	ratios, err := evaluator.ComputeRatios(record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dti := findRatio(t, ratios, domain.RatioDTI)
	if dti.Value != 16.94 {
		t.Errorf("expected DTI 16.94, got %v", dti.Value)
	}
	if dti.Status != domain.StatusPass {
		t.Errorf("expected DTI to pass at 16.94%% against ≤ 28%%")
	}
}

func TestComputeRatios_LTV(t *testing.T) {
	evaluator := NewEvaluator(policy.Default())

	record := baseRecord()
	record.LoanAmount = 312000
	record.PropertyValue = f(400000)

	ratios, err := evaluator.ComputeRatios(record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ltv := findRatio(t, ratios, domain.RatioLTV)
	if ltv.Value != 78 {
		t.Errorf("expected LTV 78, got %v", ltv.Value)
	}
	if ltv.Status != domain.StatusPass {
		t.Errorf("expected LTV 78%% to pass against ≤ 80%%")
	}
}

func TestComputeRatios_SkipsAbsentOptionalRatios(t *testing.T) {
	evaluator := NewEvaluator(policy.Default())

	record := baseRecord()
	record.HousingPayment = nil
	record.PropertyValue = nil
	record.RevolvingBalance = nil
	record.RevolvingLimit = nil
	record.NetOperatingIncome = nil
	record.DebtService = nil

	ratios, err := evaluator.ComputeRatios(record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Only DTI, savings-to-income, and net-worth-to-income remain.
	if len(ratios) != 3 {
		t.Fatalf("expected 3 ratios, got %d", len(ratios))
	}
	for _, r := range ratios {
		switch r.Name {
		case domain.RatioDTI, domain.RatioSavingsToIncome, domain.RatioNetWorthToIncome:
		default:
			t.Errorf("unexpected ratio %s for a record without optional fields", r.Name)
		}
	}
}

func TestComputeRatios_ZeroIncome(t *testing.T) {
	evaluator := NewEvaluator(policy.Default())

	record := baseRecord()
	record.AnnualIncome = 0

	_, err := evaluator.ComputeRatios(record)
	if err == nil {
		t.Fatalf("expected error for zero income")
	}

	var invalid *InvalidInputError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidInputError, got %T", err)
	}
	if invalid.Field != "annualIncome" {
		t.Errorf("expected field annualIncome, got %q", invalid.Field)
	}
}

func TestComputeRatios_NegativeIncomeNotClamped(t *testing.T) {
	evaluator := NewEvaluator(policy.Default())

	record := baseRecord()
	record.AnnualIncome = -50000

	if _, err := evaluator.ComputeRatios(record); err == nil {
		t.Errorf("expected error for negative income")
	}
}

func TestComputeRatios_ZeroDenominatorsRejected(t *testing.T) {
	evaluator := NewEvaluator(policy.Default())

	cases := []struct {
		field  string
		mutate func(*domain.BorrowerRecord)
	}{
		{"propertyValue", func(r *domain.BorrowerRecord) { r.PropertyValue = f(0) }},
		{"revolvingLimit", func(r *domain.BorrowerRecord) { r.RevolvingLimit = f(0) }},
		{"debtService", func(r *domain.BorrowerRecord) { r.DebtService = f(0) }},
	}

	for _, tc := range cases {
		record := baseRecord()
		tc.mutate(&record)

		_, err := evaluator.ComputeRatios(record)
		if err == nil {
			t.Errorf("%s: expected error for zero denominator", tc.field)
			continue
		}

		var invalid *InvalidInputError
		if !errors.As(err, &invalid) {
			t.Errorf("%s: expected InvalidInputError, got %T", tc.field, err)
			continue
		}
		if invalid.Field != tc.field {
			t.Errorf("expected field %s, got %q", tc.field, invalid.Field)
		}
	}
}

func TestComputeRatios_NoNaNOrInfinity(t *testing.T) {
	evaluator := NewEvaluator(policy.Default())

	ratios, err := evaluator.ComputeRatios(baseRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, r := range ratios {
		if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
			t.Errorf("ratio %s has non-finite value %v", r.Name, r.Value)
		}
	}
}

func TestComputeRatios_StatusMatchesThresholdTable(t *testing.T) {
	pol := policy.Default()
	evaluator := NewEvaluator(pol)

	record := baseRecord()
	// Mix of passing and failing values.
	record.MonthlyDebt = 3000
	record.Savings = 5000
	record.NetOperatingIncome = f(950)
	record.DebtService = f(1000)

	ratios, err := evaluator.ComputeRatios(record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, r := range ratios {
		rule := pol.Rules[r.Name]
		expected := domain.StatusFail
		if rule.Satisfied(r.Value) {
			expected = domain.StatusPass
		}
		if r.Status != expected {
			t.Errorf("ratio %s: status %s inconsistent with value %v against %s",
				r.Name, r.Status, r.Value, r.Required)
		}
		if r.Threshold != rule.Threshold {
			t.Errorf("ratio %s: threshold %v does not match policy %v",
				r.Name, r.Threshold, rule.Threshold)
		}
	}
}

func TestBuildRiskFlags_DSCRBelowThreshold(t *testing.T) {
	evaluator := NewEvaluator(policy.Default())

	record := baseRecord()
	record.NetOperatingIncome = f(950)
	record.DebtService = f(1000)

	ratios, err := evaluator.ComputeRatios(record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dscr := findRatio(t, ratios, domain.RatioDSCR)
	if dscr.Value != 0.95 {
		t.Errorf("expected DSCR 0.95, got %v", dscr.Value)
	}
	if dscr.Status != domain.StatusFail {
		t.Errorf("expected DSCR 0.95 to fail against ≥ 1.2")
	}

	flags := evaluator.BuildRiskFlags(ratios, record)
	want := "DSCR below threshold (Required ≥ 1.2)"
	found := false
	for _, flag := range flags {
		if flag == want {
			found = true
		}
	}
	if !found {
		t.Errorf("expected flag %q, got %v", want, flags)
	}
}

func TestBuildRiskFlags_SelfEmployedWithoutProof(t *testing.T) {
	evaluator := NewEvaluator(policy.Default())

	record := baseRecord()
	record.Employment = domain.EmploymentSelfEmployed
	record.IncomeProofYears = 1

	ratios, err := evaluator.ComputeRatios(record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	flags := evaluator.BuildRiskFlags(ratios, record)
	if len(flags) != 1 || flags[0] != "Self-employed income without 2-year proof" {
		t.Errorf("expected only the self-employment flag, got %v", flags)
	}
}

func TestDecide_Approve(t *testing.T) {
	evaluator := NewEvaluator(policy.Default())

	eval, err := evaluator.Evaluate(baseRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(eval.RiskFlags) != 0 {
		t.Fatalf("expected no risk flags, got %v", eval.RiskFlags)
	}
	if eval.Decision.Status != domain.DecisionApprove {
		t.Errorf("expected approve, got %s", eval.Decision.Status)
	}
	if eval.Decision.FollowUp != "" {
		t.Errorf("approval should carry no follow-up request")
	}
}

func TestDecide_ConditionalOnDSCRAndSelfEmployment(t *testing.T) {
	evaluator := NewEvaluator(policy.Default())

	record := baseRecord()
	record.Employment = domain.EmploymentSelfEmployed
	record.IncomeProofYears = 0
	record.NetOperatingIncome = f(950)
	record.DebtService = f(1000)

	eval, err := evaluator.Evaluate(record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(eval.RiskFlags) != 2 {
		t.Fatalf("expected 2 risk flags, got %v", eval.RiskFlags)
	}
	// DSCR 0.95 fails but sits above the 0.90 hard limit: conditional, not deny.
	if eval.Decision.Status != domain.DecisionConditional {
		t.Errorf("expected conditional approval, got %s", eval.Decision.Status)
	}
	if eval.Decision.FollowUp != "Please upload business bank statements from the last 6 months to verify self-employment income." {
		t.Errorf("unexpected follow-up: %q", eval.Decision.FollowUp)
	}
}

func TestDecide_FollowUpNamesWorstRatio(t *testing.T) {
	evaluator := NewEvaluator(policy.Default())

	record := baseRecord()
	// Utilization 35% breaches ≤30% by 17%; savings 4.17% breaches ≥10% by 58%.
	record.RevolvingBalance = f(3500)
	record.Savings = 5000

	eval, err := evaluator.Evaluate(record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if eval.Decision.Status != domain.DecisionConditional {
		t.Fatalf("expected conditional approval, got %s", eval.Decision.Status)
	}
	if !strings.Contains(eval.Decision.FollowUp, "Savings-to-Income") {
		t.Errorf("expected follow-up to name the weakest ratio, got %q", eval.Decision.FollowUp)
	}
}

func TestDecide_DenyOnHardLimitBreach(t *testing.T) {
	evaluator := NewEvaluator(policy.Default())

	record := baseRecord()
	record.LoanAmount = 480000 // LTV 120%, past the 95% hard limit

	eval, err := evaluator.Evaluate(record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if eval.Decision.Status != domain.DecisionDeny {
		t.Errorf("expected deny, got %s", eval.Decision.Status)
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	evaluator := NewEvaluator(policy.Default())

	record := baseRecord()
	record.Employment = domain.EmploymentSelfEmployed
	record.IncomeProofYears = 0

	first, err := evaluator.Evaluate(record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := evaluator.Evaluate(record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical input produced different evaluations:\n%+v\n%+v", first, second)
	}
}

func TestEvaluate_StricterBackEndDTIPolicy(t *testing.T) {
	pol := policy.Default()
	pol.Rules[domain.RatioBackEndDTI] = policy.RatioRule{
		Threshold: 43,
		Direction: policy.AtMost,
	}
	evaluator := NewEvaluator(pol)

	record := baseRecord()
	record.AnnualIncome = 85000
	record.MonthlyDebt = 1200
	record.HousingPayment = f(1350) // back-end DTI = 36%

	ratios, err := evaluator.ComputeRatios(record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	backEnd := findRatio(t, ratios, domain.RatioBackEndDTI)
	if backEnd.Value != 36 {
		t.Errorf("expected back-end DTI 36, got %v", backEnd.Value)
	}
	if backEnd.Status != domain.StatusPass {
		t.Errorf("expected 36%% to pass against the ≤ 43%% variant")
	}
	if backEnd.Required != "≤ 43%" {
		t.Errorf("expected requirement \"≤ 43%%\", got %q", backEnd.Required)
	}
}
