package domain

// Ratio identifies one of the computed financial metrics.
type Ratio string

const (
	RatioDTI               Ratio = "dti"
	RatioBackEndDTI        Ratio = "back_end_dti"
	RatioLTV               Ratio = "ltv"
	RatioCreditUtilization Ratio = "credit_utilization"
	RatioSavingsToIncome   Ratio = "savings_to_income"
	RatioNetWorthToIncome  Ratio = "net_worth_to_income"
	RatioDSCR              Ratio = "dscr"
)

// DisplayName returns the label used in risk flags and dashboards.
func (r Ratio) DisplayName() string {
	switch r {
	case RatioDTI:
		return "DTI"
	case RatioBackEndDTI:
		return "Back-End DTI"
	case RatioLTV:
		return "LTV"
	case RatioCreditUtilization:
		return "Credit Utilization"
	case RatioSavingsToIncome:
		return "Savings-to-Income"
	case RatioNetWorthToIncome:
		return "Net-Worth-to-Income"
	case RatioDSCR:
		return "DSCR"
	}
	return string(r)
}

// Percent reports whether the ratio is expressed as a percentage.
// DSCR is a plain coverage ratio; everything else is a percentage.
func (r Ratio) Percent() bool {
	return r != RatioDSCR
}

type RatioStatus string

const (
	StatusPass RatioStatus = "pass"
	StatusFail RatioStatus = "fail"
)

// RatioResult is one computed metric checked against its policy threshold.
// Required is the human-readable form of the check, e.g. "≤ 28%".
type RatioResult struct {
	Name      Ratio       `json:"name"`
	Value     float64     `json:"value"`
	Threshold float64     `json:"threshold"`
	Required  string      `json:"required"`
	Status    RatioStatus `json:"status"`
}

type DecisionStatus string

const (
	DecisionApprove     DecisionStatus = "approve"
	DecisionConditional DecisionStatus = "conditional_approval"
	DecisionDeny        DecisionStatus = "deny"
)

type Decision struct {
	Status   DecisionStatus `json:"status"`
	Message  string         `json:"message"`
	FollowUp string         `json:"followUp,omitempty"`
}

// Evaluation is the full underwriting result for one application.
type Evaluation struct {
	ApplicationID string        `json:"applicationId,omitempty"`
	Ratios        []RatioResult `json:"ratios"`
	RiskFlags     []string      `json:"riskFlags"`
	Decision      Decision      `json:"decision"`
	Explanation   string        `json:"explanation,omitempty"`
}
