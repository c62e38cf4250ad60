package domain

type EmploymentType string

const (
	EmploymentSalaried     EmploymentType = "salaried"
	EmploymentSelfEmployed EmploymentType = "self_employed"
	EmploymentOther        EmploymentType = "other"
)

// BorrowerRecord holds the structured facts extracted from the borrower's
// documents. Pointer fields are optional; when absent, the ratios that
// depend on them are skipped.
type BorrowerRecord struct {
	Name             string         `json:"name"`
	Employment       EmploymentType `json:"employment"`
	AnnualIncome     float64        `json:"annualIncome"`
	MonthlyDebt      float64        `json:"monthlyDebt"`
	Savings          float64        `json:"savings"`
	Assets           float64        `json:"assets"`
	Liabilities      float64        `json:"liabilities"`
	LoanAmount       float64        `json:"loanAmount"`
	IncomeProofYears int            `json:"incomeProofYears"`

	HousingPayment     *float64 `json:"housingPayment,omitempty"`
	PropertyValue      *float64 `json:"propertyValue,omitempty"`
	RevolvingBalance   *float64 `json:"revolvingBalance,omitempty"`
	RevolvingLimit     *float64 `json:"revolvingLimit,omitempty"`
	NetOperatingIncome *float64 `json:"netOperatingIncome,omitempty"`
	DebtService        *float64 `json:"debtService,omitempty"`
}
