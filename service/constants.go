package service

const (
	MaxAnnualIncome = 1_000_000_000.0 // sanity cap on extracted income
	MaxLoanAmount   = 1_000_000_000.0
	MaxMonthlyDebt  = 100_000_000.0
	MaxAssetValue   = 10_000_000_000.0

	MaxIncomeProofYears = 50
)
