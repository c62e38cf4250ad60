package repository

import (
	"reflect"
	"testing"

	"underwriting-agent/domain"
)

func sampleEvaluation(id string) (domain.BorrowerRecord, domain.Evaluation) {
	record := domain.BorrowerRecord{
		Name:         "Jordan Rivera",
		Employment:   domain.EmploymentSalaried,
		AnnualIncome: 85000,
		MonthlyDebt:  1200,
		Savings:      15000,
		Assets:       60000,
		Liabilities:  22000,
		LoanAmount:   312000,
	}
	eval := domain.Evaluation{
		ApplicationID: id,
		Ratios: []domain.RatioResult{
			{Name: domain.RatioDTI, Value: 16.94, Threshold: 28, Required: "≤ 28%", Status: domain.StatusPass},
		},
		RiskFlags: []string{},
		Decision: domain.Decision{
			Status:  domain.DecisionApprove,
			Message: "Application meets all policy requirements",
		},
	}
	return record, eval
}

func TestSQLiteRepository_SaveAndFind(t *testing.T) {
	db, err := InitDB(":memory:")
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	defer db.Close()

	repo := NewEvaluationRepositorySQLite(db)
	record, eval := sampleEvaluation("app-123")

	if err := repo.Save(record, eval); err != nil {
		t.Fatalf("save: %v", err)
	}

	found, ok, err := repo.FindByID("app-123")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !ok {
		t.Fatalf("expected evaluation to be found")
	}
	if !reflect.DeepEqual(eval, found) {
		t.Errorf("stored evaluation differs:\nwant %+v\ngot  %+v", eval, found)
	}
}

func TestSQLiteRepository_FindMissing(t *testing.T) {
	db, err := InitDB(":memory:")
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	defer db.Close()

	repo := NewEvaluationRepositorySQLite(db)

	_, ok, err := repo.FindByID("nope")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if ok {
		t.Errorf("expected no evaluation for unknown id")
	}
}

func TestSQLiteRepository_SaveIsIdempotentPerID(t *testing.T) {
	db, err := InitDB(":memory:")
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	defer db.Close()

	repo := NewEvaluationRepositorySQLite(db)
	record, eval := sampleEvaluation("app-123")

	if err := repo.Save(record, eval); err != nil {
		t.Fatalf("save: %v", err)
	}

	eval.Decision.Status = domain.DecisionConditional
	if err := repo.Save(record, eval); err != nil {
		t.Fatalf("second save: %v", err)
	}

	found, _, err := repo.FindByID("app-123")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.Decision.Status != domain.DecisionConditional {
		t.Errorf("expected the second save to replace the row")
	}
}

func TestMemoryRepository_SaveAndFind(t *testing.T) {
	repo := NewEvaluationRepositoryMemory()
	record, eval := sampleEvaluation("app-456")

	if err := repo.Save(record, eval); err != nil {
		t.Fatalf("save: %v", err)
	}

	found, ok, err := repo.FindByID("app-456")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !ok {
		t.Fatalf("expected evaluation to be found")
	}
	if found.ApplicationID != "app-456" {
		t.Errorf("unexpected application id %q", found.ApplicationID)
	}
}
