package repository

import (
	"sync"

	"underwriting-agent/domain"
)

// EvaluationRepositoryMemory is an in-memory implementation of
// EvaluationRepository.
type EvaluationRepositoryMemory struct {
	mu   sync.RWMutex
	data map[string]domain.Evaluation
}

// NewEvaluationRepositoryMemory creates a new in-memory evaluation repository.
func NewEvaluationRepositoryMemory() *EvaluationRepositoryMemory {
	return &EvaluationRepositoryMemory{
		data: make(map[string]domain.Evaluation),
	}
}

// Save stores the evaluation in memory, keyed by application ID.
func (r *EvaluationRepositoryMemory) Save(
	record domain.BorrowerRecord,
	eval domain.Evaluation,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[eval.ApplicationID] = eval
	return nil
}

// FindByID returns the stored evaluation for the application, if any.
func (r *EvaluationRepositoryMemory) FindByID(id string) (domain.Evaluation, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	eval, ok := r.data[id]
	return eval, ok, nil
}
