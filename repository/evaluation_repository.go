package repository

import "underwriting-agent/domain"

type EvaluationRepository interface {
	Save(record domain.BorrowerRecord, eval domain.Evaluation) error
	FindByID(id string) (domain.Evaluation, bool, error)
}
