package service

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"

	"github.com/google/uuid"

	"underwriting-agent/domain"
	"underwriting-agent/repository"
)

// UnderwritingService wraps the pure evaluator with the side-effecting
// concerns of a running service: application IDs, result caching,
// persistence, and the optional AI explanation.
type UnderwritingService struct {
	evaluator *Evaluator
	repo      repository.EvaluationRepository
	cache     repository.CacheRepository
	ai        *AIService
}

// NewUnderwritingService creates an UnderwritingService with the given
// evaluator and collaborators.
func NewUnderwritingService(
	evaluator *Evaluator,
	repo repository.EvaluationRepository,
	cache repository.CacheRepository,
	ai *AIService,
) *UnderwritingService {
	return &UnderwritingService{
		evaluator: evaluator,
		repo:      repo,
		cache:     cache,
		ai:        ai,
	}
}

// EvaluateApplication evaluates a borrower record. The evaluation is
// deterministic per record, so identical records resolve to the same
// cached result, application ID included.
func (s *UnderwritingService) EvaluateApplication(
	record domain.BorrowerRecord,
) (domain.Evaluation, error) {

	key := recordCacheKey(record)
	if cached, ok := s.cache.Get(key); ok {
		var eval domain.Evaluation
		if err := json.Unmarshal([]byte(cached), &eval); err == nil {
			return eval, nil
		}
		log.Printf("Warning: discarding unreadable cache entry %s", key)
	}

	eval, err := s.evaluator.Evaluate(record)
	if err != nil {
		return domain.Evaluation{}, err
	}

	eval.ApplicationID = uuid.NewString()
	eval.Explanation = s.ai.GenerateDecisionExplanation(record, eval)

	// Persisting and caching are not critical to the response.
	if err := s.repo.Save(record, eval); err != nil {
		log.Printf("Warning: failed to save evaluation %s: %v", eval.ApplicationID, err)
	}
	if data, err := json.Marshal(eval); err == nil {
		if err := s.cache.Set(key, string(data)); err != nil {
			log.Printf("Warning: failed to cache evaluation %s: %v", eval.ApplicationID, err)
		}
	}

	return eval, nil
}

// FindApplication returns a previously stored evaluation.
func (s *UnderwritingService) FindApplication(id string) (domain.Evaluation, bool, error) {
	return s.repo.FindByID(id)
}

// recordCacheKey derives a stable key from the canonical JSON encoding of
// the record. Struct field order makes the encoding deterministic.
func recordCacheKey(record domain.BorrowerRecord) string {
	data, err := json.Marshal(record)
	if err != nil {
		// A BorrowerRecord of plain numbers and strings always marshals.
		return "evaluation:unkeyed"
	}
	sum := sha256.Sum256(data)
	return "evaluation:" + hex.EncodeToString(sum[:])
}
