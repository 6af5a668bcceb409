// Package domain defines the business logic for the plan-reasoning service:
// running the engine over incoming profiles, memoizing and persisting results,
// and announcing completed assessments.
package domain

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"example.com/planreasoning/internal/cache"
	"example.com/planreasoning/internal/engine"
	"example.com/planreasoning/internal/events"
	"example.com/planreasoning/internal/observability"
)

// ErrAssessmentNotFound is returned when an assessment cannot be located.
var ErrAssessmentNotFound = errors.New("assessment not found")

// AssessmentRecord is the persisted form of an engine evaluation.
type AssessmentRecord struct {
	ID          string
	TenantID    string
	UserID      string
	ProfileHash string
	RuleVersion string
	RiskLevel   string
	Output      engine.Assessment
	CreatedAt   time.Time
}

// Cursor models the pagination token for assessment listings.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// AssessmentRepository captures persistence operations.
type AssessmentRepository interface {
	FindByProfileHash(ctx context.Context, tenantID, userID, profileHash, ruleVersion string) (*AssessmentRecord, error)
	Create(ctx context.Context, record AssessmentRecord) error
	Get(ctx context.Context, tenantID, assessmentID string) (*AssessmentRecord, error)
	ListByUser(ctx context.Context, tenantID, userID string, cursor *Cursor, limit int) ([]AssessmentRecord, *Cursor, error)
}

// Publisher announces completed assessments to downstream plan generators.
type Publisher interface {
	PublishAssessmentCompleted(ctx context.Context, topic string, event events.AssessmentCompleted) error
}

// Service orchestrates assessment workflows.
type Service struct {
	engine    *engine.Engine
	repo      AssessmentRepository
	cache     cache.ResultCache
	publisher Publisher
	topic     string
	logger    *log.Logger
}

// NewService constructs a Service. resultCache and publisher may be nil.
func NewService(eng *engine.Engine, repo AssessmentRepository, resultCache cache.ResultCache, publisher Publisher, topic string) *Service {
	if resultCache == nil {
		resultCache = cache.Noop{}
	}
	return &Service{
		engine:    eng,
		repo:      repo,
		cache:     resultCache,
		publisher: publisher,
		topic:     topic,
		logger:    log.New(log.Writer(), "[reasoning] ", log.LstdFlags),
	}
}

// EvaluateProfile runs the engine over the profile and persists the outcome.
// A prior record for the same (profile hash, rule version) is replayed instead
// of stored twice. Cache and event failures never fail the evaluation.
func (s *Service) EvaluateProfile(ctx context.Context, tenantID, userID string, profile engine.Profile) (*AssessmentRecord, bool, error) {
	norm, err := engine.Normalize(profile)
	if err != nil {
		return nil, false, err
	}
	profileHash := norm.Hash()
	ruleVersion := s.engine.RuleVersion()

	if existing, err := s.repo.FindByProfileHash(ctx, tenantID, userID, profileHash, ruleVersion); err == nil && existing != nil {
		return existing, true, nil
	}

	assessment := s.cachedOrEvaluate(ctx, norm, profileHash, ruleVersion)
	observability.RecordAssessment(assessment.RiskLevel)

	record := AssessmentRecord{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		UserID:      userID,
		ProfileHash: profileHash,
		RuleVersion: ruleVersion,
		RiskLevel:   assessment.RiskLevel,
		Output:      *assessment,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, false, err
	}

	s.announce(ctx, record)
	return &record, false, nil
}

// GetAssessment fetches by ID.
func (s *Service) GetAssessment(ctx context.Context, tenantID, assessmentID string) (*AssessmentRecord, error) {
	record, err := s.repo.Get(ctx, tenantID, assessmentID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrAssessmentNotFound
	}
	return record, nil
}

// ListAssessmentsByUser fetches assessments with cursor pagination.
func (s *Service) ListAssessmentsByUser(ctx context.Context, tenantID, userID string, cursor *Cursor, limit int) ([]AssessmentRecord, *Cursor, error) {
	return s.repo.ListByUser(ctx, tenantID, userID, cursor, limit)
}

// RuleVersion exposes the engine's loaded rule-table version.
func (s *Service) RuleVersion() string { return s.engine.RuleVersion() }

func (s *Service) cachedOrEvaluate(ctx context.Context, norm *engine.NormalizedProfile, profileHash, ruleVersion string) *engine.Assessment {
	cached, ok, err := s.cache.Get(ctx, profileHash, ruleVersion)
	switch {
	case err != nil:
		observability.RecordCacheLookup("error")
		s.logger.Printf("result cache lookup failed: %v", err)
	case ok:
		observability.RecordCacheLookup("hit")
		return cached
	default:
		observability.RecordCacheLookup("miss")
	}

	result := s.engine.EvaluateNormalized(norm)
	for _, warning := range result.Warnings {
		s.logger.Printf("rule-table conflict on %q: kept %s/%q, dropped %s/%q",
			warning.Target, warning.Kept.Table, warning.Kept.Text, warning.Dropped.Table, warning.Dropped.Text)
	}
	observability.RecordTierConflicts(len(result.Warnings))

	if err := s.cache.Set(ctx, profileHash, ruleVersion, result.Assessment); err != nil {
		s.logger.Printf("result cache store failed: %v", err)
	}
	return result.Assessment
}

func (s *Service) announce(ctx context.Context, record AssessmentRecord) {
	if s.publisher == nil {
		return
	}
	event := events.AssessmentCompleted{
		AssessmentID: record.ID,
		TenantID:     record.TenantID,
		UserID:       record.UserID,
		RiskLevel:    record.RiskLevel,
		RuleVersion:  record.RuleVersion,
		ProfileHash:  record.ProfileHash,
		OccurredAt:   record.CreatedAt,
	}
	if err := s.publisher.PublishAssessmentCompleted(ctx, s.topic, event); err != nil {
		s.logger.Printf("assessment.completed publish failed: %v", err)
	}
}
