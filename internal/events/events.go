// Package events defines cross-service event payloads and the Kafka producer
// used to emit them.
package events

import (
	"time"

	"example.com/planreasoning/internal/engine"
)

// Event type header values.
const (
	TypeAssessmentCompleted = "assessment.completed"
	TypeProfileUpdated      = "profile.updated"
)

// AssessmentCompleted is emitted after an assessment is persisted so the plan
// generators can pick it up.
type AssessmentCompleted struct {
	AssessmentID string    `json:"assessment_id"`
	TenantID     string    `json:"tenant_id"`
	UserID       string    `json:"user_id"`
	RiskLevel    string    `json:"risk_level"`
	RuleVersion  string    `json:"rule_version"`
	ProfileHash  string    `json:"profile_hash"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// ProfileUpdated is published by the profile service whenever a user profile
// changes; the consumer re-runs the assessment pipeline on it.
type ProfileUpdated struct {
	TenantID   string         `json:"tenant_id"`
	UserID     string         `json:"user_id"`
	Profile    engine.Profile `json:"profile"`
	OccurredAt time.Time      `json:"occurred_at"`
}
