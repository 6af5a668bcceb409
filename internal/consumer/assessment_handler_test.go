package consumer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/planreasoning/internal/catalog"
	"example.com/planreasoning/internal/domain"
	"example.com/planreasoning/internal/engine"
	"example.com/planreasoning/internal/events"
)

type recordingRepo struct {
	created []domain.AssessmentRecord
}

func (r *recordingRepo) FindByProfileHash(ctx context.Context, tenantID, userID, profileHash, ruleVersion string) (*domain.AssessmentRecord, error) {
	return nil, nil
}

func (r *recordingRepo) Create(ctx context.Context, record domain.AssessmentRecord) error {
	r.created = append(r.created, record)
	return nil
}

func (r *recordingRepo) Get(ctx context.Context, tenantID, assessmentID string) (*domain.AssessmentRecord, error) {
	return nil, nil
}

func (r *recordingRepo) ListByUser(ctx context.Context, tenantID, userID string, cursor *domain.Cursor, limit int) ([]domain.AssessmentRecord, *domain.Cursor, error) {
	return nil, nil, nil
}

func newHandlerWithRepo(t *testing.T, repo *recordingRepo) *AssessmentHandler {
	t.Helper()
	rules, err := engine.DefaultRules()
	require.NoError(t, err)
	eng := engine.New(rules, catalog.NewInMemory())
	return NewAssessmentHandler(domain.NewService(eng, repo, nil, nil, "assessment_events"))
}

func profileUpdatedMessage(t *testing.T, event events.ProfileUpdated) Message {
	t.Helper()
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	return Message{
		Topic:     "profile_events",
		Timestamp: time.Now().UTC(),
		EventType: events.TypeProfileUpdated,
		TenantID:  event.TenantID,
		Payload:   payload,
	}
}

func TestAssessmentHandlerEvaluatesProfileUpdate(t *testing.T) {
	repo := &recordingRepo{}
	handler := newHandlerWithRepo(t, repo)

	msg := profileUpdatedMessage(t, events.ProfileUpdated{
		TenantID: "tenant-1",
		UserID:   "user-1",
		Profile: engine.Profile{
			Age: 35, Goal: engine.GoalWeightLoss, AvailableDaysPerWeek: 3,
		},
		OccurredAt: time.Now().UTC(),
	})

	require.NoError(t, handler.Handle(context.Background(), msg))
	require.Len(t, repo.created, 1)
	require.Equal(t, "tenant-1", repo.created[0].TenantID)
	require.Equal(t, "user-1", repo.created[0].UserID)
}

func TestAssessmentHandlerDropsInvalidProfiles(t *testing.T) {
	repo := &recordingRepo{}
	handler := newHandlerWithRepo(t, repo)

	msg := profileUpdatedMessage(t, events.ProfileUpdated{
		TenantID: "tenant-1",
		UserID:   "user-1",
		Profile:  engine.Profile{Age: 9, Goal: engine.GoalMaintenance},
	})

	// Invalid profiles are dropped rather than retried.
	require.NoError(t, handler.Handle(context.Background(), msg))
	require.Empty(t, repo.created)
}

func TestAssessmentHandlerSkipsUnknownEventTypes(t *testing.T) {
	repo := &recordingRepo{}
	handler := newHandlerWithRepo(t, repo)

	msg := Message{
		Topic:     "profile_events",
		EventType: "profile.deleted",
		TenantID:  "tenant-1",
		Payload:   json.RawMessage(`{}`),
	}

	require.NoError(t, handler.Handle(context.Background(), msg))
	require.Empty(t, repo.created)
}
