package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"example.com/planreasoning/internal/domain"
	"example.com/planreasoning/internal/engine"
	"example.com/planreasoning/internal/events"
)

// AssessmentHandler re-runs the reasoning pipeline whenever an upstream
// profile change is announced, keeping stored assessments current without
// waiting for the next API call.
type AssessmentHandler struct {
	service *domain.Service
	logger  *log.Logger
}

// NewAssessmentHandler builds an AssessmentHandler.
func NewAssessmentHandler(service *domain.Service) *AssessmentHandler {
	return &AssessmentHandler{
		service: service,
		logger:  log.New(log.Writer(), "[assessment-handler] ", log.LstdFlags),
	}
}

// Handle dispatches on event type. Unknown event types are skipped so the
// topic can carry future event kinds without breaking this consumer.
func (h *AssessmentHandler) Handle(ctx context.Context, msg Message) error {
	switch msg.EventType {
	case events.TypeProfileUpdated:
		return h.handleProfileUpdated(ctx, msg)
	default:
		h.logger.Printf("skipping unhandled event type %q (topic=%s)", msg.EventType, msg.Topic)
		return nil
	}
}

func (h *AssessmentHandler) handleProfileUpdated(ctx context.Context, msg Message) error {
	var event events.ProfileUpdated
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		// Malformed payloads will never succeed on retry.
		h.logger.Printf("dropping malformed profile.updated payload: %v", err)
		return nil
	}

	tenantID := event.TenantID
	if tenantID == "" {
		tenantID = msg.TenantID
	}
	if strings.TrimSpace(tenantID) == "" || strings.TrimSpace(event.UserID) == "" {
		h.logger.Printf("dropping profile.updated without tenant or user identity")
		return nil
	}

	record, replay, err := h.service.EvaluateProfile(ctx, tenantID, event.UserID, event.Profile)
	if err != nil {
		var verr *engine.ValidationError
		if errors.As(err, &verr) {
			// Invalid profiles are a producer bug, not a transient failure.
			h.logger.Printf("dropping invalid profile for user %s: %v", event.UserID, err)
			return nil
		}
		return fmt.Errorf("evaluate profile for user %s: %w", event.UserID, err)
	}

	if replay {
		h.logger.Printf("profile unchanged for user %s, replayed assessment %s", event.UserID, record.ID)
	} else {
		h.logger.Printf("assessed user %s: risk=%s assessment=%s", event.UserID, record.RiskLevel, record.ID)
	}
	return nil
}
