package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/videohub/internal/logging"
	"github.com/Skotchmaster/videohub/internal/metrics"
	"github.com/Skotchmaster/videohub/internal/models"
	"github.com/Skotchmaster/videohub/internal/mykafka"
	"github.com/Skotchmaster/videohub/internal/repo"
)

type State string

const (
	StateOn  State = "on"
	StateOff State = "off"
)

type RelationStore interface {
	FindRelation(ctx context.Context, actorID, targetID uuid.UUID, kind models.Kind) (*models.Relation, error)
	InsertRelation(ctx context.Context, rel *models.Relation) error
	DeleteRelation(ctx context.Context, actorID, targetID uuid.UUID, kind models.Kind) (bool, error)
	CountRelations(ctx context.Context, targetID uuid.UUID, kind models.Kind) (int64, error)
	AccountExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// ToggleResult carries the new state. Counted is false when the flip was
// saved but the count could not be read.
type ToggleResult struct {
	State   State
	Count   int64
	Counted bool
}

type ToggleService struct {
	Relations RelationStore
	Events    mykafka.Publisher
	Metrics   *metrics.Metrics
}

func NewToggleService(relations RelationStore, events mykafka.Publisher, m *metrics.Metrics) *ToggleService {
	if events == nil {
		events = mykafka.Nop{}
	}
	return &ToggleService{Relations: relations, Events: events, Metrics: m}
}

// Toggle flips the existence of the (actor, target, kind) relation.
//
// Concurrent callers may both miss on the lookup and race to insert; the
// store's unique key rejects the loser, which is reported as on. Two racing
// deletes leave nothing to remove for the second, which is reported as off.
func (s *ToggleService) Toggle(ctx context.Context, actorID, targetID uuid.UUID, kind models.Kind) (*ToggleResult, error) {
	l := logging.FromContext(ctx).With("svc", "toggle", "kind", string(kind))

	if !kind.Valid() {
		l.Warn("toggle_failed", "status", 400, "reason", "unknown relation kind")
		return nil, validation("unknown relation kind")
	}
	if actorID == uuid.Nil || targetID == uuid.Nil {
		l.Warn("toggle_failed", "status", 400, "reason", "missing actor or target")
		return nil, validation("actor and target are required")
	}

	if kind == models.KindSubscription {
		ok, err := s.Relations.AccountExists(ctx, targetID)
		if err != nil {
			l.Error("toggle_failed", "status", 500, "error", err)
			return nil, internal(err)
		}
		if !ok {
			l.Warn("toggle_failed", "status", 404, "reason", "channel not found")
			return nil, fmt.Errorf("%w: channel not found", ErrNotFound)
		}
	}

	state, err := s.flip(ctx, actorID, targetID, kind)
	if err != nil {
		l.Error("toggle_failed", "status", 500, "error", err)
		return nil, internal(err)
	}
	s.Metrics.ToggleOperation(string(kind), string(state))

	res := &ToggleResult{State: state}
	// the flip is already persisted; failing here would invite a retry that undoes it
	if count, err := s.Relations.CountRelations(ctx, targetID, kind); err != nil {
		l.Warn("toggle_count_failed", "reason", "cannot count relations", "error", err)
	} else {
		res.Count, res.Counted = count, true
	}

	s.publish(ctx, actorID, targetID, kind, state)
	l.Info("toggle_successful", "state", string(state), "target_id", targetID)
	return res, nil
}

func (s *ToggleService) flip(ctx context.Context, actorID, targetID uuid.UUID, kind models.Kind) (State, error) {
	_, err := s.Relations.FindRelation(ctx, actorID, targetID, kind)
	switch {
	case err == nil:
		if _, err := s.Relations.DeleteRelation(ctx, actorID, targetID, kind); err != nil {
			return "", err
		}
		return StateOff, nil
	case errors.Is(err, repo.ErrNotFound):
		rel := &models.Relation{ActorID: actorID, TargetID: targetID, Kind: kind}
		if err := s.Relations.InsertRelation(ctx, rel); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				s.Metrics.ToggleConflictAbsorbed(string(kind))
				return StateOn, nil
			}
			return "", err
		}
		return StateOn, nil
	default:
		return "", err
	}
}

func topicFor(kind models.Kind) string {
	if kind == models.KindSubscription {
		return mykafka.TopicSubscriptionEvents
	}
	return mykafka.TopicLikeEvents
}

func (s *ToggleService) publish(ctx context.Context, actorID, targetID uuid.UUID, kind models.Kind, state State) {
	if s.Events == nil {
		return
	}
	ev := mykafka.Event{
		Type:       "relation_toggled",
		AccountID:  actorID.String(),
		TargetID:   targetID.String(),
		Kind:       string(kind),
		State:      string(state),
		OccurredAt: time.Now().UTC(),
	}
	if err := s.Events.PublishEvent(ctx, topicFor(kind), targetID.String(), ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "event", ev.Type, "error", err)
	}
}
