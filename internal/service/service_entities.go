package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MKhiriev/go-workout-sync/internal/logger"
	"github.com/MKhiriev/go-workout-sync/internal/store"
	"github.com/MKhiriev/go-workout-sync/models"
)

// entityService implements [EntityService] on top of the entity repository.
// It owns the enqueue-with-mutation contract: every save or delete produces
// exactly one outbox item inside the mutation's transaction. Redundant queued
// mutations for the same entity are not coalesced; the remote store's upsert
// semantics make the extra pushes harmless and FIFO order preserves intent.
type entityService struct {
	entities store.EntityRepository
	outbox   store.OutboxRepository
	now      func() time.Time
	logger   *logger.Logger
}

func NewEntityService(entities store.EntityRepository, outbox store.OutboxRepository, log *logger.Logger) EntityService {
	return &entityService{
		entities: entities,
		outbox:   outbox,
		now:      time.Now,
		logger:   log,
	}
}

func (s *entityService) SaveTemplate(ctx context.Context, template models.Template) error {
	if template.ID == "" {
		template.ID = uuid.NewString()
	}

	payload, err := json.Marshal(template)
	if err != nil {
		return fmt.Errorf("marshal template: %w", err)
	}

	return s.save(ctx, models.EntityTypeTemplate, template.ID, payload)
}

func (s *entityService) SaveSession(ctx context.Context, session models.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return s.save(ctx, models.EntityTypeSession, session.ID, payload)
}

// save upserts the entity row and enqueues a Create or Update item in one
// transaction. The operation kind follows from whether the row already exists.
func (s *entityService) save(ctx context.Context, entityType models.EntityType, entityID string, payload []byte) error {
	log := logger.FromContext(ctx)

	now := s.now()
	entity := models.Entity{
		EntityType: entityType,
		EntityID:   entityID,
		Payload:    payload,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	operation := models.OperationCreate
	existing, err := s.entities.Get(ctx, entityType, entityID)
	switch {
	case err == nil:
		operation = models.OperationUpdate
		entity.CreatedAt = existing.CreatedAt
		entity.RemoteModifiedAt = existing.RemoteModifiedAt
	case errors.Is(err, store.ErrEntityNotFound):
		// first write for this id
	default:
		return err
	}

	item := models.OutboxItem{
		ID:         uuid.NewString(),
		EntityType: entityType,
		EntityID:   entityID,
		Operation:  operation,
		Payload:    payload,
		CreatedAt:  now,
	}

	if err = s.entities.SaveWithOutbox(ctx, entity, item); err != nil {
		return err
	}

	log.Debug().
		Str("func", "entityService.save").
		Str("entity_type", string(entityType)).
		Str("entity_id", entityID).
		Str("operation", string(operation)).
		Msg("entity saved and queued")

	return nil
}

// DeleteEntity tombstones the entity and enqueues the delete in one
// transaction. Earlier queued creates/updates for the same entity are left in
// place: the remote delete is terminal and idempotent, so pushing them first
// costs a few wasted calls but never wrong state.
func (s *entityService) DeleteEntity(ctx context.Context, entityType models.EntityType, entityID string) error {
	if !entityType.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownEntity, entityType)
	}

	now := s.now()
	item := models.OutboxItem{
		ID:         uuid.NewString(),
		EntityType: entityType,
		EntityID:   entityID,
		Operation:  models.OperationDelete,
		CreatedAt:  now,
	}

	return s.entities.DeleteWithOutbox(ctx, entityType, entityID, item)
}

func (s *entityService) GetTemplate(ctx context.Context, id string) (models.Template, error) {
	entity, err := s.entities.Get(ctx, models.EntityTypeTemplate, id)
	if err != nil {
		return models.Template{}, err
	}

	var template models.Template
	if err = json.Unmarshal(entity.Payload, &template); err != nil {
		return models.Template{}, fmt.Errorf("unmarshal template %s: %w", id, err)
	}
	return template, nil
}

func (s *entityService) GetSession(ctx context.Context, id string) (models.Session, error) {
	entity, err := s.entities.Get(ctx, models.EntityTypeSession, id)
	if err != nil {
		return models.Session{}, err
	}

	var session models.Session
	if err = json.Unmarshal(entity.Payload, &session); err != nil {
		return models.Session{}, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	return session, nil
}

func (s *entityService) ListTemplates(ctx context.Context) ([]models.Template, error) {
	entities, err := s.entities.GetAll(ctx, models.EntityTypeTemplate)
	if err != nil {
		return nil, err
	}

	templates := make([]models.Template, 0, len(entities))
	for _, entity := range entities {
		var template models.Template
		if err = json.Unmarshal(entity.Payload, &template); err != nil {
			return nil, fmt.Errorf("unmarshal template %s: %w", entity.EntityID, err)
		}
		templates = append(templates, template)
	}
	return templates, nil
}

func (s *entityService) ListSessions(ctx context.Context) ([]models.Session, error) {
	entities, err := s.entities.GetAll(ctx, models.EntityTypeSession)
	if err != nil {
		return nil, err
	}

	sessions := make([]models.Session, 0, len(entities))
	for _, entity := range entities {
		var session models.Session
		if err = json.Unmarshal(entity.Payload, &session); err != nil {
			return nil, fmt.Errorf("unmarshal session %s: %w", entity.EntityID, err)
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}
