package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/community-eats/apiserver/internal/mq"
	"github.com/community-eats/apiserver/internal/storage"
	"github.com/community-eats/apiserver/types"
)

// SupplyEventsChannel is the MQ channel supply change events are published to.
const SupplyEventsChannel = "supply-events"

// ErrMissingFields is returned when a supply is created without all five
// required fields.
var ErrMissingFields = errors.New("missing required fields")

// SupplyRepository defines persistence operations for supplies.
type SupplyRepository interface {
	List(ctx context.Context) ([]types.Supply, error)
	Get(ctx context.Context, id int) (types.Supply, error)
	Create(ctx context.Context, supply types.Supply) (types.Supply, error)
	Update(ctx context.Context, supply types.Supply) (types.Supply, error)
	Delete(ctx context.Context, id int) error
}

// SupplyEvent is published after every successful supply mutation.
type SupplyEvent struct {
	Action string       `json:"action"`
	Supply types.Supply `json:"supply"`
}

// SupplyService encapsulates supply use-cases. Both storage and broker are
// optional; a nil broker skips event publishing and a nil storage disables
// image uploads.
type SupplyService struct {
	repo    SupplyRepository
	storage *storage.Storage
	broker  *mq.MQ
}

func NewSupplyService(repo SupplyRepository, store *storage.Storage, broker *mq.MQ) *SupplyService {
	return &SupplyService{
		repo:    repo,
		storage: store,
		broker:  broker,
	}
}

func (s *SupplyService) List(ctx context.Context) ([]types.Supply, error) {
	return s.repo.List(ctx)
}

func (s *SupplyService) Get(ctx context.Context, id int) (types.Supply, error) {
	return s.repo.Get(ctx, id)
}

func (s *SupplyService) Create(ctx context.Context, supply types.Supply) (types.Supply, error) {
	if hasMissingFields(supply) {
		return types.Supply{}, ErrMissingFields
	}

	created, err := s.repo.Create(ctx, supply)
	if err != nil {
		return types.Supply{}, err
	}

	s.publish(ctx, "created", created)
	return created, nil
}

// Update replaces all five supply fields unconditionally; omitted fields in
// the request become empty in the stored record.
func (s *SupplyService) Update(ctx context.Context, supply types.Supply) (types.Supply, error) {
	updated, err := s.repo.Update(ctx, supply)
	if err != nil {
		return types.Supply{}, err
	}

	s.publish(ctx, "updated", updated)
	return updated, nil
}

func (s *SupplyService) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, "deleted", types.Supply{ID: id})
	return nil
}

// publish emits a supply change event. Failures are logged, never surfaced:
// the mutation already committed and the API response must not depend on
// broker health.
func (s *SupplyService) publish(ctx context.Context, action string, supply types.Supply) {
	if s.broker == nil {
		return
	}

	data, err := json.Marshal(SupplyEvent{Action: action, Supply: supply})
	if err != nil {
		slog.Warn("failed to encode supply event", "action", action, "error", err)
		return
	}

	if _, err := s.broker.Publish(ctx, SupplyEventsChannel, data, map[string]string{"action": action}); err != nil {
		slog.Warn("failed to publish supply event", "action", action, "error", err)
	}
}

func hasMissingFields(supply types.Supply) bool {
	return strings.TrimSpace(supply.ImageLink) == "" ||
		strings.TrimSpace(supply.Title) == "" ||
		strings.TrimSpace(supply.Category) == "" ||
		strings.TrimSpace(string(supply.Quantity)) == "" ||
		strings.TrimSpace(supply.Description) == ""
}
