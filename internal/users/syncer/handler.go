// Package syncer keeps user projections in step with identity events from
// the auth service.
package syncer

import (
	"context"
	"fmt"
	"strings"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/users/domain"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/users/store"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/eventbus"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/rbac"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/slogx"
)

// DefaultQueue is the durable queue the user service consumes.
const DefaultQueue = "user_service_queue"

// RoutingKeys are the identity events the projection listens to.
var RoutingKeys = []string{
	eventbus.UserRegistered,
	eventbus.UserUpdated,
	eventbus.UserDeleted,
}

// Subscription binds queue (DefaultQueue when empty) to RoutingKeys.
func Subscription(queue string) eventbus.Subscription {
	if queue == "" {
		queue = DefaultQueue
	}
	return eventbus.Subscription{Queue: queue, RoutingKeys: RoutingKeys}
}

// Handler applies identity events to the projection store. Every write is
// an idempotent conditional upsert, so redelivered and concurrently
// delivered events converge on the newest identity state.
type Handler struct {
	Projections store.Projections
}

func NewHandler(p store.Projections) *Handler {
	return &Handler{Projections: p}
}

// Handle is an eventbus.Handler. Storage errors are returned so the
// message is redelivered; payloads that cannot be applied are dropped.
func (h *Handler) Handle(ctx context.Context, e eventbus.Event) error {
	log := slogx.FromContext(ctx)

	switch e.Type {
	case eventbus.UserRegistered, eventbus.UserUpdated:
		return h.upsert(ctx, e)

	case eventbus.UserDeleted:
		var p eventbus.UserDeletedPayload
		if err := e.Bind(&p); err != nil {
			return err
		}
		log.Info("user deleted upstream, projection left in place", "user_id", p.UserID)
		return nil

	default:
		log.Warn("ignoring unknown event type", "event_type", e.Type)
		return nil
	}
}

func (h *Handler) upsert(ctx context.Context, e eventbus.Event) error {
	var p eventbus.UserPayload
	if err := e.Bind(&p); err != nil {
		return err
	}
	if strings.TrimSpace(p.UserID) == "" {
		return fmt.Errorf("%w: missing user_id", eventbus.ErrMalformedEvent)
	}

	proj := ProjectionOf(p, e)
	wrote, err := h.Projections.UpsertFromSync(ctx, proj)
	if err != nil {
		return fmt.Errorf("upsert projection %s: %w", p.UserID, err)
	}

	log := slogx.FromContext(ctx).With("user_id", p.UserID)
	if wrote {
		log.Info("projection synced", "updated_at", proj.UpdatedAt)
	} else {
		log.Debug("projection already current, nothing written", "updated_at", proj.UpdatedAt)
	}
	return nil
}

// ProjectionOf builds the projection carried by an identity event. Missing
// timestamps fall back to the next best one so ordering stays defined;
// synced_at is the event time so a replay yields the same row.
func ProjectionOf(p eventbus.UserPayload, e eventbus.Event) domain.UserProjection {
	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = p.CreatedAt
	}
	if updatedAt.IsZero() {
		updatedAt = e.Timestamp
	}
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = updatedAt
	}
	syncedAt := e.Timestamp
	if syncedAt.IsZero() {
		syncedAt = updatedAt
	}

	role := p.Role
	if role == "" {
		role = rbac.DefaultRole.String()
	}

	return domain.NewProjection(p.UserID, p.Username, p.Email, role, createdAt, updatedAt, syncedAt)
}
