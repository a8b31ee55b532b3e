package service

import (
	"context"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/auth/domain"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/eventbus"
)

// Notifier sends best-effort identity events. *eventbus.Notifier implements
// it.
type Notifier interface {
	Notify(ctx context.Context, eventType string, data any)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string, any) {}

func userPayload(u domain.User) eventbus.UserPayload {
	return eventbus.UserPayload{
		UserID:    u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
