// Package roster persists the notification recipient list.
package roster

import (
	"context"
	"errors"

	"github.com/hyperwatch/threat-monitor/internal/models"
)

// ErrNotFound is returned for operations on a recipient id that does not
// exist.
var ErrNotFound = errors.New("recipient not found")

// Update carries a partial recipient update; nil fields are left unchanged.
type Update struct {
	FullName *string
	Email    *string
	Phone    *string
	Role     *string
	Category *string
	IsActive *bool
}

type Store interface {
	List(ctx context.Context) ([]models.Recipient, error)
	Get(ctx context.Context, id string) (models.Recipient, error)
	Create(ctx context.Context, r models.Recipient) (models.Recipient, error)
	Update(ctx context.Context, id string, u Update) (models.Recipient, error)
	Delete(ctx context.Context, id string) error
	Close() error
}
