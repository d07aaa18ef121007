package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hrplus/talent-hub/internal/models"
)

// NotificationsRepository writes notification rows for HR surfaces to pick
// up. Write-only from this service's perspective.
type NotificationsRepository struct {
	db *pgxpool.Pool
}

// NewNotificationsRepository creates a new notifications repository.
func NewNotificationsRepository(db *pgxpool.Pool) *NotificationsRepository {
	return &NotificationsRepository{db: db}
}

// Insert writes one notifications row.
func (r *NotificationsRepository) Insert(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (id, company_id, recipient_id, type, title, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		uuid.Must(uuid.NewV7()), n.CompanyID, n.RecipientID, n.Type, n.Title, n.Body, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}

	return nil
}
