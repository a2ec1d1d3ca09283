package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/ariefcatur/emall-pickup/internal/postgres"
)

type Repo struct{ DB postgres.DB }

// Insert stores n unread. A replayed notification id is ignored and
// reported as inserted=false.
func (r *Repo) Insert(ctx context.Context, n Notification, at time.Time) (bool, error) {
	var link, meta any
	if n.Link != "" {
		link = n.Link
	}
	if len(n.Metadata) > 0 {
		meta = n.Metadata
	}
	ct, err := r.DB.Exec(ctx, `
		INSERT INTO notifications(id, user_id, title, message, type, link, metadata, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false, $8)
		ON CONFLICT (id) DO NOTHING`,
		n.ID, n.UserID, n.Title, n.Message, string(n.Category), link, meta, at)
	if err != nil {
		return false, fmt.Errorf("insert notification: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}
