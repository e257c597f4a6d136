package store

import (
	"context"
	"time"

	"github.com/sitewise/chatrelay/internal/errs"
	"github.com/sitewise/chatrelay/internal/models"
)

// timeLayout is the text representation used for created_at columns. The
// fraction is fixed-width (RFC3339Nano trims trailing zeros) so the TEXT
// column sorts lexicographically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Append persists one message, assigning created_at at write time, and
// returns the stored record. Failures are wrapped in *errs.StoreError.
func (s *Store) Append(ctx context.Context, msg models.Message) (models.Message, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (msg_id, site_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		msg.MsgID, msg.SiteID, string(msg.Role), msg.Content, now.Format(timeLayout),
	)
	if err != nil {
		s.log.Error("message append failed", "msg_id", msg.MsgID, "site_id", msg.SiteID, "err", err)
		return models.Message{}, &errs.StoreError{Op: "append", EntityID: msg.MsgID, Err: err}
	}
	msg.CreatedAt = now
	return msg, nil
}

// ListBySite returns every message persisted for the site, newest first.
func (s *Store) ListBySite(ctx context.Context, siteID string) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT msg_id, site_id, role, content, created_at
		FROM messages
		WHERE site_id = ?
		ORDER BY created_at DESC`,
		siteID,
	)
	if err != nil {
		s.log.Error("message list failed", "site_id", siteID, "err", err)
		return nil, &errs.StoreError{Op: "listBySite", EntityID: siteID, Err: err}
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var (
			msg       models.Message
			role      string
			createdAt string
		)
		if err := rows.Scan(&msg.MsgID, &msg.SiteID, &role, &msg.Content, &createdAt); err != nil {
			return nil, &errs.StoreError{Op: "listBySite", EntityID: siteID, Err: err}
		}
		msg.Role = models.Role(role)
		if msg.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, &errs.StoreError{Op: "listBySite", EntityID: siteID, Err: err}
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, &errs.StoreError{Op: "listBySite", EntityID: siteID, Err: err}
	}
	return messages, nil
}
