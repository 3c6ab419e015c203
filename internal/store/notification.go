package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// notificationRepo implements NotificationRepo.
type notificationRepo struct {
	db *sql.DB
}

func (r *notificationRepo) Append(ctx context.Context, n Notification) (Notification, error) {
	if n.Type == "" {
		n.Type = NotifyInfo
	}
	n.CreatedAt = time.Now().UTC()
	n.Read = false

	ins := builder().Insert("notifications").
		Columns("user_id", "type", "message", "read", "created_at").
		Values(n.UserID, string(n.Type), n.Message, false, formatTime(n.CreatedAt))
	res, err := execQuery(ctx, r.db, ins)
	if err != nil {
		return Notification{}, fmt.Errorf("save notification: %w", err)
	}
	if n.ID, err = res.LastInsertId(); err != nil {
		return Notification{}, fmt.Errorf("notification id: %w", err)
	}
	return n, nil
}

func (r *notificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]Notification, error) {
	pred := entsql.EQ("user_id", userID)
	if unreadOnly {
		pred = entsql.And(pred, entsql.EQ("read", false))
	}
	sel := builder().Select("id", "user_id", "type", "message", "read", "created_at").
		From(entsql.Table("notifications")).
		Where(pred).
		OrderBy(entsql.Desc("id"))

	rows, err := queryRows(ctx, r.db, sel)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var (
			n       Notification
			typ, at string
		)
		if err := rows.Scan(&n.ID, &n.UserID, &typ, &n.Message, &n.Read, &at); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Type = NotificationType(typ)
		n.CreatedAt = parseTime(at)
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *notificationRepo) MarkRead(ctx context.Context, id int64) error {
	upd := builder().Update("notifications").Set("read", true).Where(entsql.EQ("id", id))
	res, err := execQuery(ctx, r.db, upd)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("notification %d: %w", id, ErrNotFound)
	}
	return nil
}
