package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/bug-tracker/internal/model"
)

var ErrEmailExists = errors.New("email already exists")

const userCols = "id,name,email,password_hash,verified,google_user,notifications,unread_notifications,created_at,updated_at"

// UserRepo encapsulates all queries against the `users` table,
// including the per-user notification mailbox stored as a JSON column.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var notifications []byte
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Verified, &u.GoogleUser,
		&notifications, &u.UnreadNotifications, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := scanDoc(notifications, &u.Notifications); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user.  The caller assigns the id and has
// already hashed the password.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Notifications == nil {
		u.Notifications = []model.Notification{}
	}
	notifications, err := jsonDoc(u.Notifications)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users (id,name,email,password_hash,verified,google_user,notifications,unread_notifications,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?,?,?)",
		u.ID, u.Name, u.Email, u.Password, u.Verified, u.GoogleUser,
		notifications, u.UnreadNotifications, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id))
}

// SetVerified marks the user's email address as confirmed.
func (r *UserRepo) SetVerified(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET verified=1, updated_at=? WHERE id=?", time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Row may exist with verified already set; distinguish via lookup.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Search returns verified (or google) users whose name or email
// matches the query, newest first, with the total match count for
// pagination.  Notification mailboxes are not loaded.
func (r *UserRepo) Search(ctx context.Context, query string, limit, offset int) ([]*model.User, int, error) {
	pattern := "%" + query + "%"
	var total int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users
		 WHERE (verified=1 OR google_user=1) AND (name LIKE ? OR email LIKE ?)`,
		pattern, pattern).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT id,name,email,verified,google_user,created_at,updated_at FROM users
		 WHERE (verified=1 OR google_user=1) AND (name LIKE ? OR email LIKE ?)
		 ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		pattern, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*model.User
	for rows.Next() {
		u := new(model.User)
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Verified, &u.GoogleUser, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

// Notifications returns the user's mailbox.
func (r *UserRepo) Notifications(ctx context.Context, userID string) ([]model.Notification, error) {
	var raw []byte
	err := r.DB.QueryRowContext(ctx,
		"SELECT notifications FROM users WHERE id=? LIMIT 1", userID).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var list []model.Notification
	if err := scanDoc(raw, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SaveNotifications rewrites the user's mailbox wholesale and recomputes
// the unread counter from the list, preserving the counter invariant.
func (r *UserRepo) SaveNotifications(ctx context.Context, userID string, list []model.Notification) error {
	if list == nil {
		list = []model.Notification{}
	}
	doc, err := jsonDoc(list)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET notifications=?, unread_notifications=?, updated_at=? WHERE id=?",
		doc, model.CountUnread(list), time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, userID); err != nil {
			return err
		}
	}
	return nil
}

// PushNotification appends one notification to the user's mailbox and
// bumps the unread counter.  Append and increment happen in a single
// statement so concurrent pushes cannot double count.
func (r *UserRepo) PushNotification(ctx context.Context, userID string, n model.Notification) error {
	doc, err := jsonDoc(n)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		`UPDATE users
		 SET notifications = JSON_ARRAY_APPEND(COALESCE(notifications, JSON_ARRAY()), '$', CAST(? AS JSON)),
			 unread_notifications = unread_notifications + 1,
			 updated_at = ?
		 WHERE id = ?`,
		doc, time.Now().UTC(), userID)
	return err
}

// UnreadCount returns the stored unread counter for the user.
func (r *UserRepo) UnreadCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT unread_notifications FROM users WHERE id=? LIMIT 1", userID).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return n, err
}
