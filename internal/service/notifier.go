package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/bug-tracker/internal/model"
)

// unreadCacheTTL bounds how stale the cached unread counter may get
// when an invalidation is missed.
const unreadCacheTTL = 30 * time.Second

// Notifier is the notification dispatcher.  It owns the invariant that
// a user's unread counter always equals the number of unread entries
// in their mailbox: every mutation either goes through a single
// atomic append-and-increment statement or rewrites the list together
// with a recomputed counter.  The optional Redis client caches the
// unread counter for the polling endpoint and is invalidated on every
// mutation; a nil client disables caching.
type Notifier struct {
	Users UserStore
	Cache *redis.Client
	Log	  *slog.Logger
}

func NewNotifier(users UserStore, cache *redis.Client, log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{Users: users, Cache: cache, Log: log}
}

// Push appends base to each target's mailbox.  Every appended
// notification gets its own UUID and a server-assigned creation time;
// IsRead always starts false.
func (n *Notifier) Push(ctx context.Context, targets []string, base model.Notification) error {
	now := time.Now().UTC()
	for _, target := range targets {
		entry := base
		entry.ID = uuid.NewString()
		entry.CreatedAt = now
		entry.IsRead = false
		if err := n.Users.PushNotification(ctx, target, entry); err != nil {
			return err
		}
		n.invalidate(ctx, target)
		n.Log.Debug("notification pushed", "user", target, "title", entry.Title)
	}
	return nil
}

// MarkRead flips a single notification to read and decrements the
// unread counter.  Marking an already-read notification is a no-op.
func (n *Notifier) MarkRead(ctx context.Context, userID, notificationID string) error {
	list, err := n.Users.Notifications(ctx, userID)
	if err != nil {
		return err
	}
	changed := false
	for i := range list {
		if list[i].ID == notificationID && !list[i].IsRead {
			list[i].IsRead = true
			changed = true
			break
		}
	}
	if !changed {
		return nil
	}
	if err := n.Users.SaveNotifications(ctx, userID, list); err != nil {
		return err
	}
	n.invalidate(ctx, userID)
	return nil
}

// MarkAllRead flips every notification to read and zeroes the counter.
func (n *Notifier) MarkAllRead(ctx context.Context, userID string) error {
	list, err := n.Users.Notifications(ctx, userID)
	if err != nil {
		return err
	}
	for i := range list {
		list[i].IsRead = true
	}
	if err := n.Users.SaveNotifications(ctx, userID, list); err != nil {
		return err
	}
	n.invalidate(ctx, userID)
	return nil
}

// Delete removes a notification from the mailbox.  The counter only
// moves when the removed entry was unread, which SaveNotifications
// guarantees by recomputing the counter from the remaining list.
func (n *Notifier) Delete(ctx context.Context, userID, notificationID string) error {
	list, err := n.Users.Notifications(ctx, userID)
	if err != nil {
		return err
	}
	kept := list[:0]
	for _, entry := range list {
		if entry.ID != notificationID {
			kept = append(kept, entry)
		}
	}
	if len(kept) == len(list) {
		return nil
	}
	if err := n.Users.SaveNotifications(ctx, userID, kept); err != nil {
		return err
	}
	n.invalidate(ctx, userID)
	return nil
}

// Unread returns the user's unread counter, serving from Redis when a
// fresh cached value exists.
func (n *Notifier) Unread(ctx context.Context, userID string) (int, error) {
	if n.Cache != nil {
		if cached, err := n.Cache.Get(ctx, unreadKey(userID)).Int(); err == nil {
			return cached, nil
		}
	}
	count, err := n.Users.UnreadCount(ctx, userID)
	if err != nil {
		return 0, err
	}
	if n.Cache != nil {
		if err := n.Cache.Set(ctx, unreadKey(userID), count, unreadCacheTTL).Err(); err != nil {
			n.Log.Warn("unread cache set failed", "user", userID, "err", err)
		}
	}
	return count, nil
}

func (n *Notifier) invalidate(ctx context.Context, userID string) {
	if n.Cache == nil {
		return
	}
	if err := n.Cache.Del(ctx, unreadKey(userID)).Err(); err != nil {
		n.Log.Warn("unread cache invalidation failed", "user", userID, "err", err)
	}
}

func unreadKey(userID string) string { return "unread:" + userID }
