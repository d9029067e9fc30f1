package websocket

import (
	"context"
	"log/slog"
	"time"

	"realtime-chat/internal/models"
)

// Broadcaster reaches every live connection, authenticated or not
type Broadcaster interface {
	BroadcastAll(evt *OutboundEvent) int
}

// Presence persists online/offline transitions and announces them to
// everyone. Persistence is best-effort: a failed write is logged and the
// broadcast still goes out.
type Presence struct {
	store       PresenceStore
	cache       PresenceCache
	broadcaster Broadcaster
	log         *slog.Logger
	now         func() time.Time
}

func NewPresence(store PresenceStore, broadcaster Broadcaster, log *slog.Logger) *Presence {
	return &Presence{
		store:       store,
		broadcaster: broadcaster,
		log:         log,
		now:         time.Now,
	}
}

func (p *Presence) MarkOnline(ctx context.Context, userID uint) {
	p.transition(ctx, userID, models.StatusOnline)
}

func (p *Presence) MarkOffline(ctx context.Context, userID uint) {
	p.transition(ctx, userID, models.StatusOffline)
}

func (p *Presence) transition(ctx context.Context, userID uint, status string) {
	if err := p.store.UpdateUserStatus(ctx, userID, status, p.now()); err != nil {
		p.log.Error("Failed to persist user status", "userID", userID, "status", status, "error", err)
	}

	if p.cache != nil {
		var err error
		if status == models.StatusOnline {
			err = p.cache.SetUserOnline(ctx, userID)
		} else {
			err = p.cache.SetUserOffline(ctx, userID)
		}
		if err != nil {
			p.log.Warn("Failed to mirror user status", "userID", userID, "status", status, "error", err)
		}
	}

	n := p.broadcaster.BroadcastAll(NewEvent(EventUserStatusChange, StatusPayload{UserID: userID, Status: status}))
	p.log.Debug("User status broadcast", "userID", userID, "status", status, "recipients", n)
}
