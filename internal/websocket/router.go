package websocket

import (
	"context"
	"fmt"
	"log/slog"
)

// ChannelRouter decides which live connections belong to a channel's
// broadcast group, checking membership rows before anyone joins.
type ChannelRouter struct {
	store  MembershipStore
	groups GroupManager
	log    *slog.Logger
}

func NewChannelRouter(store MembershipStore, groups GroupManager, log *slog.Logger) *ChannelRouter {
	return &ChannelRouter{store: store, groups: groups, log: log}
}

// SubscribeUserToTheirChannels joins conn to the group of every channel
// userID is a member of.
func (r *ChannelRouter) SubscribeUserToTheirChannels(ctx context.Context, userID uint, conn Conn) ([]uint, error) {
	channelIDs, err := r.store.ListChannelIDsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list channels of user %d: %v", ErrPersistence, userID, err)
	}
	for _, channelID := range channelIDs {
		r.groups.Join(channelID, conn)
	}
	r.log.Debug("Subscribed to channels", "userID", userID, "clientID", conn.ID(), "channels", len(channelIDs))
	return channelIDs, nil
}

// SubscribeToChannel joins conn to one channel group. It fails with
// ErrNotAMember when userID has no membership row for the channel.
func (r *ChannelRouter) SubscribeToChannel(ctx context.Context, userID, channelID uint, conn Conn) error {
	if err := r.RequireMember(ctx, userID, channelID); err != nil {
		return err
	}
	r.groups.Join(channelID, conn)
	return nil
}

// RequireMember returns ErrNotAMember or ErrPersistence when userID may not
// act in channelID.
func (r *ChannelRouter) RequireMember(ctx context.Context, userID, channelID uint) error {
	ok, err := r.store.IsChannelMember(ctx, channelID, userID)
	if err != nil {
		return fmt.Errorf("%w: check membership of user %d in channel %d: %v", ErrPersistence, userID, channelID, err)
	}
	if !ok {
		return ErrNotAMember
	}
	return nil
}

// Unsubscribe leaves the group unconditionally
func (r *ChannelRouter) Unsubscribe(channelID uint, conn Conn) {
	r.groups.Leave(channelID, conn)
}

func (r *ChannelRouter) UnsubscribeAll(conn Conn) {
	r.groups.LeaveAll(conn)
}

// Broadcast delivers evt to every connection in the channel group except
// exclude, which may be nil. It returns the number of successful sends.
func (r *ChannelRouter) Broadcast(channelID uint, evt *OutboundEvent, exclude Conn) int {
	delivered := 0
	for _, member := range r.groups.Members(channelID) {
		if exclude != nil && member.ID() == exclude.ID() {
			continue
		}
		if err := member.Send(evt); err != nil {
			r.log.Debug("Channel delivery failed", "channelID", channelID, "clientID", member.ID(), "error", err)
			continue
		}
		delivered++
	}
	return delivered
}
