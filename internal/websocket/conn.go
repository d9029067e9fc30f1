package websocket

// Conn is a live delivery target. The transport owns it; the registry and
// channel groups only hold references keyed by ID.
type Conn interface {
	ID() string
	Send(evt *OutboundEvent) error
}
