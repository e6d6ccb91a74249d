package domain

// RoomID names a collaboration session. It is supplied by the client and acts
// as a capability token: anyone who knows it can join. Rooms come into being
// on first join and disappear when the last member leaves.
type RoomID string

// RoomInfo is the observability view of an active room.
type RoomInfo struct {
	ID      RoomID `json:"room"`
	Members int    `json:"members"`
}
