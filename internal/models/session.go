package models

import "time"

// Session is a per-client anonymous identity. Only the icon (and a name
// derived from it) is ever shown to other participants.
type Session struct {
	ID        string    `json:"session_id"`
	Icon      string    `json:"icon"`
	CreatedAt time.Time `json:"created_at"`
}
