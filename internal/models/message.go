package models

import "time"

// Role identifies the author side of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one persisted chat message. Messages are append-only: once
// written they are never mutated or deleted. CreatedAt is assigned by the
// store layer at write time, not by the caller.
type Message struct {
	MsgID     string    `json:"msg_id"`
	SiteID    string    `json:"site_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
