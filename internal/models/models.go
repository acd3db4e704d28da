package models

import "time"

// Message represents one member communication event as delivered by the
// upstream messages endpoint.
type Message struct {
	ID        string    `json:"id"`
	UserName  string    `json:"user_name"`
	Text      string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Stats describes the loaded corpus.
type Stats struct {
	MessageCount    int            `json:"message_count"`
	UserCount       int            `json:"user_count"`
	Users           []string       `json:"users"`
	MessagesPerUser map[string]int `json:"messages_per_user"`
}
