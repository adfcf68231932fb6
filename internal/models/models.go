package models

import "time"

type User struct {
	ID       int64
	Email    string
	Username string
	PassHash []byte
}

// RegistrationChallenge is a pending registration waiting for its one-time
// code. There is at most one per email: a new request overwrites the old row.
type RegistrationChallenge struct {
	Email     string
	Username  string
	PassHash  []byte
	Code      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (c *RegistrationChallenge) IsExpired(now time.Time) bool {
	return c.ExpiresAt.Before(now)
}

type Message struct {
	Email   string `json:"to"`
	Code    string `json:"code"`
	TTL     string `json:"ttl"`
	Purpose string `json:"purpose"`
}
