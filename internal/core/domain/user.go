package domain

import "strings"

// User is the authenticated principal as reported by the identity service.
// Timestamps are kept exactly as the upstream formats them.
type User struct {
	ID            uint64 `json:"id"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	RegDate       string `json:"reg_date"`
	LastOnline    string `json:"last_online"`
	LastIP        string `json:"last_ip"`
	LastUserAgent string `json:"last_user_agent"`
	IsAdmin       bool   `json:"admin"`
}

// MatchesUsername reports whether name refers to this user. Usernames are
// compared case-insensitively, the way the identity service treats them.
func (u *User) MatchesUsername(name string) bool {
	return u != nil && strings.EqualFold(u.Username, strings.TrimSpace(name))
}
