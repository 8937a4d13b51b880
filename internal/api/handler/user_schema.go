package handler

import (
	"time"

	"github.com/mardens/authgate/internal/core/domain"
)

// userResponse is the public view of a user. The password hash reported by
// the identity service is never rendered.
type userResponse struct {
	ID            uint64 `json:"id"`
	Username      string `json:"username"`
	RegDate       string `json:"reg_date,omitempty"`
	LastOnline    string `json:"last_online,omitempty"`
	LastIP        string `json:"last_ip,omitempty"`
	LastUserAgent string `json:"last_user_agent,omitempty"`
	IsAdmin       bool   `json:"is_admin"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:            u.ID,
		Username:      u.Username,
		RegDate:       u.RegDate,
		LastOnline:    u.LastOnline,
		LastIP:        u.LastIP,
		LastUserAgent: u.LastUserAgent,
		IsAdmin:       u.IsAdmin,
	}
}

func toUserResponses(users []domain.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	return out
}

type authEventResponse struct {
	Outcome   string    `json:"outcome"`
	Reason    string    `json:"reason,omitempty"`
	RemoteIP  string    `json:"remote_ip"`
	UserAgent string    `json:"user_agent"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	At        time.Time `json:"at"`
}

func toAuthEventResponses(events []domain.AuthEvent) []authEventResponse {
	out := make([]authEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, authEventResponse{
			Outcome:   string(e.Outcome),
			Reason:    e.Reason,
			RemoteIP:  e.RemoteIP,
			UserAgent: e.UserAgent,
			Method:    e.Method,
			Path:      e.Path,
			At:        e.At,
		})
	}
	return out
}
