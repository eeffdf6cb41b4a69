package server

import (
	"github.com/prn-tf/warden/internal/domain"
)

// Request is one newline-delimited JSON frame sent by a client. The
// tier declares the security classification of the channel the client
// is speaking on.
type Request struct {
	Message string      `json:"message"`
	Tier    domain.Tier `json:"tier"`
}

// Response is the JSON frame written back for every request.
type Response struct {
	Message   string        `json:"message"`
	Status    domain.Status `json:"status"`
	Kind      domain.Kind   `json:"kind"`
	LoggedOut bool          `json:"logged_out,omitempty"`
}

func responseFrom(res domain.Result) Response {
	return Response{
		Message:   res.Message,
		Status:    res.Status,
		Kind:      res.Kind,
		LoggedOut: res.LoggedOut,
	}
}
