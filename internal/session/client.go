package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/alanbriolat/video-grabber/generic"
)

type ClientID string

func NewClientID() ClientID {
	return ClientID(generic.Unwrap(uuid.NewRandom()).String())
}

// ParseClientID accepts only well-formed UUIDs, so arbitrary cookie values never become database keys.
func ParseClientID(s string) (ClientID, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", false
	}
	return ClientID(id.String()), true
}

// ClientState is what is remembered about a client between requests.
type ClientState struct {
	ID        ClientID
	Link      string
	UpdatedAt time.Time
}
