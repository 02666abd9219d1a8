package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/projecthub-backend/models"
)

// Identity is the signed-in user as seen by the managers.
type Identity struct {
	UID         uuid.UUID `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName,omitempty"`
	PhotoURL    *string   `json:"photoURL,omitempty"`

	// Set from a verified token.
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

func identityFromCredential(c *models.Credential) *Identity {
	return &Identity{
		UID:         c.UID,
		Email:       c.Email,
		DisplayName: c.DisplayName,
		PhotoURL:    c.PhotoURL,
	}
}

// EmailLocalPart returns the part of the email before "@".
func (i *Identity) EmailLocalPart() string {
	if i == nil {
		return ""
	}
	local, _, _ := strings.Cut(i.Email, "@")
	return local
}
