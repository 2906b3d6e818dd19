package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session is the identity provider's view of an authenticated caller.
type Session struct {
	BaseSimple
	UserID    uuid.UUID  `db:"user_id"`
	Role      string     `db:"role"`
	Token     uuid.UUID  `db:"token"`
	ExpiresAt time.Time  `db:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at"`
}
