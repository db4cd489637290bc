package domain

import (
	"time"

	"github.com/google/uuid"
)

// User owns zero or more merchants. Authentication and session issuance
// live in the external auth service; only the ownership relation matters here.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
