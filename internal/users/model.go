package users

import (
	"time"

	"github.com/provistock/provistock/internal/session"
)

// User is a directory entry. Province staff (role "user") is scoped to
// exactly one province; the other roles carry no province.
type User struct {
	ID         int64        `json:"id"`
	Name       string       `json:"name"`
	Email      string       `json:"email"`
	Role       session.Role `json:"role"`
	ProvinceID int64        `json:"province_id,omitempty"`
	CreatedAt  time.Time    `json:"created_at,omitempty"`
}
