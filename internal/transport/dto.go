package transport

import (
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/videohub/internal/models"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type AccountProfile struct {
	ID           uuid.UUID   `json:"id"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	FullName     string      `json:"full_name"`
	WatchHistory []uuid.UUID `json:"watch_history"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func ProfileFrom(a *models.Account) AccountProfile {
	history := a.WatchHistory
	if history == nil {
		history = []uuid.UUID{}
	}
	return AccountProfile{
		ID:           a.ID,
		Username:     a.Username,
		Email:        a.Email,
		FullName:     a.FullName,
		WatchHistory: history,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

type TokenResponse struct {
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

type LoginResponse struct {
	User AccountProfile `json:"user"`
	TokenResponse
}

type ToggleResponse struct {
	State string `json:"state"`
	Count *int64 `json:"count,omitempty"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
