package domain

import "time"

// TokenPair is what login and refresh hand back to the client.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	TokenType        string // "Bearer"
	ExpiresIn        time.Duration
	RefreshExpiresAt time.Time
}

// RefreshToken models the stored refresh token record. The raw token is never
// stored, only its fingerprint.
type RefreshToken struct {
	ID         string
	UserID     string
	TokenHash  string // base64url SHA-256 of the opaque token
	IssuedAt   time.Time
	ExpiresAt  time.Time
	Revoked    bool
	DeviceInfo string
	IPAddress  string
}

// Active reports whether the token can still be exchanged at now.
func (t RefreshToken) Active(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}

// Session is the client-facing view of an active refresh token.
type Session struct {
	ID         string    `json:"id"`
	DeviceInfo string    `json:"device_info"`
	IPAddress  string    `json:"ip_address"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// SessionOf converts a stored token to its session view.
func SessionOf(t RefreshToken) Session {
	return Session{
		ID:         t.ID,
		DeviceInfo: t.DeviceInfo,
		IPAddress:  t.IPAddress,
		CreatedAt:  t.IssuedAt,
		ExpiresAt:  t.ExpiresAt,
	}
}
