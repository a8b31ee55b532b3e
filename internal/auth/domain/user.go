package domain

import "time"

// User is the identity record. Role holds the raw stored value; it is resolved
// through rbac.RoleOf so bad data degrades to the default role.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string // argon2id PHC string, or legacy bcrypt
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  *time.Time
	LoginCount   int
}
