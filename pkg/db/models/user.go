package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sahilmehra/campustrade-backend/pkg/enums"
)

// User represents the canonical identity entity. Trust fields are mutated only
// by the trust ledger and the report resolver.
type User struct {
	ID               uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email            string     `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash     string     `gorm:"column:password_hash;not null"`
	FirstName        string     `gorm:"column:first_name;not null"`
	LastName         string     `gorm:"column:last_name;not null"`
	Phone            *string    `gorm:"column:phone"`
	AvatarURL        *string    `gorm:"column:avatar_url"`
	Role             enums.Role `gorm:"column:role;type:text;not null;default:'member'"`
	TrustPenalty     int        `gorm:"column:trust_penalty;not null;default:0"`
	FailedPayments   int        `gorm:"column:failed_payments;not null;default:0"`
	BlacklistedUntil *time.Time `gorm:"column:blacklisted_until"`
	IsActive         bool       `gorm:"column:is_active;not null;default:true"`
	LastLoginAt      *time.Time `gorm:"column:last_login_at"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TrustScore is the display reputation: 100 minus penalty, floored at zero.
func (u *User) TrustScore() int {
	score := 100 - u.TrustPenalty
	if score < 0 {
		return 0
	}
	return score
}

// IsBlacklisted reports whether the user is under an active blacklist at now.
func (u *User) IsBlacklisted(now time.Time) bool {
	return u.BlacklistedUntil != nil && u.BlacklistedUntil.After(now)
}
