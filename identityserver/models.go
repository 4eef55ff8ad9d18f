package identityserver

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	session "github.com/courselane/go-session"
)

// Account is the server-side credential record.
type Account struct {
	bun.BaseModel  `bun:"table:accounts,alias:acc"`
	ID             uuid.UUID    `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role           session.Role `bun:"role,notnull" json:"role,omitempty"`
	DisplayName    string       `bun:"display_name,notnull" json:"display_name,omitempty"`
	Email          string       `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone          string       `bun:"phone_number" json:"phone_number,omitempty"`
	ProfilePicture string       `bun:"profile_picture" json:"profile_picture,omitempty"`
	Bio            string       `bun:"bio" json:"bio,omitempty"`
	PasswordHash   string       `bun:"password_hash" json:"-"`
	CreatedAt      *time.Time   `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time   `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time   `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Identity maps the credential record to the client-facing identity shape.
func (a *Account) Identity() *session.Identity {
	if a == nil {
		return nil
	}

	return &session.Identity{
		ID:             a.ID.String(),
		DisplayName:    a.DisplayName,
		Email:          a.Email,
		Role:           a.Role,
		Phone:          a.Phone,
		ProfilePicture: a.ProfilePicture,
		Bio:            a.Bio,
	}
}

const (
	// RecoveryRequestedStatus means the token is live and unused
	RecoveryRequestedStatus = "requested"
	// RecoveryChangedStatus means the token was consumed
	RecoveryChangedStatus = "changed"
)

// RecoveryToken is the single-use reset record; its ID is the token mailed
// out in the recovery link.
type RecoveryToken struct {
	bun.BaseModel `bun:"table:recovery_tokens,alias:rct"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AccountID     *uuid.UUID `bun:"account_id,notnull" json:"account_id,omitempty"`
	Email         string     `bun:"email,notnull" json:"email,omitempty"`
	Status        string     `bun:"status,notnull" json:"status,omitempty"`
	UsedAt        *time.Time `bun:"used_at,nullzero" json:"used_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// MarkRecoveryTokenUsed will create a new instance
func MarkRecoveryTokenUsed(id uuid.UUID) *RecoveryToken {
	r := &RecoveryToken{}
	r.ID = id
	r.Status = RecoveryChangedStatus
	n := time.Now()
	r.UsedAt = &n
	return r
}
