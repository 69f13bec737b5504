package models

type Role string

const (
	RolePlayer    Role = "PLAYER"
	RoleOrganizer Role = "ORGANIZER"
	RoleAdmin     Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RolePlayer, RoleOrganizer, RoleAdmin:
		return true
	}
	return false
}

// CanOrganize reports whether the role may create events.
func (r Role) CanOrganize() bool {
	return r == RoleOrganizer || r == RoleAdmin
}

type User struct {
	Base
	Email      string  `gorm:"uniqueIndex;not null" json:"email"`
	Password   string  `json:"-"`
	Name       string  `gorm:"size:100" json:"name"`
	Phone      string  `gorm:"size:20" json:"phone,omitempty"`
	Role       Role    `gorm:"size:16;default:PLAYER" json:"role"`
	SkillLevel int     `json:"skillLevel"`
	DiscordID  *string `gorm:"uniqueIndex" json:"-"`
	Avatar     string  `json:"avatar,omitempty"`
}

// UserSummary is the public identity attached to participants and organizers.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}
