package sqlite

import (
	"time"

	"gorm.io/datatypes"
)

type GameClockModel struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      uint   `gorm:"not null;uniqueIndex"`
	Day         int    `gorm:"not null;default:1"`
	Time        string `gorm:"not null;default:'08:00'"`
	HoursLeft   int    `gorm:"not null;default:16"`
	GameStarted bool   `gorm:"not null;default:false"`
	CharacterID *uint
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (GameClockModel) TableName() string { return "game_clocks" }

type CharacterModel struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      uint   `gorm:"not null;index"`
	Name        string `gorm:"not null"`
	Style       int    `gorm:"not null"`
	Money       int    `gorm:"not null"`
	Reputation  int    `gorm:"not null"`
	Energy      int    `gorm:"not null"`
	Respect     int    `gorm:"not null"`
	Personality string `gorm:"not null"`
	Look        string `gorm:"not null"`
	Avatar      int    `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (CharacterModel) TableName() string { return "characters" }

type ActivityModel struct {
	ID          uint   `gorm:"primaryKey"`
	ParentID    *uint  `gorm:"index"`
	Title       string `gorm:"not null"`
	Description string
	Duration    int            `gorm:"not null"`
	Effects     datatypes.JSON `gorm:"not null"`
	UnlockDay   int            `gorm:"not null;default:0"`
	Category    string
	Color       string
	Outcomes    datatypes.JSON
	CreatedAt   time.Time
}

func (ActivityModel) TableName() string { return "activities" }

type ItemModel struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"not null;uniqueIndex"`
	Description string
	Effects     datatypes.JSON `gorm:"not null"`
	Price       int            `gorm:"not null"`
	Category    string         `gorm:"not null"`
	UnlockDay   int            `gorm:"not null;default:0"`
	CreatedAt   time.Time
}

func (ItemModel) TableName() string { return "items" }

type CharacterItemModel struct {
	ID          uint `gorm:"primaryKey"`
	CharacterID uint `gorm:"not null;index:idx_character_item,unique"`
	ItemID      uint `gorm:"not null;index:idx_character_item,unique"`
	Acquired    bool `gorm:"not null;default:false"`
	AcquiredDay *int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (CharacterItemModel) TableName() string { return "character_items" }

type SkillModel struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"not null;uniqueIndex"`
	Description string
	CreatedAt   time.Time
}

func (SkillModel) TableName() string { return "skills" }

type CharacterSkillModel struct {
	ID          uint `gorm:"primaryKey"`
	CharacterID uint `gorm:"not null;index:idx_character_skill,unique"`
	SkillID     uint `gorm:"not null;index:idx_character_skill,unique"`
	Level       int  `gorm:"not null;default:1"`
	Progress    int  `gorm:"not null;default:0"`
	MaxLevel    int  `gorm:"not null;default:100"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (CharacterSkillModel) TableName() string { return "character_skills" }

type ContactModel struct {
	ID          uint   `gorm:"primaryKey"`
	CharacterID uint   `gorm:"not null;index"`
	Name        string `gorm:"not null"`
	Type        string `gorm:"not null"`
	Respect     string `gorm:"not null"`
	DayMet      int    `gorm:"not null"`
	Initials    string
	Color       string
	CreatedAt   time.Time
}

func (ContactModel) TableName() string { return "contacts" }

type UserModel struct {
	ID           uint   `gorm:"primaryKey"`
	Email        string `gorm:"not null;uniqueIndex"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (UserModel) TableName() string { return "users" }

type SessionModel struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;index"`
	TokenHash string `gorm:"not null;uniqueIndex"`
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (SessionModel) TableName() string { return "sessions" }

type APITokenModel struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;index"`
	Name      string `gorm:"not null"`
	TokenHash string `gorm:"not null;uniqueIndex"`
	ExpiresAt *time.Time
	CreatedAt time.Time
}

func (APITokenModel) TableName() string { return "api_tokens" }

type RoleModel struct {
	ID        uint   `gorm:"primaryKey"`
	Key       string `gorm:"not null;uniqueIndex"`
	Name      string `gorm:"not null"`
	CreatedAt time.Time
}

func (RoleModel) TableName() string { return "roles" }

type PermissionModel struct {
	ID        uint   `gorm:"primaryKey"`
	Key       string `gorm:"not null;uniqueIndex"`
	CreatedAt time.Time
}

func (PermissionModel) TableName() string { return "permissions" }

type UserRoleModel struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"not null;index:idx_user_role,unique"`
	RoleID    uint `gorm:"not null;index:idx_user_role,unique"`
	CreatedAt time.Time
}

func (UserRoleModel) TableName() string { return "user_roles" }

type RolePermissionModel struct {
	ID           uint `gorm:"primaryKey"`
	RoleID       uint `gorm:"not null;index:idx_role_perm,unique"`
	PermissionID uint `gorm:"not null;index:idx_role_perm,unique"`
	CreatedAt    time.Time
}

func (RolePermissionModel) TableName() string { return "role_permissions" }

type AuditLogModel struct {
	ID          uint `gorm:"primaryKey"`
	ActorUserID *uint
	Action      string `gorm:"not null;index"`
	TargetType  string `gorm:"not null;index"`
	TargetID    *uint
	Metadata    string
	CreatedAt   time.Time
}

func (AuditLogModel) TableName() string { return "audit_logs" }
