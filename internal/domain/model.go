package domain

import "time"

type Personality string

const (
	PersonalityAudace      Personality = "audace"
	PersonalityRibelle     Personality = "ribelle"
	PersonalityCarismatico Personality = "carismatico"
)

func (p Personality) Valid() bool {
	switch p {
	case PersonalityAudace, PersonalityRibelle, PersonalityCarismatico:
		return true
	}
	return false
}

type Look string

const (
	LookCasual   Look = "casual"
	LookSportivo Look = "sportivo"
	LookFirmato  Look = "firmato"
)

func (l Look) Valid() bool {
	switch l {
	case LookCasual, LookSportivo, LookFirmato:
		return true
	}
	return false
}

type ItemCategory string

const (
	ItemCategoryClothing   ItemCategory = "clothing"
	ItemCategoryAccessory  ItemCategory = "accessory"
	ItemCategoryConsumable ItemCategory = "consumable"
	ItemCategorySpecial    ItemCategory = "special"
)

func (c ItemCategory) Valid() bool {
	switch c {
	case ItemCategoryClothing, ItemCategoryAccessory, ItemCategoryConsumable, ItemCategorySpecial:
		return true
	}
	return false
}

type RespectTier string

const (
	RespectBasso RespectTier = "basso"
	RespectMedio RespectTier = "medio"
	RespectAlto  RespectTier = "alto"
)

const (
	MinAvatar = 1
	MaxAvatar = 5

	// MaxSkillLevel bounds CharacterSkill.Level.
	MaxSkillLevel = 5
)

type User struct {
	ID           uint      `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Character struct {
	ID          uint        `json:"id"`
	UserID      uint        `json:"userId"`
	Name        string      `json:"name"`
	Stats       Stats       `json:"stats"`
	Personality Personality `json:"personality"`
	Look        Look        `json:"look"`
	Avatar      int         `json:"avatar"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type Activity struct {
	ID          uint     `json:"id"`
	ParentID    *uint    `json:"parentId,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Duration    int      `json:"duration"`
	Effects     Effects  `json:"effects"`
	UnlockDay   int      `json:"unlockDay,omitempty"`
	Category    string   `json:"category"`
	Color       string   `json:"color"`
	Outcomes    []string `json:"possibleOutcomes"`
}

// Available reports whether the activity is unlocked on the given day.
func (a Activity) Available(day int) bool {
	return a.UnlockDay <= day
}

type ItemEffect struct {
	Stat   Stat `json:"type"`
	Value  int  `json:"value"`
	Debuff bool `json:"isDebuff"`
}

type Item struct {
	ID          uint         `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Effects     []ItemEffect `json:"effects"`
	Price       int          `json:"price"`
	Category    ItemCategory `json:"category"`
	UnlockDay   int          `json:"unlockDay,omitempty"`
}

type CharacterItem struct {
	CharacterID uint `json:"characterId"`
	ItemID      uint `json:"itemId"`
	Acquired    bool `json:"acquired"`
	AcquiredDay *int `json:"acquiredDay,omitempty"`
}

// OwnedItem is an acquired item joined with its catalog entry.
type OwnedItem struct {
	Item
	AcquiredDay int `json:"acquiredDay"`
}

// ShopItem is a catalog entry annotated with ownership for one character.
type ShopItem struct {
	Item
	Owned     bool `json:"owned"`
	Available bool `json:"available"`
}

type Skill struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CharacterSkill struct {
	CharacterID uint `json:"characterId"`
	SkillID     uint `json:"skillId"`
	Level       int  `json:"level"`
	Progress    int  `json:"progress"`
	MaxLevel    int  `json:"maxLevel"`
}

// SkillProgress joins a CharacterSkill with its skill definition.
type SkillProgress struct {
	SkillID     uint   `json:"skillId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Level       int    `json:"level"`
	Progress    int    `json:"progress"`
	MaxLevel    int    `json:"maxLevel"`
}

type Contact struct {
	ID          uint        `json:"id"`
	CharacterID uint        `json:"characterId"`
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Respect     RespectTier `json:"respect"`
	DayMet      int         `json:"dayMet"`
	Initials    string      `json:"initials"`
	Color       string      `json:"color"`
}

type GameClock struct {
	ID          uint   `json:"id"`
	UserID      uint   `json:"userId"`
	Day         int    `json:"day"`
	Time        string `json:"time"`
	HoursLeft   int    `json:"hoursLeft"`
	GameStarted bool   `json:"gameStarted"`
	CharacterID *uint  `json:"characterId"`
}

// NewGameClock returns the initial clock state for a user.
func NewGameClock(userID uint) GameClock {
	return GameClock{
		UserID:      userID,
		Day:         1,
		Time:        "08:00",
		HoursLeft:   16,
		GameStarted: false,
	}
}

// GameState is the aggregate returned to clients.
type GameState struct {
	Clock      GameClock       `json:"clock"`
	Character  *Character      `json:"character"`
	Activities []Activity      `json:"activities"`
	Inventory  []OwnedItem     `json:"inventory"`
	Skills     []SkillProgress `json:"skills"`
	Contacts   []Contact       `json:"contacts"`
}

type AuthSession struct {
	ID        uint
	UserID    uint
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type APIToken struct {
	ID        uint
	UserID    uint
	Name      string
	TokenHash string
	ExpiresAt *time.Time
	CreatedAt time.Time
}

type Identity struct {
	User        User
	Permissions map[string]struct{}
}

type Role struct {
	ID        uint      `json:"id"`
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type AuditLog struct {
	ID          uint
	ActorUserID *uint
	Action      string
	TargetType  string
	TargetID    *uint
	Metadata    string
	CreatedAt   time.Time
}

type AuditRecord struct {
	ID             uint      `json:"id"`
	ActorUserID    *uint     `json:"actorUserId"`
	ActorUserEmail string    `json:"actorUserEmail"`
	Action         string    `json:"action"`
	TargetType     string    `json:"targetType"`
	TargetID       *uint     `json:"targetId"`
	Metadata       string    `json:"metadata"`
	CreatedAt      time.Time `json:"createdAt"`
}
