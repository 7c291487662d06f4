package domain

import "context"

type GameRepository interface {
	// InTx runs fn against a repository bound to a single transaction.
	InTx(ctx context.Context, fn func(tx GameRepository) error) error

	GetClock(ctx context.Context, userID uint) (GameClock, error)
	SaveClock(ctx context.Context, value GameClock) (GameClock, error)

	CreateCharacter(ctx context.Context, value Character) (Character, error)
	GetCharacter(ctx context.Context, id uint) (Character, error)
	UpdateCharacter(ctx context.Context, value Character) (Character, error)
	DeleteCharacterCascade(ctx context.Context, id uint) error

	CreateActivity(ctx context.Context, value Activity) (Activity, error)
	GetActivity(ctx context.Context, id uint) (Activity, error)
	CountActivities(ctx context.Context) (int64, error)
	ListAvailableActivities(ctx context.Context, day int) ([]Activity, error)
	ListSubActivities(ctx context.Context, parentID uint, day int) ([]Activity, error)

	CreateItem(ctx context.Context, value Item) (Item, error)
	GetItem(ctx context.Context, id uint) (Item, error)
	ListShopItems(ctx context.Context, characterID uint, day int) ([]ShopItem, error)
	GetCharacterItem(ctx context.Context, characterID, itemID uint) (CharacterItem, error)
	SaveCharacterItem(ctx context.Context, value CharacterItem) error
	ListOwnedItems(ctx context.Context, characterID uint) ([]OwnedItem, error)

	CreateSkill(ctx context.Context, value Skill) (Skill, error)
	ListSkills(ctx context.Context) ([]Skill, error)
	GetSkillByName(ctx context.Context, name string) (Skill, error)
	GetCharacterSkill(ctx context.Context, characterID, skillID uint) (CharacterSkill, error)
	SaveCharacterSkill(ctx context.Context, value CharacterSkill) error
	ListSkillProgress(ctx context.Context, characterID uint) ([]SkillProgress, error)

	CreateContact(ctx context.Context, value Contact) (Contact, error)
	ListContacts(ctx context.Context, characterID uint) ([]Contact, error)

	CreateUser(ctx context.Context, value User) (User, error)
	CountUsers(ctx context.Context) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, id uint) (User, error)
	CreateSession(ctx context.Context, value AuthSession) (AuthSession, error)
	GetSessionByTokenHash(ctx context.Context, tokenHash string) (AuthSession, error)
	DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error
	CreateAPIToken(ctx context.Context, value APIToken) (APIToken, error)
	GetAPITokenByTokenHash(ctx context.Context, tokenHash string) (APIToken, error)
	CreateRoleIfMissing(ctx context.Context, key, name string) (uint, error)
	ListRoles(ctx context.Context) ([]Role, error)
	CreatePermissionIfMissing(ctx context.Context, key string) (uint, error)
	GrantPermissionToRole(ctx context.Context, roleID, permissionID uint) error
	AssignRoleToUser(ctx context.Context, userID, roleID uint) error
	GetPermissionsByUserID(ctx context.Context, userID uint) ([]string, error)
	CreateAuditLog(ctx context.Context, value AuditLog) error
	ListAuditLogs(ctx context.Context, limit int) ([]AuditRecord, error)
}
