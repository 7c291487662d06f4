package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atvirokodosprendimai/maranzalife/internal/domain"
	_ "github.com/jackc/pgx/v5/stdlib"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

type GameRepository struct {
	db *gorm.DB
}

var _ domain.GameRepository = (*GameRepository)(nil)

// Open connects to sqlite (dsn is a file path) or postgres (dsn is a
// connection string).
func Open(dialect, dsn string) (*gorm.DB, error) {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "", DialectSQLite:
		db, err := gorm.Open(sqlite.Dialector{
			DriverName: "sqlite",
			DSN:        sqliteDSN(dsn),
		}, &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		return db, nil
	case DialectPostgres:
		if strings.TrimSpace(dsn) == "" {
			return nil, errors.New("postgres dialect requires a DSN")
		}
		db, err := gorm.Open(postgres.New(postgres.Config{
			DriverName: "pgx",
			DSN:        dsn,
		}), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("open postgres database: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database dialect %q", dialect)
	}
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
}

func NewGameRepository(db *gorm.DB) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) InTx(ctx context.Context, fn func(tx domain.GameRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GameRepository{db: tx})
	})
}

// notFound translates gorm's missing-row error into the domain sentinel.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

func (r *GameRepository) GetClock(ctx context.Context, userID uint) (domain.GameClock, error) {
	var m GameClockModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error; err != nil {
		return domain.GameClock{}, notFound(err)
	}
	return clockFromModel(m), nil
}

func (r *GameRepository) SaveClock(ctx context.Context, value domain.GameClock) (domain.GameClock, error) {
	var m GameClockModel
	if value.ID != 0 {
		if err := r.db.WithContext(ctx).First(&m, value.ID).Error; err != nil {
			return domain.GameClock{}, notFound(err)
		}
	}
	m.UserID = value.UserID
	m.Day = value.Day
	m.Time = value.Time
	m.HoursLeft = value.HoursLeft
	m.GameStarted = value.GameStarted
	m.CharacterID = value.CharacterID
	if err := r.db.WithContext(ctx).Save(&m).Error; err != nil {
		return domain.GameClock{}, fmt.Errorf("save clock: %w", err)
	}
	return clockFromModel(m), nil
}

func clockFromModel(m GameClockModel) domain.GameClock {
	return domain.GameClock{
		ID:          m.ID,
		UserID:      m.UserID,
		Day:         m.Day,
		Time:        m.Time,
		HoursLeft:   m.HoursLeft,
		GameStarted: m.GameStarted,
		CharacterID: m.CharacterID,
	}
}

func (r *GameRepository) CreateCharacter(ctx context.Context, value domain.Character) (domain.Character, error) {
	m := CharacterModel{UserID: value.UserID}
	characterToModel(value, &m)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Character{}, fmt.Errorf("create character: %w", err)
	}
	return characterFromModel(m), nil
}

func (r *GameRepository) GetCharacter(ctx context.Context, id uint) (domain.Character, error) {
	var m CharacterModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return domain.Character{}, notFound(err)
	}
	return characterFromModel(m), nil
}

func (r *GameRepository) UpdateCharacter(ctx context.Context, value domain.Character) (domain.Character, error) {
	var m CharacterModel
	if err := r.db.WithContext(ctx).First(&m, value.ID).Error; err != nil {
		return domain.Character{}, notFound(err)
	}
	characterToModel(value, &m)
	if err := r.db.WithContext(ctx).Save(&m).Error; err != nil {
		return domain.Character{}, fmt.Errorf("update character: %w", err)
	}
	return characterFromModel(m), nil
}

// DeleteCharacterCascade removes the character and every row it owns. The
// clock reference is cleared; callers reinitialise the clock themselves.
func (r *GameRepository) DeleteCharacterCascade(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	steps := []struct {
		name  string
		model any
	}{
		{"character skills", &CharacterSkillModel{}},
		{"character items", &CharacterItemModel{}},
		{"contacts", &ContactModel{}},
	}
	for _, step := range steps {
		if err := db.Where("character_id = ?", id).Delete(step.model).Error; err != nil {
			return fmt.Errorf("delete %s: %w", step.name, err)
		}
	}
	if err := db.Model(&GameClockModel{}).Where("character_id = ?", id).Update("character_id", nil).Error; err != nil {
		return fmt.Errorf("detach clock: %w", err)
	}
	if err := db.Delete(&CharacterModel{}, id).Error; err != nil {
		return fmt.Errorf("delete character: %w", err)
	}
	return nil
}

func characterToModel(value domain.Character, m *CharacterModel) {
	m.Name = value.Name
	m.Style = value.Stats.Style
	m.Money = value.Stats.Money
	m.Reputation = value.Stats.Reputation
	m.Energy = value.Stats.Energy
	m.Respect = value.Stats.Respect
	m.Personality = string(value.Personality)
	m.Look = string(value.Look)
	m.Avatar = value.Avatar
}

func characterFromModel(m CharacterModel) domain.Character {
	return domain.Character{
		ID:     m.ID,
		UserID: m.UserID,
		Name:   m.Name,
		Stats: domain.Stats{
			Style:      m.Style,
			Money:      m.Money,
			Reputation: m.Reputation,
			Energy:     m.Energy,
			Respect:    m.Respect,
		},
		Personality: domain.Personality(m.Personality),
		Look:        domain.Look(m.Look),
		Avatar:      m.Avatar,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func (r *GameRepository) CreateActivity(ctx context.Context, value domain.Activity) (domain.Activity, error) {
	effects, err := json.Marshal(value.Effects)
	if err != nil {
		return domain.Activity{}, err
	}
	outcomes, err := json.Marshal(nonNilStrings(value.Outcomes))
	if err != nil {
		return domain.Activity{}, err
	}
	m := ActivityModel{
		ParentID:    value.ParentID,
		Title:       value.Title,
		Description: value.Description,
		Duration:    value.Duration,
		Effects:     datatypes.JSON(effects),
		UnlockDay:   value.UnlockDay,
		Category:    value.Category,
		Color:       value.Color,
		Outcomes:    datatypes.JSON(outcomes),
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Activity{}, fmt.Errorf("create activity: %w", err)
	}
	return activityFromModel(m)
}

func (r *GameRepository) GetActivity(ctx context.Context, id uint) (domain.Activity, error) {
	var m ActivityModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return domain.Activity{}, notFound(err)
	}
	return activityFromModel(m)
}

func (r *GameRepository) CountActivities(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&ActivityModel{}).Count(&count).Error
	return count, err
}

func (r *GameRepository) ListAvailableActivities(ctx context.Context, day int) ([]domain.Activity, error) {
	rows := make([]ActivityModel, 0)
	err := r.db.WithContext(ctx).
		Where("parent_id IS NULL AND unlock_day <= ?", day).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return activitiesFromModels(rows)
}

func (r *GameRepository) ListSubActivities(ctx context.Context, parentID uint, day int) ([]domain.Activity, error) {
	rows := make([]ActivityModel, 0)
	err := r.db.WithContext(ctx).
		Where("parent_id = ? AND unlock_day <= ?", parentID, day).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return activitiesFromModels(rows)
}

func activitiesFromModels(rows []ActivityModel) ([]domain.Activity, error) {
	result := make([]domain.Activity, 0, len(rows))
	for _, m := range rows {
		a, err := activityFromModel(m)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, nil
}

func activityFromModel(m ActivityModel) (domain.Activity, error) {
	a := domain.Activity{
		ID:          m.ID,
		ParentID:    m.ParentID,
		Title:       m.Title,
		Description: m.Description,
		Duration:    m.Duration,
		UnlockDay:   m.UnlockDay,
		Category:    m.Category,
		Color:       m.Color,
		Outcomes:    []string{},
	}
	if len(m.Effects) > 0 {
		if err := json.Unmarshal(m.Effects, &a.Effects); err != nil {
			return domain.Activity{}, fmt.Errorf("activity %d effects: %w", m.ID, err)
		}
	}
	if len(m.Outcomes) > 0 {
		if err := json.Unmarshal(m.Outcomes, &a.Outcomes); err != nil {
			return domain.Activity{}, fmt.Errorf("activity %d outcomes: %w", m.ID, err)
		}
	}
	return a, nil
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func (r *GameRepository) CreateItem(ctx context.Context, value domain.Item) (domain.Item, error) {
	effects := value.Effects
	if effects == nil {
		effects = []domain.ItemEffect{}
	}
	raw, err := json.Marshal(effects)
	if err != nil {
		return domain.Item{}, err
	}
	m := ItemModel{
		Name:        value.Name,
		Description: value.Description,
		Effects:     datatypes.JSON(raw),
		Price:       value.Price,
		Category:    string(value.Category),
		UnlockDay:   value.UnlockDay,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Item{}, fmt.Errorf("create item: %w", err)
	}
	return itemFromModel(m)
}

func (r *GameRepository) GetItem(ctx context.Context, id uint) (domain.Item, error) {
	var m ItemModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return domain.Item{}, notFound(err)
	}
	return itemFromModel(m)
}

func itemFromModel(m ItemModel) (domain.Item, error) {
	item := domain.Item{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Effects:     []domain.ItemEffect{},
		Price:       m.Price,
		Category:    domain.ItemCategory(m.Category),
		UnlockDay:   m.UnlockDay,
	}
	if len(m.Effects) > 0 {
		if err := json.Unmarshal(m.Effects, &item.Effects); err != nil {
			return domain.Item{}, fmt.Errorf("item %d effects: %w", m.ID, err)
		}
	}
	return item, nil
}

// ListShopItems returns the whole catalog. characterID 0 means no active
// character, so nothing is owned.
func (r *GameRepository) ListShopItems(ctx context.Context, characterID uint, day int) ([]domain.ShopItem, error) {
	rows := make([]ItemModel, 0)
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	owned := make(map[uint]bool)
	if characterID != 0 {
		links := make([]CharacterItemModel, 0)
		err := r.db.WithContext(ctx).Where("character_id = ? AND acquired = ?", characterID, true).Find(&links).Error
		if err != nil {
			return nil, err
		}
		for _, l := range links {
			owned[l.ItemID] = true
		}
	}

	result := make([]domain.ShopItem, 0, len(rows))
	for _, m := range rows {
		item, err := itemFromModel(m)
		if err != nil {
			return nil, err
		}
		result = append(result, domain.ShopItem{Item: item, Owned: owned[m.ID], Available: item.UnlockDay <= day})
	}
	return result, nil
}

func (r *GameRepository) GetCharacterItem(ctx context.Context, characterID, itemID uint) (domain.CharacterItem, error) {
	var m CharacterItemModel
	err := r.db.WithContext(ctx).Where("character_id = ? AND item_id = ?", characterID, itemID).First(&m).Error
	if err != nil {
		return domain.CharacterItem{}, notFound(err)
	}
	return domain.CharacterItem{CharacterID: m.CharacterID, ItemID: m.ItemID, Acquired: m.Acquired, AcquiredDay: m.AcquiredDay}, nil
}

func (r *GameRepository) SaveCharacterItem(ctx context.Context, value domain.CharacterItem) error {
	m := CharacterItemModel{CharacterID: value.CharacterID, ItemID: value.ItemID}
	db := r.db.WithContext(ctx)
	if err := db.Where("character_id = ? AND item_id = ?", value.CharacterID, value.ItemID).FirstOrCreate(&m).Error; err != nil {
		return fmt.Errorf("save character item: %w", err)
	}
	m.Acquired = value.Acquired
	m.AcquiredDay = value.AcquiredDay
	return db.Save(&m).Error
}

func (r *GameRepository) ListOwnedItems(ctx context.Context, characterID uint) ([]domain.OwnedItem, error) {
	type row struct {
		ItemModel
		AcquiredDay *int
	}
	rows := make([]row, 0)
	err := r.db.WithContext(ctx).Raw(`
SELECT i.*, ci.acquired_day
FROM character_items ci
JOIN items i ON i.id = ci.item_id
WHERE ci.character_id = ? AND ci.acquired = ?
ORDER BY ci.id ASC
`, characterID, true).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]domain.OwnedItem, 0, len(rows))
	for _, m := range rows {
		item, err := itemFromModel(m.ItemModel)
		if err != nil {
			return nil, err
		}
		owned := domain.OwnedItem{Item: item}
		if m.AcquiredDay != nil {
			owned.AcquiredDay = *m.AcquiredDay
		}
		result = append(result, owned)
	}
	return result, nil
}

func (r *GameRepository) CreateSkill(ctx context.Context, value domain.Skill) (domain.Skill, error) {
	m := SkillModel{Name: value.Name, Description: value.Description}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Skill{}, fmt.Errorf("create skill: %w", err)
	}
	return domain.Skill{ID: m.ID, Name: m.Name, Description: m.Description}, nil
}

func (r *GameRepository) ListSkills(ctx context.Context) ([]domain.Skill, error) {
	rows := make([]SkillModel, 0)
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Skill, 0, len(rows))
	for _, m := range rows {
		result = append(result, domain.Skill{ID: m.ID, Name: m.Name, Description: m.Description})
	}
	return result, nil
}

func (r *GameRepository) GetSkillByName(ctx context.Context, name string) (domain.Skill, error) {
	var m SkillModel
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&m).Error; err != nil {
		return domain.Skill{}, notFound(err)
	}
	return domain.Skill{ID: m.ID, Name: m.Name, Description: m.Description}, nil
}

func (r *GameRepository) GetCharacterSkill(ctx context.Context, characterID, skillID uint) (domain.CharacterSkill, error) {
	var m CharacterSkillModel
	err := r.db.WithContext(ctx).Where("character_id = ? AND skill_id = ?", characterID, skillID).First(&m).Error
	if err != nil {
		return domain.CharacterSkill{}, notFound(err)
	}
	return domain.CharacterSkill{CharacterID: m.CharacterID, SkillID: m.SkillID, Level: m.Level, Progress: m.Progress, MaxLevel: m.MaxLevel}, nil
}

func (r *GameRepository) SaveCharacterSkill(ctx context.Context, value domain.CharacterSkill) error {
	m := CharacterSkillModel{CharacterID: value.CharacterID, SkillID: value.SkillID}
	db := r.db.WithContext(ctx)
	if err := db.Where("character_id = ? AND skill_id = ?", value.CharacterID, value.SkillID).FirstOrCreate(&m).Error; err != nil {
		return fmt.Errorf("save character skill: %w", err)
	}
	m.Level = value.Level
	m.Progress = value.Progress
	m.MaxLevel = value.MaxLevel
	return db.Save(&m).Error
}

func (r *GameRepository) ListSkillProgress(ctx context.Context, characterID uint) ([]domain.SkillProgress, error) {
	rows := make([]domain.SkillProgress, 0)
	err := r.db.WithContext(ctx).Raw(`
SELECT s.id AS skill_id,
       s.name,
       COALESCE(s.description, '') AS description,
       cs.level,
       cs.progress,
       cs.max_level
FROM character_skills cs
JOIN skills s ON s.id = cs.skill_id
WHERE cs.character_id = ?
ORDER BY s.id ASC
`, characterID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *GameRepository) CreateContact(ctx context.Context, value domain.Contact) (domain.Contact, error) {
	m := ContactModel{
		CharacterID: value.CharacterID,
		Name:        value.Name,
		Type:        value.Type,
		Respect:     string(value.Respect),
		DayMet:      value.DayMet,
		Initials:    value.Initials,
		Color:       value.Color,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Contact{}, fmt.Errorf("create contact: %w", err)
	}
	return contactFromModel(m), nil
}

func (r *GameRepository) ListContacts(ctx context.Context, characterID uint) ([]domain.Contact, error) {
	rows := make([]ContactModel, 0)
	if err := r.db.WithContext(ctx).Where("character_id = ?", characterID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Contact, 0, len(rows))
	for _, m := range rows {
		result = append(result, contactFromModel(m))
	}
	return result, nil
}

func contactFromModel(m ContactModel) domain.Contact {
	return domain.Contact{
		ID:          m.ID,
		CharacterID: m.CharacterID,
		Name:        m.Name,
		Type:        m.Type,
		Respect:     domain.RespectTier(m.Respect),
		DayMet:      m.DayMet,
		Initials:    m.Initials,
		Color:       m.Color,
	}
}

func (r *GameRepository) CreateUser(ctx context.Context, value domain.User) (domain.User, error) {
	m := UserModel{Email: strings.ToLower(strings.TrimSpace(value.Email)), PasswordHash: value.PasswordHash}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.User{}, err
	}
	return userFromModel(m), nil
}

func (r *GameRepository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&UserModel{}).Count(&count).Error
	return count, err
}

func (r *GameRepository) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var m UserModel
	if err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&m).Error; err != nil {
		return domain.User{}, notFound(err)
	}
	return userFromModel(m), nil
}

func (r *GameRepository) GetUserByID(ctx context.Context, id uint) (domain.User, error) {
	var m UserModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return domain.User{}, notFound(err)
	}
	return userFromModel(m), nil
}

func userFromModel(m UserModel) domain.User {
	return domain.User{ID: m.ID, Email: m.Email, PasswordHash: m.PasswordHash, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

func (r *GameRepository) CreateSession(ctx context.Context, value domain.AuthSession) (domain.AuthSession, error) {
	m := SessionModel{UserID: value.UserID, TokenHash: value.TokenHash, ExpiresAt: value.ExpiresAt}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.AuthSession{}, err
	}
	return domain.AuthSession{ID: m.ID, UserID: m.UserID, TokenHash: m.TokenHash, ExpiresAt: m.ExpiresAt, CreatedAt: m.CreatedAt}, nil
}

func (r *GameRepository) GetSessionByTokenHash(ctx context.Context, tokenHash string) (domain.AuthSession, error) {
	var m SessionModel
	if err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&m).Error; err != nil {
		return domain.AuthSession{}, notFound(err)
	}
	return domain.AuthSession{ID: m.ID, UserID: m.UserID, TokenHash: m.TokenHash, ExpiresAt: m.ExpiresAt, CreatedAt: m.CreatedAt}, nil
}

func (r *GameRepository) DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error {
	return r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).Delete(&SessionModel{}).Error
}

func (r *GameRepository) CreateAPIToken(ctx context.Context, value domain.APIToken) (domain.APIToken, error) {
	m := APITokenModel{UserID: value.UserID, Name: value.Name, TokenHash: value.TokenHash, ExpiresAt: value.ExpiresAt}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.APIToken{}, err
	}
	return domain.APIToken{ID: m.ID, UserID: m.UserID, Name: m.Name, TokenHash: m.TokenHash, ExpiresAt: m.ExpiresAt, CreatedAt: m.CreatedAt}, nil
}

func (r *GameRepository) GetAPITokenByTokenHash(ctx context.Context, tokenHash string) (domain.APIToken, error) {
	var m APITokenModel
	if err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&m).Error; err != nil {
		return domain.APIToken{}, notFound(err)
	}
	return domain.APIToken{ID: m.ID, UserID: m.UserID, Name: m.Name, TokenHash: m.TokenHash, ExpiresAt: m.ExpiresAt, CreatedAt: m.CreatedAt}, nil
}

func (r *GameRepository) CreateRoleIfMissing(ctx context.Context, key, name string) (uint, error) {
	m := RoleModel{Key: key, Name: name}
	err := r.db.WithContext(ctx).Where("key = ?", key).FirstOrCreate(&m).Error
	if err != nil {
		return 0, err
	}
	return m.ID, nil
}

func (r *GameRepository) ListRoles(ctx context.Context) ([]domain.Role, error) {
	rows := make([]RoleModel, 0)
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Role, 0, len(rows))
	for _, m := range rows {
		result = append(result, domain.Role{ID: m.ID, Key: m.Key, Name: m.Name, CreatedAt: m.CreatedAt})
	}
	return result, nil
}

func (r *GameRepository) CreatePermissionIfMissing(ctx context.Context, key string) (uint, error) {
	m := PermissionModel{Key: key}
	err := r.db.WithContext(ctx).Where("key = ?", key).FirstOrCreate(&m).Error
	if err != nil {
		return 0, err
	}
	return m.ID, nil
}

func (r *GameRepository) GrantPermissionToRole(ctx context.Context, roleID, permissionID uint) error {
	m := RolePermissionModel{RoleID: roleID, PermissionID: permissionID}
	return r.db.WithContext(ctx).Where("role_id = ? AND permission_id = ?", roleID, permissionID).FirstOrCreate(&m).Error
}

func (r *GameRepository) AssignRoleToUser(ctx context.Context, userID, roleID uint) error {
	m := UserRoleModel{UserID: userID, RoleID: roleID}
	return r.db.WithContext(ctx).Where("user_id = ? AND role_id = ?", userID, roleID).FirstOrCreate(&m).Error
}

func (r *GameRepository) GetPermissionsByUserID(ctx context.Context, userID uint) ([]string, error) {
	type row struct{ Key string }
	rows := make([]row, 0)
	err := r.db.WithContext(ctx).Raw(`
SELECT p.key
FROM permissions p
JOIN role_permissions rp ON rp.permission_id = p.id
JOIN user_roles ur ON ur.role_id = rp.role_id
WHERE ur.user_id = ?
`, userID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]string, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.Key)
	}
	return result, nil
}

func (r *GameRepository) CreateAuditLog(ctx context.Context, value domain.AuditLog) error {
	m := AuditLogModel{ActorUserID: value.ActorUserID, Action: value.Action, TargetType: value.TargetType, TargetID: value.TargetID, Metadata: value.Metadata}
	return r.db.WithContext(ctx).Create(&m).Error
}

func (r *GameRepository) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditRecord, error) {
	type row struct {
		ID             uint
		ActorUserID    *uint
		ActorUserEmail string
		Action         string
		TargetType     string
		TargetID       *uint
		Metadata       string
		CreatedAt      time.Time
	}
	rows := make([]row, 0)
	err := r.db.WithContext(ctx).Raw(`
SELECT a.id,
       a.actor_user_id,
       COALESCE(u.email, '') AS actor_user_email,
       a.action,
       a.target_type,
       a.target_id,
       COALESCE(a.metadata, '') AS metadata,
       a.created_at
FROM audit_logs a
LEFT JOIN users u ON u.id = a.actor_user_id
ORDER BY a.id DESC
LIMIT ?
`, limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]domain.AuditRecord, 0, len(rows))
	for _, m := range rows {
		result = append(result, domain.AuditRecord{
			ID:             m.ID,
			ActorUserID:    m.ActorUserID,
			ActorUserEmail: m.ActorUserEmail,
			Action:         m.Action,
			TargetType:     m.TargetType,
			TargetID:       m.TargetID,
			Metadata:       m.Metadata,
			CreatedAt:      m.CreatedAt,
		})
	}
	return result, nil
}
