package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/atvirokodosprendimai/maranzalife/internal/domain"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/unicode/norm"
)

const maxCharacterNameRunes = 30

type CreateCharacterInput struct {
	Name        string             `json:"name"`
	Personality domain.Personality `json:"personality"`
	Look        domain.Look        `json:"look"`
	Avatar      int                `json:"avatar"`
}

type ActivityResult struct {
	ID               string              `json:"id"`
	Text             string              `json:"text"`
	MoneyChange      int                 `json:"moneyChange"`
	ReputationChange int                 `json:"reputationChange"`
	StyleChange      int                 `json:"styleChange"`
	EnergyChange     int                 `json:"energyChange"`
	RespectChange    int                 `json:"respectChange"`
	Applied          domain.Effects      `json:"applied"`
	NewContact       *domain.Contact     `json:"newContact,omitempty"`
	SkillProgress    *SkillProgressEvent `json:"skillProgress,omitempty"`
	DayRolledOver    bool                `json:"dayRolledOver"`
	Clock            domain.GameClock    `json:"clock"`
	Character        domain.Character    `json:"character"`
}

type AdvanceResult struct {
	Message    string           `json:"message"`
	DaysRolled int              `json:"daysRolled"`
	Clock      domain.GameClock `json:"clock"`
}

// SeedCatalog inserts the static catalog when no activities exist yet.
func (s *GameService) SeedCatalog(ctx context.Context) error {
	count, err := s.repo.CountActivities(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	return s.repo.InTx(ctx, func(tx domain.GameRepository) error {
		for _, skill := range s.catalog.Skills {
			if _, err := tx.CreateSkill(ctx, skill); err != nil {
				return fmt.Errorf("seed skill %s: %w", skill.Name, err)
			}
		}
		for _, item := range s.catalog.Items {
			if _, err := tx.CreateItem(ctx, item); err != nil {
				return fmt.Errorf("seed item %s: %w", item.Name, err)
			}
		}
		for _, entry := range s.catalog.Activities {
			parent, err := tx.CreateActivity(ctx, entry.Activity)
			if err != nil {
				return fmt.Errorf("seed activity %s: %w", entry.Title, err)
			}
			for _, sub := range entry.SubActivities {
				sub.ParentID = &parent.ID
				if sub.UnlockDay < parent.UnlockDay {
					sub.UnlockDay = parent.UnlockDay
				}
				if _, err := tx.CreateActivity(ctx, sub); err != nil {
					return fmt.Errorf("seed sub-activity %s: %w", sub.Title, err)
				}
			}
		}
		return nil
	})
}

func (s *GameService) GetState(ctx context.Context, userID uint) (domain.GameState, error) {
	clock, err := ensureClock(ctx, s.repo, userID)
	if err != nil {
		return domain.GameState{}, err
	}

	activities, err := s.repo.ListAvailableActivities(ctx, clock.Day)
	if err != nil {
		return domain.GameState{}, err
	}
	state := domain.GameState{
		Clock:      clock,
		Activities: activities,
		Inventory:  []domain.OwnedItem{},
		Skills:     []domain.SkillProgress{},
		Contacts:   []domain.Contact{},
	}

	character, err := activeCharacter(ctx, s.repo, clock)
	if errors.Is(err, domain.ErrNoCharacter) {
		return state, nil
	}
	if err != nil {
		return domain.GameState{}, err
	}
	state.Character = &character

	if state.Inventory, err = s.repo.ListOwnedItems(ctx, character.ID); err != nil {
		return domain.GameState{}, err
	}
	if state.Skills, err = s.repo.ListSkillProgress(ctx, character.ID); err != nil {
		return domain.GameState{}, err
	}
	if state.Contacts, err = s.repo.ListContacts(ctx, character.ID); err != nil {
		return domain.GameState{}, err
	}
	return state, nil
}

func normalizeCharacterInput(in CreateCharacterInput) (CreateCharacterInput, error) {
	in.Name = norm.NFC.String(strings.TrimSpace(in.Name))
	if in.Name == "" {
		return in, domain.Invalid("name is required")
	}
	if utf8.RuneCountInString(in.Name) > maxCharacterNameRunes {
		return in, domain.Invalid(fmt.Sprintf("name must be at most %d characters", maxCharacterNameRunes))
	}
	in.Personality = domain.Personality(strings.ToLower(strings.TrimSpace(string(in.Personality))))
	if !in.Personality.Valid() {
		return in, domain.Invalid("personality must be one of audace, ribelle, carismatico")
	}
	in.Look = domain.Look(strings.ToLower(strings.TrimSpace(string(in.Look))))
	if !in.Look.Valid() {
		return in, domain.Invalid("look must be one of casual, sportivo, firmato")
	}
	if in.Avatar < domain.MinAvatar || in.Avatar > domain.MaxAvatar {
		return in, domain.Invalid(fmt.Sprintf("avatar must be between %d and %d", domain.MinAvatar, domain.MaxAvatar))
	}
	return in, nil
}

// StartingStats returns the stats of a freshly created character.
func StartingStats(personality domain.Personality, look domain.Look) domain.Stats {
	stats := domain.Stats{Style: 20, Money: 250, Reputation: 10, Energy: 100, Respect: 10}
	switch personality {
	case domain.PersonalityAudace:
		stats.Add(domain.StatRespect, 10)
	case domain.PersonalityRibelle:
		stats.Add(domain.StatReputation, 10)
	case domain.PersonalityCarismatico:
		stats.Add(domain.StatStyle, 10)
	}
	switch look {
	case domain.LookSportivo:
		stats.Add(domain.StatRespect, 5)
	case domain.LookFirmato:
		stats.Add(domain.StatStyle, 15)
	}
	return stats
}

func (s *GameService) CreateCharacter(ctx context.Context, userID uint, in CreateCharacterInput) (domain.Character, error) {
	in, err := normalizeCharacterInput(in)
	if err != nil {
		return domain.Character{}, err
	}

	defer s.locks.lock(userID)()

	var created domain.Character
	err = s.repo.InTx(ctx, func(tx domain.GameRepository) error {
		clock, err := ensureClock(ctx, tx, userID)
		if err != nil {
			return err
		}
		if _, err := activeCharacter(ctx, tx, clock); err == nil {
			return domain.ErrCharacterExists
		} else if !errors.Is(err, domain.ErrNoCharacter) {
			return err
		}

		created, err = tx.CreateCharacter(ctx, domain.Character{
			UserID:      userID,
			Name:        in.Name,
			Stats:       StartingStats(in.Personality, in.Look),
			Personality: in.Personality,
			Look:        in.Look,
			Avatar:      in.Avatar,
		})
		if err != nil {
			return err
		}

		skills, err := tx.ListSkills(ctx)
		if err != nil {
			return err
		}
		for _, skill := range skills {
			if err := tx.SaveCharacterSkill(ctx, newCharacterSkill(created.ID, skill.ID)); err != nil {
				return err
			}
		}

		clock.GameStarted = true
		clock.CharacterID = &created.ID
		_, err = tx.SaveClock(ctx, clock)
		return err
	})
	if err != nil {
		return domain.Character{}, err
	}

	s.WriteAudit(ctx, &userID, "character.create", "character", &created.ID, created.Name)
	return created, nil
}

func newCharacterSkill(characterID, skillID uint) domain.CharacterSkill {
	return domain.CharacterSkill{CharacterID: characterID, SkillID: skillID, Level: 1, Progress: 0, MaxLevel: defaultSkillMaxLevel}
}

func (s *GameService) PerformActivity(ctx context.Context, userID, activityID uint) (ActivityResult, error) {
	ctx, span := tracer.Start(ctx, "GameService.PerformActivity", trace.WithAttributes(
		attribute.Int64("maranza.user_id", int64(userID)),
		attribute.Int64("maranza.activity_id", int64(activityID)),
	))
	defer span.End()

	defer s.locks.lock(userID)()

	var res Resolution
	var activity domain.Activity
	err := s.repo.InTx(ctx, func(tx domain.GameRepository) error {
		clock, err := ensureClock(ctx, tx, userID)
		if err != nil {
			return err
		}
		character, err := activeCharacter(ctx, tx, clock)
		if err != nil {
			return err
		}
		activity, err = tx.GetActivity(ctx, activityID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrActivityNotFound
		}
		if err != nil {
			return err
		}

		skills, err := s.skillSlots(ctx, tx, character.ID, activity.Title)
		if err != nil {
			return err
		}

		res, err = s.resolver.Resolve(character, activity, clock, skills)
		if err != nil {
			return err
		}

		if res.Character, err = tx.UpdateCharacter(ctx, res.Character); err != nil {
			return err
		}
		if res.Clock, err = tx.SaveClock(ctx, res.Clock); err != nil {
			return err
		}
		if res.Contact != nil {
			contact, err := tx.CreateContact(ctx, *res.Contact)
			if err != nil {
				return err
			}
			res.Contact = &contact
		}
		if res.Skill != nil {
			if err := tx.SaveCharacterSkill(ctx, *res.Skill); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ActivityResult{}, err
	}

	out := ActivityResult{
		ID:               uuid.NewString(),
		Text:             res.Text,
		MoneyChange:      res.Changes.Money,
		ReputationChange: res.Changes.Reputation,
		StyleChange:      res.Changes.Style,
		EnergyChange:     res.Changes.Energy,
		RespectChange:    res.Changes.Respect,
		Applied:          res.Applied,
		NewContact:       res.Contact,
		SkillProgress:    res.SkillEvent,
		DayRolledOver:    res.DaysRolled > 0,
		Clock:            res.Clock,
		Character:        res.Character,
	}
	span.SetAttributes(attribute.String("maranza.result_id", out.ID), attribute.Bool("maranza.day_rolled", out.DayRolledOver))
	s.WriteAudit(ctx, &userID, "game.activity", "activity", &activity.ID, fmt.Sprintf("result=%s title=%s", out.ID, activity.Title))
	return out, nil
}

func (s *GameService) skillSlots(ctx context.Context, repo domain.GameRepository, characterID uint, title string) (map[string]SkillSlot, error) {
	names := s.resolver.Tables().RelevantSkills[title]
	slots := make(map[string]SkillSlot, len(names))
	for _, name := range names {
		skill, err := repo.GetSkillByName(ctx, name)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		progress, err := repo.GetCharacterSkill(ctx, characterID, skill.ID)
		if errors.Is(err, domain.ErrNotFound) {
			progress = newCharacterSkill(characterID, skill.ID)
		} else if err != nil {
			return nil, err
		}
		slots[name] = SkillSlot{Skill: skill, Progress: progress}
	}
	return slots, nil
}

func (s *GameService) ListSubActivities(ctx context.Context, userID, parentID uint) ([]domain.Activity, error) {
	clock, err := ensureClock(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetActivity(ctx, parentID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrActivityNotFound
		}
		return nil, err
	}
	return s.repo.ListSubActivities(ctx, parentID, clock.Day)
}

func (s *GameService) AdvanceTime(ctx context.Context, userID uint, hours int) (AdvanceResult, error) {
	if hours < 1 || hours > 12 {
		return AdvanceResult{}, domain.ErrInvalidHours
	}

	defer s.locks.lock(userID)()

	var out AdvanceResult
	err := s.repo.InTx(ctx, func(tx domain.GameRepository) error {
		clock, err := ensureClock(ctx, tx, userID)
		if err != nil {
			return err
		}
		next, rolled, err := AdvanceClock(clock, hours)
		if err != nil {
			return err
		}
		if rolled > 0 {
			character, err := activeCharacter(ctx, tx, clock)
			switch {
			case err == nil:
				RefillOnRollover(&character, rolled)
				if _, err := tx.UpdateCharacter(ctx, character); err != nil {
					return err
				}
			case !errors.Is(err, domain.ErrNoCharacter):
				return err
			}
		}
		if next, err = tx.SaveClock(ctx, next); err != nil {
			return err
		}
		out = AdvanceResult{
			Message:    fmt.Sprintf("Tempo avanzato di %d ore", hours),
			DaysRolled: rolled,
			Clock:      next,
		}
		return nil
	})
	if err != nil {
		return AdvanceResult{}, err
	}

	s.WriteAudit(ctx, &userID, "game.advance_time", "clock", &out.Clock.ID, fmt.Sprintf("hours=%d", hours))
	return out, nil
}

// Reset deletes the active character with everything it owns and
// reinitialises the clock, atomically.
func (s *GameService) Reset(ctx context.Context, userID uint) (domain.GameClock, error) {
	defer s.locks.lock(userID)()

	var out domain.GameClock
	err := s.repo.InTx(ctx, func(tx domain.GameRepository) error {
		clock, err := ensureClock(ctx, tx, userID)
		if err != nil {
			return err
		}
		if clock.CharacterID != nil {
			if err := tx.DeleteCharacterCascade(ctx, *clock.CharacterID); err != nil {
				return err
			}
		}
		fresh := domain.NewGameClock(userID)
		fresh.ID = clock.ID
		out, err = tx.SaveClock(ctx, fresh)
		return err
	})
	if err != nil {
		return domain.GameClock{}, err
	}

	s.WriteAudit(ctx, &userID, "game.reset", "clock", &out.ID, "")
	return out, nil
}

func (s *GameService) ListShop(ctx context.Context, userID uint) ([]domain.ShopItem, error) {
	clock, err := ensureClock(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	var characterID uint
	if clock.CharacterID != nil {
		characterID = *clock.CharacterID
	}
	return s.repo.ListShopItems(ctx, characterID, clock.Day)
}

func (s *GameService) Purchase(ctx context.Context, userID, itemID uint) (PurchaseResult, error) {
	defer s.locks.lock(userID)()

	var out PurchaseResult
	err := s.repo.InTx(ctx, func(tx domain.GameRepository) error {
		clock, err := ensureClock(ctx, tx, userID)
		if err != nil {
			return err
		}
		character, err := activeCharacter(ctx, tx, clock)
		if err != nil {
			return err
		}
		item, err := tx.GetItem(ctx, itemID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrItemNotFound
		}
		if err != nil {
			return err
		}

		owned := false
		existing, err := tx.GetCharacterItem(ctx, character.ID, item.ID)
		switch {
		case err == nil:
			owned = existing.Acquired
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}

		purchase, err := ApplyPurchase(character, item, owned, clock.Day)
		if err != nil {
			return err
		}
		updated, err := tx.UpdateCharacter(ctx, purchase.Character)
		if err != nil {
			return err
		}
		if err := tx.SaveCharacterItem(ctx, purchase.Ownership); err != nil {
			return err
		}

		money := updated.Stats.Money
		out = PurchaseResult{Success: true, Message: purchaseMessage(item), NewMoney: &money, Item: &item}
		return nil
	})
	if err != nil {
		return PurchaseResult{Success: false, Message: PublicMessage(err)}, err
	}

	s.WriteAudit(ctx, &userID, "shop.purchase", "item", &itemID, out.Message)
	return out, nil
}

// PublicMessage returns the user-facing text of a domain error and a generic
// text for anything else.
func PublicMessage(err error) string {
	var de *domain.Error
	if errors.As(err, &de) && de.Kind != domain.KindInternal {
		return de.Message
	}
	return "internal error"
}
