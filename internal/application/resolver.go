package application

import (
	"math/rand"
	"strings"
	"sync"

	"github.com/atvirokodosprendimai/maranzalife/internal/domain"
)

// FullEnergy is the energy a character wakes up with after a day rollover.
const FullEnergy = domain.StatMax

type SkillProgressEvent struct {
	SkillID   uint   `json:"skillId"`
	SkillName string `json:"skillName"`
	Gained    int    `json:"gained"`
	Level     int    `json:"level"`
	Progress  int    `json:"progress"`
	MaxLevel  int    `json:"maxLevel"`
	LevelUp   bool   `json:"levelUp"`
}

// SkillSlot pairs a catalog skill with the character's progress on it.
type SkillSlot struct {
	Skill    domain.Skill
	Progress domain.CharacterSkill
}

type Resolution struct {
	Character  domain.Character
	Clock      domain.GameClock
	DaysRolled int
	// Changes are the raw activity effects; Applied is what the stats
	// actually moved after clamping.
	Changes    domain.Effects
	Applied    domain.Effects
	Contact    *domain.Contact
	Skill      *domain.CharacterSkill
	SkillEvent *SkillProgressEvent
	Text       string
}

// Resolver applies activities to characters. It is safe for concurrent use.
type Resolver struct {
	tables Tables

	mu  sync.Mutex
	rng *rand.Rand
}

func NewResolver(tables Tables, seed int64) *Resolver {
	return &Resolver{tables: tables, rng: rand.New(rand.NewSource(seed))}
}

func (r *Resolver) Tables() Tables {
	return r.tables
}

// Resolve applies one activity. skills is keyed by skill name and holds the
// candidates for the skill-progress event.
func (r *Resolver) Resolve(character domain.Character, activity domain.Activity, clock domain.GameClock, skills map[string]SkillSlot) (Resolution, error) {
	if clock.HoursLeft < activity.Duration {
		return Resolution{}, domain.ErrNotEnoughTime
	}
	if !activity.Available(clock.Day) {
		return Resolution{}, domain.ErrActivityLocked
	}

	out := Resolution{Character: character, Changes: activity.Effects}
	for _, stat := range domain.AllStats {
		delta := activity.Effects.Get(stat)
		if delta == 0 {
			continue
		}
		out.Applied.Set(stat, out.Character.Stats.Add(stat, delta))
	}

	next, rolled, err := AdvanceClock(clock, activity.Duration)
	if err != nil {
		return Resolution{}, err
	}
	out.Clock = next
	out.DaysRolled = rolled
	RefillOnRollover(&out.Character, rolled)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rng.Float64() < r.tables.ContactChance {
		contact := r.newContactLocked(character.ID, clock.Day)
		out.Contact = &contact
	}

	if candidates := r.relevantSkills(activity.Title, skills); len(candidates) > 0 && r.rng.Float64() < r.tables.SkillChance {
		slot := candidates[r.rng.Intn(len(candidates))]
		gained := r.progressRollLocked()
		progress, event := applySkillProgress(slot, gained)
		out.Skill = &progress
		out.SkillEvent = &event
	}

	out.Text = r.outcomeTextLocked(activity.Title)
	return out, nil
}

// RefillOnRollover resets energy when at least one day has passed.
func RefillOnRollover(character *domain.Character, rolled int) {
	if rolled > 0 {
		character.Stats.Energy = FullEnergy
	}
}

func (r *Resolver) relevantSkills(title string, skills map[string]SkillSlot) []SkillSlot {
	names := r.tables.RelevantSkills[title]
	out := make([]SkillSlot, 0, len(names))
	for _, name := range names {
		if slot, ok := skills[name]; ok {
			out = append(out, slot)
		}
	}
	return out
}

func (r *Resolver) progressRollLocked() int {
	span := r.tables.SkillProgressMax - r.tables.SkillProgressMin
	if span <= 0 {
		return r.tables.SkillProgressMin
	}
	return r.tables.SkillProgressMin + r.rng.Intn(span)
}

func applySkillProgress(slot SkillSlot, gained int) (domain.CharacterSkill, SkillProgressEvent) {
	cs := slot.Progress
	if cs.MaxLevel <= 0 {
		cs.MaxLevel = defaultSkillMaxLevel
	}
	if cs.Level <= 0 {
		cs.Level = 1
	}
	cs.Progress += gained

	levelUp := false
	if cs.Progress >= cs.MaxLevel && cs.Level < domain.MaxSkillLevel {
		cs.Level++
		cs.Progress -= cs.MaxLevel
		levelUp = true
	}
	if cs.Level >= domain.MaxSkillLevel && cs.Progress > cs.MaxLevel {
		cs.Progress = cs.MaxLevel
	}

	return cs, SkillProgressEvent{
		SkillID:   slot.Skill.ID,
		SkillName: slot.Skill.Name,
		Gained:    gained,
		Level:     cs.Level,
		Progress:  cs.Progress,
		MaxLevel:  cs.MaxLevel,
		LevelUp:   levelUp,
	}
}

func (r *Resolver) newContactLocked(characterID uint, day int) domain.Contact {
	first := pick(r.rng, r.tables.ContactFirstNames, "Tizio")
	last := pick(r.rng, r.tables.ContactLastNames, "")
	name := strings.TrimSpace(first + " " + last)

	tiers := []domain.RespectTier{domain.RespectBasso, domain.RespectMedio, domain.RespectAlto}
	return domain.Contact{
		CharacterID: characterID,
		Name:        name,
		Type:        pick(r.rng, r.tables.ContactTypes, "conoscente"),
		Respect:     tiers[r.rng.Intn(len(tiers))],
		DayMet:      day,
		Initials:    initials(first, last),
		Color:       pick(r.rng, r.tables.ContactColors, "#7f8c8d"),
	}
}

func (r *Resolver) outcomeTextLocked(title string) string {
	return pick(r.rng, r.tables.Outcomes[title], r.tables.FallbackOutcome)
}

func pick(rng *rand.Rand, values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return values[rng.Intn(len(values))]
}

func initials(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		for _, r := range p {
			b.WriteRune(r)
			break
		}
	}
	return strings.ToUpper(b.String())
}
