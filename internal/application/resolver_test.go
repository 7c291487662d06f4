package application

import (
	"errors"
	"slices"
	"testing"

	"github.com/atvirokodosprendimai/maranzalife/internal/domain"
)

func testCharacter() domain.Character {
	return domain.Character{
		ID:    7,
		Name:  "Kevin",
		Stats: domain.Stats{Style: 20, Money: 250, Reputation: 10, Energy: 100, Respect: 10},
	}
}

func palestra() domain.Activity {
	return domain.Activity{ID: 1, Title: "Palestra", Duration: 3, Effects: domain.Effects{Respect: 25, Energy: -30}}
}

func quietTables() Tables {
	tables := DefaultTables()
	tables.ContactChance = 0
	tables.SkillChance = 0
	return tables
}

func TestResolvePalestra(t *testing.T) {
	r := NewResolver(quietTables(), 1)
	clock := domain.NewGameClock(1)

	res, err := r.Resolve(testCharacter(), palestra(), clock, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Character.Stats.Respect != 35 || res.Character.Stats.Energy != 70 {
		t.Fatalf("unexpected stats: %+v", res.Character.Stats)
	}
	if res.Clock.Time != "11:00" || res.Clock.HoursLeft != 13 || res.Clock.Day != 1 {
		t.Fatalf("unexpected clock: %+v", res.Clock)
	}
	if res.Changes.Respect != 25 || res.Changes.Energy != -30 {
		t.Fatalf("unexpected raw changes: %+v", res.Changes)
	}
	if res.Contact != nil || res.SkillEvent != nil {
		t.Fatalf("no random events expected with zero chances")
	}
	if !slices.Contains(DefaultTables().Outcomes["Palestra"], res.Text) {
		t.Fatalf("text %q not from the Palestra pool", res.Text)
	}
}

func TestResolveReportsRawAndAppliedDeltas(t *testing.T) {
	r := NewResolver(quietTables(), 1)
	character := testCharacter()
	character.Stats.Reputation = 95
	activity := domain.Activity{Title: "Giro", Duration: 1, Effects: domain.Effects{Reputation: 30, Money: -500}}

	res, err := r.Resolve(character, activity, domain.NewGameClock(1), nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Character.Stats.Reputation != 100 {
		t.Fatalf("reputation should clamp at 100, got %d", res.Character.Stats.Reputation)
	}
	if res.Changes.Reputation != 30 || res.Applied.Reputation != 5 {
		t.Fatalf("raw=%d applied=%d", res.Changes.Reputation, res.Applied.Reputation)
	}
	if res.Character.Stats.Money != -250 || res.Applied.Money != -500 {
		t.Fatalf("money is never clamped, got %d", res.Character.Stats.Money)
	}
	if res.Text != DefaultTables().FallbackOutcome {
		t.Fatalf("expected fallback outcome, got %q", res.Text)
	}
}

func TestResolveNotEnoughTimeDoesNotMutate(t *testing.T) {
	r := NewResolver(DefaultTables(), 1)
	character := testCharacter()
	clock := domain.NewGameClock(1)
	clock.Time = "22:00"
	clock.HoursLeft = 2
	discoteca := domain.Activity{Title: "Serata in Discoteca", Duration: 5, Effects: domain.Effects{Reputation: 20}}

	_, err := r.Resolve(character, discoteca, clock, nil)
	if !errors.Is(err, domain.ErrNotEnoughTime) {
		t.Fatalf("expected ErrNotEnoughTime, got %v", err)
	}
	if character.Stats.Reputation != 10 || clock.HoursLeft != 2 {
		t.Fatalf("inputs must not be mutated")
	}
}

func TestResolveLockedActivity(t *testing.T) {
	r := NewResolver(quietTables(), 1)
	activity := domain.Activity{Title: "Sfida di Freestyle", Duration: 2, UnlockDay: 3}
	if _, err := r.Resolve(testCharacter(), activity, domain.NewGameClock(1), nil); !errors.Is(err, domain.ErrActivityLocked) {
		t.Fatalf("expected ErrActivityLocked, got %v", err)
	}
}

func TestResolveRolloverRefillsEnergy(t *testing.T) {
	r := NewResolver(quietTables(), 1)
	clock := domain.NewGameClock(1)
	clock.Time = "21:00"
	clock.HoursLeft = 3

	res, err := r.Resolve(testCharacter(), palestra(), clock, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.DaysRolled != 1 || res.Clock.Day != 2 || res.Clock.Time != "00:00" || res.Clock.HoursLeft != 24 {
		t.Fatalf("unexpected clock after rollover: %+v rolled=%d", res.Clock, res.DaysRolled)
	}
	if res.Character.Stats.Energy != FullEnergy {
		t.Fatalf("energy should refill, got %d", res.Character.Stats.Energy)
	}
	if res.Applied.Energy != -30 {
		t.Fatalf("applied energy is measured before the refill, got %d", res.Applied.Energy)
	}
}

func TestResolveAlwaysMeetsContactAndTrainsSkill(t *testing.T) {
	tables := DefaultTables()
	tables.ContactChance = 1
	tables.SkillChance = 1
	r := NewResolver(tables, 42)

	skills := map[string]SkillSlot{
		"Forza": {
			Skill:    domain.Skill{ID: 3, Name: "Forza"},
			Progress: domain.CharacterSkill{CharacterID: 7, SkillID: 3, Level: 1, Progress: 0, MaxLevel: 100},
		},
	}
	clock := domain.NewGameClock(1)
	clock.Day = 4

	res, err := r.Resolve(testCharacter(), palestra(), clock, skills)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Contact == nil {
		t.Fatalf("expected a contact")
	}
	if res.Contact.CharacterID != 7 || res.Contact.DayMet != 4 || res.Contact.Name == "" || res.Contact.Initials == "" {
		t.Fatalf("unexpected contact: %+v", res.Contact)
	}
	switch res.Contact.Respect {
	case domain.RespectBasso, domain.RespectMedio, domain.RespectAlto:
	default:
		t.Fatalf("unexpected respect tier %q", res.Contact.Respect)
	}

	if res.SkillEvent == nil || res.Skill == nil {
		t.Fatalf("expected a skill event")
	}
	if res.SkillEvent.SkillName != "Forza" {
		t.Fatalf("expected Forza, got %s", res.SkillEvent.SkillName)
	}
	if res.SkillEvent.Gained < 5 || res.SkillEvent.Gained >= 20 {
		t.Fatalf("gain %d outside [5,20)", res.SkillEvent.Gained)
	}
	if res.Skill.Progress != res.SkillEvent.Gained {
		t.Fatalf("progress %d != gained %d", res.Skill.Progress, res.SkillEvent.Gained)
	}
}

func TestResolveSkipsSkillsWhenNoneRelevant(t *testing.T) {
	tables := DefaultTables()
	tables.ContactChance = 0
	tables.SkillChance = 1
	r := NewResolver(tables, 1)
	activity := domain.Activity{Title: "Sconosciuta", Duration: 1}
	skills := map[string]SkillSlot{"Forza": {Skill: domain.Skill{ID: 1, Name: "Forza"}}}

	res, err := r.Resolve(testCharacter(), activity, domain.NewGameClock(1), skills)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.SkillEvent != nil {
		t.Fatalf("no skill maps to this title")
	}
}

func TestResolveIsDeterministicForSeed(t *testing.T) {
	tables := DefaultTables()
	a, _ := NewResolver(tables, 99).Resolve(testCharacter(), palestra(), domain.NewGameClock(1), nil)
	b, _ := NewResolver(tables, 99).Resolve(testCharacter(), palestra(), domain.NewGameClock(1), nil)
	if a.Text != b.Text || (a.Contact == nil) != (b.Contact == nil) {
		t.Fatalf("same seed should give the same resolution")
	}
}

func TestApplySkillProgress(t *testing.T) {
	slot := func(level, progress int) SkillSlot {
		return SkillSlot{
			Skill:    domain.Skill{ID: 1, Name: "Ballo"},
			Progress: domain.CharacterSkill{Level: level, Progress: progress, MaxLevel: 100},
		}
	}

	cs, ev := applySkillProgress(slot(1, 95), 10)
	if cs.Level != 2 || cs.Progress != 5 || !ev.LevelUp {
		t.Fatalf("expected wrap to level 2 progress 5, got %+v", cs)
	}

	cs, ev = applySkillProgress(slot(2, 10), 10)
	if cs.Level != 2 || cs.Progress != 20 || ev.LevelUp {
		t.Fatalf("expected plain progress, got %+v", cs)
	}

	cs, ev = applySkillProgress(slot(domain.MaxSkillLevel, 95), 19)
	if cs.Level != domain.MaxSkillLevel || cs.Progress != 100 || ev.LevelUp {
		t.Fatalf("expected progress capped at max level, got %+v", cs)
	}
}
