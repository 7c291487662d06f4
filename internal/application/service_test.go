package application_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/atvirokodosprendimai/maranzalife/internal/adapters/db/sqlite"
	"github.com/atvirokodosprendimai/maranzalife/internal/application"
	"github.com/atvirokodosprendimai/maranzalife/internal/domain"
)

func newTestService(t *testing.T, tables application.Tables) (*application.GameService, domain.User) {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(sqlite.DialectSQLite, filepath.Join(t.TempDir(), "game.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := sqlite.RunMigrations(ctx, db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	svc := application.NewGameService(sqlite.NewGameRepository(db), application.NewResolver(tables, 7))
	if err := svc.SeedCatalog(ctx); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	demo, err := svc.BootstrapDemoPlayer(ctx, "demo@maranzalife.local", "demo")
	if err != nil {
		t.Fatalf("bootstrap demo player: %v", err)
	}
	return svc, demo
}

func quietTables() application.Tables {
	tables := application.DefaultTables()
	tables.ContactChance = 0
	tables.SkillChance = 0
	return tables
}

func activityID(t *testing.T, state domain.GameState, title string) uint {
	t.Helper()
	for _, a := range state.Activities {
		if a.Title == title {
			return a.ID
		}
	}
	t.Fatalf("activity %q not available", title)
	return 0
}

func createKevin(t *testing.T, svc *application.GameService, userID uint) domain.Character {
	t.Helper()
	c, err := svc.CreateCharacter(context.Background(), userID, application.CreateCharacterInput{
		Name:        "  Kevin  ",
		Personality: domain.PersonalityAudace,
		Look:        domain.LookFirmato,
		Avatar:      3,
	})
	if err != nil {
		t.Fatalf("create character: %v", err)
	}
	return c
}

func TestSeedCatalogIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, demo := newTestService(t, quietTables())
	if err := svc.SeedCatalog(ctx); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	state, err := svc.GetState(ctx, demo.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.Character != nil {
		t.Fatalf("no character expected yet")
	}
	if len(state.Activities) != 6 {
		t.Fatalf("expected 6 activities unlocked on day 1, got %d", len(state.Activities))
	}
	if state.Clock.Day != 1 || state.Clock.Time != "08:00" || state.Clock.HoursLeft != 16 || state.Clock.GameStarted {
		t.Fatalf("unexpected initial clock: %+v", state.Clock)
	}

	subs, err := svc.ListSubActivities(ctx, demo.ID, activityID(t, state, "Palestra"))
	if err != nil {
		t.Fatalf("sub-activities: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("expected 2 Palestra sub-activities, got %d", len(subs))
	}
}

func TestCreateCharacterValidation(t *testing.T) {
	ctx := context.Background()
	svc, demo := newTestService(t, quietTables())

	bad := []application.CreateCharacterInput{
		{Name: " ", Personality: domain.PersonalityAudace, Look: domain.LookCasual, Avatar: 1},
		{Name: "Kevin", Personality: "timido", Look: domain.LookCasual, Avatar: 1},
		{Name: "Kevin", Personality: domain.PersonalityAudace, Look: "elegante", Avatar: 1},
		{Name: "Kevin", Personality: domain.PersonalityAudace, Look: domain.LookCasual, Avatar: 6},
		{Name: "Kevin", Personality: domain.PersonalityAudace, Look: domain.LookCasual, Avatar: 0},
		{Name: "Un nome davvero troppo lungo per un maranza", Personality: domain.PersonalityAudace, Look: domain.LookCasual, Avatar: 1},
	}
	for _, in := range bad {
		_, err := svc.CreateCharacter(ctx, demo.ID, in)
		if domain.KindOf(err) != domain.KindInvalid {
			t.Fatalf("expected invalid error for %+v, got %v", in, err)
		}
	}
}

func TestCreateCharacter(t *testing.T) {
	ctx := context.Background()
	svc, demo := newTestService(t, quietTables())

	c := createKevin(t, svc, demo.ID)
	if c.Name != "Kevin" {
		t.Fatalf("name should be trimmed, got %q", c.Name)
	}
	want := domain.Stats{Style: 35, Money: 250, Reputation: 10, Energy: 100, Respect: 20}
	if c.Stats != want {
		t.Fatalf("unexpected starting stats: %+v", c.Stats)
	}

	state, err := svc.GetState(ctx, demo.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.Character == nil || state.Character.ID != c.ID || !state.Clock.GameStarted {
		t.Fatalf("character should be active: %+v", state.Clock)
	}
	if len(state.Skills) != 6 {
		t.Fatalf("expected all 6 skills attached, got %d", len(state.Skills))
	}
	for _, s := range state.Skills {
		if s.Level != 1 || s.Progress != 0 || s.MaxLevel != 100 {
			t.Fatalf("unexpected starting skill: %+v", s)
		}
	}

	_, err = svc.CreateCharacter(ctx, demo.ID, application.CreateCharacterInput{Name: "Jordan", Personality: domain.PersonalityRibelle, Look: domain.LookCasual, Avatar: 1})
	if !errors.Is(err, domain.ErrCharacterExists) {
		t.Fatalf("expected ErrCharacterExists, got %v", err)
	}
}

func TestPerformActivityPersists(t *testing.T) {
	ctx := context.Background()
	tables := application.DefaultTables()
	tables.ContactChance = 1
	tables.SkillChance = 1
	svc, demo := newTestService(t, tables)

	if _, err := svc.PerformActivity(ctx, demo.ID, 1); !errors.Is(err, domain.ErrNoCharacter) {
		t.Fatalf("expected ErrNoCharacter, got %v", err)
	}

	createKevin(t, svc, demo.ID)
	state, _ := svc.GetState(ctx, demo.ID)
	gym := activityID(t, state, "Palestra")

	res, err := svc.PerformActivity(ctx, demo.ID, gym)
	if err != nil {
		t.Fatalf("perform: %v", err)
	}
	if res.ID == "" || res.Text == "" {
		t.Fatalf("expected receipt id and text: %+v", res)
	}
	if res.RespectChange != 25 || res.EnergyChange != -30 || res.MoneyChange != 0 {
		t.Fatalf("unexpected deltas: %+v", res)
	}
	if res.NewContact == nil || res.NewContact.ID == 0 {
		t.Fatalf("expected a persisted contact")
	}
	if res.SkillProgress == nil || res.SkillProgress.SkillName != "Forza" {
		t.Fatalf("expected Forza progress, got %+v", res.SkillProgress)
	}

	state, err = svc.GetState(ctx, demo.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.Character.Stats.Respect != 45 || state.Character.Stats.Energy != 70 {
		t.Fatalf("stats not persisted: %+v", state.Character.Stats)
	}
	if state.Clock.Time != "11:00" || state.Clock.HoursLeft != 13 {
		t.Fatalf("clock not persisted: %+v", state.Clock)
	}
	if len(state.Contacts) != 1 {
		t.Fatalf("expected 1 contact, got %d", len(state.Contacts))
	}
	var forza domain.SkillProgress
	for _, s := range state.Skills {
		if s.Name == "Forza" {
			forza = s
		}
	}
	if forza.Progress != res.SkillProgress.Progress {
		t.Fatalf("skill progress not persisted: %+v", forza)
	}

	if _, err := svc.PerformActivity(ctx, demo.ID, 99999); !errors.Is(err, domain.ErrActivityNotFound) {
		t.Fatalf("expected ErrActivityNotFound, got %v", err)
	}
}

func TestNotEnoughTimeLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	svc, demo := newTestService(t, quietTables())
	createKevin(t, svc, demo.ID)

	if _, err := svc.AdvanceTime(ctx, demo.ID, 12); err != nil {
		t.Fatalf("advance: %v", err)
	}
	before, _ := svc.GetState(ctx, demo.ID)
	if before.Clock.Time != "20:00" || before.Clock.HoursLeft != 4 {
		t.Fatalf("unexpected clock: %+v", before.Clock)
	}

	_, err := svc.PerformActivity(ctx, demo.ID, activityID(t, before, "Serata in Discoteca"))
	if !errors.Is(err, domain.ErrNotEnoughTime) {
		t.Fatalf("expected ErrNotEnoughTime, got %v", err)
	}

	after, _ := svc.GetState(ctx, demo.ID)
	if after.Clock.Time != before.Clock.Time || after.Clock.HoursLeft != before.Clock.HoursLeft || after.Character.Stats != before.Character.Stats {
		t.Fatalf("state changed after a rejected activity")
	}
}

func TestAdvanceTime(t *testing.T) {
	ctx := context.Background()
	svc, demo := newTestService(t, quietTables())
	createKevin(t, svc, demo.ID)

	for _, hours := range []int{0, 13, -2} {
		if _, err := svc.AdvanceTime(ctx, demo.ID, hours); !errors.Is(err, domain.ErrInvalidHours) {
			t.Fatalf("expected ErrInvalidHours for %d, got %v", hours, err)
		}
	}

	state, _ := svc.GetState(ctx, demo.ID)
	if _, err := svc.PerformActivity(ctx, demo.ID, activityID(t, state, "Palestra")); err != nil {
		t.Fatalf("perform: %v", err)
	}
	if _, err := svc.AdvanceTime(ctx, demo.ID, 12); err != nil {
		t.Fatalf("advance: %v", err)
	}
	out, err := svc.AdvanceTime(ctx, demo.ID, 2)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if out.DaysRolled != 1 || out.Clock.Day != 2 || out.Clock.Time != "01:00" {
		t.Fatalf("expected rollover to day 2 01:00, got %+v", out)
	}

	state, _ = svc.GetState(ctx, demo.ID)
	if state.Character.Stats.Energy != application.FullEnergy {
		t.Fatalf("energy should refill on rollover, got %d", state.Character.Stats.Energy)
	}
	if len(state.Activities) != 7 {
		t.Fatalf("day 2 unlocks Consegne in Monopattino, got %d activities", len(state.Activities))
	}
}

func TestPurchase(t *testing.T) {
	ctx := context.Background()
	svc, demo := newTestService(t, quietTables())

	shop, err := svc.ListShop(ctx, demo.ID)
	if err != nil {
		t.Fatalf("shop: %v", err)
	}
	var tuta, collana domain.ShopItem
	for _, item := range shop {
		switch item.Name {
		case "Tuta Acetata":
			tuta = item
		case "Collana d'Oro":
			collana = item
		}
	}
	if tuta.ID == 0 || collana.ID == 0 {
		t.Fatalf("catalog items missing: %+v", shop)
	}

	if _, err := svc.Purchase(ctx, demo.ID, tuta.ID); !errors.Is(err, domain.ErrNoCharacter) {
		t.Fatalf("expected ErrNoCharacter, got %v", err)
	}

	createKevin(t, svc, demo.ID)
	res, err := svc.Purchase(ctx, demo.ID, tuta.ID)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if !res.Success || res.NewMoney == nil || *res.NewMoney != 130 {
		t.Fatalf("unexpected purchase result: %+v", res)
	}

	res, err = svc.Purchase(ctx, demo.ID, tuta.ID)
	if !errors.Is(err, domain.ErrItemOwned) || res.Success || res.Message == "" {
		t.Fatalf("expected already owned failure, got %+v %v", res, err)
	}
	if _, err := svc.Purchase(ctx, demo.ID, collana.ID); !errors.Is(err, domain.ErrItemLocked) {
		t.Fatalf("expected ErrItemLocked, got %v", err)
	}
	if _, err := svc.Purchase(ctx, demo.ID, 9999); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}

	state, _ := svc.GetState(ctx, demo.ID)
	if len(state.Inventory) != 1 || state.Inventory[0].Name != "Tuta Acetata" || state.Inventory[0].AcquiredDay != 1 {
		t.Fatalf("unexpected inventory: %+v", state.Inventory)
	}
	if state.Character.Stats.Style != 45 {
		t.Fatalf("tuta should add 10 style, got %d", state.Character.Stats.Style)
	}

	shop, _ = svc.ListShop(ctx, demo.ID)
	for _, item := range shop {
		if item.ID == tuta.ID && !item.Owned {
			t.Fatalf("tuta should be flagged owned")
		}
	}
}

func TestResetClearsCharacterAndKeepsCatalog(t *testing.T) {
	ctx := context.Background()
	tables := application.DefaultTables()
	tables.ContactChance = 1
	svc, demo := newTestService(t, tables)
	createKevin(t, svc, demo.ID)

	state, _ := svc.GetState(ctx, demo.ID)
	if _, err := svc.PerformActivity(ctx, demo.ID, activityID(t, state, "Giro in Motorino")); err != nil {
		t.Fatalf("perform: %v", err)
	}

	clock, err := svc.Reset(ctx, demo.ID)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if clock.Day != 1 || clock.Time != "08:00" || clock.HoursLeft != 16 || clock.GameStarted || clock.CharacterID != nil {
		t.Fatalf("unexpected clock after reset: %+v", clock)
	}

	state, err = svc.GetState(ctx, demo.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.Character != nil || len(state.Contacts) != 0 || len(state.Inventory) != 0 {
		t.Fatalf("character data should be gone: %+v", state)
	}
	if len(state.Activities) != 6 {
		t.Fatalf("catalog should survive reset")
	}

	createKevin(t, svc, demo.ID)
}

func TestAuthAndPermissions(t *testing.T) {
	ctx := context.Background()
	svc, demo := newTestService(t, quietTables())

	again, err := svc.BootstrapDemoPlayer(ctx, "demo@maranzalife.local", "demo")
	if err != nil || again.ID != demo.ID {
		t.Fatalf("bootstrap should return the existing demo player: %v", err)
	}

	if _, _, err := svc.LoginWithSession(ctx, "demo@maranzalife.local", "wrong", time.Hour); !errors.Is(err, domain.ErrInvalidCredential) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	_, token, err := svc.LoginWithSession(ctx, "DEMO@maranzalife.local", "demo", time.Hour)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	identity, err := svc.AuthenticateSession(ctx, token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if identity.User.ID != demo.ID || !svc.Can(identity, application.PermissionAuditRead) {
		t.Fatalf("demo player should be admin: %+v", identity)
	}
	if err := svc.LogoutSession(ctx, token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.AuthenticateSession(ctx, token); err == nil {
		t.Fatalf("session should be gone after logout")
	}

	player, err := svc.Register(ctx, "ilaria@example.com", "pw")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, "ilaria@example.com", "pw"); domain.KindOf(err) != domain.KindConflict {
		t.Fatalf("expected conflict on duplicate email, got %v", err)
	}
	_, apiToken, err := svc.LoginWithAPIToken(ctx, "ilaria@example.com", "pw", "", nil)
	if err != nil {
		t.Fatalf("token login: %v", err)
	}
	identity, err = svc.AuthenticateBearerToken(ctx, apiToken)
	if err != nil {
		t.Fatalf("bearer: %v", err)
	}
	if identity.User.ID != player.ID || !svc.Can(identity, application.PermissionGamePlay) || svc.Can(identity, application.PermissionAuditRead) {
		t.Fatalf("player permissions wrong: %+v", identity.Permissions)
	}

	guest, err := svc.GuestIdentity(ctx, demo.ID)
	if err != nil {
		t.Fatalf("guest: %v", err)
	}
	if guest.User.ID != demo.ID || !svc.Can(guest, application.PermissionGamePlay) || svc.Can(guest, application.PermissionAuditRead) {
		t.Fatalf("guest should only play, got %+v", guest.Permissions)
	}
	if _, err := svc.GuestIdentity(ctx, 9999); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("unknown guest account should be unauthorized, got %v", err)
	}

	// Each player has an independent game.
	createKevin(t, svc, player.ID)
	demoState, _ := svc.GetState(ctx, demo.ID)
	if demoState.Character != nil {
		t.Fatalf("demo player should not see another player's character")
	}

	logs, err := svc.ListAuditLogs(ctx, 0)
	if err != nil || len(logs) == 0 {
		t.Fatalf("expected audit rows, got %d (%v)", len(logs), err)
	}
}
