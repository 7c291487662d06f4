package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/atvirokodosprendimai/maranzalife/internal/adapters/db/sqlite"
	"github.com/atvirokodosprendimai/maranzalife/internal/application"
	"github.com/atvirokodosprendimai/maranzalife/internal/domain"
)

func newTestRouter(t *testing.T, guest bool) (http.Handler, domain.User) {
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

	tables := application.DefaultTables()
	tables.ContactChance = 0
	tables.SkillChance = 0
	svc := application.NewGameService(sqlite.NewGameRepository(db), application.NewResolver(tables, 3))
	if err := svc.SeedCatalog(ctx); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	demo, err := svc.BootstrapDemoPlayer(ctx, "demo@maranzalife.local", "demo")
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	opts := Options{}
	if guest {
		opts.GuestUserID = demo.ID
	}
	return NewRouter(svc, opts), demo
}

func doReq(t *testing.T, h http.Handler, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func findActivity(t *testing.T, state domain.GameState, title string) uint {
	t.Helper()
	for _, a := range state.Activities {
		if a.Title == title {
			return a.ID
		}
	}
	t.Fatalf("activity %q missing", title)
	return 0
}

func TestGameRequiresAuthWithoutGuest(t *testing.T) {
	h, _ := newTestRouter(t, false)
	rec := doReq(t, h, http.MethodGet, "/game/state", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGameFlowAsGuest(t *testing.T) {
	h, _ := newTestRouter(t, true)

	rec := doReq(t, h, http.MethodGet, "/game/state", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("state: %d %s", rec.Code, rec.Body.String())
	}
	state := decode[domain.GameState](t, rec)
	if state.Character != nil || state.Clock.Day != 1 || state.Clock.HoursLeft != 16 {
		t.Fatalf("unexpected initial state: %+v", state)
	}

	rec = doReq(t, h, http.MethodPost, "/game/character", application.CreateCharacterInput{
		Name: "Kevin", Personality: domain.PersonalityAudace, Look: domain.LookFirmato, Avatar: 2,
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create character: %d %s", rec.Code, rec.Body.String())
	}

	rec = doReq(t, h, http.MethodPost, "/game/character", application.CreateCharacterInput{
		Name: "Altro", Personality: domain.PersonalityRibelle, Look: domain.LookCasual, Avatar: 1,
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("second character should conflict, got %d", rec.Code)
	}

	palestra := findActivity(t, state, "Palestra")
	rec = doReq(t, h, http.MethodPost, "/game/activity/"+strconv.FormatUint(uint64(palestra), 10), nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("activity: %d %s", rec.Code, rec.Body.String())
	}
	result := decode[application.ActivityResult](t, rec)
	if result.RespectChange != 25 || result.EnergyChange != -30 || result.Clock.Time != "11:00" {
		t.Fatalf("unexpected activity result: %+v", result)
	}

	rec = doReq(t, h, http.MethodPost, "/game/advance-time", map[string]int{"hours": 13}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("13 hours should be rejected, got %d", rec.Code)
	}
	rec = doReq(t, h, http.MethodPost, "/game/advance-time", map[string]int{"hours": 2}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("advance: %d %s", rec.Code, rec.Body.String())
	}
	advanced := decode[application.AdvanceResult](t, rec)
	if advanced.Clock.Time != "13:00" || advanced.Message != "Tempo avanzato di 2 ore" {
		t.Fatalf("unexpected advance: %+v", advanced)
	}

	rec = doReq(t, h, http.MethodPost, "/game/reset", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset: %d", rec.Code)
	}
	rec = doReq(t, h, http.MethodGet, "/game/state", nil, nil)
	state = decode[domain.GameState](t, rec)
	if state.Character != nil || state.Clock.Time != "08:00" {
		t.Fatalf("reset did not clear the game: %+v", state)
	}
}

func TestActivityErrors(t *testing.T) {
	h, _ := newTestRouter(t, true)

	rec := doReq(t, h, http.MethodPost, "/game/activity/abc", nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id should be 400, got %d", rec.Code)
	}
	rec = doReq(t, h, http.MethodPost, "/game/activity/1", nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("no character should be 400, got %d", rec.Code)
	}

	doReq(t, h, http.MethodPost, "/game/character", application.CreateCharacterInput{
		Name: "Kevin", Personality: domain.PersonalityAudace, Look: domain.LookCasual, Avatar: 1,
	}, nil)
	rec = doReq(t, h, http.MethodPost, "/game/activity/99999", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown activity should be 404, got %d", rec.Code)
	}
}

func TestShopPurchase(t *testing.T) {
	h, _ := newTestRouter(t, true)

	rec := doReq(t, h, http.MethodPost, "/game/shop/purchase", map[string]uint{"itemId": 1}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("purchase without character should fail, got %d", rec.Code)
	}
	failed := decode[application.PurchaseResult](t, rec)
	if failed.Success || failed.Message == "" {
		t.Fatalf("unexpected failure body: %+v", failed)
	}

	doReq(t, h, http.MethodPost, "/game/character", application.CreateCharacterInput{
		Name: "Kevin", Personality: domain.PersonalityCarismatico, Look: domain.LookFirmato, Avatar: 4,
	}, nil)

	rec = doReq(t, h, http.MethodGet, "/game/shop", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("shop: %d", rec.Code)
	}
	items := decode[[]domain.ShopItem](t, rec)
	var cheapest domain.ShopItem
	for _, it := range items {
		if it.Available && (cheapest.ID == 0 || it.Price < cheapest.Price) {
			cheapest = it
		}
	}
	if cheapest.ID == 0 {
		t.Fatalf("no available items in %+v", items)
	}

	rec = doReq(t, h, http.MethodPost, "/game/shop/purchase", map[string]uint{"itemId": cheapest.ID}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("purchase: %d %s", rec.Code, rec.Body.String())
	}
	ok := decode[application.PurchaseResult](t, rec)
	if !ok.Success || ok.NewMoney == nil {
		t.Fatalf("unexpected purchase result: %+v", ok)
	}

	rec = doReq(t, h, http.MethodPost, "/game/shop/purchase", map[string]uint{"itemId": cheapest.ID}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("buying twice should fail, got %d", rec.Code)
	}
}

func TestAPILoginAndAudit(t *testing.T) {
	h, _ := newTestRouter(t, false)

	rec := doReq(t, h, http.MethodPost, "/api/auth/login", map[string]string{"email": "demo@maranzalife.local", "password": "nope"}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password should be 401, got %d", rec.Code)
	}

	rec = doReq(t, h, http.MethodPost, "/api/auth/login", map[string]string{"email": "demo@maranzalife.local", "password": "demo"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	login := decode[map[string]any](t, rec)
	token, _ := login["token"].(string)
	if token == "" {
		t.Fatalf("expected a token: %+v", login)
	}
	auth := http.Header{"Authorization": []string{"Bearer " + token}}

	rec = doReq(t, h, http.MethodGet, "/api/auth/whoami", nil, auth)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "demo@maranzalife.local") {
		t.Fatalf("whoami: %d %s", rec.Code, rec.Body.String())
	}

	rec = doReq(t, h, http.MethodGet, "/api/admin/audit?limit=10", nil, auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("audit: %d %s", rec.Code, rec.Body.String())
	}
	if logs := decode[[]map[string]any](t, rec); len(logs) == 0 {
		t.Fatalf("expected audit rows")
	}
}

func TestRegisteredPlayerCannotReadAudit(t *testing.T) {
	h, _ := newTestRouter(t, false)

	rec := doReq(t, h, http.MethodPost, "/api/auth/register", map[string]string{"email": "nuovo@maranzalife.local", "password": "segreta"}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rec.Code, rec.Body.String())
	}
	rec = doReq(t, h, http.MethodPost, "/api/auth/register", map[string]string{"email": "nuovo@maranzalife.local", "password": "segreta"}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register should fail, got %d", rec.Code)
	}

	rec = doReq(t, h, http.MethodPost, "/api/auth/login", map[string]string{"email": "nuovo@maranzalife.local", "password": "segreta"}, nil)
	token, _ := decode[map[string]any](t, rec)["token"].(string)
	auth := http.Header{"Authorization": []string{"Bearer " + token}}

	rec = doReq(t, h, http.MethodGet, "/game/state", nil, auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("player should play, got %d", rec.Code)
	}
	rec = doReq(t, h, http.MethodGet, "/api/admin/audit", nil, auth)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("player should not read audit, got %d", rec.Code)
	}
}

func TestGuestCannotReadAdmin(t *testing.T) {
	h, _ := newTestRouter(t, true)

	for _, path := range []string{"/api/admin/audit", "/api/admin/roles"} {
		rec := doReq(t, h, http.MethodGet, path, nil, nil)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("guest %s: expected 403, got %d", path, rec.Code)
		}
	}

	rec := doReq(t, h, http.MethodPost, "/api/auth/login", map[string]string{"email": "demo@maranzalife.local", "password": "demo"}, nil)
	token, _ := decode[map[string]any](t, rec)["token"].(string)
	rec = doReq(t, h, http.MethodGet, "/api/admin/roles", nil, http.Header{"Authorization": []string{"Bearer " + token}})
	if rec.Code != http.StatusOK {
		t.Fatalf("logged in admin should list roles, got %d", rec.Code)
	}
}

func TestInvalidCredentialsDoNotFallBackToGuest(t *testing.T) {
	h, _ := newTestRouter(t, true)

	cases := []struct {
		name   string
		header http.Header
	}{
		{"unknown bearer", http.Header{"Authorization": []string{"Bearer bogus"}}},
		{"empty bearer", http.Header{"Authorization": []string{"Bearer "}}},
		{"unknown session", http.Header{"Cookie": []string{sessionCookieName + "=bogus"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doReq(t, h, http.MethodGet, "/game/state", nil, tc.header)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d %s", rec.Code, rec.Body.String())
			}
		})
	}

	rec := doReq(t, h, http.MethodGet, "/", nil, http.Header{"Cookie": []string{sessionCookieName + "=bogus"}})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Fatalf("dashboard with stale cookie: %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if !strings.Contains(rec.Header().Get("Set-Cookie"), sessionCookieName+"=;") {
		t.Fatalf("stale cookie should be cleared, got %q", rec.Header().Get("Set-Cookie"))
	}
}

func TestDashboardRendersFragments(t *testing.T) {
	h, _ := newTestRouter(t, true)

	rec := doReq(t, h, http.MethodGet, "/", nil, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `id="activities"`) {
		t.Fatalf("dashboard: %d", rec.Code)
	}

	rec = doReq(t, h, http.MethodPost, "/ui/advance", map[string]any{"hours": 3}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ui advance: %d %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Tempo avanzato di 3 ore") || !strings.Contains(body, "11:00") {
		t.Fatalf("unexpected fragments: %s", body)
	}

	rec = doReq(t, h, http.MethodPost, "/ui/activity", map[string]any{"activityId": "1"}, nil)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "flash-error") {
		t.Fatalf("activity without character should flash an error, got %d", rec.Code)
	}
}

func TestSubActivities(t *testing.T) {
	h, _ := newTestRouter(t, true)

	state := decode[domain.GameState](t, doReq(t, h, http.MethodGet, "/game/state", nil, nil))
	palestra := findActivity(t, state, "Palestra")

	rec := doReq(t, h, http.MethodGet, "/game/activity/"+strconv.FormatUint(uint64(palestra), 10)+"/sub-activities", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("sub-activities: %d %s", rec.Code, rec.Body.String())
	}
	subs := decode[[]domain.Activity](t, rec)
	if len(subs) == 0 {
		t.Fatalf("expected Palestra sub-activities")
	}
	for _, sub := range subs {
		if sub.ParentID == nil || *sub.ParentID != palestra {
			t.Fatalf("sub-activity %q has parent %v", sub.Title, sub.ParentID)
		}
	}

	doReq(t, h, http.MethodPost, "/game/character", application.CreateCharacterInput{
		Name: "Kevin", Personality: domain.PersonalityAudace, Look: domain.LookCasual, Avatar: 1,
	}, nil)
	rec = doReq(t, h, http.MethodPost, "/game/activity/"+strconv.FormatUint(uint64(subs[0].ID), 10), nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("sub-activity resolves like any activity, got %d %s", rec.Code, rec.Body.String())
	}

	rec = doReq(t, h, http.MethodGet, "/game/activity/99999/sub-activities", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown parent should be 404, got %d", rec.Code)
	}
}
