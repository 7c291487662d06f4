package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/atvirokodosprendimai/maranzalife/internal/application"
	"github.com/atvirokodosprendimai/maranzalife/internal/domain"
	"github.com/atvirokodosprendimai/maranzalife/internal/ui"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/starfederation/datastar-go/datastar"
)

const sessionCookieName = "mz_session"

type contextKey string

const identityKey contextKey = "identity"

// Options configures the router. GuestUserID is the account anonymous
// requests play as, limited to game.play; zero disables guest access.
type Options struct {
	GuestUserID uint
}

type Handler struct {
	service *application.GameService
	opts    Options
}

func NewRouter(service *application.GameService, opts Options) http.Handler {
	h := &Handler{service: service, opts: opts}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(tracing)

	r.Get("/login", h.handleLoginPage)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)

	r.Route("/game", func(game chi.Router) {
		game.Use(h.requireAuthAPI(application.PermissionGamePlay))
		game.Get("/state", h.handleGetState)
		game.Post("/character", h.handleCreateCharacter)
		game.Post("/activity/{id}", h.handlePerformActivity)
		game.Get("/activity/{id}/sub-activities", h.handleListSubActivities)
		game.Post("/advance-time", h.handleAdvanceTime)
		game.Post("/reset", h.handleReset)
		game.Get("/shop", h.handleListShop)
		game.Post("/shop/purchase", h.handlePurchase)
	})

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/login", h.handleAPILogin)
		api.Post("/auth/register", h.handleAPIRegister)
		api.With(h.requireAuthAPI(application.PermissionGamePlay)).Get("/auth/whoami", h.handleAPIWhoAmI)
		api.With(h.requireAuthAPI(application.PermissionGamePlay)).Post("/auth/logout", h.handleAPILogout)
		api.With(h.requireAuthAPI(application.PermissionAuditRead)).Get("/admin/audit", h.handleAPIListAuditLogs)
		api.With(h.requireAuthAPI(application.PermissionAuditRead)).Get("/admin/roles", h.handleAPIListRoles)
	})

	r.With(h.requireAuthGUI(application.PermissionGamePlay)).Get("/", h.handleDashboard)
	r.With(h.requireAuthGUI(application.PermissionGamePlay)).Post("/ui/activity", h.handleUIActivity)
	r.With(h.requireAuthGUI(application.PermissionGamePlay)).Post("/ui/advance", h.handleUIAdvance)

	return r
}

func (h *Handler) handleGetState(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.GetState(r.Context(), currentUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) handleCreateCharacter(w http.ResponseWriter, r *http.Request) {
	var req application.CreateCharacterInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	character, err := h.service.CreateCharacter(r.Context(), currentUserID(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, character)
}

func (h *Handler) handlePerformActivity(w http.ResponseWriter, r *http.Request) {
	id, err := parseUintParam(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "activity id must be a positive integer"})
		return
	}
	result, err := h.service.PerformActivity(r.Context(), currentUserID(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleListSubActivities(w http.ResponseWriter, r *http.Request) {
	id, err := parseUintParam(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "activity id must be a positive integer"})
		return
	}
	items, err := h.service.ListSubActivities(r.Context(), currentUserID(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type advanceTimeRequest struct {
	Hours int `json:"hours"`
}

func (h *Handler) handleAdvanceTime(w http.ResponseWriter, r *http.Request) {
	var req advanceTimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	result, err := h.service.AdvanceTime(r.Context(), currentUserID(r.Context()), req.Hours)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	clock, err := h.service.Reset(r.Context(), currentUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Gioco resettato", "clock": clock})
}

func (h *Handler) handleListShop(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListShop(r.Context(), currentUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type purchaseRequest struct {
	ItemID uint `json:"itemId"`
}

func (h *Handler) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ItemID == 0 {
		writeJSON(w, http.StatusBadRequest, application.PurchaseResult{Success: false, Message: "invalid payload"})
		return
	}
	result, err := h.service.Purchase(r.Context(), currentUserID(r.Context()), req.ItemID)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			log.Printf("purchase item %d: %v", req.ItemID, err)
		}
		writeJSON(w, status, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if err := ui.LoginPage("").Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.Form.Get("email"))
	password := r.Form.Get("password")

	_, token, err := h.service.LoginWithSession(r.Context(), email, password, 12*time.Hour)
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		_ = ui.LoginPage("credenziali non valide").Render(r.Context(), w)
		return
	}

	h.setSessionCookie(w, token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(sessionCookieName)
	if err == nil && c.Value != "" {
		_ = h.service.LogoutSession(r.Context(), c.Value)
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.GetState(r.Context(), currentUserID(r.Context()))
	if err != nil {
		log.Printf("dashboard state: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := ui.DashboardPage(currentUserEmail(r.Context()), state).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type activitySignals struct {
	ActivityID json.Number `json:"activityId"`
}

func (h *Handler) handleUIActivity(w http.ResponseWriter, r *http.Request) {
	var sig activitySignals
	if err := datastar.ReadSignals(r, &sig); err != nil {
		renderFlash(r.Context(), w, http.StatusBadRequest, "invalid signals")
		return
	}
	id, err := parseUintParam(sig.ActivityID.String())
	if err != nil {
		renderFlash(r.Context(), w, http.StatusBadRequest, "scegli un'attivita")
		return
	}

	userID := currentUserID(r.Context())
	result, err := h.service.PerformActivity(r.Context(), userID, id)
	if err != nil {
		renderFlash(r.Context(), w, statusFor(err), application.PublicMessage(err))
		return
	}
	state, err := h.service.GetState(r.Context(), userID)
	if err != nil {
		renderFlash(r.Context(), w, http.StatusInternalServerError, "internal error")
		return
	}
	renderHTMLFragments(r.Context(), w, http.StatusOK,
		ui.Flash("", "info"),
		ui.ActivityResultCard(&result),
		ui.ClockBar(state.Clock),
		ui.StatsPanel(state.Character),
		ui.ActivityList(state.Activities, state.Character != nil),
		ui.ContactsList(state.Contacts),
	)
}

type advanceSignals struct {
	Hours json.Number `json:"hours"`
}

func (h *Handler) handleUIAdvance(w http.ResponseWriter, r *http.Request) {
	var sig advanceSignals
	if err := datastar.ReadSignals(r, &sig); err != nil {
		renderFlash(r.Context(), w, http.StatusBadRequest, "invalid signals")
		return
	}
	hours, err := strconv.Atoi(strings.TrimSpace(sig.Hours.String()))
	if err != nil {
		renderFlash(r.Context(), w, http.StatusBadRequest, domain.ErrInvalidHours.Message)
		return
	}

	userID := currentUserID(r.Context())
	result, err := h.service.AdvanceTime(r.Context(), userID, hours)
	if err != nil {
		renderFlash(r.Context(), w, statusFor(err), application.PublicMessage(err))
		return
	}
	state, err := h.service.GetState(r.Context(), userID)
	if err != nil {
		renderFlash(r.Context(), w, http.StatusInternalServerError, "internal error")
		return
	}
	renderHTMLFragments(r.Context(), w, http.StatusOK,
		ui.Flash(result.Message, "info"),
		ui.ClockBar(state.Clock),
		ui.StatsPanel(state.Character),
		ui.ActivityList(state.Activities, state.Character != nil),
	)
}

type apiLoginRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Mode      string `json:"mode"`
	TokenName string `json:"token_name"`
}

func (h *Handler) handleAPILogin(w http.ResponseWriter, r *http.Request) {
	var req apiLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	mode := strings.ToLower(strings.TrimSpace(req.Mode))
	if mode == "" {
		mode = "token"
	}

	if mode == "session" {
		u, token, err := h.service.LoginWithSession(r.Context(), req.Email, req.Password, 12*time.Hour)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid credentials"})
			return
		}
		h.setSessionCookie(w, token)
		writeJSON(w, http.StatusOK, map[string]any{"user_id": u.ID, "email": u.Email, "mode": "session"})
		return
	}

	u, token, err := h.service.LoginWithAPIToken(r.Context(), req.Email, req.Password, req.TokenName, nil)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_id": u.ID, "email": u.Email, "token": token, "mode": "token"})
}

type apiRegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleAPIRegister(w http.ResponseWriter, r *http.Request) {
	var req apiRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	u, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *Handler) handleAPIWhoAmI(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
		return
	}
	perms := make([]string, 0, len(identity.Permissions))
	for p := range identity.Permissions {
		perms = append(perms, p)
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": identity.User.ID, "email": identity.User.Email, "permissions": perms})
}

func (h *Handler) handleAPILogout(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}
	c, err := r.Cookie(sessionCookieName)
	if err == nil && c.Value != "" {
		_ = h.service.LogoutSession(r.Context(), c.Value)
		h.clearSessionCookie(w)
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) handleAPIListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.service.ListAuditLogs(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleAPIListRoles(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListRoles(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func parseUintParam(raw string) (uint, error) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(parsed), nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// statusFor maps a domain error kind to an HTTP status.
func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindInvalid, domain.KindPrecondition, domain.KindConflict:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
	}
	writeJSON(w, status, map[string]any{"error": application.PublicMessage(err)})
}

func renderHTMLFragments(ctx context.Context, w http.ResponseWriter, status int, fragments ...templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	for _, fragment := range fragments {
		if fragment == nil {
			continue
		}
		_ = fragment.Render(ctx, w)
	}
}

func renderFlash(ctx context.Context, w http.ResponseWriter, status int, message string) {
	level := "info"
	if status >= 400 {
		level = "error"
	}
	renderHTMLFragments(ctx, w, status, ui.Flash(message, level))
}
