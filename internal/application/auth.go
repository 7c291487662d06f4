package application

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atvirokodosprendimai/maranzalife/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

const (
	RoleAdmin  = "admin"
	RolePlayer = "player"

	PermissionAll       = "*"
	PermissionGamePlay  = "game.play"
	PermissionAuditRead = "audit.read"
)

// BootstrapDemoPlayer creates the demo user, roles and permissions on an
// empty database and returns the demo user either way.
func (s *GameService) BootstrapDemoPlayer(ctx context.Context, email, password string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return domain.User{}, errors.New("demo player email and password are required")
	}

	count, err := s.repo.CountUsers(ctx)
	if err != nil {
		return domain.User{}, err
	}
	if count > 0 {
		u, err := s.repo.GetUserByEmail(ctx, email)
		if err != nil {
			return domain.User{}, fmt.Errorf("demo player %s: %w", email, err)
		}
		return u, nil
	}

	hash, err := hashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	var u domain.User
	err = s.repo.InTx(ctx, func(tx domain.GameRepository) error {
		u, err = tx.CreateUser(ctx, domain.User{Email: email, PasswordHash: hash})
		if err != nil {
			return err
		}
		adminRoleID, err := ensureRole(ctx, tx, RoleAdmin, "Administrator", PermissionAll)
		if err != nil {
			return err
		}
		if _, err := ensureRole(ctx, tx, RolePlayer, "Player", PermissionGamePlay); err != nil {
			return err
		}
		if err := tx.AssignRoleToUser(ctx, u.ID, adminRoleID); err != nil {
			return err
		}
		if _, err := ensureClock(ctx, tx, u.ID); err != nil {
			return err
		}
		return tx.CreateAuditLog(ctx, domain.AuditLog{ActorUserID: &u.ID, Action: "auth.bootstrap_demo", TargetType: "user", TargetID: &u.ID, Metadata: "demo player created"})
	})
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func ensureRole(ctx context.Context, repo domain.GameRepository, key, name string, permissions ...string) (uint, error) {
	roleID, err := repo.CreateRoleIfMissing(ctx, key, name)
	if err != nil {
		return 0, err
	}
	for _, p := range permissions {
		permID, err := repo.CreatePermissionIfMissing(ctx, p)
		if err != nil {
			return 0, err
		}
		if err := repo.GrantPermissionToRole(ctx, roleID, permID); err != nil {
			return 0, err
		}
	}
	return roleID, nil
}

// Register creates a player account with its own clock.
func (s *GameService) Register(ctx context.Context, email, password string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return domain.User{}, domain.Invalid("email and password are required")
	}
	if !strings.Contains(email, "@") {
		return domain.User{}, domain.Invalid("email is not valid")
	}
	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return domain.User{}, domain.NewError(domain.KindConflict, "email already registered")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	var u domain.User
	err = s.repo.InTx(ctx, func(tx domain.GameRepository) error {
		u, err = tx.CreateUser(ctx, domain.User{Email: email, PasswordHash: hash})
		if err != nil {
			return err
		}
		roleID, err := ensureRole(ctx, tx, RolePlayer, "Player", PermissionGamePlay)
		if err != nil {
			return err
		}
		if err := tx.AssignRoleToUser(ctx, u.ID, roleID); err != nil {
			return err
		}
		_, err = ensureClock(ctx, tx, u.ID)
		return err
	})
	if err != nil {
		return domain.User{}, err
	}

	s.WriteAudit(ctx, &u.ID, "auth.register", "user", &u.ID, email)
	return u, nil
}

func (s *GameService) LoginWithSession(ctx context.Context, email, password string, ttl time.Duration) (domain.User, string, error) {
	u, err := s.authenticateEmailPassword(ctx, email, password)
	if err != nil {
		return domain.User{}, "", err
	}

	plain, hash, err := newTokenPair()
	if err != nil {
		return domain.User{}, "", err
	}

	_, err = s.repo.CreateSession(ctx, domain.AuthSession{
		UserID:    u.ID,
		TokenHash: hash,
		ExpiresAt: time.Now().UTC().Add(ttl),
	})
	if err != nil {
		return domain.User{}, "", err
	}

	s.WriteAudit(ctx, &u.ID, "auth.login.session", "user", &u.ID, "session login")
	return u, plain, nil
}

func (s *GameService) LoginWithAPIToken(ctx context.Context, email, password, tokenName string, ttl *time.Duration) (domain.User, string, error) {
	u, err := s.authenticateEmailPassword(ctx, email, password)
	if err != nil {
		return domain.User{}, "", err
	}

	plain, hash, err := newTokenPair()
	if err != nil {
		return domain.User{}, "", err
	}

	var expiresAt *time.Time
	if ttl != nil {
		t := time.Now().UTC().Add(*ttl)
		expiresAt = &t
	}

	_, err = s.repo.CreateAPIToken(ctx, domain.APIToken{
		UserID:    u.ID,
		Name:      defaultString(tokenName, "cli"),
		TokenHash: hash,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return domain.User{}, "", err
	}

	s.WriteAudit(ctx, &u.ID, "auth.login.api_token", "user", &u.ID, "api token issued")
	return u, plain, nil
}

// AuthenticateSession resolves a browser session cookie. Expired sessions
// are removed on sight.
func (s *GameService) AuthenticateSession(ctx context.Context, token string) (domain.Identity, error) {
	hash := hashToken(token)
	session, err := s.repo.GetSessionByTokenHash(ctx, hash)
	if err != nil {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	if expired(&session.ExpiresAt) {
		_ = s.repo.DeleteSessionByTokenHash(ctx, hash)
		return domain.Identity{}, domain.NewError(domain.KindUnauthorized, "session expired")
	}
	return s.playerIdentity(ctx, session.UserID, nil)
}

// AuthenticateBearerToken resolves an API token issued by LoginWithAPIToken.
func (s *GameService) AuthenticateBearerToken(ctx context.Context, token string) (domain.Identity, error) {
	apit, err := s.repo.GetAPITokenByTokenHash(ctx, hashToken(token))
	if err != nil {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	if expired(apit.ExpiresAt) {
		return domain.Identity{}, domain.NewError(domain.KindUnauthorized, "token expired")
	}
	return s.playerIdentity(ctx, apit.UserID, nil)
}

// GuestIdentity plays as userID without logging in. Whatever roles the
// account holds, a guest may only play.
func (s *GameService) GuestIdentity(ctx context.Context, userID uint) (domain.Identity, error) {
	return s.playerIdentity(ctx, userID, []string{PermissionGamePlay})
}

func (s *GameService) LogoutSession(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return s.repo.DeleteSessionByTokenHash(ctx, hashToken(token))
}

func (s *GameService) Can(identity domain.Identity, permission string) bool {
	if _, ok := identity.Permissions[PermissionAll]; ok {
		return true
	}
	_, ok := identity.Permissions[permission]
	return ok
}

// WriteAudit is best effort; audit failures never fail the game action.
func (s *GameService) WriteAudit(ctx context.Context, actorUserID *uint, action, targetType string, targetID *uint, metadata string) {
	_ = s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ActorUserID: actorUserID,
		Action:      action,
		TargetType:  targetType,
		TargetID:    targetID,
		Metadata:    metadata,
	})
}

func (s *GameService) ListRoles(ctx context.Context) ([]domain.Role, error) {
	return s.repo.ListRoles(ctx)
}

func (s *GameService) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditRecord, error) {
	if limit <= 0 {
		limit = 200
	}
	if limit > 2000 {
		limit = 2000
	}
	return s.repo.ListAuditLogs(ctx, limit)
}

// playerIdentity loads the account behind a credential. A nil grant means
// the account's own role permissions apply.
func (s *GameService) playerIdentity(ctx context.Context, userID uint, grant []string) (domain.Identity, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	if grant == nil {
		grant, err = s.repo.GetPermissionsByUserID(ctx, userID)
		if err != nil {
			return domain.Identity{}, err
		}
	}
	perms := make(map[string]struct{}, len(grant))
	for _, p := range grant {
		perms[p] = struct{}{}
	}
	return domain.Identity{User: u, Permissions: perms}, nil
}

func expired(at *time.Time) bool {
	return at != nil && at.Before(time.Now().UTC())
}

func (s *GameService) authenticateEmailPassword(ctx context.Context, email, password string) (domain.User, error) {
	u, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return domain.User{}, domain.ErrInvalidCredential
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, domain.ErrInvalidCredential
	}
	return u, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func newTokenPair() (string, string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	plain := base64.RawURLEncoding.EncodeToString(raw)
	return plain, hashToken(plain), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", sum[:])
}

func defaultString(input, fallback string) string {
	if strings.TrimSpace(input) == "" {
		return fallback
	}
	return input
}
