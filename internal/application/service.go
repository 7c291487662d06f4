package application

import (
	"context"
	"errors"
	"sync"

	"github.com/atvirokodosprendimai/maranzalife/internal/domain"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/atvirokodosprendimai/maranzalife/internal/application")

type GameService struct {
	repo     domain.GameRepository
	resolver *Resolver
	catalog  Catalog
	locks    userLocks
}

func NewGameService(repo domain.GameRepository, resolver *Resolver) *GameService {
	return &GameService{
		repo:     repo,
		resolver: resolver,
		catalog:  DefaultCatalog(),
	}
}

// WithCatalog replaces the catalog used by SeedCatalog.
func (s *GameService) WithCatalog(c Catalog) *GameService {
	s.catalog = c
	return s
}

// userLocks serialises read-modify-write cycles per user.
type userLocks struct {
	mu    sync.Mutex
	byKey map[uint]*sync.Mutex
}

func (l *userLocks) lock(userID uint) func() {
	l.mu.Lock()
	if l.byKey == nil {
		l.byKey = make(map[uint]*sync.Mutex)
	}
	m, ok := l.byKey[userID]
	if !ok {
		m = &sync.Mutex{}
		l.byKey[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func ensureClock(ctx context.Context, repo domain.GameRepository, userID uint) (domain.GameClock, error) {
	clock, err := repo.GetClock(ctx, userID)
	if err == nil {
		return clock, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.GameClock{}, err
	}
	return repo.SaveClock(ctx, domain.NewGameClock(userID))
}

func activeCharacter(ctx context.Context, repo domain.GameRepository, clock domain.GameClock) (domain.Character, error) {
	if clock.CharacterID == nil {
		return domain.Character{}, domain.ErrNoCharacter
	}
	character, err := repo.GetCharacter(ctx, *clock.CharacterID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Character{}, domain.ErrNoCharacter
	}
	return character, err
}
