package apiapp

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ivankudzin/heartsync/internal/config"
	"github.com/ivankudzin/heartsync/internal/migrations"
	pgrepo "github.com/ivankudzin/heartsync/internal/repo/postgres"
	"github.com/ivankudzin/heartsync/internal/repo/sqlite"
	authsvc "github.com/ivankudzin/heartsync/internal/services/auth"
	chatsvc "github.com/ivankudzin/heartsync/internal/services/chat"
	feedsvc "github.com/ivankudzin/heartsync/internal/services/feed"
	matchessvc "github.com/ivankudzin/heartsync/internal/services/matches"
	profilesvc "github.com/ivankudzin/heartsync/internal/services/profiles"
	swipesvc "github.com/ivankudzin/heartsync/internal/services/swipes"
)

type profileStore interface {
	profilesvc.ProfileStore
	swipesvc.ProfileChecker
}

type matchStore interface {
	swipesvc.MatchStore
	chatsvc.MatchStore
	matchessvc.MatchStore
}

// Storage is the set of repositories of one backend.
type Storage struct {
	Users    authsvc.UserStore
	Profiles profileStore
	Swipes   swipesvc.SwipeStore
	Matches  matchStore
	Messages chatsvc.MessageStore
	Feed     feedsvc.Repository

	ping  func(context.Context) error
	close func()
}

func (s *Storage) Ping(ctx context.Context) error {
	if s == nil || s.ping == nil {
		return fmt.Errorf("storage is not configured")
	}
	return s.ping(ctx)
}

func (s *Storage) Close() {
	if s != nil && s.close != nil {
		s.close()
	}
}

// OpenStorage applies migrations when configured and opens the repositories
// of cfg.Storage.Driver.
func OpenStorage(ctx context.Context, cfg config.Config, log *zap.Logger) (*Storage, error) {
	if cfg.Storage.AutoMigrate {
		if err := migrate(cfg, log); err != nil {
			return nil, err
		}
	}

	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		return &Storage{
			Users:    pgrepo.NewUserRepo(pool),
			Profiles: pgrepo.NewProfileRepo(pool),
			Swipes:   pgrepo.NewSwipeRepo(pool),
			Matches:  pgrepo.NewMatchRepo(pool),
			Messages: pgrepo.NewMessageRepo(pool),
			Feed:     pgrepo.NewFeedRepo(pool),
			ping:     pool.Ping,
			close:    pool.Close,
		}, nil
	case config.StorageDriverSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return &Storage{
			Users:    sqlite.NewUserRepo(db),
			Profiles: sqlite.NewProfileRepo(db),
			Swipes:   sqlite.NewSwipeRepo(db),
			Matches:  sqlite.NewMatchRepo(db),
			Messages: sqlite.NewMessageRepo(db),
			Feed:     sqlite.NewFeedRepo(db),
			ping:     db.PingContext,
			close:    func() { _ = db.Close() },
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func migrate(cfg config.Config, log *zap.Logger) error {
	dsn := cfg.Postgres.DSN
	if cfg.Storage.Driver == config.StorageDriverSQLite {
		dsn = cfg.SQLite.Path
	}
	runner, err := migrations.New(cfg.Storage.Driver, dsn, log)
	if err != nil {
		return err
	}
	defer runner.Close()

	if err := runner.Up(); err != nil {
		return err
	}
	return nil
}
