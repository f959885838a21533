// Package seed loads a fixed set of demo accounts. Accounts whose email is
// already registered are left alone, so running it twice is harmless.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ivankudzin/heartsync/internal/domain/model"
	"github.com/ivankudzin/heartsync/internal/domain/rules"
	"github.com/ivankudzin/heartsync/internal/repo/repoerr"
)

const DefaultPassword = "password123"

type UserStore interface {
	CreateWithProfile(ctx context.Context, email, passwordHash string, profile model.Profile, now time.Time) (model.User, model.Profile, error)
}

type Account struct {
	Email   string
	Profile model.Profile
}

type Result struct {
	Created int
	Skipped int
}

func DefaultAccounts() []Account {
	return []Account{
		demoAccount("alice@example.com", "Alice", 24, "Nature lover and hiker",
			"https://images.unsplash.com/photo-1494790108377-be9c29b29330?w=400&h=600&fit=crop", "hiking", "photography"),
		demoAccount("bob@example.com", "Bob", 27, "Coffee is life",
			"https://images.unsplash.com/photo-1500648767791-00dcc994a43e?w=400&h=600&fit=crop", "coffee", "coding"),
		demoAccount("charlie@example.com", "Charlie", 22, "Student and gamer",
			"https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?w=400&h=600&fit=crop", "gaming", "anime"),
		demoAccount("diana@example.com", "Diana", 26, "Avid reader and traveler",
			"https://images.unsplash.com/photo-1438761681033-6461ffad8d80?w=400&h=600&fit=crop", "reading", "travel"),
		demoAccount("eve@example.com", "Eve", 25, "Artist and dreamer",
			"https://images.unsplash.com/photo-1544005313-94ddf0286df2?w=400&h=600&fit=crop", "art", "music"),
	}
}

func demoAccount(email, name string, age int, bio, imageURL string, interests ...string) Account {
	return Account{
		Email: email,
		Profile: model.Profile{
			DisplayName: name,
			Age:         age,
			Bio:         &bio,
			ImageRef:    &imageURL,
			Interests:   interests,
		},
	}
}

// Run creates every account with the same password.
func Run(ctx context.Context, users UserStore, accounts []Account, password string, bcryptCost int, log *zap.Logger) (Result, error) {
	if users == nil {
		return Result{}, fmt.Errorf("user store is not configured")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return Result{}, fmt.Errorf("hash password: %w", err)
	}

	var res Result
	now := time.Now().UTC()
	for _, account := range accounts {
		email := rules.NormalizeEmail(account.Email)
		user, _, err := users.CreateWithProfile(ctx, email, string(hash), account.Profile, now)
		if err != nil {
			if errors.Is(err, repoerr.ErrConflict) {
				res.Skipped++
				log.Info("seed account exists", zap.String("email", email))
				continue
			}
			return res, fmt.Errorf("seed %s: %w", email, err)
		}
		res.Created++
		log.Info("seed account created", zap.String("email", email), zap.Int64("user_id", user.ID))
	}
	return res, nil
}
