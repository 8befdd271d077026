// Package services contains server-side business logic. UserService handles
// registration, sign-in and the access/refresh token lifecycle; FileService
// handles the owner-scoped file operations.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/dbx"
	"github.com/dmitrijs2005/filekeeper/internal/logging"
	"github.com/dmitrijs2005/filekeeper/internal/server/auth"
	"github.com/dmitrijs2005/filekeeper/internal/server/config"
	"github.com/dmitrijs2005/filekeeper/internal/server/keylock"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// TokenPair is returned by Signup and Signin. RefreshToken is empty when
// Signin found one already stored for the user.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenService
	hashCost    int
	locks       *keylock.Locker
	log         logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, tokens *auth.TokenService, cfg *config.Config, log logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		hashCost:    cfg.PasswordHashCost,
		locks:       keylock.New(),
		log:         log.With("module", "users"),
	}
}

// Signup creates the user and its refresh token row in one transaction.
func (s *UserService) Signup(ctx context.Context, id, password string) (*TokenPair, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	access, err := s.tokens.IssueAccessToken(id)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(id)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).Create(ctx, &models.User{ID: id, PasswordHash: string(hash)}); err != nil {
			return err
		}
		return s.repomanager.RefreshTokens(tx).Create(ctx, id, refresh)
	})
	if err != nil {
		if errors.Is(err, common.ErrorDuplicateUser) {
			return nil, common.ErrorDuplicateUser
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.log.Info(ctx, "user signed up", "user_id", id)
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Signin always issues a new access token. A refresh token is minted and
// returned only when the user has none stored yet.
func (s *UserService) Signin(ctx context.Context, id, password string) (*TokenPair, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, common.ErrorInvalidCredentials
	}

	access, err := s.tokens.IssueAccessToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	pair := &TokenPair{AccessToken: access}

	unlock := s.locks.Lock(user.ID)
	defer unlock()

	repo := s.repomanager.RefreshTokens(s.db)
	_, err = repo.FindByUser(ctx, user.ID)
	switch {
	case err == nil:
		return pair, nil
	case !errors.Is(err, common.ErrorNotFound):
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}

	refresh, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	if err := repo.Create(ctx, user.ID, refresh); err != nil {
		return nil, err
	}
	pair.RefreshToken = refresh

	return pair, nil
}

// Refresh exchanges a refresh token for a new access token. The token must
// verify and must still be stored, so Logout revokes it.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", common.ErrorUnauthenticated
	}

	claims, err := s.tokens.Verify(refreshToken, auth.KindRefresh)
	if err != nil {
		return "", common.ErrorForbidden
	}

	stored, err := s.repomanager.RefreshTokens(s.db).Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.log.Warn(ctx, "revoked refresh token presented", "user_id", claims.UserID)
			return "", common.ErrorForbidden
		}
		return "", fmt.Errorf("error searching refresh token: %w", err)
	}
	if stored.UserID != claims.UserID {
		return "", common.ErrorForbidden
	}

	access, err := s.tokens.IssueAccessToken(claims.UserID)
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}
	return access, nil
}

// Logout deletes the stored refresh token with this exact value.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	repo := s.repomanager.RefreshTokens(s.db)

	if _, err := repo.Find(ctx, refreshToken); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error searching refresh token: %w", err)
	}

	if err := repo.Delete(ctx, refreshToken); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error deleting refresh token: %w", err)
	}
	return nil
}

// Info returns the caller's user record.
func (s *UserService) Info(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	return user, nil
}
