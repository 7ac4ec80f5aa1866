// Package service contains the business logic layer: validation,
// authorization rules and orchestration between the repositories and the
// directory. Handlers translate HTTP to these calls and domain errors back
// to status codes; repositories do the SQL.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/apperror"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/directory"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/model"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/repository"
)

// IdentityService mirrors directory people into local user records. Users
// are never registered directly; they appear on first login and are kept in
// sync with the directory through explicit refreshes.
type IdentityService struct {
	users  repository.UserRepository
	people directory.Client
	logger *slog.Logger
}

func NewIdentityService(users repository.UserRepository, people directory.Client, logger *slog.Logger) *IdentityService {
	return &IdentityService{
		users:  users,
		people: people,
		logger: logger,
	}
}

// ResolveOrCreate returns the stored user for username, creating one from
// the directory on first sight. A blank username or a person missing from
// the directory resolves to (nil, nil); a failing directory call is
// Unauthorized, the same collapse RefreshProfile applies, so the login is
// denied rather than issued without user data.
func (s *IdentityService) ResolveOrCreate(ctx context.Context, accessToken, username string) (*model.User, error) {
	if username == "" {
		return nil, nil
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	data, err := s.people.Lookup(ctx, accessToken, username)
	if err != nil {
		s.logger.Warn("directory lookup failed during login", "username", username, "error", err)
		return nil, apperror.Unauthorized("directory lookup failed")
	}
	if data == nil {
		return nil, nil
	}

	user = &model.User{
		Username:  data.Username,
		FirstName: data.FirstName,
		LastName:  data.LastName,
		Email:     data.PreferredEmail,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user created from directory", "username", user.Username, "user_id", user.ID)
	return user, nil
}

// RefreshProfile re-reads the directory and overwrites the stored profile.
// Only the user themselves may trigger it. Unlike login-time resolution, a
// directory failure here is surfaced as Unauthorized: the caller explicitly
// asked for fresh data and the token could not produce it. A user missing
// from the local store resolves to (nil, nil).
func (s *IdentityService) RefreshProfile(ctx context.Context, accessToken, requester, username string) (*model.User, error) {
	if requester != username {
		return nil, apperror.Unauthorized("profiles can only be refreshed by their owner")
	}

	data, err := s.people.Lookup(ctx, accessToken, username)
	if err != nil || data == nil {
		return nil, apperror.Unauthorized("directory lookup failed")
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	user.Username = data.Username
	user.FirstName = data.FirstName
	user.LastName = data.LastName
	user.Email = data.PreferredEmail

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("profile refreshed from directory", "username", user.Username)
	return user, nil
}
