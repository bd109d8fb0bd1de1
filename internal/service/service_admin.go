package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-doc-locker/internal/logger"
	"github.com/MKhiriev/go-doc-locker/internal/store"
	"github.com/MKhiriev/go-doc-locker/models"
)

type adminService struct {
	userRepository store.UserRepository
	fileStorage    store.FileStorage

	audit  AuditService
	logger *logger.Logger
}

func NewAdminService(storages *store.Storages, audit AuditService, logger *logger.Logger) AdminService {
	return &adminService{
		userRepository: storages.UserRepository,
		fileStorage:    storages.FileStorage,
		audit:          audit,
		logger:         logger,
	}
}

func (a *adminService) LockUser(ctx context.Context, userID int64, actor models.Requestor) error {
	return a.setStatus(ctx, userID, actor, models.UserLocked, models.AuditLockUser)
}

func (a *adminService) UnlockUser(ctx context.Context, userID int64, actor models.Requestor) error {
	return a.setStatus(ctx, userID, actor, models.UserActive, models.AuditUnlockUser)
}

// DeleteUser removes the account with all its documents and profiles.
// Stored files are removed after the rows, using the paths the deletion
// itself returned; a file that cannot be removed is logged and left behind.
func (a *adminService) DeleteUser(ctx context.Context, userID int64, actor models.Requestor) error {
	log := logger.FromContext(ctx).With().Str("func", "adminService.DeleteUser").Int64("user_id", userID).Logger()

	target, err := a.target(ctx, userID, actor)
	if err != nil {
		return err
	}

	storedPaths, err := a.userRepository.DeleteUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNoUserWasFound) {
			return fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		log.Err(err).Msg("failed to delete user")
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	for _, path := range storedPaths {
		if err = a.fileStorage.Remove(ctx, path); err != nil && !errors.Is(err, store.ErrFileNotFound) {
			log.Warn().Err(err).Str("path", path).Msg("failed to remove stored file")
		}
	}

	a.audit.Emit(ctx, models.AuditEvent{
		ActorID:      actor.ID,
		TargetUserID: userID,
		Action:       models.AuditDeleteUser,
		Detail:       auditDetail(map[string]any{"email": target.Email, "documents": len(storedPaths)}),
	})

	log.Info().Int64("actor_id", actor.ID).Int("documents", len(storedPaths)).Msg("user deleted")
	return nil
}

func (a *adminService) setStatus(ctx context.Context, userID int64, actor models.Requestor, status models.UserStatus, action models.AuditAction) error {
	log := logger.FromContext(ctx).With().Str("func", "adminService.setStatus").Int64("user_id", userID).Logger()

	target, err := a.target(ctx, userID, actor)
	if err != nil {
		return err
	}

	if err = a.userRepository.UpdateStatus(ctx, userID, status); err != nil {
		if errors.Is(err, store.ErrNoUserWasFound) {
			return fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		log.Err(err).Msg("failed to update user status")
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	a.audit.Emit(ctx, models.AuditEvent{
		ActorID:      actor.ID,
		TargetUserID: userID,
		Action:       action,
		Detail:       auditDetail(map[string]any{"from": target.Status, "to": status}),
	})

	log.Info().Int64("actor_id", actor.ID).Str("status", string(status)).Msg("user status changed")
	return nil
}

// target checks that actor is an admin acting on another existing user.
func (a *adminService) target(ctx context.Context, userID int64, actor models.Requestor) (models.User, error) {
	if !actor.IsAdmin() {
		return models.User{}, ErrUnauthorized
	}
	if actor.ID == userID {
		return models.User{}, ErrSelfAction
	}

	user, err := a.userRepository.FindUserByID(ctx, userID)
	if errors.Is(err, store.ErrNoUserWasFound) {
		return models.User{}, fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return user, nil
}
