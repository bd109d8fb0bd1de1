// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/MKhiriev/go-doc-locker/internal/adapter"
	"github.com/MKhiriev/go-doc-locker/internal/logger"
	"github.com/MKhiriev/go-doc-locker/internal/store"
	"github.com/MKhiriev/go-doc-locker/models"
)

// minTextLength is the number of characters the aggregated text must
// exceed before the generator is called.
const minTextLength = 10

// profileService is the profile lifecycle manager. Generation runs
// aggregate, check length, call generator, validate payload, and only then
// takes the per-user lock to allocate a version and commit it.
//
// The storage shape is resolved once at start-up and injected through
// capabilities. Every write path handles both shapes.
type profileService struct {
	userRepository     store.UserRepository
	documentRepository store.DocumentRepository
	profileRepository  store.ProfileRepository

	generator    adapter.ProfileGenerator
	audit        AuditService
	capabilities models.StorageCapabilities
	locks        *userLocks

	logger *logger.Logger
}

func NewProfileService(
	storages *store.Storages,
	generator adapter.ProfileGenerator,
	audit AuditService,
	capabilities models.StorageCapabilities,
	logger *logger.Logger,
) ProfileService {
	return &profileService{
		userRepository:     storages.UserRepository,
		documentRepository: storages.DocumentRepository,
		profileRepository:  storages.ProfileRepository,
		generator:          generator,
		audit:              audit,
		capabilities:       capabilities,
		locks:              newUserLocks(),
		logger:             logger,
	}
}

// AggregateText returns the user's non-null extracted texts in upload
// order, joined with one space and trimmed. It is recomputed on every call.
func (p *profileService) AggregateText(ctx context.Context, userID int64) (string, error) {
	texts, err := p.documentRepository.ExtractedTexts(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStorage, err)
	}

	return strings.TrimSpace(strings.Join(texts, " ")), nil
}

// EnsureProfile implements [ProfileService]. "Not enough text" and
// "generation broke" are logged differently so operators can tell them
// apart.
func (p *profileService) EnsureProfile(ctx context.Context, userID int64) *models.ProfileView {
	log := logger.FromContext(ctx).With().Str("func", "profileService.EnsureProfile").Int64("user_id", userID).Logger()

	generated, err := p.derive(ctx, userID, nil)
	switch {
	case errors.Is(err, ErrInsufficientText):
		log.Info().Msg("not enough extracted text yet, profile generation skipped")
		return nil
	case errors.Is(err, ErrGenerationFailed):
		log.Error().Err(err).Msg("profile generation failed")
		return nil
	case err != nil:
		log.Error().Err(err).Msg("profile generation aborted")
		return nil
	}

	view, err := p.commit(ctx, userID, generated)
	if err != nil {
		log.Error().Err(err).Msg("failed to store generated profile")
		return nil
	}

	log.Info().Int64("version", view.Version).Msg("profile generated after ingestion")
	return &view
}

// Regenerate implements [ProfileService]. On success a REGENERATE audit
// event carrying the new version is emitted.
func (p *profileService) Regenerate(ctx context.Context, userID int64, actor models.Requestor, seed *int64) (models.ProfileView, error) {
	log := logger.FromContext(ctx).With().Str("func", "profileService.Regenerate").Int64("user_id", userID).Int64("actor_id", actor.ID).Logger()

	if err := p.authorize(ctx, userID, actor); err != nil {
		return models.ProfileView{}, err
	}

	generated, err := p.derive(ctx, userID, seed)
	if err != nil {
		if errors.Is(err, ErrInsufficientText) {
			log.Info().Msg("regeneration refused: not enough text")
		} else {
			log.Error().Err(err).Msg("regeneration failed")
		}
		return models.ProfileView{}, err
	}

	view, err := p.commit(ctx, userID, generated)
	if err != nil {
		log.Error().Err(err).Msg("failed to commit regenerated profile")
		return models.ProfileView{}, err
	}

	p.audit.Emit(ctx, models.AuditEvent{
		ActorID:      actor.ID,
		TargetUserID: userID,
		Action:       models.AuditRegenerate,
		Detail:       auditDetail(map[string]any{"version": view.Version, "shape": p.capabilities.Shape.String()}),
	})

	log.Info().Int64("version", view.Version).Msg("profile regenerated")
	return view, nil
}

// GetCurrent implements [ProfileService]. Resolution order: pointer, legacy
// record, on-demand generation. On-demand generation emits no audit event.
// Insufficient text yields (nil, nil).
func (p *profileService) GetCurrent(ctx context.Context, userID int64, requester models.Requestor) (*models.ProfileView, error) {
	log := logger.FromContext(ctx).With().Str("func", "profileService.GetCurrent").Int64("user_id", userID).Logger()

	if err := p.authorize(ctx, userID, requester); err != nil {
		return nil, err
	}

	view, err := p.Lookup(ctx, userID)
	if err != nil || view != nil {
		return view, err
	}

	generated, err := p.derive(ctx, userID, nil)
	if errors.Is(err, ErrInsufficientText) {
		log.Debug().Msg("no profile available")
		return nil, nil
	}
	if err != nil {
		log.Error().Err(err).Msg("on-demand generation failed")
		return nil, err
	}

	committed, err := p.commitIfAbsent(ctx, userID, generated)
	if err != nil {
		log.Error().Err(err).Msg("failed to store on-demand profile")
		return nil, err
	}

	return &committed, nil
}

// Lookup implements [ProfileService].
func (p *profileService) Lookup(ctx context.Context, userID int64) (*models.ProfileView, error) {
	if p.capabilities.Versioned() {
		version, err := p.profileRepository.GetCurrentVersion(ctx, userID)
		if err == nil {
			return &models.ProfileView{
				UserID:   userID,
				Version:  version.Version,
				Source:   models.SourcePointer,
				Payload:  version.Payload,
				Rendered: version.Rendered,
			}, nil
		}
		if !errors.Is(err, store.ErrProfileNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrStorage, err)
		}
	}

	legacy, err := p.profileRepository.GetLegacy(ctx, userID)
	if errors.Is(err, store.ErrProfileNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	return &models.ProfileView{
		UserID:  userID,
		Source:  models.SourceLegacy,
		Payload: legacy.Payload,
	}, nil
}

// ListVersions implements [ProfileService]. The legacy shape has no
// history, so the list is empty.
func (p *profileService) ListVersions(ctx context.Context, userID int64, requester models.Requestor) ([]models.ProfileVersion, error) {
	if err := p.authorize(ctx, userID, requester); err != nil {
		return nil, err
	}
	if !p.capabilities.Versioned() {
		return []models.ProfileVersion{}, nil
	}

	versions, err := p.profileRepository.ListVersions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return versions, nil
}

// GetVersion implements [ProfileService].
func (p *profileService) GetVersion(ctx context.Context, userID, version int64, requester models.Requestor) (models.ProfileVersion, error) {
	if err := p.authorize(ctx, userID, requester); err != nil {
		return models.ProfileVersion{}, err
	}
	if !p.capabilities.Versioned() || version <= 0 {
		return models.ProfileVersion{}, ErrNotFound
	}

	found, err := p.profileRepository.GetVersion(ctx, userID, version)
	if errors.Is(err, store.ErrProfileNotFound) {
		return models.ProfileVersion{}, ErrNotFound
	}
	if err != nil {
		return models.ProfileVersion{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return found, nil
}

// Export returns the Markdown rendering of the current profile. Versions
// carry the rendering made at commit time; legacy payloads are rendered on
// the fly.
func (p *profileService) Export(ctx context.Context, userID int64, requester models.Requestor) (string, error) {
	view, err := p.GetCurrent(ctx, userID, requester)
	if err != nil {
		return "", err
	}
	if view == nil {
		return "", ErrNotFound
	}
	if view.Rendered != nil {
		return *view.Rendered, nil
	}

	var payload models.ProfilePayload
	if err = json.Unmarshal(view.Payload, &payload); err != nil {
		return "", fmt.Errorf("%w: stored payload: %w", ErrStorage, err)
	}
	return renderProfile(payload)
}

// generatedProfile is a validated generator answer waiting to be committed.
type generatedProfile struct {
	payload  json.RawMessage
	rendered *string
}

// derive runs the part of generation that happens outside the lock.
func (p *profileService) derive(ctx context.Context, userID int64, seed *int64) (generatedProfile, error) {
	text, err := p.AggregateText(ctx, userID)
	if err != nil {
		return generatedProfile{}, err
	}
	if utf8.RuneCountInString(text) <= minTextLength {
		return generatedProfile{}, ErrInsufficientText
	}

	raw, err := p.generator.Derive(ctx, text, seed)
	if err != nil {
		return generatedProfile{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	payload, parsed, err := validatePayload(raw)
	if err != nil {
		return generatedProfile{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	generated := generatedProfile{payload: payload}
	if rendered, renderErr := renderProfile(parsed); renderErr != nil {
		logger.FromContext(ctx).Warn().Err(renderErr).Str("func", "profileService.derive").Msg("failed to render profile")
	} else {
		generated.rendered = &rendered
	}

	return generated, nil
}

// commit stores a generated profile in the active shape under the
// per-user lock.
func (p *profileService) commit(ctx context.Context, userID int64, generated generatedProfile) (models.ProfileView, error) {
	unlock := p.locks.Lock(userID)
	defer unlock()

	return p.store(ctx, userID, generated)
}

// commitIfAbsent is commit for on-demand generation: if another request
// stored a profile while this one was generating, that profile wins.
func (p *profileService) commitIfAbsent(ctx context.Context, userID int64, generated generatedProfile) (models.ProfileView, error) {
	unlock := p.locks.Lock(userID)
	defer unlock()

	existing, err := p.Lookup(ctx, userID)
	if err != nil {
		return models.ProfileView{}, err
	}
	if existing != nil {
		return *existing, nil
	}

	return p.store(ctx, userID, generated)
}

func (p *profileService) store(ctx context.Context, userID int64, generated generatedProfile) (models.ProfileView, error) {
	if p.capabilities.Versioned() {
		version, err := p.profileRepository.CommitVersion(ctx, userID, generated.payload, generated.rendered)
		if err != nil {
			return models.ProfileView{}, fmt.Errorf("%w: %w", ErrStorage, err)
		}
		return models.ProfileView{
			UserID:   userID,
			Version:  version.Version,
			Source:   models.SourceGenerated,
			Payload:  version.Payload,
			Rendered: version.Rendered,
		}, nil
	}

	legacy, err := p.profileRepository.SaveLegacy(ctx, userID, generated.payload)
	if err != nil {
		return models.ProfileView{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return models.ProfileView{
		UserID:   userID,
		Source:   models.SourceGenerated,
		Payload:  legacy.Payload,
		Rendered: generated.rendered,
	}, nil
}

// authorize checks that requester may act on userID and that the user
// exists.
func (p *profileService) authorize(ctx context.Context, userID int64, requester models.Requestor) error {
	if !requester.CanAccess(userID) {
		logger.FromContext(ctx).Warn().
			Str("func", "profileService.authorize").
			Int64("user_id", userID).
			Int64("requester_id", requester.ID).
			Msg("access denied")
		return ErrUnauthorized
	}

	return ensureUserExists(ctx, p.userRepository, userID)
}

func ensureUserExists(ctx context.Context, users store.UserRepository, userID int64) error {
	_, err := users.FindUserByID(ctx, userID)
	if errors.Is(err, store.ErrNoUserWasFound) {
		return fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}
