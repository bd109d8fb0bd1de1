package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MKhiriev/go-doc-locker/internal/config"
	"github.com/MKhiriev/go-doc-locker/internal/logger"
	"github.com/MKhiriev/go-doc-locker/internal/store"
	"github.com/MKhiriev/go-doc-locker/internal/utils"
	"github.com/MKhiriev/go-doc-locker/internal/validators"
	"github.com/MKhiriev/go-doc-locker/models"
	"golang.org/x/crypto/bcrypt"
)

// authService is the concrete implementation of AuthService.
// It handles user registration, credential verification and JWT token
// lifecycle. Passwords are stored as bcrypt hashes.
type authService struct {
	userRepository store.UserRepository
	validator      validators.Validator

	// bcryptCost is the work factor used for new password hashes.
	bcryptCost int

	// tokenSignKey is the HMAC secret used to sign and verify JWT tokens.
	tokenSignKey string

	// tokenIssuer is the "iss" claim embedded in every issued JWT.
	// Tokens whose issuer does not match this value are rejected during parsing.
	tokenIssuer string

	// tokenDuration controls how long a newly issued JWT remains valid.
	tokenDuration time.Duration

	admin models.User

	now    func() time.Time
	logger *logger.Logger
}

// NewAuthService constructs a new AuthService wired to the given UserRepository
// and populated with security parameters from cfg.
//
// The returned service is safe for concurrent use; all state is read-only after
// construction.
func NewAuthService(userRepository store.UserRepository, cfg config.App, logger *logger.Logger) AuthService {
	return &authService{
		userRepository: userRepository,
		validator:      validators.NewUserValidator(),
		bcryptCost:     cfg.BcryptCost,
		tokenSignKey:   cfg.TokenSignKey,
		tokenIssuer:    cfg.TokenIssuer,
		tokenDuration:  cfg.TokenDuration,
		admin: models.User{
			Name:     cfg.AdminName,
			Email:    cfg.AdminEmail,
			Password: cfg.AdminPassword,
			Role:     models.RoleAdmin,
		},
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// RegisterUser creates a new active account with the user role.
//
// Returns the persisted user (with a server-assigned UserID) or:
//   - ErrInvalidDataProvided if name, email or password are invalid.
//   - ErrEmailTaken if the email is already registered.
//   - A wrapped ErrStorage for any other repository failure.
func (a *authService) RegisterUser(ctx context.Context, user models.User) (models.User, error) {
	log := logger.FromContext(ctx).With().Str("func", "authService.RegisterUser").Logger()

	if err := a.validator.Validate(ctx, user); err != nil {
		log.Warn().Err(err).Msg("invalid user data provided")
		return models.User{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	user.Role = models.RoleUser
	registered, err := a.createUser(ctx, user)
	if err != nil {
		log.Err(err).Str("email", normalizeEmail(user.Email)).Msg("user creation ended with error")
		return models.User{}, err
	}

	log.Info().Int64("user_id", registered.UserID).Msg("user registered")
	return registered, nil
}

// Login authenticates an existing user by email and password.
//
// Unknown emails and wrong passwords both yield ErrWrongCredentials.
// Accounts that are not active yield ErrUserLocked.
func (a *authService) Login(ctx context.Context, user models.User) (models.User, error) {
	log := logger.FromContext(ctx).With().Str("func", "authService.Login").Logger()

	if user.Password == "" {
		return models.User{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, validators.ErrEmptyPassword)
	}
	if err := a.validator.Validate(ctx, user, validators.FieldEmail); err != nil {
		return models.User{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	found, err := a.userRepository.FindUserByEmail(ctx, normalizeEmail(user.Email))
	if errors.Is(err, store.ErrNoUserWasFound) {
		log.Warn().Msg("login attempt for unknown email")
		return models.User{}, ErrWrongCredentials
	}
	if err != nil {
		log.Err(err).Msg("user search by email failed")
		return models.User{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(user.Password)); err != nil {
		log.Warn().Int64("user_id", found.UserID).Msg("wrong password")
		return models.User{}, ErrWrongCredentials
	}

	if found.Status != models.UserActive {
		log.Warn().Int64("user_id", found.UserID).Str("status", string(found.Status)).Msg("login rejected for inactive account")
		return models.User{}, ErrUserLocked
	}

	return found, nil
}

// CreateToken issues a signed JWT for the given user.
//
// The token is signed with the configured tokenSignKey, carries the configured
// tokenIssuer as the "iss" claim, and expires after tokenDuration.
func (a *authService) CreateToken(ctx context.Context, user models.User) (models.Token, error) {
	token, err := utils.GenerateJWTToken(a.tokenIssuer, user.UserID, a.tokenDuration, a.tokenSignKey)
	if err != nil {
		return models.Token{}, fmt.Errorf("%w: %w", ErrTokenCreationFailed, err)
	}

	return token, nil
}

// ParseToken validates and parses a raw JWT string.
//
// Any validation failure (expired, wrong issuer, malformed) is normalised to
// ErrTokenIsExpiredOrInvalid so that callers do not need to inspect
// low-level JWT errors.
func (a *authService) ParseToken(ctx context.Context, tokenString string) (models.Token, error) {
	token, err := utils.ValidateAndParseJWTToken(tokenString, a.tokenSignKey, a.tokenIssuer)
	if err != nil {
		return models.Token{}, ErrTokenIsExpiredOrInvalid
	}

	return token, nil
}

// Authenticate implements [AuthService]. Tokens of deleted users are
// invalid; tokens of locked users yield ErrUserLocked.
func (a *authService) Authenticate(ctx context.Context, tokenString string) (models.Requestor, error) {
	log := logger.FromContext(ctx).With().Str("func", "authService.Authenticate").Logger()

	token, err := a.ParseToken(ctx, tokenString)
	if err != nil {
		return models.Requestor{}, err
	}

	user, err := a.userRepository.FindUserByID(ctx, token.UserID)
	if errors.Is(err, store.ErrNoUserWasFound) {
		return models.Requestor{}, ErrTokenIsExpiredOrInvalid
	}
	if err != nil {
		log.Err(err).Int64("user_id", token.UserID).Msg("failed to load token owner")
		return models.Requestor{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	if user.Status != models.UserActive {
		return models.Requestor{}, ErrUserLocked
	}

	if err = a.userRepository.TouchLastActive(ctx, user.UserID, a.now()); err != nil {
		log.Warn().Err(err).Int64("user_id", user.UserID).Msg("failed to record last activity")
	}

	return models.Requestor{ID: user.UserID, Role: user.Role}, nil
}

// SeedAdmin implements [AuthService]. Without a configured admin email it
// does nothing.
func (a *authService) SeedAdmin(ctx context.Context) error {
	log := logger.FromContext(ctx).With().Str("func", "authService.SeedAdmin").Logger()

	if a.admin.Email == "" {
		log.Debug().Msg("no administrator configured")
		return nil
	}

	_, err := a.userRepository.FindUserByEmail(ctx, normalizeEmail(a.admin.Email))
	if err == nil {
		log.Debug().Msg("administrator already exists")
		return nil
	}
	if !errors.Is(err, store.ErrNoUserWasFound) {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	if err = a.validator.Validate(ctx, a.admin); err != nil {
		return fmt.Errorf("%w: administrator: %w", ErrInvalidDataProvided, err)
	}

	admin, err := a.createUser(ctx, a.admin)
	if errors.Is(err, ErrEmailTaken) {
		return nil
	}
	if err != nil {
		return err
	}

	log.Info().Int64("user_id", admin.UserID).Msg("administrator created")
	return nil
}

func (a *authService) createUser(ctx context.Context, user models.User) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), a.bcryptCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hashing password: %w", err)
	}

	user.Name = strings.TrimSpace(user.Name)
	user.Email = normalizeEmail(user.Email)
	user.PasswordHash = string(hash)
	user.Password = ""
	user.Status = models.UserActive
	user.CreatedAt = a.now()

	created, err := a.userRepository.CreateUser(ctx, user)
	if errors.Is(err, store.ErrEmailAlreadyExists) {
		return models.User{}, ErrEmailTaken
	}
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	return created, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
