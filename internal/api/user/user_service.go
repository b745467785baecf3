package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/talkio/go-user-accounts/app/storage"
	"github.com/talkio/go-user-accounts/internal/api"
	"github.com/talkio/go-user-accounts/internal/api/auth"
)

// reportThreshold is the distinct-reporter count at which an active account
// is automatically restricted.
const reportThreshold = 5

var _ Service = (*ServiceImpl)(nil)

// Service defines the business logic contract for account operations.
type Service interface {
	Register(ctx context.Context, name, username, email, password string) (*User, string, error)
	Login(ctx context.Context, userInfo, password string) (*User, string, error)
	GetProfile(ctx context.Context, callerID uuid.UUID, callerAccountType string) (*User, error)
	ListUsers(ctx context.Context, callerID uuid.UUID, page, limit int) ([]Summary, error)
	SearchUsers(ctx context.Context, callerID uuid.UUID, value string, page, limit int) ([]Summary, error)
	UpdateProfile(ctx context.Context, callerID uuid.UUID, name, bio, imagePath string) (*User, error)
	UpdatePassword(ctx context.Context, callerID uuid.UUID, password, newPassword string) error
	DeleteAccount(ctx context.Context, callerID uuid.UUID) error
	ReportAccount(ctx context.Context, callerID, targetID uuid.UUID) error
}

// ServiceImpl composes the repository with the hashing, token and image
// storage leaves. Handlers stay free of persistence concerns.
type ServiceImpl struct {
	logger *slog.Logger
	repo   Repo
	tokens *auth.TokenService
	images storage.ImageStore
}

func NewService(repo Repo, tokens *auth.TokenService, images storage.ImageStore, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		tokens: tokens,
		images: images,
	}
}

// Register creates a new account and issues its first token. The combined
// existence query is an early exit only; the unique index on username/email
// is what actually defends the check-then-insert race.
func (s *ServiceImpl) Register(ctx context.Context, name, username, email, password string) (*User, string, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "Register", trace.WithAttributes(
		attribute.String("user.username", username),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Register"), slog.String("username", username))

	existing, err := s.repo.FindExisting(ctx, email, username)
	if err != nil && !api.ClientFault(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Existence check failed")
		return nil, "", fmt.Errorf("error checking existing user: %w", err)
	}
	if existing != nil {
		span.SetStatus(codes.Error, "Duplicate account")
		if existing.Email == email {
			return nil, "", ErrEmailExists
		}
		return nil, "", ErrUsernameExists
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		l.ErrorContext(ctx, "Password hashing failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Hashing failed")
		return nil, "", err
	}

	newUser := &User{
		ID:       uuid.New(),
		Name:     name,
		Username: username,
		Email:    email,
		Password: hashed,
	}

	created, err := s.repo.Insert(ctx, newUser)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Insert failed")
		return nil, "", fmt.Errorf("error creating user: %w", err)
	}

	token, err := s.tokens.Issue(created.ID.String(), created.AccountType, created.Status)
	if err != nil {
		l.ErrorContext(ctx, "Token issue failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Token issue failed")
		return nil, "", err
	}

	l.InfoContext(ctx, "User registered", slog.String("userID", created.ID.String()))
	span.SetStatus(codes.Ok, "User registered")
	return created, token, nil
}

// Login authenticates by email or username and issues a fresh token.
func (s *ServiceImpl) Login(ctx context.Context, userInfo, password string) (*User, string, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "Login")
	defer span.End()

	l := s.logger.With(slog.String("method", "Login"))

	u, err := s.repo.FindByEmailOrUsername(ctx, userInfo)
	if err != nil {
		span.SetStatus(codes.Error, "User lookup failed")
		return nil, "", fmt.Errorf("error finding user: %w", err)
	}

	ok, err := auth.ComparePassword(password, u.Password)
	if err != nil {
		l.ErrorContext(ctx, "Password comparison failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Password comparison failed")
		return nil, "", err
	}
	if !ok {
		span.SetStatus(codes.Error, "Wrong password")
		return nil, "", ErrWrongPassword
	}

	token, err := s.tokens.Issue(u.ID.String(), u.AccountType, u.Status)
	if err != nil {
		l.ErrorContext(ctx, "Token issue failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Token issue failed")
		return nil, "", err
	}

	l.InfoContext(ctx, "User logged in", slog.String("userID", u.ID.String()))
	span.SetStatus(codes.Ok, "User logged in")
	return u, token, nil
}

// GetProfile fetches the caller's own record, password excluded. A caller of
// account type "user" may not view an admin profile; since the route only
// ever resolves to the caller itself this gate is dormant, but it is kept so
// a future view-other-profile route inherits it.
func (s *ServiceImpl) GetProfile(ctx context.Context, callerID uuid.UUID, callerAccountType string) (*User, error) {
	l := s.logger.With(slog.String("method", "GetProfile"), slog.String("userID", callerID.String()))

	u, err := s.repo.GetUserByID(ctx, callerID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch profile", slog.Any("error", err))
		return nil, fmt.Errorf("error fetching profile: %w", err)
	}

	if callerAccountType == AccountTypeUser && u.AccountType == AccountTypeAdmin {
		return nil, ErrAdminProfileHidden
	}

	return u, nil
}

// ListUsers pages through active accounts, excluding the caller.
func (s *ServiceImpl) ListUsers(ctx context.Context, callerID uuid.UUID, page, limit int) ([]Summary, error) {
	l := s.logger.With(slog.String("method", "ListUsers"), slog.Int("page", page), slog.Int("limit", limit))

	users, err := s.repo.List(ctx, callerID, limit, limit*(page-1))
	if err != nil {
		l.ErrorContext(ctx, "Failed to list users", slog.Any("error", err))
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	return users, nil
}

// SearchUsers behaves like ListUsers when value is empty, otherwise applies a
// case-insensitive substring match over name, username and email.
func (s *ServiceImpl) SearchUsers(ctx context.Context, callerID uuid.UUID, value string, page, limit int) ([]Summary, error) {
	if value == "" {
		return s.ListUsers(ctx, callerID, page, limit)
	}

	l := s.logger.With(slog.String("method", "SearchUsers"), slog.String("value", value))

	users, err := s.repo.Search(ctx, callerID, value, limit, limit*(page-1))
	if err != nil {
		l.ErrorContext(ctx, "Failed to search users", slog.Any("error", err))
		return nil, fmt.Errorf("error searching users: %w", err)
	}
	return users, nil
}

// UpdateProfile uploads the attached image (if any) and applies the provided
// fields. Empty incoming values fall back to the stored ones; "not provided"
// and "explicitly cleared" are deliberately not distinguished.
func (s *ServiceImpl) UpdateProfile(ctx context.Context, callerID uuid.UUID, name, bio, imagePath string) (*User, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "UpdateProfile", trace.WithAttributes(
		attribute.String("user.id", callerID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "UpdateProfile"), slog.String("userID", callerID.String()))

	current, err := s.repo.GetUserByID(ctx, callerID)
	if err != nil {
		span.SetStatus(codes.Error, "User lookup failed")
		return nil, fmt.Errorf("error fetching current profile: %w", err)
	}

	imageURL := ""
	if imagePath != "" {
		imageURL, err = s.images.Upload(ctx, imagePath)
		if err != nil {
			l.ErrorContext(ctx, "Avatar upload failed", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "Avatar upload failed")
			return nil, fmt.Errorf("error uploading profile image: %w", err)
		}
	}

	if name == "" {
		name = current.Name
	}
	if bio == "" {
		bio = current.Bio
	}
	if imageURL == "" {
		imageURL = current.ProfileImage
	}

	updated, err := s.repo.UpdateProfile(ctx, callerID, name, bio, imageURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Profile update failed")
		return nil, fmt.Errorf("error updating profile: %w", err)
	}

	l.InfoContext(ctx, "Profile updated")
	span.SetStatus(codes.Ok, "Profile updated")
	return updated, nil
}

// UpdatePassword verifies the old password and stores a hash of the new one.
func (s *ServiceImpl) UpdatePassword(ctx context.Context, callerID uuid.UUID, password, newPassword string) error {
	l := s.logger.With(slog.String("method", "UpdatePassword"), slog.String("userID", callerID.String()))

	storedHash, err := s.repo.GetPasswordHash(ctx, callerID)
	if err != nil {
		return fmt.Errorf("error fetching stored password: %w", err)
	}

	ok, err := auth.ComparePassword(password, storedHash)
	if err != nil {
		l.ErrorContext(ctx, "Password comparison failed", slog.Any("error", err))
		return err
	}
	if !ok {
		return ErrWrongPassword
	}

	newHash, err := auth.HashPassword(newPassword)
	if err != nil {
		l.ErrorContext(ctx, "Password hashing failed", slog.Any("error", err))
		return err
	}

	if err := s.repo.UpdatePassword(ctx, callerID, newHash); err != nil {
		return fmt.Errorf("error storing new password: %w", err)
	}

	l.InfoContext(ctx, "Password changed")
	return nil
}

// DeleteAccount soft-deletes the caller's account. Repeating the call leaves
// the account inactive without surfacing an error.
func (s *ServiceImpl) DeleteAccount(ctx context.Context, callerID uuid.UUID) error {
	l := s.logger.With(slog.String("method", "DeleteAccount"), slog.String("userID", callerID.String()))

	if err := s.repo.SetStatus(ctx, callerID, StatusInactive); err != nil {
		l.ErrorContext(ctx, "Failed to soft-delete account", slog.Any("error", err))
		return fmt.Errorf("error deleting account: %w", err)
	}

	l.InfoContext(ctx, "Account soft-deleted")
	return nil
}

// ReportAccount records the caller in the target's reports set and restricts
// the target once the set reaches the threshold.
func (s *ServiceImpl) ReportAccount(ctx context.Context, callerID, targetID uuid.UUID) error {
	l := s.logger.With(slog.String("method", "ReportAccount"),
		slog.String("reporterID", callerID.String()), slog.String("targetID", targetID.String()))

	if callerID == targetID {
		return ErrSelfReport
	}

	count, err := s.repo.AddReport(ctx, targetID, callerID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to report account", slog.Any("error", err))
		return fmt.Errorf("error reporting account: %w", err)
	}

	if count >= reportThreshold {
		if err := s.repo.RestrictAccount(ctx, targetID); err != nil {
			l.ErrorContext(ctx, "Failed to restrict reported account", slog.Any("error", err))
			return fmt.Errorf("error restricting account: %w", err)
		}
	}

	l.InfoContext(ctx, "Account reported", slog.Int("reportCount", count))
	return nil
}
