package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/talkio/go-user-accounts/app/tracer"
	"github.com/talkio/go-user-accounts/internal/api"
)

// DB is the subset of pgxpool.Pool the repository needs. Satisfied by
// *pgxpool.Pool and by pgxmock pools in tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

var _ Repo = (*PostgresUserRepo)(nil)

// Repo defines the contract for user persistence.
type Repo interface {
	// FindExisting returns a user whose email or username matches the given
	// pair. Used as the register existence early-exit.
	FindExisting(ctx context.Context, email, username string) (*User, error)

	// FindByEmailOrUsername matches a single login value against both fields.
	// The returned user includes the stored password hash.
	FindByEmailOrUsername(ctx context.Context, value string) (*User, error)

	// GetUserByID returns the user with the password projected out.
	GetUserByID(ctx context.Context, userID uuid.UUID) (*User, error)

	// GetAccountStatus selects only the status column.
	GetAccountStatus(ctx context.Context, userID uuid.UUID) (string, error)

	// GetPasswordHash selects only the stored hash, for the password-change flow.
	GetPasswordHash(ctx context.Context, userID uuid.UUID) (string, error)

	// Insert persists a new user. Returns api.ErrConflict on a username/email
	// unique violation, distinctly from any validation error.
	Insert(ctx context.Context, newUser *User) (*User, error)

	// UpdateProfile overwrites name, bio and profile image.
	UpdateProfile(ctx context.Context, userID uuid.UUID, name, bio, profileImage string) (*User, error)

	// UpdatePassword stores a new password hash.
	UpdatePassword(ctx context.Context, userID uuid.UUID, newHashedPassword string) error

	// SetStatus sets the account status. Idempotent.
	SetStatus(ctx context.Context, userID uuid.UUID, status string) error

	// List returns active users other than the caller.
	List(ctx context.Context, callerID uuid.UUID, limit, offset int) ([]Summary, error)

	// Search filters active users (excluding the caller) by a case-insensitive
	// substring over name, username and email, newest first.
	Search(ctx context.Context, callerID uuid.UUID, value string, limit, offset int) ([]Summary, error)

	// AddReport records reporterID in the target's reports set (idempotent)
	// and returns the distinct reporter count.
	AddReport(ctx context.Context, targetID, reporterID uuid.UUID) (int, error)

	// RestrictAccount flips an active account to restricted.
	RestrictAccount(ctx context.Context, userID uuid.UUID) error
}

// PostgresUserRepo implements Repo over pgx.
type PostgresUserRepo struct {
	logger  *slog.Logger
	db      DB
	metrics *tracer.AppMetrics
}

// NewPostgresUserRepo creates the user repository. metrics may be nil in tests.
func NewPostgresUserRepo(db DB, logger *slog.Logger, metrics *tracer.AppMetrics) *PostgresUserRepo {
	return &PostgresUserRepo{
		logger:  logger,
		db:      db,
		metrics: metrics,
	}
}

// observe records query duration and errors. Absent rows are not query errors.
func (r *PostgresUserRepo) observe(ctx context.Context, start time.Time, err error) {
	if r.metrics == nil {
		return
	}
	r.metrics.DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds())
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		r.metrics.DbQueryErrorsTotal.Add(ctx, 1)
	}
}

const userColumns = `id, name, username, email, profile_image, bio, account_type, status, reports, is_verify, created_at, updated_at`
const userColumnsWithPassword = `id, name, username, email, password_hash, profile_image, bio, account_type, status, reports, is_verify, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Name, &u.Username, &u.Email,
		&u.ProfileImage, &u.Bio, &u.AccountType, &u.Status,
		&u.Reports, &u.IsVerify, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func scanUserWithPassword(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Name, &u.Username, &u.Email, &u.Password,
		&u.ProfileImage, &u.Bio, &u.AccountType, &u.Status,
		&u.Reports, &u.IsVerify, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresUserRepo) FindExisting(ctx context.Context, email, username string) (*User, error) {
	l := r.logger.With(slog.String("method", "FindExisting"))

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 OR username = $2 LIMIT 1`
	start := time.Now()
	u, err := scanUser(r.db.QueryRow(ctx, query, email, username))
	r.observe(ctx, start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no matching user: %w", api.ErrNotFound)
		}
		l.ErrorContext(ctx, "Existence query failed", slog.Any("error", err))
		return nil, fmt.Errorf("database error checking existing user: %w", err)
	}
	return u, nil
}

func (r *PostgresUserRepo) FindByEmailOrUsername(ctx context.Context, value string) (*User, error) {
	l := r.logger.With(slog.String("method", "FindByEmailOrUsername"))

	query := `SELECT ` + userColumnsWithPassword + ` FROM users WHERE email = $1 OR username = $1`
	start := time.Now()
	u, err := scanUserWithPassword(r.db.QueryRow(ctx, query, value))
	r.observe(ctx, start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no user for %q: %w", value, api.ErrNotFound)
		}
		l.ErrorContext(ctx, "Lookup by email/username failed", slog.Any("error", err))
		return nil, fmt.Errorf("database error finding user: %w", err)
	}
	return u, nil
}

func (r *PostgresUserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*User, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "GetUserByID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "GetUserByID"), slog.String("userID", userID.String()))

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	start := time.Now()
	u, err := scanUser(r.db.QueryRow(ctx, query, userID))
	r.observe(ctx, start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "User not found")
			return nil, fmt.Errorf("user %s: %w", userID, api.ErrNotFound)
		}
		l.ErrorContext(ctx, "Lookup by id failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}
	span.SetStatus(codes.Ok, "User fetched")
	return u, nil
}

func (r *PostgresUserRepo) GetAccountStatus(ctx context.Context, userID uuid.UUID) (string, error) {
	var status string
	start := time.Now()
	err := r.db.QueryRow(ctx, `SELECT status FROM users WHERE id = $1`, userID).Scan(&status)
	r.observe(ctx, start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("user %s: %w", userID, api.ErrNotFound)
		}
		return "", fmt.Errorf("database error fetching account status: %w", err)
	}
	return status, nil
}

func (r *PostgresUserRepo) GetPasswordHash(ctx context.Context, userID uuid.UUID) (string, error) {
	var hash string
	start := time.Now()
	err := r.db.QueryRow(ctx, `SELECT password_hash FROM users WHERE id = $1`, userID).Scan(&hash)
	r.observe(ctx, start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("user %s: %w", userID, api.ErrNotFound)
		}
		return "", fmt.Errorf("database error fetching password hash: %w", err)
	}
	return hash, nil
}

func (r *PostgresUserRepo) Insert(ctx context.Context, newUser *User) (*User, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "Insert", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "Insert"), slog.String("username", newUser.Username))

	query := `
        INSERT INTO users (id, name, username, email, password_hash)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING ` + userColumnsWithPassword

	start := time.Now()
	u, err := scanUserWithPassword(r.db.QueryRow(ctx, query,
		newUser.ID, newUser.Name, newUser.Username, newUser.Email, newUser.Password))
	r.observe(ctx, start, err)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique violation
			l.WarnContext(ctx, "Attempted to register duplicate username/email", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "Duplicate username/email")
			return nil, fmt.Errorf("user with same email or username already exists: %w", api.ErrConflict)
		}
		l.ErrorContext(ctx, "Failed to insert new user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return nil, fmt.Errorf("database error creating user: %w", err)
	}

	l.InfoContext(ctx, "User created", slog.String("userID", u.ID.String()))
	span.SetStatus(codes.Ok, "User created")
	return u, nil
}

func (r *PostgresUserRepo) UpdateProfile(ctx context.Context, userID uuid.UUID, name, bio, profileImage string) (*User, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "UpdateProfile", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "UpdateProfile"), slog.String("userID", userID.String()))

	query := `
        UPDATE users
        SET name = $2, bio = $3, profile_image = $4, updated_at = now()
        WHERE id = $1
        RETURNING ` + userColumns

	start := time.Now()
	u, err := scanUser(r.db.QueryRow(ctx, query, userID, name, bio, profileImage))
	r.observe(ctx, start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "User not found")
			return nil, fmt.Errorf("user %s: %w", userID, api.ErrNotFound)
		}
		l.ErrorContext(ctx, "Failed to update profile", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return nil, fmt.Errorf("database error updating profile: %w", err)
	}

	l.InfoContext(ctx, "Profile updated")
	span.SetStatus(codes.Ok, "Profile updated")
	return u, nil
}

func (r *PostgresUserRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, newHashedPassword string) error {
	l := r.logger.With(slog.String("method", "UpdatePassword"), slog.String("userID", userID.String()))

	start := time.Now()
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`,
		userID, newHashedPassword)
	r.observe(ctx, start, err)
	if err != nil {
		l.ErrorContext(ctx, "Failed to update password", slog.Any("error", err))
		return fmt.Errorf("database error updating password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", userID, api.ErrNotFound)
	}
	l.InfoContext(ctx, "Password updated")
	return nil
}

func (r *PostgresUserRepo) SetStatus(ctx context.Context, userID uuid.UUID, status string) error {
	l := r.logger.With(slog.String("method", "SetStatus"), slog.String("userID", userID.String()), slog.String("status", status))

	start := time.Now()
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET status = $2, updated_at = now() WHERE id = $1`,
		userID, status)
	r.observe(ctx, start, err)
	if err != nil {
		l.ErrorContext(ctx, "Failed to set status", slog.Any("error", err))
		return fmt.Errorf("database error setting status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", userID, api.ErrNotFound)
	}
	l.InfoContext(ctx, "Status set")
	return nil
}

const summaryColumns = `id, name, username, email, profile_image`

func collectSummaries(rows pgx.Rows) ([]Summary, error) {
	defer rows.Close()
	summaries := make([]Summary, 0)
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Name, &s.Username, &s.Email, &s.ProfileImage); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (r *PostgresUserRepo) List(ctx context.Context, callerID uuid.UUID, limit, offset int) ([]Summary, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "List", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.Int("db.limit", limit),
		attribute.Int("db.offset", offset),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "List"))

	query := `
        SELECT ` + summaryColumns + `
        FROM users
        WHERE status = 'active' AND id <> $1
        LIMIT $2 OFFSET $3`

	start := time.Now()
	rows, err := r.db.Query(ctx, query, callerID, limit, offset)
	r.observe(ctx, start, err)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list users", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return nil, fmt.Errorf("database error listing users: %w", err)
	}

	summaries, err := collectSummaries(rows)
	if err != nil {
		l.ErrorContext(ctx, "Failed to scan user rows", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Row scan failed")
		return nil, fmt.Errorf("database error scanning users: %w", err)
	}

	span.SetStatus(codes.Ok, "Users listed")
	return summaries, nil
}

func (r *PostgresUserRepo) Search(ctx context.Context, callerID uuid.UUID, value string, limit, offset int) ([]Summary, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "Search", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.search.value", value),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "Search"), slog.String("value", value))

	query := `
        SELECT ` + summaryColumns + `
        FROM users
        WHERE (name ILIKE '%' || $2 || '%' OR username ILIKE '%' || $2 || '%' OR email ILIKE '%' || $2 || '%')
          AND status = 'active' AND id <> $1
        ORDER BY created_at DESC
        LIMIT $3 OFFSET $4`

	start := time.Now()
	rows, err := r.db.Query(ctx, query, callerID, value, limit, offset)
	r.observe(ctx, start, err)
	if err != nil {
		l.ErrorContext(ctx, "Failed to search users", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return nil, fmt.Errorf("database error searching users: %w", err)
	}

	summaries, err := collectSummaries(rows)
	if err != nil {
		l.ErrorContext(ctx, "Failed to scan user rows", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Row scan failed")
		return nil, fmt.Errorf("database error scanning users: %w", err)
	}

	span.SetStatus(codes.Ok, "Users searched")
	return summaries, nil
}

func (r *PostgresUserRepo) AddReport(ctx context.Context, targetID, reporterID uuid.UUID) (int, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "AddReport", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.user.id", targetID.String()),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "AddReport"), slog.String("targetID", targetID.String()), slog.String("reporterID", reporterID.String()))

	// Appending only when absent keeps the reports set idempotent per reporter.
	query := `
        UPDATE users
        SET reports = CASE WHEN reports @> ARRAY[$2]::uuid[] THEN reports ELSE array_append(reports, $2) END,
            updated_at = now()
        WHERE id = $1
        RETURNING cardinality(reports)`

	var count int
	start := time.Now()
	err := r.db.QueryRow(ctx, query, targetID, reporterID).Scan(&count)
	r.observe(ctx, start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "User not found")
			return 0, fmt.Errorf("user %s: %w", targetID, api.ErrNotFound)
		}
		l.ErrorContext(ctx, "Failed to record report", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return 0, fmt.Errorf("database error recording report: %w", err)
	}

	l.InfoContext(ctx, "Report recorded", slog.Int("reportCount", count))
	span.SetStatus(codes.Ok, "Report recorded")
	return count, nil
}

func (r *PostgresUserRepo) RestrictAccount(ctx context.Context, userID uuid.UUID) error {
	l := r.logger.With(slog.String("method", "RestrictAccount"), slog.String("userID", userID.String()))

	start := time.Now()
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET status = 'restricted', updated_at = now() WHERE id = $1 AND status = 'active'`,
		userID)
	r.observe(ctx, start, err)
	if err != nil {
		l.ErrorContext(ctx, "Failed to restrict account", slog.Any("error", err))
		return fmt.Errorf("database error restricting account: %w", err)
	}
	if tag.RowsAffected() > 0 {
		l.WarnContext(ctx, "Account restricted after report threshold")
	}
	return nil
}
