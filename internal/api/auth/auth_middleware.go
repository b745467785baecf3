package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/talkio/go-user-accounts/internal/api"
)

// TokenHeader is the request header carrying the authentication token.
// The token may alternatively arrive as the "token" field of a JSON body or
// a multipart form.
const TokenHeader = "x-access-token"

// Typed context keys for the verified identity.
type contextKey string

const UserIDKey contextKey = "userID"
const AccountTypeKey contextKey = "accountType"

// AccountStatusProvider looks up an account's status, and nothing else.
// Satisfied by the user repository.
type AccountStatusProvider interface {
	GetAccountStatus(ctx context.Context, userID uuid.UUID) (string, error)
}

// Authenticate validates the inbound token and the referenced account's
// status before allowing a request to proceed. Gate order:
// token present -> token valid -> account exists -> account active.
func Authenticate(logger *slog.Logger, tokens *TokenService, accounts AccountStatusProvider) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			tokenString := extractToken(r)
			if tokenString == "" {
				l.WarnContext(ctx, "Missing authentication token")
				api.ErrorResponse(w, r, http.StatusBadRequest, "Token not found")
				return
			}

			claims, err := tokens.Verify(tokenString)
			if err != nil {
				l.WarnContext(ctx, "Token verification failed", slog.Any("error", err))
				api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid or expired token")
				return
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				l.WarnContext(ctx, "Token subject is not a valid user id", slog.Any("error", err))
				api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid or expired token")
				return
			}

			status, err := accounts.GetAccountStatus(ctx, userID)
			if err != nil {
				if errors.Is(err, api.ErrNotFound) || errors.Is(err, pgx.ErrNoRows) {
					l.WarnContext(ctx, "Token subject does not exist", slog.String("userID", claims.UserID))
					api.ErrorResponse(w, r, http.StatusBadRequest, "No user data found")
					return
				}
				l.ErrorContext(ctx, "Account status lookup failed", slog.Any("error", err))
				api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to verify account status")
				return
			}

			if status != "active" {
				l.WarnContext(ctx, "Account is not active", slog.String("userID", claims.UserID), slog.String("status", status))
				api.ErrorResponse(w, r, http.StatusBadRequest, "User profile is not active")
				return
			}

			ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, AccountTypeKey, claims.AccountType)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken pulls the token from the designated header or, failing that,
// from the "token" field of a JSON or multipart body. The body is restored
// (JSON) or left parsed (multipart) so the handler can consume it again.
func extractToken(r *http.Request) string {
	if token := r.Header.Get(TokenHeader); token != "" {
		return token
	}
	if r.Body == nil {
		return ""
	}

	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		// ParseMultipartForm caches the parsed form on the request, so the
		// handler's own ParseMultipartForm call is a no-op.
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return ""
		}
		return r.FormValue("token")
	}

	if !strings.HasPrefix(contentType, "application/json") {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1_048_576))
	if err != nil {
		return ""
	}
	// Chain any unread remainder so oversized bodies reach the handler intact.
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))

	var probe struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(body, &probe)
	return probe.Token
}

// GetUserIDFromContext returns the verified caller id set by Authenticate.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// GetAccountTypeFromContext returns the verified caller account type.
func GetAccountTypeFromContext(ctx context.Context) (string, bool) {
	accountType, ok := ctx.Value(AccountTypeKey).(string)
	return accountType, ok
}
