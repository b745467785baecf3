package user

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/talkio/go-user-accounts/app/tracer"
	"github.com/talkio/go-user-accounts/internal/api"
	"github.com/talkio/go-user-accounts/internal/api/auth"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

var _ Handler = (*HandlerImpl)(nil)

// Handler is the HTTP surface of the account service.
type Handler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	GetProfile(w http.ResponseWriter, r *http.Request)
	ListUsers(w http.ResponseWriter, r *http.Request)
	SearchUser(w http.ResponseWriter, r *http.Request)
	UpdateProfile(w http.ResponseWriter, r *http.Request)
	UpdatePassword(w http.ResponseWriter, r *http.Request)
	DeleteAccount(w http.ResponseWriter, r *http.Request)
	ReportAccount(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	userService Service
	logger      *slog.Logger
	metrics     *tracer.AppMetrics
}

// NewHandlerImpl creates the account handler. metrics may be nil in tests.
func NewHandlerImpl(userService Service, logger *slog.Logger, metrics *tracer.AppMetrics) *HandlerImpl {
	return &HandlerImpl{
		userService: userService,
		logger:      logger,
		metrics:     metrics,
	}
}

// respondServiceError maps domain errors onto the API's error envelope.
// Client-fault conditions are all 400, matching how the API models them.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg, wrongPasswordMsg string) {
	switch {
	case errors.Is(err, ErrEmailExists):
		api.ErrorResponse(w, r, http.StatusBadRequest, "User with same email already exists")
	case errors.Is(err, ErrUsernameExists):
		api.ErrorResponse(w, r, http.StatusBadRequest, "User with same username already exists")
	case errors.Is(err, ErrAdminProfileHidden):
		api.ErrorResponse(w, r, http.StatusBadRequest, "You cannot view the admin profile")
	case errors.Is(err, ErrSelfReport):
		api.ErrorResponse(w, r, http.StatusBadRequest, "You cannot report your own account")
	case errors.Is(err, ErrWrongPassword):
		api.ErrorResponse(w, r, http.StatusBadRequest, wrongPasswordMsg)
	case errors.Is(err, api.ErrNotFound):
		api.ErrorResponse(w, r, http.StatusBadRequest, notFoundMsg)
	case errors.Is(err, api.ErrConflict):
		api.ErrorResponse(w, r, http.StatusBadRequest, "User with same email or username already exists")
	case api.ClientFault(err):
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request")
	default:
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
	}
}

// caller extracts the authenticated user id placed in context by the guard.
func caller(w http.ResponseWriter, r *http.Request, l *slog.Logger) (uuid.UUID, bool) {
	userIDStr, ok := auth.GetUserIDFromContext(r.Context())
	if !ok || userIDStr == "" {
		l.ErrorContext(r.Context(), "User ID not found in context")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		l.ErrorContext(r.Context(), "Invalid user ID format", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid user ID format")
		return uuid.Nil, false
	}
	return userID, true
}

func pageParams(r *http.Request) (int, int) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = defaultPage
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	return page, limit
}

// Register creates a new account.
func (h *HandlerImpl) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Register"))
	if h.metrics != nil {
		h.metrics.RegisterRequestsTotal.Add(ctx, 1)
	}

	var params RegisterRequest
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	name := strings.TrimSpace(params.Name)
	username := strings.TrimSpace(params.Username)
	email := strings.TrimSpace(params.Email)

	if name == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Please! provide the user name")
		return
	}
	if username == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Please! provide the username")
		return
	}
	if email == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Please! provide the user email")
		return
	}
	// The password is validated on a trimmed copy but stored verbatim.
	if strings.TrimSpace(params.Password) == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Please! provide the user password")
		return
	}

	created, token, err := h.userService.Register(ctx, name, username, email, params.Password)
	if err != nil {
		l.WarnContext(ctx, "Registration failed", slog.Any("error", err))
		respondServiceError(w, r, err, "User does not exists", "")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, AuthResponse{
		Message: "User successfully registered",
		Status:  http.StatusCreated,
		User:    created,
		Token:   token,
	})
}

// Login authenticates by email or username.
func (h *HandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Login"))
	if h.metrics != nil {
		h.metrics.LoginRequestsTotal.Add(ctx, 1)
	}

	var params LoginRequest
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	userInfo := strings.TrimSpace(params.UserInfo)
	if userInfo == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Please! provide username or email for login")
		return
	}
	if strings.TrimSpace(params.Password) == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Please! provide the account password")
		return
	}

	u, token, err := h.userService.Login(ctx, userInfo, params.Password)
	if err != nil {
		l.WarnContext(ctx, "Login failed", slog.Any("error", err))
		respondServiceError(w, r, err, "User does not exists", "Account password is not correct")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, AuthResponse{
		Message: "User successfully loggedIn",
		Status:  http.StatusOK,
		User:    u,
		Token:   token,
	})
}

// GetProfile returns the caller's own account, password excluded.
func (h *HandlerImpl) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "GetProfile"))

	userID, ok := caller(w, r, l)
	if !ok {
		return
	}
	accountType, _ := auth.GetAccountTypeFromContext(ctx)

	u, err := h.userService.GetProfile(ctx, userID, accountType)
	if err != nil {
		l.WarnContext(ctx, "Profile fetch failed", slog.Any("error", err))
		respondServiceError(w, r, err, "No user found", "")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, ProfileResponse{
		Message: "Successfully fetch user account",
		Status:  http.StatusOK,
		User:    u,
	})
}

// ListUsers pages through active accounts other than the caller.
func (h *HandlerImpl) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "ListUsers"))

	userID, ok := caller(w, r, l)
	if !ok {
		return
	}
	page, limit := pageParams(r)

	users, err := h.userService.ListUsers(ctx, userID, page, limit)
	if err != nil {
		l.ErrorContext(ctx, "Listing users failed", slog.Any("error", err))
		respondServiceError(w, r, err, "No user data found", "")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, ListResponse{
		Message: "Get all users list",
		Status:  http.StatusOK,
		Users:   users,
	})
}

// SearchUser filters accounts by name, username or email.
func (h *HandlerImpl) SearchUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "SearchUser"))

	userID, ok := caller(w, r, l)
	if !ok {
		return
	}
	page, limit := pageParams(r)
	value := r.URL.Query().Get("value")

	users, err := h.userService.SearchUsers(ctx, userID, value, page, limit)
	if err != nil {
		l.ErrorContext(ctx, "Searching users failed", slog.Any("error", err))
		respondServiceError(w, r, err, "No user data found", "")
		return
	}

	message := "Get all users list"
	if value != "" {
		message = "Lists of all users for search value " + value
	}

	api.WriteJSONResponse(w, r, http.StatusOK, ListResponse{
		Message: message,
		Status:  http.StatusOK,
		Users:   users,
	})
}

// UpdateProfile applies name/bio changes and an optional avatar upload.
// Accepts multipart form data (field "image" carries the file) or JSON.
func (h *HandlerImpl) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "UpdateProfile"))

	userID, ok := caller(w, r, l)
	if !ok {
		return
	}

	var name, bio, imagePath string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			l.WarnContext(ctx, "Failed to parse multipart form", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request format")
			return
		}
		name = r.FormValue("name")
		bio = r.FormValue("bio")

		file, header, err := r.FormFile("image")
		switch {
		case err == nil:
			defer file.Close()
			tmp, tmpErr := os.CreateTemp("", "avatar-*"+filepath.Ext(header.Filename))
			if tmpErr != nil {
				l.ErrorContext(ctx, "Failed to create temp file", slog.Any("error", tmpErr))
				api.ErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
				return
			}
			imagePath = tmp.Name()
			defer os.Remove(imagePath)
			if _, copyErr := io.Copy(tmp, file); copyErr != nil {
				tmp.Close()
				l.ErrorContext(ctx, "Failed to spool uploaded image", slog.Any("error", copyErr))
				api.ErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
				return
			}
			tmp.Close()
		case errors.Is(err, http.ErrMissingFile):
			// No image attached; keep the stored one.
		default:
			l.WarnContext(ctx, "Failed to read uploaded image", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid image upload")
			return
		}
	} else {
		var params UpdateProfileRequest
		if err := api.DecodeJSONBody(w, r, &params); err != nil {
			l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request format")
			return
		}
		name = params.Name
		bio = params.Bio
	}

	updated, err := h.userService.UpdateProfile(ctx, userID, name, bio, imagePath)
	if err != nil {
		l.ErrorContext(ctx, "Profile update failed", slog.Any("error", err))
		respondServiceError(w, r, err, "No user data found", "")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, ProfileResponse{
		Message: "Account details has been updated",
		Status:  http.StatusOK,
		User:    updated,
	})
}

// UpdatePassword changes the caller's password after verifying the old one.
func (h *HandlerImpl) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "UpdatePassword"))

	userID, ok := caller(w, r, l)
	if !ok {
		return
	}

	var params UpdatePasswordRequest
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if strings.TrimSpace(params.Password) == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Please! provide the old password")
		return
	}
	if strings.TrimSpace(params.NewPassword) == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Please! provide the new password")
		return
	}
	if strings.TrimSpace(params.ConfirmPassword) == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Please! provide the confirm password")
		return
	}
	if params.NewPassword != params.ConfirmPassword {
		api.ErrorResponse(w, r, http.StatusBadRequest, "New password & confirm password did not matched")
		return
	}

	if err := h.userService.UpdatePassword(ctx, userID, params.Password, params.NewPassword); err != nil {
		l.WarnContext(ctx, "Password change failed", slog.Any("error", err))
		respondServiceError(w, r, err, "No user found", "Provided password is not correct")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, MessageResponse{
		Message: "Account password has been changed",
		Status:  http.StatusOK,
	})
}

// DeleteAccount soft-deletes the caller's own account.
func (h *HandlerImpl) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "DeleteAccount"))

	userID, ok := caller(w, r, l)
	if !ok {
		return
	}

	if err := h.userService.DeleteAccount(ctx, userID); err != nil {
		l.ErrorContext(ctx, "Account deletion failed", slog.Any("error", err))
		respondServiceError(w, r, err, "No user data found", "")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, MessageResponse{
		Message: "Account has been deleted",
		Status:  http.StatusOK,
	})
}

// ReportAccount flags another account on behalf of the caller.
func (h *HandlerImpl) ReportAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "ReportAccount"))

	userID, ok := caller(w, r, l)
	if !ok {
		return
	}

	targetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid user id")
		return
	}

	if err := h.userService.ReportAccount(ctx, userID, targetID); err != nil {
		l.WarnContext(ctx, "Reporting account failed", slog.Any("error", err))
		respondServiceError(w, r, err, "No user data found", "")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, MessageResponse{
		Message: "Account has been reported",
		Status:  http.StatusOK,
	})
}
