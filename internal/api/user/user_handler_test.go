package user

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/talkio/go-user-accounts/internal/api/auth"
)

// MockService is a testify mock over the Service contract.
type MockService struct {
	mock.Mock
}

var _ Service = (*MockService)(nil)

func (m *MockService) Register(ctx context.Context, name, username, email, password string) (*User, string, error) {
	args := m.Called(ctx, name, username, email, password)
	u, _ := args.Get(0).(*User)
	return u, args.String(1), args.Error(2)
}

func (m *MockService) Login(ctx context.Context, userInfo, password string) (*User, string, error) {
	args := m.Called(ctx, userInfo, password)
	u, _ := args.Get(0).(*User)
	return u, args.String(1), args.Error(2)
}

func (m *MockService) GetProfile(ctx context.Context, callerID uuid.UUID, callerAccountType string) (*User, error) {
	args := m.Called(ctx, callerID, callerAccountType)
	u, _ := args.Get(0).(*User)
	return u, args.Error(1)
}

func (m *MockService) ListUsers(ctx context.Context, callerID uuid.UUID, page, limit int) ([]Summary, error) {
	args := m.Called(ctx, callerID, page, limit)
	users, _ := args.Get(0).([]Summary)
	return users, args.Error(1)
}

func (m *MockService) SearchUsers(ctx context.Context, callerID uuid.UUID, value string, page, limit int) ([]Summary, error) {
	args := m.Called(ctx, callerID, value, page, limit)
	users, _ := args.Get(0).([]Summary)
	return users, args.Error(1)
}

func (m *MockService) UpdateProfile(ctx context.Context, callerID uuid.UUID, name, bio, imagePath string) (*User, error) {
	args := m.Called(ctx, callerID, name, bio, imagePath)
	u, _ := args.Get(0).(*User)
	return u, args.Error(1)
}

func (m *MockService) UpdatePassword(ctx context.Context, callerID uuid.UUID, password, newPassword string) error {
	args := m.Called(ctx, callerID, password, newPassword)
	return args.Error(0)
}

func (m *MockService) DeleteAccount(ctx context.Context, callerID uuid.UUID) error {
	args := m.Called(ctx, callerID)
	return args.Error(0)
}

func (m *MockService) ReportAccount(ctx context.Context, callerID, targetID uuid.UUID) error {
	args := m.Called(ctx, callerID, targetID)
	return args.Error(0)
}

func newTestHandler(svc Service) *HandlerImpl {
	return NewHandlerImpl(svc, testLogger(), nil)
}

// authedRequest stamps the context the way the token guard does.
func authedRequest(r *http.Request, callerID uuid.UUID, accountType string) *http.Request {
	ctx := context.WithValue(r.Context(), auth.UserIDKey, callerID.String())
	ctx = context.WithValue(ctx, auth.AccountTypeKey, accountType)
	return r.WithContext(ctx)
}

func errorMessage(t *testing.T, body *bytes.Buffer) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Status  int    `json:"status"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body.Bytes(), &envelope))
	return envelope.Error.Message
}

func TestHandlerImpl_Register(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		svc := new(MockService)
		h := newTestHandler(svc)

		created := &User{ID: uuid.New(), Name: "Ada", Username: "ada", Email: "ada@example.com"}
		svc.On("Register", mock.Anything, "Ada", "ada", "ada@example.com", "secret1").
			Return(created, "signed-token", nil).Once()

		body := `{"name":"Ada","username":"ada","email":"ada@example.com","password":"secret1"}`
		req := httptest.NewRequest(http.MethodPost, "/api/users/register", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		h.Register(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code)
		var resp AuthResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "User successfully registered", resp.Message)
		assert.Equal(t, http.StatusCreated, resp.Status)
		assert.Equal(t, "signed-token", resp.Token)
		require.NotNil(t, resp.User)
		assert.Equal(t, "ada", resp.User.Username)
		svc.AssertExpectations(t)
	})

	t.Run("KeepsPasswordVerbatim", func(t *testing.T) {
		svc := new(MockService)
		h := newTestHandler(svc)

		created := &User{ID: uuid.New(), Username: "ada"}
		svc.On("Register", mock.Anything, "Ada", "ada", "ada@example.com", " secret1 ").
			Return(created, "signed-token", nil).Once()

		body := `{"name":"Ada","username":"ada","email":"ada@example.com","password":" secret1 "}`
		req := httptest.NewRequest(http.MethodPost, "/api/users/register", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		h.Register(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		svc.AssertExpectations(t)
	})

	t.Run("MissingFields", func(t *testing.T) {
		cases := []struct {
			name    string
			body    string
			message string
		}{
			{"Name", `{"username":"ada","email":"a@b.c","password":"p"}`, "Please! provide the user name"},
			{"Username", `{"name":"Ada","email":"a@b.c","password":"p"}`, "Please! provide the username"},
			{"Email", `{"name":"Ada","username":"ada","password":"p"}`, "Please! provide the user email"},
			{"Password", `{"name":"Ada","username":"ada","email":"a@b.c"}`, "Please! provide the user password"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				svc := new(MockService)
				h := newTestHandler(svc)

				req := httptest.NewRequest(http.MethodPost, "/api/users/register", strings.NewReader(tc.body))
				req.Header.Set("Content-Type", "application/json")
				rr := httptest.NewRecorder()

				h.Register(rr, req)

				assert.Equal(t, http.StatusBadRequest, rr.Code)
				assert.Equal(t, tc.message, errorMessage(t, rr.Body))
				svc.AssertNotCalled(t, "Register",
					mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			})
		}
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		svc := new(MockService)
		h := newTestHandler(svc)

		svc.On("Register", mock.Anything, "Ada", "ada", "ada@example.com", "secret1").
			Return(nil, "", ErrEmailExists).Once()

		body := `{"name":"Ada","username":"ada","email":"ada@example.com","password":"secret1"}`
		req := httptest.NewRequest(http.MethodPost, "/api/users/register", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		h.Register(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "User with same email already exists", errorMessage(t, rr.Body))
	})

	t.Run("MalformedBody", func(t *testing.T) {
		svc := new(MockService)
		h := newTestHandler(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/users/register", strings.NewReader("{not json"))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		h.Register(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestHandlerImpl_Login(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := new(MockService)
		h := newTestHandler(svc)

		u := &User{ID: uuid.New(), Username: "ada"}
		svc.On("Login", mock.Anything, "ada", "secret1").Return(u, "signed-token", nil).Once()

		body := `{"userInfo":"ada","password":"secret1"}`
		req := httptest.NewRequest(http.MethodPost, "/api/users/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		h.Login(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp AuthResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "User successfully loggedIn", resp.Message)
		assert.Equal(t, "signed-token", resp.Token)
	})

	t.Run("KeepsPasswordVerbatim", func(t *testing.T) {
		svc := new(MockService)
		h := newTestHandler(svc)

		u := &User{ID: uuid.New(), Username: "ada"}
		svc.On("Login", mock.Anything, "ada", " secret1 ").Return(u, "signed-token", nil).Once()

		body := `{"userInfo":"ada","password":" secret1 "}`
		req := httptest.NewRequest(http.MethodPost, "/api/users/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		h.Login(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		svc.AssertExpectations(t)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		svc := new(MockService)
		h := newTestHandler(svc)

		svc.On("Login", mock.Anything, "ada", "wrong").Return(nil, "", ErrWrongPassword).Once()

		body := `{"userInfo":"ada","password":"wrong"}`
		req := httptest.NewRequest(http.MethodPost, "/api/users/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		h.Login(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Account password is not correct", errorMessage(t, rr.Body))
	})

	t.Run("UnknownUser", func(t *testing.T) {
		svc := new(MockService)
		h := newTestHandler(svc)

		svc.On("Login", mock.Anything, "ghost", "secret1").Return(nil, "", notFoundErr()).Once()

		body := `{"userInfo":"ghost","password":"secret1"}`
		req := httptest.NewRequest(http.MethodPost, "/api/users/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		h.Login(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "User does not exists", errorMessage(t, rr.Body))
	})

	t.Run("MissingUserInfo", func(t *testing.T) {
		svc := new(MockService)
		h := newTestHandler(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/users/login", strings.NewReader(`{"password":"p"}`))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		h.Login(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Please! provide username or email for login", errorMessage(t, rr.Body))
	})
}

func TestHandlerImpl_GetProfile(t *testing.T) {
	callerID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		svc := new(MockService)
		h := newTestHandler(svc)

		svc.On("GetProfile", mock.Anything, callerID, AccountTypeUser).
			Return(&User{ID: callerID, Username: "ada"}, nil).Once()

		req := authedRequest(httptest.NewRequest(http.MethodGet, "/api/users", nil), callerID, AccountTypeUser)
		rr := httptest.NewRecorder()

		h.GetProfile(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp ProfileResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "Successfully fetch user account", resp.Message)
		assert.Equal(t, callerID, resp.User.ID)
	})

	t.Run("NoContext", func(t *testing.T) {
		svc := new(MockService)
		h := newTestHandler(svc)

		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		rr := httptest.NewRecorder()

		h.GetProfile(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		svc.AssertNotCalled(t, "GetProfile", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("NotFound", func(t *testing.T) {
		svc := new(MockService)
		h := newTestHandler(svc)

		svc.On("GetProfile", mock.Anything, callerID, AccountTypeUser).
			Return(nil, notFoundErr()).Once()

		req := authedRequest(httptest.NewRequest(http.MethodGet, "/api/users", nil), callerID, AccountTypeUser)
		rr := httptest.NewRecorder()

		h.GetProfile(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "No user found", errorMessage(t, rr.Body))
	})
}

func TestHandlerImpl_ListUsers(t *testing.T) {
	callerID := uuid.New()

	t.Run("DefaultPagination", func(t *testing.T) {
		svc := new(MockService)
		h := newTestHandler(svc)

		svc.On("ListUsers", mock.Anything, callerID, 1, 10).
			Return([]Summary{{ID: uuid.New(), Username: "grace"}}, nil).Once()

		req := authedRequest(httptest.NewRequest(http.MethodGet, "/api/users/list", nil), callerID, AccountTypeUser)
		rr := httptest.NewRecorder()

		h.ListUsers(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp ListResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "Get all users list", resp.Message)
		assert.Len(t, resp.Users, 1)
		svc.AssertExpectations(t)
	})

	t.Run("ExplicitPagination", func(t *testing.T) {
		svc := new(MockService)
		h := newTestHandler(svc)

		svc.On("ListUsers", mock.Anything, callerID, 3, 25).Return([]Summary{}, nil).Once()

		req := authedRequest(httptest.NewRequest(http.MethodGet, "/api/users/list?page=3&limit=25", nil), callerID, AccountTypeUser)
		rr := httptest.NewRecorder()

		h.ListUsers(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		svc.AssertExpectations(t)
	})

	t.Run("BadPaginationFallsBack", func(t *testing.T) {
		svc := new(MockService)
		h := newTestHandler(svc)

		svc.On("ListUsers", mock.Anything, callerID, 1, 10).Return([]Summary{}, nil).Once()

		req := authedRequest(httptest.NewRequest(http.MethodGet, "/api/users/list?page=zero&limit=-4", nil), callerID, AccountTypeUser)
		rr := httptest.NewRecorder()

		h.ListUsers(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		svc.AssertExpectations(t)
	})
}

func TestHandlerImpl_SearchUser(t *testing.T) {
	callerID := uuid.New()

	t.Run("WithValue", func(t *testing.T) {
		svc := new(MockService)
		h := newTestHandler(svc)

		svc.On("SearchUsers", mock.Anything, callerID, "gra", 1, 10).
			Return([]Summary{{Username: "grace"}}, nil).Once()

		req := authedRequest(httptest.NewRequest(http.MethodGet, "/api/users/search-user?value=gra", nil), callerID, AccountTypeUser)
		rr := httptest.NewRecorder()

		h.SearchUser(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp ListResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "Lists of all users for search value gra", resp.Message)
	})

	t.Run("EmptyValue", func(t *testing.T) {
		svc := new(MockService)
		h := newTestHandler(svc)

		svc.On("SearchUsers", mock.Anything, callerID, "", 1, 10).Return([]Summary{}, nil).Once()

		req := authedRequest(httptest.NewRequest(http.MethodGet, "/api/users/search-user", nil), callerID, AccountTypeUser)
		rr := httptest.NewRecorder()

		h.SearchUser(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp ListResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "Get all users list", resp.Message)
	})
}

func TestHandlerImpl_UpdateProfile(t *testing.T) {
	callerID := uuid.New()

	t.Run("JSONBody", func(t *testing.T) {
		svc := new(MockService)
		h := newTestHandler(svc)

		svc.On("UpdateProfile", mock.Anything, callerID, "New Name", "New bio", "").
			Return(&User{ID: callerID, Name: "New Name", Bio: "New bio"}, nil).Once()

		body := `{"name":"New Name","bio":"New bio"}`
		req := authedRequest(httptest.NewRequest(http.MethodPut, "/api/users/update-profile", strings.NewReader(body)), callerID, AccountTypeUser)
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		h.UpdateProfile(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp ProfileResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "Account details has been updated", resp.Message)
		assert.Equal(t, "New Name", resp.User.Name)
	})

	t.Run("MultipartWithImage", func(t *testing.T) {
		svc := new(MockService)
		h := newTestHandler(svc)

		svc.On("UpdateProfile", mock.Anything, callerID, "New Name", "", mock.MatchedBy(func(path string) bool {
			return strings.Contains(path, "avatar-") && strings.HasSuffix(path, ".png")
		})).Return(&User{ID: callerID, Name: "New Name"}, nil).Once()

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("name", "New Name"))
		fw, err := mw.CreateFormFile("image", "avatar.png")
		require.NoError(t, err)
		_, err = fw.Write([]byte("png-bytes"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := authedRequest(httptest.NewRequest(http.MethodPut, "/api/users/update-profile", &buf), callerID, AccountTypeUser)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rr := httptest.NewRecorder()

		h.UpdateProfile(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		svc.AssertExpectations(t)
	})

	t.Run("MultipartWithoutImage", func(t *testing.T) {
		svc := new(MockService)
		h := newTestHandler(svc)

		svc.On("UpdateProfile", mock.Anything, callerID, "", "Fresh bio", "").
			Return(&User{ID: callerID, Bio: "Fresh bio"}, nil).Once()

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("bio", "Fresh bio"))
		require.NoError(t, mw.Close())

		req := authedRequest(httptest.NewRequest(http.MethodPut, "/api/users/update-profile", &buf), callerID, AccountTypeUser)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rr := httptest.NewRecorder()

		h.UpdateProfile(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		svc.AssertExpectations(t)
	})
}

func TestHandlerImpl_UpdatePassword(t *testing.T) {
	callerID := uuid.New()

	newRequest := func(body string) *http.Request {
		req := httptest.NewRequest(http.MethodPatch, "/api/users/update-password", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return authedRequest(req, callerID, AccountTypeUser)
	}

	t.Run("Success", func(t *testing.T) {
		svc := new(MockService)
		h := newTestHandler(svc)

		svc.On("UpdatePassword", mock.Anything, callerID, "old-secret", "new-secret").Return(nil).Once()

		rr := httptest.NewRecorder()
		h.UpdatePassword(rr, newRequest(`{"password":"old-secret","newPassword":"new-secret","confirmPassword":"new-secret"}`))

		require.Equal(t, http.StatusOK, rr.Code)
		var resp MessageResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "Account password has been changed", resp.Message)
	})

	t.Run("ConfirmMismatch", func(t *testing.T) {
		svc := new(MockService)
		h := newTestHandler(svc)

		rr := httptest.NewRecorder()
		h.UpdatePassword(rr, newRequest(`{"password":"old","newPassword":"new-1","confirmPassword":"new-2"}`))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "New password & confirm password did not matched", errorMessage(t, rr.Body))
		svc.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("WrongOldPassword", func(t *testing.T) {
		svc := new(MockService)
		h := newTestHandler(svc)

		svc.On("UpdatePassword", mock.Anything, callerID, "bad-old", "new-secret").
			Return(ErrWrongPassword).Once()

		rr := httptest.NewRecorder()
		h.UpdatePassword(rr, newRequest(`{"password":"bad-old","newPassword":"new-secret","confirmPassword":"new-secret"}`))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Provided password is not correct", errorMessage(t, rr.Body))
	})

	t.Run("MissingOldPassword", func(t *testing.T) {
		svc := new(MockService)
		h := newTestHandler(svc)

		rr := httptest.NewRecorder()
		h.UpdatePassword(rr, newRequest(`{"newPassword":"new-secret","confirmPassword":"new-secret"}`))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Please! provide the old password", errorMessage(t, rr.Body))
	})

	t.Run("WhitespaceOldPasswordRejected", func(t *testing.T) {
		svc := new(MockService)
		h := newTestHandler(svc)

		rr := httptest.NewRecorder()
		h.UpdatePassword(rr, newRequest(`{"password":"   ","newPassword":"new-secret","confirmPassword":"new-secret"}`))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Please! provide the old password", errorMessage(t, rr.Body))
		svc.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("KeepsPasswordVerbatim", func(t *testing.T) {
		svc := new(MockService)
		h := newTestHandler(svc)

		svc.On("UpdatePassword", mock.Anything, callerID, " old secret ", " new secret ").Return(nil).Once()

		rr := httptest.NewRecorder()
		h.UpdatePassword(rr, newRequest(`{"password":" old secret ","newPassword":" new secret ","confirmPassword":" new secret "}`))

		assert.Equal(t, http.StatusOK, rr.Code)
		svc.AssertExpectations(t)
	})
}

func TestHandlerImpl_DeleteAccount(t *testing.T) {
	callerID := uuid.New()

	svc := new(MockService)
	h := newTestHandler(svc)

	svc.On("DeleteAccount", mock.Anything, callerID).Return(nil).Once()

	req := authedRequest(httptest.NewRequest(http.MethodDelete, "/api/users/delete-account", nil), callerID, AccountTypeUser)
	rr := httptest.NewRecorder()

	h.DeleteAccount(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp MessageResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Account has been deleted", resp.Message)
	svc.AssertExpectations(t)
}

func TestHandlerImpl_ReportAccount(t *testing.T) {
	callerID := uuid.New()
	targetID := uuid.New()

	newRequest := func(target string) *http.Request {
		req := httptest.NewRequest(http.MethodPatch, "/api/users/report-account/"+target, nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", target)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
		return authedRequest(req, callerID, AccountTypeUser)
	}

	t.Run("Success", func(t *testing.T) {
		svc := new(MockService)
		h := newTestHandler(svc)

		svc.On("ReportAccount", mock.Anything, callerID, targetID).Return(nil).Once()

		rr := httptest.NewRecorder()
		h.ReportAccount(rr, newRequest(targetID.String()))

		require.Equal(t, http.StatusOK, rr.Code)
		var resp MessageResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "Account has been reported", resp.Message)
	})

	t.Run("BadTargetID", func(t *testing.T) {
		svc := new(MockService)
		h := newTestHandler(svc)

		rr := httptest.NewRecorder()
		h.ReportAccount(rr, newRequest("not-a-uuid"))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid user id", errorMessage(t, rr.Body))
		svc.AssertNotCalled(t, "ReportAccount", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("SelfReport", func(t *testing.T) {
		svc := new(MockService)
		h := newTestHandler(svc)

		svc.On("ReportAccount", mock.Anything, callerID, callerID).Return(ErrSelfReport).Once()

		rr := httptest.NewRecorder()
		h.ReportAccount(rr, newRequest(callerID.String()))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "You cannot report your own account", errorMessage(t, rr.Body))
	})
}
