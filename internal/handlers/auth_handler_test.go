package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "budgettracker/internal/errors"
	"budgettracker/internal/logger"
	"budgettracker/internal/middleware"
	"budgettracker/internal/models"
	"budgettracker/internal/validator"
)

// --- mock services ---

type mockUserService struct {
	createUserFn        func(username, password string) (*models.User, error)
	getUserByUsernameFn func(username string) (*models.User, error)
	getUserByIDFn       func(id string) (*models.User, error)
	verifyPasswordFn    func(user *models.User, password string) bool
}

func (m *mockUserService) CreateUser(username, password string) (*models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(username, password)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByUsername(username string) (*models.User, error) {
	if m.getUserByUsernameFn != nil {
		return m.getUserByUsernameFn(username)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByID(id string) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	return &models.User{}, nil
}

func (m *mockUserService) VerifyPassword(user *models.User, password string) bool {
	if m.verifyPasswordFn != nil {
		return m.verifyPasswordFn(user, password)
	}
	return true
}

type auditEntry struct {
	userID, action, resourceID string
}

type mockAuditService struct {
	entries []auditEntry
}

func (m *mockAuditService) Log(userID, action, _, resourceID, _ string, _ map[string]any) {
	m.entries = append(m.entries, auditEntry{userID, action, resourceID})
}

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

var testTokens = middleware.NewTokenManager("handler-test-secret", time.Hour)

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	r := gin.New()
	r.POST("/register", handler.Register)
	r.POST("/login", handler.Login)
	return r
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]any, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

// --- tests ---

func TestAuthHandler_Register(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		audit := &mockAuditService{}
		userSvc := &mockUserService{
			createUserFn: func(username, password string) (*models.User, error) {
				if username != "alice" || password != "secret123" {
					t.Errorf("unexpected credentials %q/%q", username, password)
				}
				return &models.User{Base: models.Base{ID: "u-1"}, Username: username}, nil
			},
		}
		router := setupAuthRouter(NewAuthHandler(userSvc, audit, testTokens))

		rec := doRequest(router, http.MethodPost, "/register", `{"username":"alice","password":"secret123"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(audit.entries) != 1 || audit.entries[0].action != "REGISTER" {
			t.Errorf("expected a REGISTER audit entry, got %v", audit.entries)
		}
	})

	t.Run("returns 409 on duplicate username", func(t *testing.T) {
		userSvc := &mockUserService{
			createUserFn: func(string, string) (*models.User, error) {
				return nil, apperrors.ErrDuplicateUsername
			},
		}
		router := setupAuthRouter(NewAuthHandler(userSvc, &mockAuditService{}, testTokens))

		rec := doRequest(router, http.MethodPost, "/register", `{"username":"alice","password":"secret123"}`)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_USERNAME")
	})

	t.Run("returns 400 on invalid input", func(t *testing.T) {
		router := setupAuthRouter(NewAuthHandler(&mockUserService{}, &mockAuditService{}, testTokens))

		for _, body := range []string{
			`{"username":"","password":"secret123"}`,
			`{"username":"alice","password":"123"}`,
			`{"username":"alice"}`,
			`not json`,
		} {
			rec := doRequest(router, http.MethodPost, "/register", body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("body %s: expected 400, got %d", body, rec.Code)
				continue
			}
			assertErrorCode(t, parseJSON(t, rec), "VALIDATION_ERROR")
		}
	})
}

func TestAuthHandler_Login(t *testing.T) {
	user := &models.User{Base: models.Base{ID: "0190f3a0-8c4e-7b3a-9d2e-1f2a3b4c5d6e"}, Username: "alice"}

	t.Run("returns token on success", func(t *testing.T) {
		userSvc := &mockUserService{
			getUserByUsernameFn: func(string) (*models.User, error) { return user, nil },
			verifyPasswordFn:    func(_ *models.User, password string) bool { return password == "secret123" },
		}
		router := setupAuthRouter(NewAuthHandler(userSvc, &mockAuditService{}, testTokens))

		rec := doRequest(router, http.MethodPost, "/login", `{"username":"alice","password":"secret123"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		token, _ := parseJSON(t, rec)["token"].(string)
		claims, err := testTokens.Parse(token)
		if err != nil {
			t.Fatalf("issued token does not verify: %v", err)
		}
		if claims.UserID != user.ID {
			t.Errorf("token user = %s, want %s", claims.UserID, user.ID)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		userSvc := &mockUserService{
			getUserByUsernameFn: func(string) (*models.User, error) { return user, nil },
			verifyPasswordFn:    func(*models.User, string) bool { return false },
		}
		router := setupAuthRouter(NewAuthHandler(userSvc, &mockAuditService{}, testTokens))

		rec := doRequest(router, http.MethodPost, "/login", `{"username":"alice","password":"nope"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_CREDENTIALS")
	})

	t.Run("unknown user looks like wrong password", func(t *testing.T) {
		userSvc := &mockUserService{
			getUserByUsernameFn: func(string) (*models.User, error) { return nil, apperrors.ErrUserNotFound },
		}
		router := setupAuthRouter(NewAuthHandler(userSvc, &mockAuditService{}, testTokens))

		rec := doRequest(router, http.MethodPost, "/login", `{"username":"ghost","password":"secret123"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_CREDENTIALS")
	})

	t.Run("database failure is a server error", func(t *testing.T) {
		userSvc := &mockUserService{
			getUserByUsernameFn: func(string) (*models.User, error) {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, errTest)
			},
		}
		router := setupAuthRouter(NewAuthHandler(userSvc, &mockAuditService{}, testTokens))

		rec := doRequest(router, http.MethodPost, "/login", `{"username":"alice","password":"secret123"}`)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}

var errTest = errors.New("connection refused")
