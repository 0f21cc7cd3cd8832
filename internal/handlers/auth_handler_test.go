package handlers

import (
	"bytes"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/visitorlog/visitorlog-backend/internal/database"
	"github.com/visitorlog/visitorlog-backend/internal/middleware"
	"github.com/visitorlog/visitorlog-backend/internal/models"
	"github.com/visitorlog/visitorlog-backend/internal/services"
	"github.com/visitorlog/visitorlog-backend/pkg/session"
)

type fakeUserStore struct {
	user *models.User
}

func (f *fakeUserStore) GetByUsername(username string) (*models.User, error) {
	if f.user != nil && f.user.Username == username {
		return f.user, nil
	}
	return nil, sql.ErrNoRows
}

func testStaffUser(t *testing.T, username, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           7,
		Username:     username,
		PasswordHash: string(hash),
		Role:         models.RoleStaff,
	}
}

func newLoginRouter(t *testing.T, users *fakeUserStore, mock sqlmock.Sqlmock, mockDB *sqlx.DB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	wrapped := &database.PostgresDB{DB: mockDB}
	handler := NewAuthHandler(
		services.NewAuthService(users),
		database.NewSessionRepository(wrapped),
		session.NewService("test-secret", time.Hour, 30*24*time.Hour),
		middleware.CookieOptions{Name: "visitorlog_session"},
		nil,
		nil,
		logger,
	)

	router := gin.New()
	router.POST("/auth/login", handler.Login)
	return router
}

func newThrottledLoginRouter(t *testing.T, users *fakeUserStore, mockDB *sqlx.DB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	wrapped := &database.PostgresDB{DB: mockDB}
	handler := NewAuthHandler(
		services.NewAuthService(users),
		database.NewSessionRepository(wrapped),
		session.NewService("test-secret", time.Hour, 30*24*time.Hour),
		middleware.CookieOptions{Name: "visitorlog_session"},
		services.NewRateLimitService(wrapped),
		nil,
		logger,
	)

	router := gin.New()
	router.POST("/auth/login", handler.Login)
	return router
}

func TestLogin_Success(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "sqlmock")

	users := &fakeUserStore{user: testStaffUser(t, "reception", "letmein")}
	mock.ExpectExec("INSERT INTO user_sessions").WillReturnResult(sqlmock.NewResult(1, 1))

	router := newLoginRouter(t, users, mock, db)

	body := bytes.NewBufferString(`{"username":"reception","password":"letmein"}`)
	req := httptest.NewRequest("POST", "/auth/login", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "reception")
	assert.Contains(t, w.Body.String(), models.RoleStaff)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "visitorlog_session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.NotEmpty(t, cookies[0].Value)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_WrongPassword(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "sqlmock")

	users := &fakeUserStore{user: testStaffUser(t, "reception", "letmein")}
	router := newLoginRouter(t, users, mock, db)

	body := bytes.NewBufferString(`{"username":"reception","password":"wrong"}`)
	req := httptest.NewRequest("POST", "/auth/login", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid username or password")
	assert.Empty(t, w.Result().Cookies())
}

func TestLogin_UnknownUser(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "sqlmock")

	router := newLoginRouter(t, &fakeUserStore{}, mock, db)

	body := bytes.NewBufferString(`{"username":"ghost","password":"whatever"}`)
	req := httptest.NewRequest("POST", "/auth/login", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_RateLimited(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "sqlmock")

	users := &fakeUserStore{user: testStaffUser(t, "reception", "letmein")}

	// Five recent failures for this username puts it over the limit.
	mock.ExpectQuery("SELECT COUNT(.+) FROM login_rate_limits").
		WithArgs("reception", "username", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "created_at"}).
			AddRow(5, time.Now().Add(-time.Minute)))

	router := newThrottledLoginRouter(t, users, db)

	body := bytes.NewBufferString(`{"username":"reception","password":"letmein"}`)
	req := httptest.NewRequest("POST", "/auth/login", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Empty(t, w.Result().Cookies())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_FailureRecordedForThrottling(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "sqlmock")

	users := &fakeUserStore{user: testStaffUser(t, "reception", "letmein")}

	mock.ExpectQuery("SELECT COUNT(.+) FROM login_rate_limits").
		WithArgs("reception", "username", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "created_at"}).
			AddRow(1, time.Now().Add(-time.Minute)))
	mock.ExpectQuery("SELECT COUNT(.+) FROM login_rate_limits").
		WithArgs(sqlmock.AnyArg(), "ip", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "created_at"}).
			AddRow(0, time.Now()))
	mock.ExpectExec("INSERT INTO login_rate_limits").
		WithArgs("reception", "username").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO login_rate_limits").
		WithArgs(sqlmock.AnyArg(), "ip").
		WillReturnResult(sqlmock.NewResult(2, 1))

	router := newThrottledLoginRouter(t, users, db)

	body := bytes.NewBufferString(`{"username":"reception","password":"wrong"}`)
	req := httptest.NewRequest("POST", "/auth/login", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_MissingFields(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "sqlmock")

	router := newLoginRouter(t, &fakeUserStore{}, mock, db)

	body := bytes.NewBufferString(`{"username":"reception"}`)
	req := httptest.NewRequest("POST", "/auth/login", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
