package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"clinic-pos/internal/auth"
	"clinic-pos/internal/config"
	"clinic-pos/internal/database"
	"clinic-pos/internal/models"
	"clinic-pos/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	t        *testing.T
	db       *gorm.DB
	store    *storage.LocalStore
	router   *gin.Engine
	tokens   *auth.Tokens
	admin    models.User
	employee models.User
}

type envOption func(*Handler)

func withAssistant(a Assistant) envOption {
	return func(h *Handler) { h.assistant = a }
}

func newEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	db, err := database.OpenMemory(strings.ReplaceAll(t.Name(), "/", "_") + "_" + uuid.NewString()[:8])
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	uploadDir := t.TempDir()
	store, err := storage.NewLocalStore(uploadDir)
	require.NoError(t, err)

	cfg := config.Config{
		JWTSecret:         "test-secret",
		JWTTTL:            time.Hour,
		UploadDir:         uploadDir,
		MaxUploadMB:       5,
		AllowRegistration: true,
		CORSOrigins:       []string{"http://localhost:5173"},
	}
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	h := New(db, store, zaptest.NewLogger(t), tokens, nil, cfg)
	for _, opt := range opts {
		opt(h)
	}

	env := &testEnv{t: t, db: db, store: store, router: h.Router(uploadDir), tokens: tokens}
	env.admin = env.user("admin", "admin123", models.RoleAdmin)
	env.employee = env.user("staff", "staff123", models.RoleEmployee)
	return env
}

func (e *testEnv) user(username, password string, role models.Role) models.User {
	e.t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(e.t, err)
	u := models.User{Username: username, Name: username, PasswordHash: hash, Role: role, IsActive: true}
	require.NoError(e.t, e.db.Create(&u).Error)
	return u
}

func (e *testEnv) token(u models.User) string {
	e.t.Helper()
	tok, err := e.tokens.Generate(u.ID, u.Role)
	require.NoError(e.t, err)
	return tok
}

func (e *testEnv) do(method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	e.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) json(method, path, token string, payload any) *httptest.ResponseRecorder {
	e.t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(e.t, err)
		body = bytes.NewReader(b)
	}
	return e.do(method, path, token, body, "application/json")
}

type upload struct {
	field, name, content string
}

func (e *testEnv) multipart(method, path, token string, fields map[string]string, files ...upload) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(e.t, mw.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(e.t, err)
		_, err = fw.Write([]byte(f.content))
		require.NoError(e.t, err)
	}
	require.NoError(e.t, mw.Close())
	return e.do(method, path, token, &buf, mw.FormDataContentType())
}

// envelope is the generic response body.
type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	Message    string          `json:"message"`
	Pagination *Pagination     `json:"pagination"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &out), w.Body.String())
	return out
}

// --- fixtures ---

func (e *testEnv) category(name string) models.ProductCategory {
	e.t.Helper()
	c := models.ProductCategory{Name: name, Unit: "box"}
	require.NoError(e.t, e.db.Create(&c).Error)
	return c
}

func (e *testEnv) product(name string, categoryID uint, price int64, stock, minStock int) models.Product {
	e.t.Helper()
	p := models.Product{
		Name:       name,
		Price:      decimal.NewFromInt(price),
		CostPrice:  decimal.NewFromInt(price / 2),
		Stock:      stock,
		MinStock:   minStock,
		CategoryID: categoryID,
		IsActive:   true,
	}
	require.NoError(e.t, e.db.Create(&p).Error)
	return p
}

func (e *testEnv) customer(phone string) models.Customer {
	e.t.Helper()
	c := models.Customer{FirstName: "Customer", LastName: phone, Phone: phone}
	require.NoError(e.t, e.db.Create(&c).Error)
	return c
}

func (e *testEnv) sale(userID, customerID uint, total int64, status models.SaleStatus, at time.Time) models.Sale {
	e.t.Helper()
	s := models.Sale{
		InvoiceNumber: "INV-" + uuid.NewString(),
		CustomerID:    customerID,
		UserID:        userID,
		Subtotal:      decimal.NewFromInt(total),
		Discount:      decimal.Zero,
		Total:         decimal.NewFromInt(total),
		Status:        status,
		CreatedAt:     at,
	}
	require.NoError(e.t, e.db.Create(&s).Error)
	return s
}

type fakeAssistant struct {
	reply string
	asked []string
}

func (f *fakeAssistant) Ask(_ context.Context, message string) (string, error) {
	f.asked = append(f.asked, message)
	return f.reply, nil
}

type jsonBody = map[string]any

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
