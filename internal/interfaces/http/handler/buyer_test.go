package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	buyerapp "github.com/crm/backend/internal/application/buyer"
	importapp "github.com/crm/backend/internal/application/import"
	"github.com/crm/backend/internal/domain/buyer"
	domainidentity "github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/auth"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/crm/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockBuyerRepository implements buyer.Repository for testing
type MockBuyerRepository struct {
	mock.Mock
}

func (m *MockBuyerRepository) Create(ctx context.Context, b *buyer.Buyer, entry *buyer.HistoryEntry) error {
	args := m.Called(ctx, b, entry)
	return args.Error(0)
}

func (m *MockBuyerRepository) Update(ctx context.Context, b *buyer.Buyer, expectedUpdatedAt time.Time, entry *buyer.HistoryEntry) error {
	args := m.Called(ctx, b, expectedUpdatedAt, entry)
	return args.Error(0)
}

func (m *MockBuyerRepository) SoftDelete(ctx context.Context, b *buyer.Buyer, entry *buyer.HistoryEntry) error {
	args := m.Called(ctx, b, entry)
	return args.Error(0)
}

func (m *MockBuyerRepository) HardDelete(ctx context.Context, id uuid.UUID, entry *buyer.HistoryEntry) error {
	args := m.Called(ctx, id, entry)
	return args.Error(0)
}

func (m *MockBuyerRepository) FindByID(ctx context.Context, id uuid.UUID) (*buyer.Buyer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*buyer.Buyer), args.Error(1)
}

func (m *MockBuyerRepository) Search(ctx context.Context, f buyer.SearchFilter) ([]*buyer.Buyer, int64, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]*buyer.Buyer), args.Get(1).(int64), args.Error(2)
}

func (m *MockBuyerRepository) SearchAll(ctx context.Context, f buyer.SearchFilter) ([]*buyer.Buyer, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]*buyer.Buyer), args.Error(1)
}

func (m *MockBuyerRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockBuyerRepository) ExistingEmails(ctx context.Context) (map[string]bool, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *MockBuyerRepository) FilterOptions(ctx context.Context) (*buyer.FilterOptions, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*buyer.FilterOptions), args.Error(1)
}

func (m *MockBuyerRepository) CountAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBuyerRepository) CountCreatedBetween(ctx context.Context, from time.Time, to *time.Time) (int64, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBuyerRepository) CountByStatus(ctx context.Context) ([]buyer.ValueCount, error) {
	args := m.Called(ctx)
	return args.Get(0).([]buyer.ValueCount), args.Error(1)
}

func (m *MockBuyerRepository) CountBySource(ctx context.Context) ([]buyer.ValueCount, error) {
	args := m.Called(ctx)
	return args.Get(0).([]buyer.ValueCount), args.Error(1)
}

func (m *MockBuyerRepository) CountByPropertyType(ctx context.Context) ([]buyer.ValueCount, error) {
	args := m.Called(ctx)
	return args.Get(0).([]buyer.ValueCount), args.Error(1)
}

func (m *MockBuyerRepository) ConversionSamples(ctx context.Context) ([]buyer.ConversionSample, error) {
	args := m.Called(ctx)
	return args.Get(0).([]buyer.ConversionSample), args.Error(1)
}

// MockHistoryRepository implements buyer.HistoryRepository for testing
type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit int) ([]*buyer.HistoryEntry, error) {
	args := m.Called(ctx, buyerID, limit)
	return args.Get(0).([]*buyer.HistoryEntry), args.Error(1)
}

// MockUserRepository implements identity.UserRepository for testing
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domainidentity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domainidentity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainidentity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*domainidentity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainidentity.User), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context) ([]*domainidentity.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*domainidentity.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// authAs simulates an authenticated request without minting a real token
func authAs(userID uuid.UUID, role domainidentity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := &auth.Claims{UserID: userID.String(), Role: string(role)}
		c.Set(middleware.JWTClaimsKey, claims)
		c.Set(middleware.JWTUserIDKey, claims.UserID)
		c.Set(middleware.JWTRoleKey, claims.Role)
		c.Next()
	}
}

type buyerAPI struct {
	router      *gin.Engine
	buyerRepo   *MockBuyerRepository
	historyRepo *MockHistoryRepository
	userRepo    *MockUserRepository
}

func newBuyerAPI(authMW gin.HandlerFunc) *buyerAPI {
	buyerRepo := new(MockBuyerRepository)
	historyRepo := new(MockHistoryRepository)
	userRepo := new(MockUserRepository)

	log := zap.NewNop()
	buyerService := buyerapp.NewBuyerService(buyerRepo, historyRepo, userRepo, log)
	exportService := buyerapp.NewExportService(buyerRepo, log)
	importService := importapp.NewBuyerImportService(buyerRepo, config.ImportConfig{
		MaxRows:     200,
		MaxFileSize: 5 << 20,
	}, log)

	h := NewBuyerHandler(buyerService, exportService, importService)

	r := gin.New()
	api := r.Group("/api/v1")
	if authMW != nil {
		api.Use(authMW)
	}
	h.RegisterRoutes(api)

	return &buyerAPI{router: r, buyerRepo: buyerRepo, historyRepo: historyRepo, userRepo: userRepo}
}

func leadOwnedBy(t *testing.T, ownerID uuid.UUID) *buyer.Buyer {
	t.Helper()
	min := int64(5000000)
	max := int64(7500000)
	req := buyerapp.CreateBuyerRequest{
		FullName:     "Binod Sharma",
		Email:        "binod@example.com",
		Phone:        "9876543210",
		City:         "Chandigarh",
		PropertyType: "Apartment",
		BHK:          "Two",
		Purpose:      "Buy",
		BudgetMin:    &min,
		BudgetMax:    &max,
		Timeline:     "ZeroToThree",
		Source:       "Website",
	}
	n, verrs := buyer.Validate(req.ToCandidate(), buyer.ModeCreate, nil)
	require.Empty(t, verrs)
	return buyer.NewBuyer(n, ownerID)
}

func createBody() string {
	return `{
		"fullName": "Binod Sharma",
		"email": "binod@example.com",
		"phone": "9876543210",
		"city": "Chandigarh",
		"propertyType": "Apartment",
		"bhk": "Two",
		"purpose": "Buy",
		"budgetMin": 5000000,
		"budgetMax": 7500000,
		"timeline": "ZeroToThree",
		"source": "Website"
	}`
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestBuyerHandlerCreate(t *testing.T) {
	ownerID := uuid.New()

	t.Run("Valid payload returns 201", func(t *testing.T) {
		api := newBuyerAPI(authAs(ownerID, domainidentity.RoleUser))
		api.buyerRepo.On("ExistsByEmail", mock.Anything, "binod@example.com").Return(false, nil)
		api.buyerRepo.On("Create", mock.Anything, mock.AnythingOfType("*buyer.Buyer"), mock.AnythingOfType("*buyer.HistoryEntry")).Return(nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/buyers", strings.NewReader(createBody()))
		req.Header.Set("Content-Type", "application/json")
		api.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)
		api.buyerRepo.AssertExpectations(t)
	})

	t.Run("Invalid phone returns 400 with field details", func(t *testing.T) {
		api := newBuyerAPI(authAs(ownerID, domainidentity.RoleUser))

		body := strings.Replace(createBody(), "9876543210", "123", 1)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/buyers", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		api.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		require.NotEmpty(t, resp.Error.Details)
		assert.Equal(t, "phone", resp.Error.Details[0].Field)
		api.buyerRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Missing required field returns 400", func(t *testing.T) {
		api := newBuyerAPI(authAs(ownerID, domainidentity.RoleUser))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/buyers", strings.NewReader(`{"phone":"9876543210"}`))
		req.Header.Set("Content-Type", "application/json")
		api.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBuyerHandlerAuthOrdering(t *testing.T) {
	t.Run("Missing token wins over missing resource", func(t *testing.T) {
		// Real token middleware: the 401 fires before the handler can 404
		jwtService := auth.NewJWTService(config.JWTConfig{
			Secret:                "test-secret-key-for-handler-tests",
			AccessTokenExpiration: time.Hour,
			Issuer:                "crm-test",
		})
		api := newBuyerAPI(middleware.JWTAuthMiddleware(jwtService))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/buyers/"+uuid.NewString(), strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		api.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		api.buyerRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("Missing resource wins over missing ownership", func(t *testing.T) {
		api := newBuyerAPI(authAs(uuid.New(), domainidentity.RoleUser))
		missingID := uuid.New()
		api.buyerRepo.On("FindByID", mock.Anything, missingID).Return(nil, shared.ErrNotFound)

		body := fmt.Sprintf(`{"status":"Qualified","updatedAt":%q}`, time.Now().UTC().Format(time.RFC3339Nano))
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/buyers/"+missingID.String(), strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		api.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Non-owner edit returns 403", func(t *testing.T) {
		ownerID := uuid.New()
		api := newBuyerAPI(authAs(uuid.New(), domainidentity.RoleUser))
		lead := leadOwnedBy(t, ownerID)
		api.buyerRepo.On("FindByID", mock.Anything, lead.ID).Return(lead, nil)

		body := fmt.Sprintf(`{"status":"Qualified","updatedAt":%q}`, lead.UpdatedAt.UTC().Format(time.RFC3339Nano))
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/buyers/"+lead.ID.String(), strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		api.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		api.buyerRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestBuyerHandlerUpdate(t *testing.T) {
	ownerID := uuid.New()

	t.Run("Owner edit with fresh token returns 200", func(t *testing.T) {
		api := newBuyerAPI(authAs(ownerID, domainidentity.RoleUser))
		lead := leadOwnedBy(t, ownerID)
		api.buyerRepo.On("FindByID", mock.Anything, lead.ID).Return(lead, nil)
		api.buyerRepo.On("Update", mock.Anything, mock.AnythingOfType("*buyer.Buyer"), mock.AnythingOfType("time.Time"), mock.AnythingOfType("*buyer.HistoryEntry")).Return(nil)

		body := fmt.Sprintf(`{"status":"Qualified","updatedAt":%q}`, lead.UpdatedAt.UTC().Format(time.RFC3339Nano))
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/buyers/"+lead.ID.String(), strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		api.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		api.buyerRepo.AssertExpectations(t)
	})

	t.Run("Stale token returns 409", func(t *testing.T) {
		api := newBuyerAPI(authAs(ownerID, domainidentity.RoleUser))
		lead := leadOwnedBy(t, ownerID)
		api.buyerRepo.On("FindByID", mock.Anything, lead.ID).Return(lead, nil)

		stale := lead.UpdatedAt.Add(-time.Minute)
		body := fmt.Sprintf(`{"status":"Qualified","updatedAt":%q}`, stale.UTC().Format(time.RFC3339Nano))
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/buyers/"+lead.ID.String(), strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		api.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeConcurrencyConflict, resp.Error.Code)
		api.buyerRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Missing updatedAt token returns 400", func(t *testing.T) {
		api := newBuyerAPI(authAs(ownerID, domainidentity.RoleUser))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/buyers/"+uuid.NewString(), strings.NewReader(`{"status":"Qualified"}`))
		req.Header.Set("Content-Type", "application/json")
		api.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBuyerHandlerDelete(t *testing.T) {
	ownerID := uuid.New()

	t.Run("Soft delete returns 204", func(t *testing.T) {
		api := newBuyerAPI(authAs(ownerID, domainidentity.RoleUser))
		lead := leadOwnedBy(t, ownerID)
		api.buyerRepo.On("FindByID", mock.Anything, lead.ID).Return(lead, nil)
		api.buyerRepo.On("SoftDelete", mock.Anything, mock.AnythingOfType("*buyer.Buyer"), mock.AnythingOfType("*buyer.HistoryEntry")).Return(nil)

		w := httptest.NewRecorder()
		api.router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/buyers/"+lead.ID.String(), nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
		api.buyerRepo.AssertExpectations(t)
	})

	t.Run("Hard delete returns 204", func(t *testing.T) {
		api := newBuyerAPI(authAs(ownerID, domainidentity.RoleAdmin))
		lead := leadOwnedBy(t, ownerID)
		api.buyerRepo.On("FindByID", mock.Anything, lead.ID).Return(lead, nil)
		api.buyerRepo.On("HardDelete", mock.Anything, lead.ID, mock.AnythingOfType("*buyer.HistoryEntry")).Return(nil)

		w := httptest.NewRecorder()
		api.router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/buyers/"+lead.ID.String()+"?hard=true", nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
		api.buyerRepo.AssertExpectations(t)
	})
}

func TestBuyerHandlerList(t *testing.T) {
	ownerID := uuid.New()

	t.Run("Filters and pagination flow through to the search", func(t *testing.T) {
		api := newBuyerAPI(authAs(ownerID, domainidentity.RoleUser))
		api.buyerRepo.On("Search", mock.Anything, mock.MatchedBy(func(f buyer.SearchFilter) bool {
			return f.Page == 2 && len(f.Cities) == 1 && f.Cities[0] == buyer.CityMohali
		})).Return([]*buyer.Buyer{leadOwnedBy(t, ownerID)}, int64(11), nil)

		w := httptest.NewRecorder()
		api.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/buyers?page=2&city=Mohali", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Binod Sharma")
	})

	t.Run("List uses the flat envelope, search keeps meta", func(t *testing.T) {
		api := newBuyerAPI(authAs(ownerID, domainidentity.RoleUser))
		api.buyerRepo.On("Search", mock.Anything, mock.AnythingOfType("buyer.SearchFilter")).
			Return([]*buyer.Buyer{leadOwnedBy(t, ownerID)}, int64(1), nil)

		w := httptest.NewRecorder()
		api.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/buyers", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"total":1`)
		assert.Contains(t, w.Body.String(), `"totalPages":1`)
		assert.NotContains(t, w.Body.String(), `"meta"`)

		w = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/buyers/search", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		api.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"meta"`)
		assert.Contains(t, w.Body.String(), `"limit":10`)
	})
}

func TestBuyerHandlerExport(t *testing.T) {
	ownerID := uuid.New()

	t.Run("CSV download carries an attachment header", func(t *testing.T) {
		api := newBuyerAPI(authAs(ownerID, domainidentity.RoleUser))
		api.buyerRepo.On("SearchAll", mock.Anything, mock.AnythingOfType("buyer.SearchFilter")).
			Return([]*buyer.Buyer{leadOwnedBy(t, ownerID)}, nil)

		w := httptest.NewRecorder()
		api.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/buyers/export?format=csv", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
		assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
		assert.Contains(t, w.Body.String(), "Binod Sharma")
	})

	t.Run("No matching rows returns 404", func(t *testing.T) {
		api := newBuyerAPI(authAs(ownerID, domainidentity.RoleUser))
		api.buyerRepo.On("SearchAll", mock.Anything, mock.AnythingOfType("buyer.SearchFilter")).
			Return([]*buyer.Buyer{}, nil)

		w := httptest.NewRecorder()
		api.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/buyers/export", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestBuyerHandlerImport(t *testing.T) {
	ownerID := uuid.New()

	uploadCSV := func(t *testing.T, api *buyerAPI, content string) *httptest.ResponseRecorder {
		t.Helper()
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", "leads.csv")
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/buyers/import", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		api.router.ServeHTTP(w, req)
		return w
	}

	t.Run("Mixed file reports partial success", func(t *testing.T) {
		api := newBuyerAPI(authAs(ownerID, domainidentity.RoleUser))
		api.buyerRepo.On("ExistingEmails", mock.Anything).Return(map[string]bool{}, nil)
		api.buyerRepo.On("Create", mock.Anything, mock.AnythingOfType("*buyer.Buyer"), mock.AnythingOfType("*buyer.HistoryEntry")).Return(nil)

		csvContent := "fullName,phone,city,propertyType,bhk,purpose,timeline,source\n" +
			"Binod Sharma,9876543210,Chandigarh,Apartment,Two,Buy,0-3m,Website\n" +
			"Meena Kaur,123,Mohali,Villa,Three,Buy,3-6m,Referral\n"
		w := uploadCSV(t, api, csvContent)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Success bool                          `json:"success"`
			Data    importapp.BuyerImportSummary `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Data.Total)
		assert.Equal(t, 1, resp.Data.SuccessCount)
		require.Len(t, resp.Data.Errors, 1)
		assert.Equal(t, 3, resp.Data.Errors[0].Row)
	})

	t.Run("Header-only file rejected with 400", func(t *testing.T) {
		api := newBuyerAPI(authAs(ownerID, domainidentity.RoleUser))

		w := uploadCSV(t, api, "fullName,phone,city,propertyType,purpose,timeline,source\n")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeImportStructure, resp.Error.Code)
	})

	t.Run("Missing file field rejected with 400", func(t *testing.T) {
		api := newBuyerAPI(authAs(ownerID, domainidentity.RoleUser))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/buyers/import", nil)
		api.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBuyerHandlerFilterOptions(t *testing.T) {
	api := newBuyerAPI(authAs(uuid.New(), domainidentity.RoleUser))
	api.buyerRepo.On("FilterOptions", mock.Anything).Return(&buyer.FilterOptions{
		Cities:   []string{"Chandigarh", "Mohali"},
		Statuses: []string{"New", "Qualified"},
	}, nil)

	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/buyers/filters", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Mohali")
}
