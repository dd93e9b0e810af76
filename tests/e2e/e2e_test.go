package e2e

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"tripdesk/internal/database"
	"tripdesk/internal/domain"
	"tripdesk/internal/middleware"
	"tripdesk/internal/modules/catalog"
	"tripdesk/internal/modules/confirmation"
	"tripdesk/internal/modules/payment"
	"tripdesk/internal/modules/sweeper"
	"tripdesk/internal/modules/wizard"
	jwtsvc "tripdesk/internal/pkg/jwt"
	"tripdesk/internal/repository"
)

const webhookSecret = "whsec_e2e_test"

type E2ETestSuite struct {
	router   *gin.Engine
	db       *gorm.DB
	provider *httptest.Server
	sweeper  *sweeper.Service
}

type TestResponse struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *ErrorDetail           `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// fakeProvider simulates the BNPL session API: every create returns a fresh
// session id and a redirect URL pointing nowhere in particular.
func fakeProvider(t *testing.T) *httptest.Server {
	var n int
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/sessions" && r.Method == http.MethodPost {
			n++
			json.NewEncoder(w).Encode(map[string]string{
				"session_id":   fmt.Sprintf("sess-%d", n),
				"redirect_url": fmt.Sprintf("https://bnpl.test/pay/sess-%d", n),
			})
			return
		}
		w.WriteHeader(http.StatusOK) // cancel endpoint
	}))
}

func setupTestSuite(t *testing.T) *E2ETestSuite {
	dsn := fmt.Sprintf("file:e2e_%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := database.Connect(dsn)
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, repository.AutoMigrate(db), "Failed to migrate")

	// Seed one bookable package.
	require.NoError(t, db.Create(&domain.TravelPackage{
		ID: "pkg-lisbon", Name: "Lisbon City Break", City: "Lisbon", CountryCode: "PT",
		NightlyRate: 120, Active: true,
	}).Error)

	provider := fakeProvider(t)
	t.Cleanup(provider.Close)

	draftRepo := repository.NewDraftRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	eventRepo := repository.NewWebhookEventRepository(db)
	packageRepo := repository.NewPackageRepository(db)

	tokens := jwtsvc.New("test_secret_key_32_characters_min", 24*time.Hour)

	catalogService := catalog.NewService(packageRepo, nil, t.Logf)
	catalogHandler := catalog.NewHandler(catalogService)

	wizardService := wizard.NewService(draftRepo, packageRepo, tokens)
	wizardHandler := wizard.NewHandler(wizardService)

	providerClient := payment.NewProviderClient(provider.URL, "test-key", webhookSecret,
		"http://localhost/payment/return", "http://localhost/payment/cancel", 2*time.Second)
	paymentService := payment.NewService(draftRepo, providerClient, catalogService, t.Logf)
	paymentHandler := payment.NewHandler(paymentService, "http://localhost:3000")

	confirmationService := confirmation.NewService(draftRepo, bookingRepo, eventRepo, 3, time.Second, t.Logf)
	confirmationHandler := confirmation.NewHandler(confirmationService, providerClient)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())

	v1 := r.Group("/api/v1")

	catalogHandler.RegisterRoutes(v1)
	wizardHandler.RegisterPublicRoutes(v1)
	confirmationHandler.RegisterWebhookRoutes(v1)
	paymentHandler.RegisterRedirectRoutes(v1)

	protected := v1.Group("/")
	protected.Use(middleware.DraftToken(tokens))
	{
		wizardHandler.RegisterRoutes(protected)
		paymentHandler.RegisterRoutes(protected)
		confirmationHandler.RegisterRoutes(protected)
	}

	return &E2ETestSuite{
		router:   r,
		db:       db,
		provider: provider,
		sweeper:  sweeper.NewService(draftRepo, 24*time.Hour, t.Logf),
	}
}

func (s *E2ETestSuite) makeRequest(method, path string, body interface{}, token string) (*httptest.ResponseRecorder, error) {
	var bodyBytes []byte
	var err error

	if body != nil {
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return nil, err
		}
	}

	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w, nil
}

// deliverWebhook signs and posts one provider callback.
func (s *E2ETestSuite) deliverWebhook(sessionID, eventID, outcome string) *httptest.ResponseRecorder {
	body := []byte(fmt.Sprintf(`{"session_id":%q,"event_id":%q,"outcome":%q}`, sessionID, eventID, outcome))
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write(body)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/bnpl", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Bnpl-Signature", hex.EncodeToString(mac.Sum(nil)))

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) *TestResponse {
	var resp TestResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err, "Failed to parse response. Status: %d, Body: %s", w.Code, w.Body.String())
	return &resp
}

// startCompleteDraft walks the wizard through selection and travelers so the
// draft is ready for the payment handoff. Returns draft id and wizard token.
func (s *E2ETestSuite) startCompleteDraft(t *testing.T) (string, string) {
	checkIn := time.Now().UTC().Add(30 * 24 * time.Hour)
	startBody := map[string]interface{}{
		"selection": map[string]interface{}{
			"package_id": "pkg-lisbon",
			"check_in":   checkIn.Format(time.RFC3339),
			"check_out":  checkIn.Add(4 * 24 * time.Hour).Format(time.RFC3339),
			"adults":     2,
		},
	}
	w, err := s.makeRequest("POST", "/api/v1/drafts", startBody, "")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := parseResponse(t, w)
	require.True(t, resp.Success)
	draftID := resp.Data["draft_id"].(string)
	token := resp.Data["wizard_token"].(string)
	require.NotEmpty(t, draftID)
	require.NotEmpty(t, token)

	travelersBody := map[string]interface{}{
		"travelers": []map[string]interface{}{
			{"first_name": "Ana", "last_name": "Costa", "date_of_birth": "1988-04-12", "nationality": "PT",
				"email": "ana@example.com", "phone": "+351900000001"},
			{"first_name": "Rui", "last_name": "Costa", "date_of_birth": "1986-09-30", "nationality": "PT"},
		},
	}
	w, err = s.makeRequest("POST", fmt.Sprintf("/api/v1/drafts/%s/steps/travelers", draftID), travelersBody, token)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	return draftID, token
}

// initiatePayment performs the handoff and returns the provider session id
// read back from storage.
func (s *E2ETestSuite) initiatePayment(t *testing.T, draftID, token string) string {
	w, err := s.makeRequest("POST", fmt.Sprintf("/api/v1/drafts/%s/payment", draftID), nil, token)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := parseResponse(t, w)
	require.True(t, resp.Success)
	assert.NotEmpty(t, resp.Data["redirect_url"])

	var sessionIDs []string
	err = s.db.Table("booking_drafts").Where("id = ?", draftID).
		Pluck("provider_session_id", &sessionIDs).Error
	require.NoError(t, err)
	require.Len(t, sessionIDs, 1)
	require.NotEmpty(t, sessionIDs[0])
	return sessionIDs[0]
}

func (s *E2ETestSuite) pollStatus(t *testing.T, draftID, token string) map[string]interface{} {
	w, err := s.makeRequest("GET", fmt.Sprintf("/api/v1/drafts/%s/status", draftID), nil, token)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := parseResponse(t, w)
	require.True(t, resp.Success)
	return resp.Data
}

// Full happy path: wizard -> handoff -> APPROVED webhook -> poll returns the
// booking the webhook created.
func TestFlow1_WizardToConfirmedBooking(t *testing.T) {
	suite := setupTestSuite(t)

	draftID, token := suite.startCompleteDraft(t)
	sessionID := suite.initiatePayment(t, draftID, token)

	// Step writes after the handoff must be refused.
	w, err := suite.makeRequest("POST", fmt.Sprintf("/api/v1/drafts/%s/steps/requests", draftID),
		map[string]interface{}{"special_requests": "sea view"}, token)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, w.Code, "step write accepted after handoff")

	// Poll before any callback: pending, with a retry hint.
	data := suite.pollStatus(t, draftID, token)
	assert.Equal(t, "pending", data["status"])
	assert.NotZero(t, data["retry_after_seconds"])

	// Approved callback promotes.
	cb := suite.deliverWebhook(sessionID, "ev-1", "APPROVED")
	require.Equal(t, http.StatusOK, cb.Code, cb.Body.String())
	cbData := parseResponse(t, cb).Data
	bookingID := cbData["booking_id"].(string)
	require.NotEmpty(t, bookingID)

	// Poll agrees with the callback on the booking identity.
	data = suite.pollStatus(t, draftID, token)
	assert.Equal(t, "confirmed", data["status"])
	assert.Equal(t, bookingID, data["booking_id"])
	assert.NotEmpty(t, data["booking_reference"])
}

// Redelivered and duplicated callbacks all resolve to the same booking.
func TestFlow2_WebhookIdempotency(t *testing.T) {
	suite := setupTestSuite(t)

	draftID, token := suite.startCompleteDraft(t)
	sessionID := suite.initiatePayment(t, draftID, token)

	first := parseResponse(t, suite.deliverWebhook(sessionID, "ev-1", "APPROVED")).Data
	bookingID := first["booking_id"].(string)

	for _, eventID := range []string{"ev-1", "ev-1", "ev-2"} {
		w := suite.deliverWebhook(sessionID, eventID, "APPROVED")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		data := parseResponse(t, w).Data
		assert.Equal(t, bookingID, data["booking_id"], "redelivery %s returned a different booking", eventID)
	}

	var count int64
	require.NoError(t, suite.db.Table("bookings").Where("source_draft_id = ?", draftID).Count(&count).Error)
	assert.EqualValues(t, 1, count, "duplicate deliveries created extra bookings")
}

// Declined payment cancels; a late approval cannot resurrect the draft.
func TestFlow3_DeclinedPayment(t *testing.T) {
	suite := setupTestSuite(t)

	draftID, token := suite.startCompleteDraft(t)
	sessionID := suite.initiatePayment(t, draftID, token)

	w := suite.deliverWebhook(sessionID, "ev-1", "DECLINED")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := suite.pollStatus(t, draftID, token)
	assert.Equal(t, "cancelled", data["status"])

	// Late approval is reported as the already-settled outcome, no booking.
	w = suite.deliverWebhook(sessionID, "ev-2", "APPROVED")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "cancelled", parseResponse(t, w).Data["status"].(string))

	var count int64
	require.NoError(t, suite.db.Table("bookings").Where("source_draft_id = ?", draftID).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

// Sweeper expiry wins against a late approval: 410, no booking.
func TestFlow4_ExpiryBeatsLateApproval(t *testing.T) {
	suite := setupTestSuite(t)

	draftID, token := suite.startCompleteDraft(t)
	sessionID := suite.initiatePayment(t, draftID, token)

	// Age the draft past the hold window, then sweep.
	require.NoError(t, suite.db.Table("booking_drafts").Where("id = ?", draftID).
		Update("last_touched_at", time.Now().UTC().Add(-48*time.Hour)).Error)
	n, err := suite.sweeper.Run(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	data := suite.pollStatus(t, draftID, token)
	assert.Equal(t, "expired", data["status"])

	w := suite.deliverWebhook(sessionID, "ev-1", "APPROVED")
	assert.Equal(t, http.StatusGone, w.Code, "late approval after expiry must get 410")

	var count int64
	require.NoError(t, suite.db.Table("bookings").Where("source_draft_id = ?", draftID).Count(&count).Error)
	assert.EqualValues(t, 0, count, "expired draft was promoted")
}

// One browser session cannot read or drive another session's draft.
func TestFlow5_TokenScoping(t *testing.T) {
	suite := setupTestSuite(t)

	draftA, _ := suite.startCompleteDraft(t)
	_, tokenB := suite.startCompleteDraft(t)

	w, err := suite.makeRequest("GET", fmt.Sprintf("/api/v1/drafts/%s", draftA), nil, tokenB)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, err = suite.makeRequest("POST", fmt.Sprintf("/api/v1/drafts/%s/payment", draftA), nil, tokenB)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, err = suite.makeRequest("GET", fmt.Sprintf("/api/v1/drafts/%s", draftA), nil, "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}
