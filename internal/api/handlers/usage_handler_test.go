package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"quota-api/internal/config"
	"quota-api/internal/models"
	apperrors "quota-api/internal/pkg/errors"
	"quota-api/internal/services"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUsageService struct {
	recordResult *models.UsageResult
	recordErr    error
	usage        map[models.APIType]*models.UsageResult
	usageErr     error
	report       *services.UsageReport
	reportErr    error
	resetErr     error
	resnapshot   *services.ResnapshotReport
	resnapErr    error

	lastUserID  string
	lastAPIType models.APIType
}

func (s *stubUsageService) RecordUsage(ctx context.Context, userID string, apiType models.APIType) (*models.UsageResult, error) {
	s.lastUserID = userID
	s.lastAPIType = apiType
	return s.recordResult, s.recordErr
}

func (s *stubUsageService) GetAllUserUsage(ctx context.Context, userID string) (map[models.APIType]*models.UsageResult, error) {
	s.lastUserID = userID
	return s.usage, s.usageErr
}

func (s *stubUsageService) GetUsageByDate(ctx context.Context, date string) (*services.UsageReport, error) {
	return s.report, s.reportErr
}

func (s *stubUsageService) ResetDailyUsage(ctx context.Context, userID string, apiType models.APIType, date string) error {
	s.lastUserID = userID
	s.lastAPIType = apiType
	return s.resetErr
}

func (s *stubUsageService) ResnapshotUsageRecords(ctx context.Context) (*services.ResnapshotReport, error) {
	return s.resnapshot, s.resnapErr
}

func failClosedConfig() *config.QuotaConfig {
	return &config.QuotaConfig{DefaultDailyLimit: 200, FailurePolicy: config.FailClosed}
}

func authedRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	ctx := services.WithUserContext(req.Context(), &services.User{ID: "user-1", Role: "user"})
	return req.WithContext(ctx)
}

func TestCheckUsageCountsCall(t *testing.T) {
	stub := &stubUsageService{
		recordResult: &models.UsageResult{DailyCount: 3, DailyLimit: 200, Remaining: 197, Success: true},
	}
	h := NewUsageHandler(stub, failClosedConfig())

	rr := httptest.NewRecorder()
	h.CheckUsage(rr, authedRequest(http.MethodPost, "/api/v1/usage/check", `{"apiType":"email2name"}`))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "user-1", stub.lastUserID)
	assert.Equal(t, models.APITypeEmail2Name, stub.lastAPIType)

	var resp struct {
		Success bool               `json:"success"`
		Usage   models.UsageResult `json:"usage"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.Usage.DailyCount)
	assert.Equal(t, 197, resp.Usage.Remaining)
}

func TestCheckUsageQuotaExceededIsNotAnError(t *testing.T) {
	stub := &stubUsageService{
		recordResult: &models.UsageResult{DailyCount: 200, DailyLimit: 200, Remaining: 0, Success: false},
	}
	h := NewUsageHandler(stub, failClosedConfig())

	rr := httptest.NewRecorder()
	h.CheckUsage(rr, authedRequest(http.MethodPost, "/api/v1/usage/check", `{"apiType":"email2name"}`))

	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Success bool               `json:"success"`
		Usage   models.UsageResult `json:"usage"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, 0, resp.Usage.Remaining)
}

func TestCheckUsageRejectsUnknownType(t *testing.T) {
	h := NewUsageHandler(&stubUsageService{}, failClosedConfig())

	rr := httptest.NewRecorder()
	h.CheckUsage(rr, authedRequest(http.MethodPost, "/api/v1/usage/check", `{"apiType":"geocoder"}`))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCheckUsageRequiresUser(t *testing.T) {
	h := NewUsageHandler(&stubUsageService{}, failClosedConfig())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/usage/check", strings.NewReader(`{"apiType":"email2name"}`))
	h.CheckUsage(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCheckUsageFailClosed(t *testing.T) {
	stub := &stubUsageService{recordErr: apperrors.WrapStorage(assert.AnError, "db down")}
	h := NewUsageHandler(stub, failClosedConfig())

	rr := httptest.NewRecorder()
	h.CheckUsage(rr, authedRequest(http.MethodPost, "/api/v1/usage/check", `{"apiType":"email2name"}`))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestCheckUsageFailOpen(t *testing.T) {
	stub := &stubUsageService{recordErr: apperrors.WrapStorage(assert.AnError, "db down")}
	cfg := &config.QuotaConfig{DefaultDailyLimit: 200, FailurePolicy: config.FailOpen}
	h := NewUsageHandler(stub, cfg)

	rr := httptest.NewRecorder()
	h.CheckUsage(rr, authedRequest(http.MethodPost, "/api/v1/usage/check", `{"apiType":"email2name"}`))

	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Success  bool `json:"success"`
		Degraded bool `json:"degraded"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, resp.Degraded)
}

func TestGetUsageListsCurrentDay(t *testing.T) {
	stub := &stubUsageService{
		usage: map[models.APIType]*models.UsageResult{
			models.APITypeEmail2Name: {DailyCount: 5, DailyLimit: 200, Remaining: 195, Success: true},
		},
	}
	h := NewUsageHandler(stub, failClosedConfig())

	rr := httptest.NewRecorder()
	h.GetUsage(rr, authedRequest(http.MethodGet, "/api/v1/usage", ""))

	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Success bool                                   `json:"success"`
		Usage   map[models.APIType]models.UsageResult `json:"usage"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Contains(t, resp.Usage, models.APITypeEmail2Name)
	assert.Equal(t, 5, resp.Usage[models.APITypeEmail2Name].DailyCount)
}
