package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/pipeline-engine/internal/application/forecast"
	"github.com/turtacn/pipeline-engine/internal/domain/commission"
	"github.com/turtacn/pipeline-engine/internal/domain/fee"
	"github.com/turtacn/pipeline-engine/internal/domain/intensity"
	"github.com/turtacn/pipeline-engine/internal/domain/money"
	"github.com/turtacn/pipeline-engine/internal/domain/pipeline"
	"github.com/turtacn/pipeline-engine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/pipeline-engine/internal/infrastructure/referencedata"
	"github.com/turtacn/pipeline-engine/internal/interfaces/http/middleware"
	"github.com/turtacn/pipeline-engine/internal/testutil"
	"github.com/turtacn/pipeline-engine/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type mockCommissionService struct {
	mock.Mock
}

func (m *mockCommissionService) Calculate(ctx context.Context, req forecast.CommissionRequest) (*forecast.CommissionResponse, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*forecast.CommissionResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCommissionService) PipelineFees(ctx context.Context, req forecast.PipelineRequest) (*forecast.PipelineReport, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*forecast.PipelineReport), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCommissionService) Convert(ctx context.Context, req forecast.ConvertRequest) (*forecast.ConvertResponse, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*forecast.ConvertResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockIntensityService struct {
	mock.Mock
}

func (m *mockIntensityService) Config(ctx context.Context) (intensity.Config, error) {
	args := m.Called(ctx)
	return args.Get(0).(intensity.Config), args.Error(1)
}

func (m *mockIntensityService) Score(ctx context.Context, req forecast.ScoreRequest) (*forecast.ScoreResponse, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*forecast.ScoreResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockIntensityService) Classify(ctx context.Context, req forecast.ClassifyRequest) (*forecast.ClassifyResponse, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*forecast.ClassifyResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockIntensityService) Required(ctx context.Context, req forecast.RequiredRequest) (*intensity.RequiredRates, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*intensity.RequiredRates), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockIntensityService) Health(ctx context.Context, req forecast.HealthRequest) (*intensity.HealthAssessment, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*intensity.HealthAssessment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockIntensityService) Calibrate(ctx context.Context, req forecast.CalibrateRequest) (*forecast.CalibrateResponse, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*forecast.CalibrateResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockIntensityService) PortfolioTemperatures(ctx context.Context) (*forecast.PortfolioTemperatures, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.(*forecast.PortfolioTemperatures), args.Error(1)
	}
	return nil, args.Error(1)
}

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Name() string                    { return s.name }
func (s stubChecker) Check(ctx context.Context) error { return s.err }

type stubSource struct {
	snap *referencedata.Snapshot
	err  error
}

func (s stubSource) Snapshot(ctx context.Context) (*referencedata.Snapshot, error) { return s.snap, s.err }

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func do(t *testing.T, method, path string, body string, register func(r *gin.Engine)) *httptest.ResponseRecorder {
	t.Helper()
	r := gin.New()
	r.Use(middleware.RequestID())
	register(r)

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// ---------------------------------------------------------------------------
// writeError
// ---------------------------------------------------------------------------

func TestWriteError_Mapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "missing structure reads as incomplete configuration",
			err:        errors.New(errors.ErrCodeNoFeeStructure, "no fee structure found"),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "FEE_001",
			wantMsg:    errors.MsgConfigurationIncomplete,
		},
		{
			name:       "missing rate reads as incomplete configuration",
			err:        errors.New(errors.ErrCodeRateNotFound, "exchange rate not found"),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "FX_001",
			wantMsg:    errors.MsgConfigurationIncomplete,
		},
		{
			name:       "negative deal",
			err:        errors.New(errors.ErrCodeNegativeDealValue, "deal value cannot be negative"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "COM_001",
			wantMsg:    "deal value cannot be negative",
		},
		{
			name:       "plain error is masked",
			err:        assert.AnError,
			wantStatus: http.StatusInternalServerError,
			wantCode:   "COMMON_001",
			wantMsg:    "internal server error",
		},
		{
			name:       "service unavailable keeps its default text",
			err:        errors.New(errors.ErrCodeServiceUnavailable, "snapshot missing at /etc/data.yaml"),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "COMMON_008",
			wantMsg:    "service unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, http.MethodGet, "/x", "", func(r *gin.Engine) {
				r.GET("/x", func(c *gin.Context) { writeError(c, tt.err) })
			})
			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, tt.wantMsg, resp.Message)
			assert.NotEmpty(t, resp.RequestID)
		})
	}
}

func TestWriteError_ClientDetail(t *testing.T) {
	err := errors.InvalidParam("bad input").WithDetail("weeks_remaining must be <= 13")
	w := do(t, http.MethodGet, "/x", "", func(r *gin.Engine) {
		r.GET("/x", func(c *gin.Context) { writeError(c, err) })
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "weeks_remaining must be <= 13", decodeError(t, w).Detail)
}

// ---------------------------------------------------------------------------
// CommissionHandler
// ---------------------------------------------------------------------------

func TestCommissionHandler_Calculate(t *testing.T) {
	svc := new(mockCommissionService)
	h := NewCommissionHandler(svc, nil)

	want := forecast.CommissionRequest{
		DealMillions: money.NewMillions(decimal.NewFromInt(50)),
		Country:      "CO",
	}
	svc.On("Calculate", mock.Anything, mock.MatchedBy(func(r forecast.CommissionRequest) bool {
		return r.Country == want.Country && r.DealMillions.Equal(want.DealMillions)
	})).Return(&forecast.CommissionResponse{
		Result: &commission.Result{
			StructureID: "asch-default",
			GrossFee:    money.NewMillions(decimal.RequireFromString("1.4")),
		},
		ResolvedBy: fee.LevelDefault,
	}, nil)

	w := do(t, http.MethodPost, "/commission", `{"deal_millions": 50, "country": "CO"}`, func(r *gin.Engine) {
		r.POST("/commission", h.Calculate)
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "asch-default", body["structure_id"])
	assert.Equal(t, 1.4, body["gross_fee"])
	assert.Equal(t, string(fee.LevelDefault), body["resolved_by"])
	svc.AssertExpectations(t)
}

func TestCommissionHandler_Calculate_MalformedBody(t *testing.T) {
	svc := new(mockCommissionService)
	h := NewCommissionHandler(svc, nil)

	w := do(t, http.MethodPost, "/commission", `{"deal_millions": "abc"`, func(r *gin.Engine) {
		r.POST("/commission", h.Calculate)
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "COMMON_002", decodeError(t, w).Code)
	svc.AssertNotCalled(t, "Calculate", mock.Anything, mock.Anything)
}

func TestCommissionHandler_Calculate_ServiceError(t *testing.T) {
	svc := new(mockCommissionService)
	h := NewCommissionHandler(svc, nil)
	svc.On("Calculate", mock.Anything, mock.Anything).
		Return(nil, errors.New(errors.ErrCodeNegativeDealValue, "deal value cannot be negative"))

	w := do(t, http.MethodPost, "/commission", `{"deal_millions": -1}`, func(r *gin.Engine) {
		r.POST("/commission", h.Calculate)
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "COM_001", decodeError(t, w).Code)
}

func TestCommissionHandler_PipelineFees_PolicyQuery(t *testing.T) {
	svc := new(mockCommissionService)
	h := NewCommissionHandler(svc, nil)
	svc.On("PipelineFees", mock.Anything, forecast.PipelineRequest{Policy: pipeline.SkipAndReport}).
		Return(&forecast.PipelineReport{
			RunID:   "run-1",
			Policy:  pipeline.SkipAndReport,
			Summary: &pipeline.Summary{Excluded: 1},
		}, nil)

	w := do(t, http.MethodGet, "/pipeline/fees?policy=skip", "", func(r *gin.Engine) {
		r.GET("/pipeline/fees", h.PipelineFees)
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "run-1", body["run_id"])
	assert.Equal(t, "skip", body["policy"])
	assert.Equal(t, float64(1), body["excluded"])
	svc.AssertExpectations(t)
}

func TestCommissionHandler_PipelineFees_Incomplete(t *testing.T) {
	svc := new(mockCommissionService)
	h := NewCommissionHandler(svc, nil)
	svc.On("PipelineFees", mock.Anything, forecast.PipelineRequest{}).
		Return(nil, errors.Wrap(errors.New(errors.ErrCodeRateNotFound, "exchange rate not found"),
			errors.CodeUnknown, "pipeline aggregation aborted"))

	w := do(t, http.MethodGet, "/pipeline/fees", "", func(r *gin.Engine) {
		r.GET("/pipeline/fees", h.PipelineFees)
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "FX_001", resp.Code)
	assert.Equal(t, errors.MsgConfigurationIncomplete, resp.Message)
}

func TestCommissionHandler_Convert(t *testing.T) {
	svc := new(mockCommissionService)
	h := NewCommissionHandler(svc, nil)
	svc.On("Convert", mock.Anything, mock.MatchedBy(func(r forecast.ConvertRequest) bool {
		return r.From == "COP" && r.To == "USD" && r.Amount.Equal(decimal.NewFromInt(4000))
	})).Return(&forecast.ConvertResponse{
		Amount:    decimal.NewFromInt(4000),
		From:      "COP",
		To:        "USD",
		Converted: decimal.NewFromInt(1),
	}, nil)

	w := do(t, http.MethodPost, "/currency/convert", `{"amount": "4000", "from": "COP", "to": "USD"}`, func(r *gin.Engine) {
		r.POST("/currency/convert", h.Convert)
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body forecast.ConvertResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Converted.Equal(decimal.NewFromInt(1)))
	svc.AssertExpectations(t)
}

// ---------------------------------------------------------------------------
// IntensityHandler
// ---------------------------------------------------------------------------

func TestIntensityHandler_Score(t *testing.T) {
	svc := new(mockIntensityService)
	h := NewIntensityHandler(svc, nil)
	svc.On("Score", mock.Anything, forecast.ScoreRequest{
		Touchpoints: 4, DaysSinceLastTouch: 3, HighQualityPct: 0.4,
	}).Return(&forecast.ScoreResponse{
		Breakdown:   intensity.Breakdown{Score: 97},
		Temperature: intensity.Hot,
	}, nil)

	w := do(t, http.MethodPost, "/score", `{"touchpoints":4,"days_since_last_touch":3,"high_quality_pct":0.4}`, func(r *gin.Engine) {
		r.POST("/score", h.Score)
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body forecast.ScoreResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 97, body.Score)
	assert.Equal(t, intensity.Hot, body.Temperature)
	svc.AssertExpectations(t)
}

func TestIntensityHandler_ScoreExplicitZeroExpected(t *testing.T) {
	svc := new(mockIntensityService)
	h := NewIntensityHandler(svc, nil)
	svc.On("Score", mock.Anything, mock.MatchedBy(func(req forecast.ScoreRequest) bool {
		return req.ExpectedTouchpoints != nil && *req.ExpectedTouchpoints == 0 && req.Touchpoints == 8
	})).Return(&forecast.ScoreResponse{Temperature: intensity.Dormant}, nil)

	w := do(t, http.MethodPost, "/score", `{"touchpoints":8,"expected_touchpoints":0,"days_since_last_touch":200}`, func(r *gin.Engine) {
		r.POST("/score", h.Score)
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	svc.AssertExpectations(t)
}

func TestIntensityHandler_Classify(t *testing.T) {
	svc := new(mockIntensityService)
	h := NewIntensityHandler(svc, nil)
	svc.On("Classify", mock.Anything, forecast.ClassifyRequest{Days: 10, Stage: pipeline.StageNegotiation}).
		Return(&forecast.ClassifyResponse{Days: 10, Temperature: intensity.Warm}, nil)

	w := do(t, http.MethodPost, "/classify", `{"days":10,"stage":"negotiation"}`, func(r *gin.Engine) {
		r.POST("/classify", h.Classify)
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"days":10,"temperature":"warm"}`, w.Body.String())
}

func TestIntensityHandler_Required_Invalid(t *testing.T) {
	svc := new(mockIntensityService)
	h := NewIntensityHandler(svc, nil)

	w := do(t, http.MethodPost, "/required", `{"weeks_remaining":"soon"}`, func(r *gin.Engine) {
		r.POST("/required", h.Required)
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "COMMON_002", decodeError(t, w).Code)
	svc.AssertNotCalled(t, "Required", mock.Anything, mock.Anything)
}

func TestIntensityHandler_Required(t *testing.T) {
	svc := new(mockIntensityService)
	h := NewIntensityHandler(svc, nil)
	svc.On("Required", mock.Anything, forecast.RequiredRequest{WeeksRemaining: 13}).
		Return(&intensity.RequiredRates{Touchpoints: 10, Meetings: 3, NewContacts: 2, Proposals: 1, WeeksRemaining: 13}, nil)

	w := do(t, http.MethodPost, "/required", `{"weeks_remaining":13}`, func(r *gin.Engine) {
		r.POST("/required", h.Required)
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"touchpoints":10,"meetings":3,"new_contacts":2,"proposals":1,"weeks_remaining":13}`, w.Body.String())
}

func TestIntensityHandler_Health(t *testing.T) {
	svc := new(mockIntensityService)
	h := NewIntensityHandler(svc, nil)
	svc.On("Health", mock.Anything, mock.MatchedBy(func(r forecast.HealthRequest) bool {
		return r.ActualWeekly == 9 && r.HotOpps != nil && *r.HotOpps == 2 && r.ActiveOpps != nil && *r.ActiveOpps == 4
	})).Return(&intensity.HealthAssessment{Grade: intensity.Healthy, ActivityRatio: 0.9, HotRatio: 0.5}, nil)

	w := do(t, http.MethodPost, "/health", `{"actual_weekly":9,"hot_opps":2,"active_opps":4}`, func(r *gin.Engine) {
		r.POST("/health", h.Health)
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body intensity.HealthAssessment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, intensity.Healthy, body.Grade)
	svc.AssertExpectations(t)
}

func TestIntensityHandler_Calibrate(t *testing.T) {
	svc := new(mockIntensityService)
	logger := testutil.NewMockLogger()
	h := NewIntensityHandler(svc, logger)
	cfg := intensity.DefaultConfig()
	svc.On("Calibrate", mock.Anything, mock.Anything).
		Return(&forecast.CalibrateResponse{Result: forecast.CalibrationSkipped, Config: cfg}, nil)

	w := do(t, http.MethodPost, "/calibrate", `{}`, func(r *gin.Engine) {
		r.POST("/calibrate", h.Calibrate)
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body forecast.CalibrateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, forecast.CalibrationSkipped, body.Result)
	assert.Equal(t, cfg.Thresholds, body.Config.Thresholds)

	msg, ok := logger.Find("info", "calibration requested")
	require.True(t, ok)
	id, _ := msg.Field(logging.KeyRequestID)
	assert.Equal(t, w.Header().Get(middleware.HeaderRequestID), id)
}

func TestIntensityHandler_Temperatures(t *testing.T) {
	svc := new(mockIntensityService)
	h := NewIntensityHandler(svc, nil)
	svc.On("PortfolioTemperatures", mock.Anything).Return(&forecast.PortfolioTemperatures{
		Counts: map[intensity.Temperature]int{intensity.Hot: 2},
		Hot:    2,
		Active: 3,
	}, nil)

	w := do(t, http.MethodGet, "/temperatures", "", func(r *gin.Engine) {
		r.GET("/temperatures", h.Temperatures)
	})

	require.Equal(t, http.StatusOK, w.Code)
	var body forecast.PortfolioTemperatures
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Hot)
	assert.Equal(t, 3, body.Active)
}

func TestIntensityHandler_Config_Error(t *testing.T) {
	svc := new(mockIntensityService)
	h := NewIntensityHandler(svc, nil)
	svc.On("Config", mock.Anything).
		Return(intensity.Config{}, errors.New(errors.ErrCodeCacheError, "redis read failed"))

	w := do(t, http.MethodGet, "/config", "", func(r *gin.Engine) {
		r.GET("/config", h.Config)
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "cache error", decodeError(t, w).Message)
}

// ---------------------------------------------------------------------------
// HealthHandler
// ---------------------------------------------------------------------------

func TestHealthHandler_Liveness(t *testing.T) {
	h := NewHealthHandler("1.2.3")
	w := do(t, http.MethodGet, "/healthz", "", func(r *gin.Engine) {
		r.GET("/healthz", h.Liveness)
	})

	require.Equal(t, http.StatusOK, w.Code)
	var body LivenessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "alive", body.Status)
	assert.Equal(t, "1.2.3", body.Version)
}

func TestHealthHandler_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		checkers   []HealthChecker
		wantStatus int
		wantBody   string
	}{
		{"no checkers", nil, http.StatusOK, "ready"},
		{"all healthy", []HealthChecker{stubChecker{name: "redis"}}, http.StatusOK, "ready"},
		{
			"one unhealthy",
			[]HealthChecker{stubChecker{name: "redis"}, stubChecker{name: "reference_data", err: assert.AnError}},
			http.StatusServiceUnavailable,
			"not_ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler("dev", tt.checkers...)
			w := do(t, http.MethodGet, "/readyz", "", func(r *gin.Engine) {
				r.GET("/readyz", h.Readiness)
			})

			assert.Equal(t, tt.wantStatus, w.Code)
			var body ReadinessResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body.Status)
			assert.Len(t, body.Components, len(tt.checkers))
		})
	}
}

func TestReferenceDataChecker(t *testing.T) {
	c := NewReferenceDataChecker(stubSource{snap: referencedata.Default()})
	assert.Equal(t, "reference_data", c.Name())
	assert.NoError(t, c.Check(context.Background()))

	assert.Error(t, NewReferenceDataChecker(stubSource{}).Check(context.Background()))
	assert.ErrorIs(t, NewReferenceDataChecker(stubSource{err: assert.AnError}).Check(context.Background()), assert.AnError)
}

//Personal.AI order the ending
