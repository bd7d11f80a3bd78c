package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velferd/benefit-engine/api"
	"github.com/velferd/benefit-engine/benefit"
	"github.com/velferd/benefit-engine/ledger"
	"github.com/velferd/benefit-engine/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// newTestRouter wires the full stack over an in-memory store and a clock
// fixed mid-February 2025. Base 30000/year: high tier pays 6200 per month,
// ordinary 5700, guarantee free amount 2000.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	rates := benefit.NewRateTable(
		[]benefit.RateEntry{{
			EffectiveFrom: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
			YearlyAmount:  decimal.NewFromInt(30000),
		}},
		[]benefit.RateEntry{{
			EffectiveFrom: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
			YearlyAmount:  decimal.NewFromInt(24000),
		}},
	)

	clock := ledger.FixedClock{At: time.Date(2025, time.February, 15, 10, 0, 0, 0, time.UTC)}
	handler := api.NewHandler(
		store.NewMemory(),
		benefit.NewCalculator(rates),
		ledger.NewGenerator(clock, ledger.NewKeyGenerator(clock)),
		clock,
		zerolog.Nop(),
	)
	return api.NewRouter(handler, zerolog.Nop())
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func calcRequest() api.CalculationRequest {
	return api.CalculationRequest{
		PeriodFrom:  "2025-03-01",
		PeriodTo:    "2025-05-31",
		Composition: "alone",
		Deductions: []api.DeductionDTO{{
			Type:          "expected_income",
			MonthlyAmount: "500",
			PeriodFrom:    "2025-03-01",
			PeriodTo:      "2025-05-31",
			Owner:         "applicant",
		}},
	}
}

// =============================================================================
// CALCULATION ENDPOINT TESTS
// =============================================================================

func TestCalculate_ValidRequest(t *testing.T) {
	// GIVEN: Alone applicant, Mar-May, expected income 500 per month
	// WHEN: POST /api/calculations
	// THEN: 200 with 6200 - 500 = 5700 per month

	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/api/calculations", calcRequest())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp api.CalculationDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "alone", resp.Composition)
	assert.Equal(t, "high", resp.Tier)
	assert.Equal(t, int64(17100), resp.TotalGross)
	require.Len(t, resp.Months, 3)
	assert.Equal(t, "2025-03", resp.Months[0].Month)
	assert.Equal(t, int64(5700), resp.Months[0].GrossBenefit)
}

func TestCalculate_CoverageGap_BadRequest(t *testing.T) {
	// Expected income covering only March in a Mar-May period is invalid.
	router := newTestRouter(t)

	req := calcRequest()
	req.Deductions[0].PeriodTo = "2025-03-31"

	rec := doJSON(t, router, http.MethodPost, "/api/calculations", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Details)
}

func TestCalculate_UnalignedPeriod_BadRequest(t *testing.T) {
	router := newTestRouter(t)

	req := calcRequest()
	req.PeriodFrom = "2025-03-15"

	rec := doJSON(t, router, http.MethodPost, "/api/calculations", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalculate_RateGap_ServerError(t *testing.T) {
	// A period before the rate table's first entry is a config gap, not a
	// caller bug.
	router := newTestRouter(t)

	req := calcRequest()
	req.PeriodFrom = "2024-01-01"
	req.PeriodTo = "2024-01-31"
	req.Deductions[0].PeriodFrom = "2024-01-01"
	req.Deductions[0].PeriodTo = "2024-01-31"

	rec := doJSON(t, router, http.MethodPost, "/api/calculations", req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestFreeAmount_Over67(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet,
		"/api/freeamount?household_composition=co_habitant_over_67&month=2025-03", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp api.FreeAmountDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2025-03", resp.Month)
	assert.Equal(t, "2000", resp.FreeAmount)
}

func TestFreeAmount_UnknownComposition_BadRequest(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet,
		"/api/freeamount?household_composition=married&month=2025-03", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// TRANSITION ENDPOINT TESTS
// =============================================================================

func TestTransition_NewThenLedger(t *testing.T) {
	// GIVEN: A fresh case
	// WHEN: Committing a new grant and reading the ledger back
	// THEN: 201 with one chained batch, visible via GET

	router := newTestRouter(t)

	calc := calcRequest()
	rec := doJSON(t, router, http.MethodPost, "/api/cases/case-1/payments",
		api.TransitionRequest{Kind: "new", Calculation: &calc})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var batch api.BatchDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batch))
	assert.Equal(t, "new", batch.Kind)
	assert.Equal(t, "case-1", batch.CaseID)
	require.Len(t, batch.Lines, 3)
	assert.Empty(t, batch.Lines[0].PreviousLineID)
	assert.Equal(t, int64(5700), batch.Lines[0].Amount)

	rec = doJSON(t, router, http.MethodGet, "/api/cases/case-1/ledger", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var batches []api.BatchDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batches))
	require.Len(t, batches, 1)
	assert.Equal(t, batch.ID, batches[0].ID)
}

func TestTransition_StopThenStopAgain_Conflict(t *testing.T) {
	// GIVEN: An active grant (clock mid-February)
	// WHEN: Stopping from April, then stopping again
	// THEN: First stop commits, second returns 409

	router := newTestRouter(t)

	calc := calcRequest()
	rec := doJSON(t, router, http.MethodPost, "/api/cases/case-1/payments",
		api.TransitionRequest{Kind: "new", Calculation: &calc})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/api/cases/case-1/payments",
		api.TransitionRequest{Kind: "stop", Date: "2025-04-01"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/api/cases/case-1/payments",
		api.TransitionRequest{Kind: "stop", Date: "2025-05-01"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestTransition_StopOnEmptyLedger_Conflict(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/cases/untouched/payments",
		api.TransitionRequest{Kind: "stop", Date: "2025-04-01"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestTransition_UnknownKind_BadRequest(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/cases/case-1/payments",
		api.TransitionRequest{Kind: "pause", Date: "2025-04-01"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransition_ResumeRestoresAmounts(t *testing.T) {
	// Full lifecycle over HTTP: new, stop from April, resume from May.
	router := newTestRouter(t)

	calc := calcRequest()
	rec := doJSON(t, router, http.MethodPost, "/api/cases/case-1/payments",
		api.TransitionRequest{Kind: "new", Calculation: &calc})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/api/cases/case-1/payments",
		api.TransitionRequest{Kind: "stop", Date: "2025-04-01"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/api/cases/case-1/payments",
		api.TransitionRequest{Kind: "resume", Date: "2025-05-01"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var batch api.BatchDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batch))
	assert.Equal(t, "resume", batch.Kind)
	require.NotEmpty(t, batch.Lines)
	for _, l := range batch.Lines {
		assert.Equal(t, int64(5700), l.Amount)
	}
}

// =============================================================================
// RECONCILIATION ENDPOINT TESTS
// =============================================================================

func TestBatchesByKeyRange(t *testing.T) {
	// GIVEN: Two committed batches
	// WHEN: Querying the full key range
	// THEN: Both come back, ordered by reconciliation key

	router := newTestRouter(t)

	calc := calcRequest()
	rec := doJSON(t, router, http.MethodPost, "/api/cases/case-1/payments",
		api.TransitionRequest{Kind: "new", Calculation: &calc})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/api/cases/case-1/payments",
		api.TransitionRequest{Kind: "stop", Date: "2025-04-01"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	from := ledger.ReconciliationKey{}
	to := ledger.ReconciliationKey{At: time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)}
	rec = doJSON(t, router, http.MethodGet,
		"/api/reconciliation/batches?from="+from.String()+"&to="+to.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var batches []api.BatchDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batches))
	require.Len(t, batches, 2)
	assert.Less(t, batches[0].ReconciliationKey, batches[1].ReconciliationKey)
}
