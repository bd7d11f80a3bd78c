/*
handlers.go - HTTP API handlers for the benefit engine

PURPOSE:
  Exposes the calculation engine and the payment-line ledger via REST.
  Handles HTTP request/response, JSON serialization, and delegates to
  domain logic.

ENDPOINTS:
  Calculations:
    POST   /api/calculations                Run a benefit calculation
    GET    /api/freeamount                  Co-habitant free amount for a month

  Cases:
    GET    /api/cases/{id}/ledger           Full batch history for a case
    POST   /api/cases/{id}/payments         Apply a payment transition

  Reconciliation:
    GET    /api/reconciliation/batches      Batches by key range

SERIALIZATION:
  The engine requires at most one transition per case at a time: a
  transition reads the full ledger and its validity depends on that
  history not changing underneath it. This handler is the serializing
  caller - it holds a per-case lock across load-generate-append.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, malformed input
  - 409: Transition conflicts with ledger history
  - 500: Rate table gaps, storage failures

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/velferd/benefit-engine/benefit"
	"github.com/velferd/benefit-engine/ledger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      ledger.BatchStore
	Calculator *benefit.Calculator
	Generator  *ledger.Generator
	Clock      ledger.Clock

	log zerolog.Logger

	// Per-case serialization of ledger transitions.
	locksMu sync.Mutex
	locks   map[ledger.CaseID]*caseLock
}

// caseLock serializes transitions for one case. Entries are reference
// counted and removed when the last holder releases, so the lock map
// tracks cases with in-flight transitions, not every case ever seen.
type caseLock struct {
	mu   sync.Mutex
	refs int
}

// NewHandler creates a new handler with the given dependencies.
func NewHandler(store ledger.BatchStore, calc *benefit.Calculator, gen *ledger.Generator, clock ledger.Clock, log zerolog.Logger) *Handler {
	return &Handler{
		Store:      store,
		Calculator: calc,
		Generator:  gen,
		Clock:      clock,
		log:        log.With().Str("component", "api").Logger(),
		locks:      make(map[ledger.CaseID]*caseLock),
	}
}

// lockCase blocks until the caller holds the case's transition lock.
func (h *Handler) lockCase(caseID ledger.CaseID) *caseLock {
	h.locksMu.Lock()
	l := h.locks[caseID]
	if l == nil {
		l = &caseLock{}
		h.locks[caseID] = l
	}
	l.refs++
	h.locksMu.Unlock()

	l.mu.Lock()
	return l
}

// unlockCase releases the lock and drops the map entry once unreferenced.
func (h *Handler) unlockCase(caseID ledger.CaseID, l *caseLock) {
	l.mu.Unlock()

	h.locksMu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(h.locks, caseID)
	}
	h.locksMu.Unlock()
}

// =============================================================================
// CALCULATION ENDPOINTS
// =============================================================================

// Calculate runs a benefit calculation without touching any ledger.
// POST /api/calculations
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req CalculationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	calc, err := h.runCalculation(req)
	if err != nil {
		h.writeCalculationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCalculationDTO(calc))
}

// runCalculation translates a request into a domain calculation.
func (h *Handler) runCalculation(req CalculationRequest) (benefit.Calculation, error) {
	period, err := parsePeriodDTO(req.PeriodFrom, req.PeriodTo)
	if err != nil {
		return benefit.Calculation{}, err
	}
	composition, err := benefit.ParseComposition(req.Composition)
	if err != nil {
		return benefit.Calculation{}, err
	}

	deductions := make([]benefit.Deduction, 0, len(req.Deductions))
	for _, d := range req.Deductions {
		ded, err := d.toDomain()
		if err != nil {
			return benefit.Calculation{}, err
		}
		deductions = append(deductions, ded)
	}

	input, err := benefit.NewCalculationInput(period, deductions)
	if err != nil {
		return benefit.Calculation{}, err
	}
	return h.Calculator.Compute(input, composition, h.Clock.Now())
}

func (h *Handler) writeCalculationError(w http.ResponseWriter, err error) {
	if errors.Is(err, benefit.ErrRateNotDefinedYet) {
		// A rate gap is a configuration problem, not a caller bug.
		h.log.Error().Err(err).Msg("rate table gap")
		writeError(w, http.StatusInternalServerError, "rate table gap", err)
		return
	}
	writeError(w, http.StatusBadRequest, "calculation rejected", err)
}

// FreeAmount returns the monthly co-habitant income threshold, for letter
// generation and case-worker display.
// GET /api/freeamount?household_composition=...&month=2006-01
func (h *Handler) FreeAmount(w http.ResponseWriter, r *http.Request) {
	composition, err := benefit.ParseComposition(r.URL.Query().Get("household_composition"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid household_composition", err)
		return
	}
	monthStart, err := parseDate(r.URL.Query().Get("month") + "-01")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month, expected YYYY-MM", err)
		return
	}
	month := benefit.MonthOf(monthStart)

	strategy := benefit.StrategyFor(composition, h.Calculator.Rates)
	free, err := strategy.FreeAmount(month)
	if err != nil {
		h.log.Error().Err(err).Msg("rate table gap")
		writeError(w, http.StatusInternalServerError, "rate table gap", err)
		return
	}

	writeJSON(w, http.StatusOK, FreeAmountDTO{
		Composition: string(composition),
		Month:       month.From.Format("2006-01"),
		FreeAmount:  free.String(),
	})
}

// =============================================================================
// LEDGER ENDPOINTS
// =============================================================================

// GetLedger returns a case's full batch history.
// GET /api/cases/{id}/ledger
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	caseID := ledger.CaseID(chi.URLParam(r, "id"))

	batches, err := h.Store.LoadLedger(r.Context(), caseID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load ledger", err)
		return
	}
	writeJSON(w, http.StatusOK, toBatchDTOs(batches))
}

// Transition applies a payment transition to a case's ledger and commits
// the resulting batch.
// POST /api/cases/{id}/payments
func (h *Handler) Transition(w http.ResponseWriter, r *http.Request) {
	caseID := ledger.CaseID(chi.URLParam(r, "id"))

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	// One transition per case at a time: validity depends on the history
	// staying fixed between load and append.
	lock := h.lockCase(caseID)
	defer h.unlockCase(caseID, lock)

	history, err := h.Store.LoadLedger(r.Context(), caseID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load ledger", err)
		return
	}

	batch, err := h.generateBatch(caseID, history, req)
	if err != nil {
		h.writeTransitionError(w, err)
		return
	}

	if err := h.Store.Append(r.Context(), batch); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit batch", err)
		return
	}

	h.log.Info().
		Str("case", string(caseID)).
		Str("kind", string(batch.Kind)).
		Str("key", batch.Key.String()).
		Int("lines", len(batch.Lines)).
		Msg("payment batch committed")
	writeJSON(w, http.StatusCreated, toBatchDTO(batch))
}

func (h *Handler) generateBatch(caseID ledger.CaseID, history []ledger.Batch, req TransitionRequest) (ledger.Batch, error) {
	switch ledger.BatchKind(req.Kind) {
	case ledger.BatchNew:
		if req.Calculation == nil {
			return ledger.Batch{}, errors.New("new transition requires a calculation")
		}
		calc, err := h.runCalculation(*req.Calculation)
		if err != nil {
			return ledger.Batch{}, err
		}
		return h.Generator.New(caseID, history, calc)

	case ledger.BatchStop:
		date, err := parseDate(req.Date)
		if err != nil {
			return ledger.Batch{}, err
		}
		return h.Generator.Stop(caseID, history, date)

	case ledger.BatchResume:
		date, err := parseDate(req.Date)
		if err != nil {
			return ledger.Batch{}, err
		}
		return h.Generator.Resume(caseID, history, date)

	case ledger.BatchDiscontinue:
		date, err := parseDate(req.Date)
		if err != nil {
			return ledger.Batch{}, err
		}
		return h.Generator.Discontinue(caseID, history, date)

	default:
		return ledger.Batch{}, errors.New("unknown transition kind " + req.Kind)
	}
}

// writeTransitionError maps domain rejections to HTTP statuses.
func (h *Handler) writeTransitionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrOverlapsExistingLines),
		errors.Is(err, ledger.ErrAlreadyStopped),
		errors.Is(err, ledger.ErrCannotStopDiscontinued),
		errors.Is(err, ledger.ErrNotCurrentlyStopped),
		errors.Is(err, ledger.ErrConflictingDiscontinuation),
		errors.Is(err, ledger.ErrNoActiveLines),
		errors.Is(err, ledger.ErrIllegalTransition):
		writeError(w, http.StatusConflict, "transition rejected", err)

	case errors.Is(err, benefit.ErrRateNotDefinedYet):
		h.log.Error().Err(err).Msg("rate table gap")
		writeError(w, http.StatusInternalServerError, "rate table gap", err)

	default:
		writeError(w, http.StatusBadRequest, "invalid transition request", err)
	}
}

// =============================================================================
// RECONCILIATION ENDPOINTS
// =============================================================================

// BatchesByKeyRange returns batches ordered by reconciliation key, for
// settlement reporting.
// GET /api/reconciliation/batches?from=...&to=...
func (h *Handler) BatchesByKeyRange(w http.ResponseWriter, r *http.Request) {
	from, err := ledger.ParseKey(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from key", err)
		return
	}
	to, err := ledger.ParseKey(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to key", err)
		return
	}

	batches, err := h.Store.LoadByKeyRange(r.Context(), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load batches", err)
		return
	}
	writeJSON(w, http.StatusOK, toBatchDTOs(batches))
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
