/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

DATES:
  All dates cross the wire as "2006-01-02" strings in UTC. Monetary
  amounts are decimal strings on the way in (deductions) and whole
  currency units on the way out (payment lines).

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/velferd/benefit-engine/benefit"
	"github.com/velferd/benefit-engine/ledger"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CalculationRequest asks for a benefit calculation.
type CalculationRequest struct {
	PeriodFrom  string         `json:"period_from"`
	PeriodTo    string         `json:"period_to"`
	Composition string         `json:"household_composition"`
	Deductions  []DeductionDTO `json:"deductions"`
}

// DeductionDTO is one raw deduction in a calculation request.
type DeductionDTO struct {
	Type          string `json:"type"`
	Description   string `json:"description,omitempty"`
	MonthlyAmount string `json:"monthly_amount"`
	PeriodFrom    string `json:"period_from"`
	PeriodTo      string `json:"period_to"`
	Owner         string `json:"owner"`
}

// TransitionRequest asks for a payment transition on a case's ledger.
// Kind selects the variant; Calculation is required for "new", Date for
// the other three.
type TransitionRequest struct {
	Kind        string              `json:"kind"` // new | stop | resume | discontinue
	Date        string              `json:"date,omitempty"`
	Calculation *CalculationRequest `json:"calculation,omitempty"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// CalculationDTO is a calculation result.
type CalculationDTO struct {
	ID          string             `json:"id"`
	CreatedAt   string             `json:"created_at"`
	PeriodFrom  string             `json:"period_from"`
	PeriodTo    string             `json:"period_to"`
	Composition string             `json:"household_composition"`
	Tier        string             `json:"rate_tier"`
	TotalGross  int64              `json:"total_gross"`
	Months      []MonthlyResultDTO `json:"months"`
}

// MonthlyResultDTO is one month of a calculation.
type MonthlyResultDTO struct {
	Month          string `json:"month"` // "2006-01"
	GrossBenefit   int64  `json:"gross_benefit"`
	TotalDeduction string `json:"total_deduction"`
	RateAmount     string `json:"rate_amount"`
}

// BatchDTO is a payment batch.
type BatchDTO struct {
	ID                string           `json:"id"`
	CaseID            string           `json:"case_id"`
	Kind              string           `json:"kind"`
	ReconciliationKey string           `json:"reconciliation_key"`
	CreatedAt         string           `json:"created_at"`
	Lines             []PaymentLineDTO `json:"lines"`
}

// PaymentLineDTO is one payment line.
type PaymentLineDTO struct {
	ID             string `json:"id"`
	PeriodFrom     string `json:"period_from"`
	PeriodTo       string `json:"period_to"`
	Amount         int64  `json:"amount"`
	PreviousLineID string `json:"previous_line_id,omitempty"`
	Kind           string `json:"kind"`
}

// FreeAmountDTO explains the co-habitant income threshold for a month.
type FreeAmountDTO struct {
	Composition string `json:"household_composition"`
	Month       string `json:"month"`
	FreeAmount  string `json:"free_amount"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, time.UTC)
}

func parsePeriodDTO(from, to string) (benefit.Period, error) {
	f, err := parseDate(from)
	if err != nil {
		return benefit.Period{}, fmt.Errorf("invalid period_from %q: %w", from, err)
	}
	t, err := parseDate(to)
	if err != nil {
		return benefit.Period{}, fmt.Errorf("invalid period_to %q: %w", to, err)
	}
	return benefit.NewPeriod(f, t)
}

func (d DeductionDTO) toDomain() (benefit.Deduction, error) {
	period, err := parsePeriodDTO(d.PeriodFrom, d.PeriodTo)
	if err != nil {
		return benefit.Deduction{}, err
	}
	amount, err := decimal.NewFromString(d.MonthlyAmount)
	if err != nil {
		return benefit.Deduction{}, fmt.Errorf("invalid monthly_amount %q: %w", d.MonthlyAmount, err)
	}

	var owner benefit.DeductionOwner
	switch d.Owner {
	case string(benefit.OwnerApplicant):
		owner = benefit.OwnerApplicant
	case string(benefit.OwnerCoHabitant):
		owner = benefit.OwnerCoHabitant
	default:
		return benefit.Deduction{}, fmt.Errorf("unknown owner %q", d.Owner)
	}

	ded, err := benefit.NewDeduction(benefit.DeductionType(d.Type), amount, period, owner)
	if err != nil {
		return benefit.Deduction{}, err
	}
	ded.Description = d.Description
	return ded, nil
}

func toCalculationDTO(c benefit.Calculation) CalculationDTO {
	months := make([]MonthlyResultDTO, 0, len(c.Months))
	for _, m := range c.Months {
		months = append(months, MonthlyResultDTO{
			Month:          m.Period.From.Format("2006-01"),
			GrossBenefit:   m.GrossBenefit,
			TotalDeduction: m.TotalDeduction.String(),
			RateAmount:     m.RateAmount.String(),
		})
	}
	return CalculationDTO{
		ID:          c.ID.String(),
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
		PeriodFrom:  c.Period.From.Format("2006-01-02"),
		PeriodTo:    c.Period.To.Format("2006-01-02"),
		Composition: string(c.Composition),
		Tier:        string(c.Tier),
		TotalGross:  c.TotalGross(),
		Months:      months,
	}
}

func toBatchDTO(b ledger.Batch) BatchDTO {
	lines := make([]PaymentLineDTO, 0, len(b.Lines))
	for _, l := range b.Lines {
		lines = append(lines, PaymentLineDTO{
			ID:             string(l.ID),
			PeriodFrom:     l.Period.From.Format("2006-01-02"),
			PeriodTo:       l.Period.To.Format("2006-01-02"),
			Amount:         l.Amount,
			PreviousLineID: string(l.PreviousLineID),
			Kind:           string(l.Kind),
		})
	}
	return BatchDTO{
		ID:                string(b.ID),
		CaseID:            string(b.CaseID),
		Kind:              string(b.Kind),
		ReconciliationKey: b.Key.String(),
		CreatedAt:         b.CreatedAt.Format(time.RFC3339),
		Lines:             lines,
	}
}

func toBatchDTOs(batches []ledger.Batch) []BatchDTO {
	dtos := make([]BatchDTO, 0, len(batches))
	for _, b := range batches {
		dtos = append(dtos, toBatchDTO(b))
	}
	return dtos
}
