/*
Package kpi computes key performance indicator achievement.

PURPOSE:
  A KPI is a target and an actual value for one business unit and period.
  The achievement rate is actual / target expressed in percent, and the
  status is derived from the rate:

    rate >= 100   achieved
    rate >= 95    on_track
    otherwise     at_risk

  "missed" is never computed. It is only set manually (e.g. when a period
  closes below target) and is kept when the rate cannot be computed.

DIVISION BY ZERO:
  A zero target has no defined rate. AchievementRate returns
  ErrDivisionByZero; Evaluate reports a nil Rate and falls back to the
  stored status. The API renders the rate as null / "N/A".

SEE ALSO:
  - report/report.go: KPI counts per business unit
  - api/handlers_entities.go: HTTP surface
*/
package kpi

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/unit-finance/allocation"
)

var (
	// ErrDivisionByZero is returned when the target is zero.
	ErrDivisionByZero = errors.New("kpi target is zero")

	// ErrUnknownStatus is returned by ParseStatus for unknown names.
	ErrUnknownStatus = errors.New("unknown kpi status")
)

var (
	hundred         = decimal.NewFromInt(100)
	OnTrackMinimum  = decimal.NewFromInt(95)
	AchievedMinimum = hundred
)

// =============================================================================
// STATUS
// =============================================================================

type Status string

const (
	StatusAchieved Status = "achieved"
	StatusOnTrack  Status = "on_track"
	StatusAtRisk   Status = "at_risk"
	StatusMissed   Status = "missed"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusAchieved, StatusOnTrack, StatusAtRisk, StatusMissed}

// ParseStatus converts a string to a Status. This is the only way to obtain
// StatusMissed.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusAchieved, StatusOnTrack, StatusAtRisk, StatusMissed:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// StatusFromRate maps an achievement rate (percent) to a status.
// Thresholds are inclusive.
func StatusFromRate(rate decimal.Decimal) Status {
	switch {
	case rate.GreaterThanOrEqual(AchievedMinimum):
		return StatusAchieved
	case rate.GreaterThanOrEqual(OnTrackMinimum):
		return StatusOnTrack
	default:
		return StatusAtRisk
	}
}

// =============================================================================
// RATE
// =============================================================================

// AchievementRate returns actual / target * 100.
func AchievementRate(target, actual decimal.Decimal) (decimal.Decimal, error) {
	if target.IsZero() {
		return decimal.Zero, ErrDivisionByZero
	}
	return actual.Mul(hundred).Div(target), nil
}

// =============================================================================
// KPI
// =============================================================================

// KPI is one indicator for a business unit and period.
type KPI struct {
	ID             string
	BusinessUnitID string
	Name           string
	Unit           string
	TargetValue    decimal.Decimal
	ActualValue    decimal.Decimal
	PeriodMonth    int
	PeriodYear     int
	Status         Status // manual status, used when the rate is undefined
}

func (k KPI) Period() allocation.Period { return allocation.NewPeriod(k.PeriodYear, k.PeriodMonth) }

// Validate checks the fields a client can get wrong.
func (k KPI) Validate() error {
	if k.Name == "" {
		return errors.New("kpi name is required")
	}
	if !k.Period().Valid() {
		return fmt.Errorf("kpi period %d-%d is invalid", k.PeriodYear, k.PeriodMonth)
	}
	if k.Status != "" {
		if _, err := ParseStatus(string(k.Status)); err != nil {
			return err
		}
	}
	return nil
}

// Evaluation is the computed view of a KPI.
type Evaluation struct {
	Rate     *decimal.Decimal // nil when the target is zero
	Status   Status
	Computed bool // false when Status is the stored manual status
}

// Evaluate computes the rate and status. A manual StatusMissed wins over
// the computed status: a closed, missed period stays missed.
func Evaluate(k KPI) Evaluation {
	rate, err := AchievementRate(k.TargetValue, k.ActualValue)
	if err != nil {
		return Evaluation{Status: k.Status}
	}
	if k.Status == StatusMissed {
		return Evaluation{Rate: &rate, Status: StatusMissed}
	}
	return Evaluation{Rate: &rate, Status: StatusFromRate(rate), Computed: true}
}

// CountByStatus tallies evaluated statuses. KPIs with no status are skipped.
func CountByStatus(kpis []KPI) map[Status]int {
	counts := make(map[Status]int, len(Statuses))
	for _, k := range kpis {
		if s := Evaluate(k).Status; s != "" {
			counts[s]++
		}
	}
	return counts
}
