// Package accounting computes windowed net-carbon sums over ledger records:
// Σ capturedAmount − Σ transportEmissions − Σ storageLoss across every record
// of a project whose createdAt falls inside a UTC day, month, or year.
package accounting

import (
	"encoding/json"
	"strconv"
	"time"

	"ccsledger/core/ledger"
	"ccsledger/core/storage"
)

// Unit is the measurement unit of every aggregate this engine produces.
const Unit = "tonnes"

// scanPageSize is the internal page size used when exhausting a window.
const scanPageSize = 500

// WindowReader is the slice of the query gateway the engine needs.
type WindowReader interface {
	RangeByCreated(start, end, projectID string, pageSize int, bookmark string) (*storage.Page, error)
}

// Window is an inclusive [Start, End] span in wire-format timestamps.
type Window struct {
	Start string
	End   string
}

// DayWindow bounds one UTC day given a "YYYY-MM-DD" date.
func DayWindow(date string) (Window, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return Window{}, ledger.Validationf("invalid date format %q, expected YYYY-MM-DD", date)
	}
	return Window{
		Start: ledger.FormatTimestamp(day),
		End:   ledger.FormatTimestamp(day.Add(24*time.Hour - time.Millisecond)),
	}, nil
}

// MonthWindow bounds one UTC month. Month is 1-12.
func MonthWindow(yearArg, monthArg string) (int, int, Window, error) {
	year, errY := strconv.Atoi(yearArg)
	month, errM := strconv.Atoi(monthArg)
	if errY != nil || errM != nil || month < 1 || month > 12 {
		return 0, 0, Window{}, ledger.Validationf("invalid year or month; month must be 1-12")
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Millisecond)
	return year, month, Window{
		Start: ledger.FormatTimestamp(start),
		End:   ledger.FormatTimestamp(end),
	}, nil
}

// YearWindow bounds one UTC year.
func YearWindow(yearArg string) (int, Window, error) {
	year, err := strconv.Atoi(yearArg)
	if err != nil || year < 2000 || year > 3000 {
		return 0, Window{}, ledger.Validationf("invalid year format, expected a number like 2025")
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0).Add(-time.Millisecond)
	return year, Window{
		Start: ledger.FormatTimestamp(start),
		End:   ledger.FormatTimestamp(end),
	}, nil
}

// SumWindow reduces every record of a project inside a window to the net
// quantity. Absent fields count as zero, so each variant contributes only its
// own term. Finalized aggregates never appear here: they carry no createdAt
// and are not indexed by the gateway.
func SumWindow(reader WindowReader, projectID string, w Window) (float64, error) {
	total := 0.0
	bookmark := ""
	for {
		page, err := reader.RangeByCreated(w.Start, w.End, projectID, scanPageSize, bookmark)
		if err != nil {
			return 0, err
		}
		for _, kv := range page.Values {
			var rec ledger.Record
			if err := json.Unmarshal(kv.Value, &rec); err != nil {
				continue // non-record value under an indexed key; does not contribute
			}
			total += rec.NetContribution()
		}
		if page.Bookmark == "" {
			return total, nil
		}
		bookmark = page.Bookmark
	}
}

// DailyResult is the caller-facing shape of a daily net computation.
type DailyResult struct {
	NetCarbonCaptured float64 `json:"netCarbonCaptured"`
	Unit              string  `json:"unit"`
	CalculatedAt      string  `json:"calculatedAt"`
	ProjectID         string  `json:"projectId"`
	Date              string  `json:"date"`
}

// DailyNet computes the net carbon stored for one project and UTC day.
// Read-only; calculatedAt is the transaction's agreed timestamp.
func DailyNet(reader WindowReader, projectID, date, calculatedAt string) (*DailyResult, error) {
	if !ledger.ValidProjectID(projectID) {
		return nil, ledger.Validationf("both projectId and date must be provided")
	}
	window, err := DayWindow(date)
	if err != nil {
		return nil, err
	}
	total, err := SumWindow(reader, projectID, window)
	if err != nil {
		return nil, err
	}
	return &DailyResult{
		NetCarbonCaptured: total,
		Unit:              Unit,
		CalculatedAt:      calculatedAt,
		ProjectID:         projectID,
		Date:              date,
	}, nil
}

// FinalizeMonth recomputes a month's net total from raw records and builds the
// snapshot to commit. Re-running against unchanged data yields the same total.
func FinalizeMonth(reader WindowReader, projectID, yearArg, monthArg, finalizedBy, finalizedAt string) (string, *ledger.FinalizedAggregate, error) {
	if !ledger.ValidProjectID(projectID) {
		return "", nil, ledger.Validationf("a projectId must be provided")
	}
	year, month, window, err := MonthWindow(yearArg, monthArg)
	if err != nil {
		return "", nil, err
	}
	total, err := SumWindow(reader, projectID, window)
	if err != nil {
		return "", nil, err
	}
	agg := &ledger.FinalizedAggregate{
		DocType:                ledger.DocType,
		ProjectID:              projectID,
		Year:                   year,
		Month:                  month,
		TotalNetCarbonCaptured: total,
		Unit:                   Unit,
		FinalizedBy:            finalizedBy,
		FinalizedAt:            finalizedAt,
	}
	return ledger.MonthlyAggregateKey(projectID, year, month), agg, nil
}

// FinalizeYear is the annual counterpart of FinalizeMonth.
func FinalizeYear(reader WindowReader, projectID, yearArg, finalizedBy, finalizedAt string) (string, *ledger.FinalizedAggregate, error) {
	if !ledger.ValidProjectID(projectID) {
		return "", nil, ledger.Validationf("a projectId must be provided")
	}
	year, window, err := YearWindow(yearArg)
	if err != nil {
		return "", nil, err
	}
	total, err := SumWindow(reader, projectID, window)
	if err != nil {
		return "", nil, err
	}
	agg := &ledger.FinalizedAggregate{
		DocType:                ledger.DocType,
		ProjectID:              projectID,
		Year:                   year,
		TotalNetCarbonCaptured: total,
		Unit:                   Unit,
		FinalizedBy:            finalizedBy,
		FinalizedAt:            finalizedAt,
	}
	return ledger.AnnualAggregateKey(projectID, year), agg, nil
}
