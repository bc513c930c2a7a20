package accounting

import (
	"encoding/json"
	"errors"
	"strconv"
	"testing"

	"ccsledger/core/ledger"
	"ccsledger/core/storage"
)

// fakeReader serves pre-sorted (createdAt, value) rows and honors the
// [start, end] window and page size like the real gateway.
type fakeReader struct {
	createdAts []string
	values     [][]byte
	calls      int
}

func (f *fakeReader) RangeByCreated(start, end, projectID string, pageSize int, bookmark string) (*storage.Page, error) {
	f.calls++
	from := 0
	if bookmark != "" {
		var err error
		from, err = strconv.Atoi(bookmark)
		if err != nil {
			return nil, err
		}
	}
	page := &storage.Page{}
	for i := from; i < len(f.createdAts); i++ {
		if f.createdAts[i] < start || f.createdAts[i] > end {
			continue
		}
		if page.FetchedCount >= pageSize {
			page.Bookmark = strconv.Itoa(i)
			return page, nil
		}
		page.Values = append(page.Values, storage.KeyedValue{Value: f.values[i]})
		page.FetchedCount++
	}
	return page, nil
}

func record(t *testing.T, fields map[string]interface{}) []byte {
	t.Helper()
	out, err := json.Marshal(fields)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestDayWindow(t *testing.T) {
	w, err := DayWindow("2025-03-05")
	if err != nil {
		t.Fatal(err)
	}
	if w.Start != "2025-03-05T00:00:00.000Z" {
		t.Errorf("start = %s", w.Start)
	}
	if w.End != "2025-03-05T23:59:59.999Z" {
		t.Errorf("end = %s", w.End)
	}
	if _, err := DayWindow("05-03-2025"); !errors.Is(err, ledger.ErrValidation) {
		t.Errorf("bad date: got %v", err)
	}
}

func TestMonthWindow(t *testing.T) {
	year, month, w, err := MonthWindow("2025", "2")
	if err != nil {
		t.Fatal(err)
	}
	if year != 2025 || month != 2 {
		t.Errorf("parsed %d-%d", year, month)
	}
	if w.Start != "2025-02-01T00:00:00.000Z" {
		t.Errorf("start = %s", w.Start)
	}
	// 2025 is not a leap year.
	if w.End != "2025-02-28T23:59:59.999Z" {
		t.Errorf("end = %s", w.End)
	}

	_, _, w, err = MonthWindow("2024", "2")
	if err != nil {
		t.Fatal(err)
	}
	if w.End != "2024-02-29T23:59:59.999Z" {
		t.Errorf("leap February end = %s", w.End)
	}

	_, _, w, err = MonthWindow("2025", "12")
	if err != nil {
		t.Fatal(err)
	}
	if w.End != "2025-12-31T23:59:59.999Z" {
		t.Errorf("December end = %s", w.End)
	}

	for _, bad := range [][2]string{{"2025", "0"}, {"2025", "13"}, {"2025", "March"}, {"year", "3"}} {
		if _, _, _, err := MonthWindow(bad[0], bad[1]); !errors.Is(err, ledger.ErrValidation) {
			t.Errorf("MonthWindow(%q, %q): got %v", bad[0], bad[1], err)
		}
	}
}

func TestYearWindow(t *testing.T) {
	year, w, err := YearWindow("2025")
	if err != nil {
		t.Fatal(err)
	}
	if year != 2025 {
		t.Errorf("year = %d", year)
	}
	if w.Start != "2025-01-01T00:00:00.000Z" || w.End != "2025-12-31T23:59:59.999Z" {
		t.Errorf("window = %+v", w)
	}
	for _, bad := range []string{"25", "1999", "3001", "next year"} {
		if _, _, err := YearWindow(bad); !errors.Is(err, ledger.ErrValidation) {
			t.Errorf("YearWindow(%q): got %v", bad, err)
		}
	}
}

func TestSumWindowNetsAllThreeTerms(t *testing.T) {
	reader := &fakeReader{
		createdAts: []string{
			"2025-03-05T08:00:00.000Z",
			"2025-03-05T12:00:00.000Z",
			"2025-03-05T16:00:00.000Z",
			"2025-03-06T08:00:00.000Z",
		},
	}
	reader.values = [][]byte{
		record(t, map[string]interface{}{"id": "cap", "capturedAmount": 120.0}),
		record(t, map[string]interface{}{"id": "tr", "transportEmissions": 20.0}),
		record(t, map[string]interface{}{"id": "st", "storageLoss": 10.0, "injectedAmount": 110.0}),
		record(t, map[string]interface{}{"id": "out", "capturedAmount": 999.0}),
	}

	w, _ := DayWindow("2025-03-05")
	total, err := SumWindow(reader, "P1", w)
	if err != nil {
		t.Fatal(err)
	}
	if total != 90 {
		t.Errorf("total = %v, want 90 (injectedAmount must not contribute)", total)
	}
}

func TestSumWindowExhaustsPages(t *testing.T) {
	reader := &fakeReader{}
	for i := 0; i < scanPageSize*2+5; i++ {
		reader.createdAts = append(reader.createdAts, "2025-03-05T08:00:00.000Z")
		reader.values = append(reader.values, record(t, map[string]interface{}{"capturedAmount": 1.0}))
	}
	w, _ := DayWindow("2025-03-05")
	total, err := SumWindow(reader, "P1", w)
	if err != nil {
		t.Fatal(err)
	}
	if total != float64(scanPageSize*2+5) {
		t.Errorf("total = %v, paging dropped rows", total)
	}
	if reader.calls != 3 {
		t.Errorf("expected 3 pages, reader saw %d calls", reader.calls)
	}
}

func TestDailyNet(t *testing.T) {
	reader := &fakeReader{
		createdAts: []string{"2025-03-05T08:00:00.000Z"},
	}
	reader.values = [][]byte{record(t, map[string]interface{}{"capturedAmount": 42.5})}

	result, err := DailyNet(reader, "P1", "2025-03-05", "2025-04-01T00:00:00.000Z")
	if err != nil {
		t.Fatal(err)
	}
	if result.NetCarbonCaptured != 42.5 || result.Unit != Unit {
		t.Errorf("result = %+v", result)
	}
	if result.ProjectID != "P1" || result.Date != "2025-03-05" {
		t.Errorf("echoed window wrong: %+v", result)
	}
	if result.CalculatedAt != "2025-04-01T00:00:00.000Z" {
		t.Errorf("calculatedAt must be the agreed timestamp, got %s", result.CalculatedAt)
	}

	if _, err := DailyNet(reader, "", "2025-03-05", ""); !errors.Is(err, ledger.ErrValidation) {
		t.Errorf("empty projectId: got %v", err)
	}
	if _, err := DailyNet(reader, "P|1", "2025-03-05", ""); !errors.Is(err, ledger.ErrValidation) {
		t.Errorf("separator in projectId: got %v", err)
	}
}

func TestFinalizeMonthBuildsSnapshot(t *testing.T) {
	reader := &fakeReader{
		createdAts: []string{"2025-03-05T08:00:00.000Z"},
	}
	reader.values = [][]byte{record(t, map[string]interface{}{"capturedAmount": 90.0})}

	key, agg, err := FinalizeMonth(reader, "P1", "2025", "3", "auditor-1", "2025-04-01T00:15:00.000Z")
	if err != nil {
		t.Fatal(err)
	}
	if key != "P1-2025-3-finalized" {
		t.Errorf("key = %s", key)
	}
	if agg.DocType != ledger.DocType || agg.Year != 2025 || agg.Month != 3 {
		t.Errorf("aggregate = %+v", agg)
	}
	if agg.TotalNetCarbonCaptured != 90 || agg.Unit != Unit {
		t.Errorf("aggregate = %+v", agg)
	}
	if agg.FinalizedBy != "auditor-1" || agg.FinalizedAt != "2025-04-01T00:15:00.000Z" {
		t.Errorf("provenance = %+v", agg)
	}
}

func TestFinalizeYearBuildsSnapshot(t *testing.T) {
	reader := &fakeReader{
		createdAts: []string{"2025-03-05T08:00:00.000Z", "2025-11-20T08:00:00.000Z"},
	}
	reader.values = [][]byte{
		record(t, map[string]interface{}{"capturedAmount": 90.0}),
		record(t, map[string]interface{}{"capturedAmount": 30.0}),
	}

	key, agg, err := FinalizeYear(reader, "P1", "2025", "auditor-1", "2026-01-01T00:45:00.000Z")
	if err != nil {
		t.Fatal(err)
	}
	if key != "P1-2025-finalized" {
		t.Errorf("key = %s", key)
	}
	if agg.TotalNetCarbonCaptured != 120 || agg.Month != 0 {
		t.Errorf("aggregate = %+v", agg)
	}
}
