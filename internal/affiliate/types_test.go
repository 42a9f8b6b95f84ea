package affiliate

import (
	"testing"
	"time"

	"github.com/dvloznov/affiliate-tracker/internal/fetch"
)

func TestQuery_Window(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	start, end := Query{}.Window(now)
	if want := now.AddDate(-1, 0, 0); !start.Equal(want) {
		t.Errorf("default start = %v, want %v", start, want)
	}
	if want := now.Add(-time.Minute); !end.Equal(want) {
		t.Errorf("default end = %v, want %v", end, want)
	}

	explicitStart := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	explicitEnd := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	start, end = Query{Start: explicitStart, End: explicitEnd}.Window(now)
	if !start.Equal(explicitStart) || !end.Equal(explicitEnd) {
		t.Errorf("explicit window = [%v, %v], want [%v, %v]", start, end, explicitStart, explicitEnd)
	}
}

func TestQuery_WantsMerchant(t *testing.T) {
	q := Query{}
	if !q.WantsMerchant("7") {
		t.Error("empty filter rejected a merchant")
	}

	q = Query{MerchantIDs: []string{"7", "9"}}
	if !q.WantsMerchant("9") {
		t.Error("filter rejected a listed merchant")
	}
	if q.WantsMerchant("8") {
		t.Error("filter admitted an unlisted merchant")
	}
}

func TestReport_Partial(t *testing.T) {
	r := &Report{}
	if r.Partial() {
		t.Error("empty report reported partial")
	}
	r.Skipped = append(r.Skipped, fetch.PageError{Page: 2})
	if !r.Partial() {
		t.Error("report with skipped page not reported partial")
	}
}
