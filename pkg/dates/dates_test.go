package dates

import (
	"testing"
	"time"
)

// fixed reference point: Wednesday, 2024-05-15 10:30 UTC.
var refNow = time.Date(2024, time.May, 15, 10, 30, 0, 0, time.UTC)

func TestResolve_ThisWeek(t *testing.T) {
	start, end, err := Resolve(ThisWeek, refNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantStart := time.Date(2024, time.May, 12, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, time.May, 19, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)
	if !start.Equal(wantStart) {
		t.Fatalf("expected start %v, got %v", wantStart, start)
	}
	if !end.Equal(wantEnd) {
		t.Fatalf("expected end %v, got %v", wantEnd, end)
	}
}

func TestResolve_LastWeek(t *testing.T) {
	start, end, err := Resolve(LastWeek, refNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantStart := time.Date(2024, time.May, 5, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, time.May, 12, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)
	if !start.Equal(wantStart) || !end.Equal(wantEnd) {
		t.Fatalf("expected [%v, %v], got [%v, %v]", wantStart, wantEnd, start, end)
	}
}

func TestResolve_ThisMonth(t *testing.T) {
	start, end, err := Resolve(ThisMonth, refNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantStart := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)
	if !start.Equal(wantStart) || !end.Equal(wantEnd) {
		t.Fatalf("expected [%v, %v], got [%v, %v]", wantStart, wantEnd, start, end)
	}
}

func TestResolve_LastMonth(t *testing.T) {
	start, end, err := Resolve(LastMonth, refNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantStart := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)
	if !start.Equal(wantStart) || !end.Equal(wantEnd) {
		t.Fatalf("expected [%v, %v], got [%v, %v]", wantStart, wantEnd, start, end)
	}
}

func TestResolve_Quarters(t *testing.T) {
	start, end, err := Resolve(ThisQuarter, refNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !start.Equal(time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected Q2 start, got %v", start)
	}
	if !end.Equal(time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)) {
		t.Fatalf("expected Q2 end, got %v", end)
	}

	start, end, err = Resolve(LastQuarter, refNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !start.Equal(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected Q1 start, got %v", start)
	}
	if !end.Equal(time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)) {
		t.Fatalf("expected Q1 end, got %v", end)
	}
}

// Both half-year labels resolve to the single quarter containing the
// instant six months back. The window is one quarter wide, not two.
func TestResolve_HalfYearLabelsShareOneQuarter(t *testing.T) {
	wantStart := time.Date(2023, time.October, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)

	for _, label := range []string{ThisHalfYear, LastHalfYear} {
		start, end, err := Resolve(label, refNow)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", label, err)
		}
		if !start.Equal(wantStart) {
			t.Fatalf("%s: expected start %v, got %v", label, wantStart, start)
		}
		if !end.Equal(wantEnd) {
			t.Fatalf("%s: expected end %v, got %v", label, wantEnd, end)
		}
	}
}

func TestResolve_Years(t *testing.T) {
	start, end, err := Resolve(ThisYear, refNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Year() != 2024 || end.Year() != 2024 {
		t.Fatalf("expected 2024 window, got [%v, %v]", start, end)
	}

	start, end, err = Resolve(LastYear, refNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Year() != 2023 || end.Year() != 2023 {
		t.Fatalf("expected 2023 window, got [%v, %v]", start, end)
	}
}

func TestResolve_UnknownLabel(t *testing.T) {
	if _, _, err := Resolve("NEXT_WEEK", refNow); err == nil {
		t.Fatalf("expected error for unknown label")
	}
}

func TestIsLabel(t *testing.T) {
	if !IsLabel(ThisMonth) {
		t.Fatalf("expected %s to be a label", ThisMonth)
	}
	if IsLabel("2024-01-01") {
		t.Fatalf("did not expect a timestamp to be a label")
	}
}

func TestSubMonths_ClampsDayToShorterMonth(t *testing.T) {
	oct31 := time.Date(2024, time.October, 31, 12, 0, 0, 0, time.UTC)
	got := subMonths(oct31, 1)
	want := time.Date(2024, time.September, 30, 12, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestSubMonths_AcrossYearBoundary(t *testing.T) {
	feb := time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)
	got := subMonths(feb, 12)
	want := time.Date(2023, time.February, 28, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
