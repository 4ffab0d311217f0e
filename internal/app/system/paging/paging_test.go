package paging

import (
	"net/http/httptest"
	"testing"
)

func TestLimitPlusOne(t *testing.T) {
	want := int64(PageSize + 1)
	if got := LimitPlusOne(); got != want {
		t.Errorf("LimitPlusOne() = %d, want %d", got, want)
	}
}

func TestParseStart(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want int
	}{
		{"missing", "/queue", 1},
		{"valid", "/queue?start=51", 51},
		{"zero", "/queue?start=0", 1},
		{"negative", "/queue?start=-5", 1},
		{"garbage", "/queue?start=abc", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			if got := ParseStart(r); got != tt.want {
				t.Errorf("ParseStart(%q) = %d, want %d", tt.url, got, tt.want)
			}
		})
	}
}

func TestSkip(t *testing.T) {
	if got := Skip(1); got != 0 {
		t.Errorf("Skip(1) = %d, want 0", got)
	}
	if got := Skip(51); got != 50 {
		t.Errorf("Skip(51) = %d, want 50", got)
	}
	if got := Skip(0); got != 0 {
		t.Errorf("Skip(0) = %d, want 0", got)
	}
}

func TestTrimPage(t *testing.T) {
	t.Run("short page has no next", func(t *testing.T) {
		rows := []int{1, 2, 3}
		if hasNext := TrimPage(&rows); hasNext {
			t.Error("TrimPage reported hasNext for a short page")
		}
		if len(rows) != 3 {
			t.Errorf("rows trimmed to %d, want 3", len(rows))
		}
	})

	t.Run("full page plus one trims and has next", func(t *testing.T) {
		rows := make([]int, PageSize+1)
		if hasNext := TrimPage(&rows); !hasNext {
			t.Error("TrimPage did not report hasNext for an overfull page")
		}
		if len(rows) != PageSize {
			t.Errorf("rows trimmed to %d, want %d", len(rows), PageSize)
		}
	})

	t.Run("exactly full page has no next", func(t *testing.T) {
		rows := make([]int, PageSize)
		if hasNext := TrimPage(&rows); hasNext {
			t.Error("TrimPage reported hasNext for an exactly full page")
		}
	})
}

func TestComputeRange(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		rng := ComputeRange(1, 0)
		if rng.Start != 0 || rng.End != 0 {
			t.Errorf("empty range = %+v, want zero start/end", rng)
		}
	})

	t.Run("first page", func(t *testing.T) {
		rng := ComputeRange(1, PageSize)
		if rng.Start != 1 || rng.End != PageSize {
			t.Errorf("range = %+v", rng)
		}
		if rng.PrevStart != 1 || rng.NextStart != PageSize+1 {
			t.Errorf("links = %+v", rng)
		}
	})

	t.Run("second page", func(t *testing.T) {
		rng := ComputeRange(PageSize+1, 10)
		if rng.Start != PageSize+1 || rng.End != PageSize+10 {
			t.Errorf("range = %+v", rng)
		}
		if rng.PrevStart != 1 {
			t.Errorf("PrevStart = %d, want 1", rng.PrevStart)
		}
	})
}
