package rangeplan

import "testing"

func TestPlan_Coverage(t *testing.T) {
	ranges := Plan(100_000, 40_000, true)

	want := []Range{
		{From: 0, To: 39_999},
		{From: 40_000, To: 79_999},
		{From: 80_000, To: 99_999},
	}
	if len(ranges) != len(want) {
		t.Fatalf("got %d ranges, want %d: %+v", len(ranges), len(want), ranges)
	}
	for i, r := range ranges {
		if r != want[i] {
			t.Errorf("range[%d] = %+v, want %+v", i, r, want[i])
		}
	}

	var sum int64
	for i, r := range ranges {
		sum += r.Width()
		if i > 0 && r.From != ranges[i-1].To+1 {
			t.Errorf("range[%d] not contiguous with previous: %+v after %+v", i, r, ranges[i-1])
		}
	}
	if sum != 100_000 {
		t.Errorf("sum of widths = %d, want 100000", sum)
	}
}

func TestPlan_ExactMultiple(t *testing.T) {
	ranges := Plan(80_000, 40_000, true)
	if len(ranges) != 2 {
		t.Fatalf("got %d ranges, want 2", len(ranges))
	}
	if ranges[1].To != 79_999 {
		t.Errorf("last range To = %d, want 79999", ranges[1].To)
	}
}

func TestPlan_NonResumableSingleRange(t *testing.T) {
	ranges := Plan(100_000, 40_000, false)
	if len(ranges) != 1 {
		t.Fatalf("got %d ranges, want 1", len(ranges))
	}
	if ranges[0] != (Range{From: 0, To: 99_999}) {
		t.Errorf("range = %+v, want {0, 99999}", ranges[0])
	}
}

func TestPlan_ZeroSizeIsEmpty(t *testing.T) {
	if ranges := Plan(0, 40_000, true); len(ranges) != 0 {
		t.Errorf("got %d ranges for zero size, want 0", len(ranges))
	}
}

func TestPlan_StrictlyOrdered(t *testing.T) {
	ranges := Plan(1_234_567, 100_000, true)
	for i := 1; i < len(ranges); i++ {
		if ranges[i].From <= ranges[i-1].From {
			t.Errorf("ranges not strictly ordered at %d: %+v then %+v", i, ranges[i-1], ranges[i])
		}
	}
}
