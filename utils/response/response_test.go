package response

import "testing"

func TestCalculatePagination(t *testing.T) {
	cases := []struct {
		page, limit    int
		total          int64
		wantPage       int
		wantPerPage    int
		wantTotalPages int
	}{
		{1, 10, 0, 1, 10, 0},
		{1, 10, 25, 1, 10, 3},
		{3, 10, 30, 3, 10, 3},
		{0, 0, 5, 1, 10, 1}, // invalid inputs fall back to defaults
		{-2, -1, 11, 1, 10, 2},
	}

	for _, tc := range cases {
		got := CalculatePagination(tc.page, tc.limit, tc.total)
		if got.CurrentPage != tc.wantPage || got.PerPage != tc.wantPerPage || got.TotalPages != tc.wantTotalPages {
			t.Errorf("CalculatePagination(%d, %d, %d) = %+v", tc.page, tc.limit, tc.total, got)
		}
		if got.Total != tc.total {
			t.Errorf("Total = %d, want %d", got.Total, tc.total)
		}
	}
}
