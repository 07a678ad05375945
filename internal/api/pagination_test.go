package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", 100, 0},
		{"limit and offset", "limit=50&offset=25", 50, 25},
		{"limit capped", "limit=5000", 1000, 0},
		{"limit at cap", "limit=1000", 1000, 0},
		{"zero limit", "limit=0", 100, 0},
		{"negative limit", "limit=-5", 100, 0},
		{"negative offset", "offset=-1", 100, 0},
		{"malformed values", "limit=ten&offset=two", 100, 0},
		{"other params ignored", "match=codec*&limit=2", 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/boxes?"+tt.query, nil)
			c := e.NewContext(req, httptest.NewRecorder())

			limit, offset := parsePagination(c)
			if limit != tt.wantLimit {
				t.Errorf("parsePagination() limit = %d, want %d", limit, tt.wantLimit)
			}
			if offset != tt.wantOffset {
				t.Errorf("parsePagination() offset = %d, want %d", offset, tt.wantOffset)
			}
		})
	}
}

func TestPaginate(t *testing.T) {
	boxes := []string{"act", "check1", "codec-fix", "conn-fix", "estore"}

	tests := []struct {
		name   string
		limit  int
		offset int
		want   []string
	}{
		{"first page", 2, 0, []string{"act", "check1"}},
		{"middle page", 2, 2, []string{"codec-fix", "conn-fix"}},
		{"last partial page", 2, 4, []string{"estore"}},
		{"offset past end", 2, 10, []string{}},
		{"offset at end", 2, 5, []string{}},
		{"limit larger than slice", 100, 0, boxes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := paginate(boxes, tt.limit, tt.offset)
			if len(got) != len(tt.want) {
				t.Fatalf("paginate() len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("paginate()[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}
