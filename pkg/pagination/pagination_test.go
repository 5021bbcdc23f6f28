package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, query string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	return FromContext(c)
}

func TestFromContext(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantPage  int
		wantLimit int
	}{
		{"defaults", "", 1, DefaultLimit},
		{"explicit", "page=3&limit=10", 3, 10},
		{"zero page clamps", "page=0", 1, DefaultLimit},
		{"negative page clamps", "page=-2", 1, DefaultLimit},
		{"limit capped", "limit=500", 1, MaxLimit},
		{"garbage ignored", "page=abc&limit=xyz", 1, DefaultLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := paramsFor(t, tt.query)
			if p.Page != tt.wantPage || p.Limit != tt.wantLimit {
				t.Errorf("got page=%d limit=%d, want page=%d limit=%d",
					p.Page, p.Limit, tt.wantPage, tt.wantLimit)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	p := Params{Page: 3, Limit: 10}
	if got := p.Offset(); got != 20 {
		t.Errorf("Offset = %d, want 20", got)
	}
}

func TestPages(t *testing.T) {
	p := Params{Page: 1, Limit: 10}
	tests := []struct {
		total, want int
	}{
		{0, 0},
		{1, 1},
		{10, 1},
		{11, 2},
		{95, 10},
	}
	for _, tt := range tests {
		if got := p.Pages(tt.total); got != tt.want {
			t.Errorf("Pages(%d) = %d, want %d", tt.total, got, tt.want)
		}
	}
}

func TestNewMeta(t *testing.T) {
	m := NewMeta(Params{Page: 2, Limit: 25}, 51)
	if m.Page != 2 || m.Limit != 25 || m.Total != 51 || m.Pages != 3 {
		t.Errorf("meta = %+v", m)
	}
}
