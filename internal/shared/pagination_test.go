package shared

import "testing"

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name           string
		page, per, tot int
		wantPage       int
		wantTotalPages int
		hasNext        bool
		hasPrev        bool
	}{
		{"first of many", 1, 20, 45, 1, 3, true, false},
		{"middle page", 2, 20, 45, 2, 3, true, true},
		{"last page", 3, 20, 45, 3, 3, false, true},
		{"empty listing", 1, 20, 0, 1, 0, false, false},
		{"defaults applied", 0, 0, 45, 1, 3, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.page, tt.per, tt.tot)
			if p.Page != tt.wantPage {
				t.Errorf("Page = %d, want %d", p.Page, tt.wantPage)
			}
			if p.TotalPages != tt.wantTotalPages {
				t.Errorf("TotalPages = %d, want %d", p.TotalPages, tt.wantTotalPages)
			}
			if p.HasNext() != tt.hasNext {
				t.Errorf("HasNext = %v, want %v", p.HasNext(), tt.hasNext)
			}
			if p.HasPrev() != tt.hasPrev {
				t.Errorf("HasPrev = %v, want %v", p.HasPrev(), tt.hasPrev)
			}
		})
	}
}

func TestPageClamping(t *testing.T) {
	p := NewPagination(3, 20, 45)
	if got := p.NextPage(); got != 3 {
		t.Errorf("NextPage on the last page = %d, want 3", got)
	}
	if got := p.PrevPage(); got != 2 {
		t.Errorf("PrevPage = %d, want 2", got)
	}

	first := NewPagination(1, 20, 45)
	if got := first.PrevPage(); got != 1 {
		t.Errorf("PrevPage on the first page = %d, want 1", got)
	}
}
