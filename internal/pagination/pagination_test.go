package pagination

import "testing"

func intOrNil(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func TestNewPageResponse(t *testing.T) {
	tests := []struct {
		name                 string
		items, page, perPage int
		total                int64
		from, to             int
		lastPage, nextPage   any
	}{
		{name: "middle page", items: 20, page: 2, perPage: 20, total: 47, from: 21, to: 40, lastPage: 3, nextPage: 3},
		{name: "last page", items: 7, page: 3, perPage: 20, total: 47, from: 41, to: 47, lastPage: 3, nextPage: nil},
		{name: "single page", items: 5, page: 1, perPage: 20, total: 5, from: 1, to: 5, lastPage: nil, nextPage: nil},
		{name: "empty", items: 0, page: 1, perPage: 20, total: 0, from: 0, to: 0, lastPage: nil, nextPage: nil},
		{name: "beyond the end", items: 0, page: 9, perPage: 20, total: 47, from: 0, to: 0, lastPage: 3, nextPage: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewPageResponse(make([]int, tt.items), tt.page, tt.perPage, tt.total)
			if resp.From != tt.from || resp.To != tt.to {
				t.Errorf("expected from/to %d/%d, got %d/%d", tt.from, tt.to, resp.From, resp.To)
			}
			if got := intOrNil(resp.LastPage); got != tt.lastPage {
				t.Errorf("expected lastPage %v, got %v", tt.lastPage, got)
			}
			if got := intOrNil(resp.NextPage); got != tt.nextPage {
				t.Errorf("expected nextPage %v, got %v", tt.nextPage, got)
			}
			if resp.CurrentPage != tt.page || resp.Total != tt.total {
				t.Errorf("unexpected page metadata %+v", resp)
			}
		})
	}
}

func TestNewPageResponseNilData(t *testing.T) {
	resp := NewPageResponse[string](nil, 1, 20, 0)
	if resp.Data == nil {
		t.Error("data should be an empty slice, not nil")
	}
}

func TestPageRequestDefaults(t *testing.T) {
	req := PageRequest{}
	req.Defaults(5)
	if req.Page != 1 || req.PerPage != 5 {
		t.Errorf("expected 1/5, got %d/%d", req.Page, req.PerPage)
	}

	req = PageRequest{Page: 3, PerPage: 500}
	req.Defaults(20)
	if req.PerPage != MaxPerPage {
		t.Errorf("expected perPage capped at %d, got %d", MaxPerPage, req.PerPage)
	}
	if req.Offset() != 200 {
		t.Errorf("expected offset 200, got %d", req.Offset())
	}
}
