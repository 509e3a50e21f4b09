package pagination

import "testing"

func TestDefaults(t *testing.T) {
	var p PageRequest
	p.Defaults()
	if p.Page != 1 || p.PageSize != 20 {
		t.Errorf("expected 1/20, got %d/%d", p.Page, p.PageSize)
	}
}

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	t.Run("middle_page", func(t *testing.T) {
		page := Slice(items, PageRequest{Page: 2, PageSize: 2})
		if len(page.Data) != 2 || page.Data[0] != 3 || page.Data[1] != 4 {
			t.Errorf("unexpected data %v", page.Data)
		}
		if page.TotalItems != 5 || page.TotalPages != 3 {
			t.Errorf("expected 5 items over 3 pages, got %d/%d", page.TotalItems, page.TotalPages)
		}
	})

	t.Run("last_partial_page", func(t *testing.T) {
		page := Slice(items, PageRequest{Page: 3, PageSize: 2})
		if len(page.Data) != 1 || page.Data[0] != 5 {
			t.Errorf("unexpected data %v", page.Data)
		}
	})

	t.Run("past_the_end", func(t *testing.T) {
		page := Slice(items, PageRequest{Page: 10, PageSize: 2})
		if page.Data == nil || len(page.Data) != 0 {
			t.Errorf("expected empty non-nil data, got %v", page.Data)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		page := Slice(items, PageRequest{})
		if page.Page != 1 || page.PageSize != 20 || len(page.Data) != 5 {
			t.Errorf("unexpected page %+v", page)
		}
	})
}
