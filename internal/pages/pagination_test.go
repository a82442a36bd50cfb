package pages

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func deref(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func TestPaginate_ElevenByFive(t *testing.T) {
	first := Paginate(0, 5, 11)
	last := Paginate(2, 5, 11)

	checks := []struct {
		name string
		got  *int
		want any
	}{
		{"page1 firstItemOnPage", first.FirstItemOnPage, 1},
		{"page1 lastItemOnPage", first.LastItemOnPage, 5},
		{"page1 nextPage", first.NextPage, 2},
		{"page1 previousPage", first.PreviousPage, nil},
		{"page1 lastPage", first.LastPage, 3},
		{"page3 firstItemOnPage", last.FirstItemOnPage, 11},
		{"page3 lastItemOnPage", last.LastItemOnPage, 11},
		{"page3 nextPage", last.NextPage, nil},
		{"page3 previousPage", last.PreviousPage, 2},
		{"page3 firstIndexOnPage", last.FirstIndexOnPage, 10},
		{"page3 lastIndexOnPage", last.LastIndexOnPage, 10},
	}
	for _, c := range checks {
		if deref(c.got) != c.want {
			t.Errorf("%s = %v, want %v", c.name, deref(c.got), c.want)
		}
	}
}

func TestChunk(t *testing.T) {
	items := []any{1, 2, 3, 4, 5}
	chunks := Chunk(items, 2)
	if len(chunks) != 3 || len(chunks[2]) != 1 || chunks[2][0] != 5 {
		t.Fatalf("unexpected chunks: %v", chunks)
	}
	if Chunk(nil, 3) == nil || len(Chunk(nil, 3)) != 0 {
		t.Errorf("empty input should produce no chunks")
	}
	if Chunk(items, 0) != nil {
		t.Errorf("non-positive size should produce nil")
	}
}

func TestPaginationProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Chunks cover every item exactly once, in order.
	properties.Property("chunks partition the collection", prop.ForAll(
		func(total, perPage int) bool {
			items := make([]any, total)
			for i := range items {
				items[i] = i
			}
			next := 0
			for _, c := range Chunk(items, perPage) {
				if len(c) == 0 || len(c) > perPage {
					return false
				}
				for _, v := range c {
					if v != next {
						return false
					}
					next++
				}
			}
			return next == total
		},
		gen.IntRange(0, 200),
		gen.IntRange(1, 25),
	))

	// Page metadata agrees with the chunk it describes.
	properties.Property("metadata matches chunk bounds", prop.ForAll(
		func(total, perPage int) bool {
			items := make([]any, total)
			chunks := Chunk(items, perPage)
			for i, c := range chunks {
				p := Paginate(i, perPage, total)
				if *p.CurrentPage != i+1 || *p.FirstPage != 1 || *p.LastPage != len(chunks) {
					return false
				}
				if *p.LastIndexOnPage-*p.FirstIndexOnPage+1 != len(c) {
					return false
				}
				if *p.FirstItemOnPage != *p.FirstIndexOnPage+1 || *p.LastItemOnPage != *p.LastIndexOnPage+1 {
					return false
				}
				if (p.PreviousPage == nil) != (i == 0) {
					return false
				}
				if (p.NextPage == nil) != (i == len(chunks)-1) {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 200),
		gen.IntRange(1, 25),
	))

	properties.TestingRun(t)
}
