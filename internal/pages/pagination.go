package pages

import "git.home.luguber.info/inful/routegen/internal/route"

// Paginate returns the metadata of 0-based chunk i when total items are
// split into pages of perPage.
func Paginate(i, perPage, total int) route.Pagination {
	if perPage <= 0 || i < 0 {
		return route.Pagination{}
	}
	current := i + 1
	first := 1
	last := (total + perPage - 1) / perPage
	firstIndex := (current - 1) * perPage
	lastIndex := min(total-1, firstIndex+perPage-1)

	p := route.Pagination{
		CurrentPage:      ptr(current),
		FirstPage:        ptr(first),
		LastPage:         ptr(last),
		FirstIndexOnPage: ptr(firstIndex),
		LastIndexOnPage:  ptr(lastIndex),
		FirstItemOnPage:  ptr(firstIndex + 1),
		LastItemOnPage:   ptr(lastIndex + 1),
	}
	if current > first {
		p.PreviousPage = ptr(current - 1)
	}
	if current < last {
		p.NextPage = ptr(current + 1)
	}
	return p
}

// Chunk splits items into consecutive slices of at most size elements.
func Chunk(items []any, size int) [][]any {
	if size <= 0 {
		return nil
	}
	chunks := make([][]any, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end:end])
	}
	return chunks
}

func ptr(n int) *int { return &n }
