package route

import "path"

// Pagination describes a page's position in a paged collection. Every field
// is nil outside paged mode.
type Pagination struct {
	CurrentPage      *int `json:"currentPage"`
	FirstPage        *int `json:"firstPage"`
	LastPage         *int `json:"lastPage"`
	PreviousPage     *int `json:"previousPage"`
	NextPage         *int `json:"nextPage"`
	FirstIndexOnPage *int `json:"firstIndexOnPage"`
	LastIndexOnPage  *int `json:"lastIndexOnPage"`
	FirstItemOnPage  *int `json:"firstItemOnPage"`
	LastItemOnPage   *int `json:"lastItemOnPage"`
}

// Meta is passed to url and html. URL, Output and Root are empty during the
// url call and filled in before html runs.
type Meta struct {
	// Index is the item position for unpaged collections.
	Index *int  `json:"index"`
	Items []any `json:"items"`
	Total *int  `json:"total"`

	Pagination

	URL       string `json:"url"`
	Output    string `json:"output"`
	OutputDir string `json:"outputDir"`
	Root      string `json:"root"`
}

// Relative joins p onto the page's root-relative prefix, e.g. "../../" + "css/site.css".
func (m *Meta) Relative(p string) string {
	if m == nil || m.Root == "" {
		return p
	}
	return path.Join(m.Root, p)
}

// Clone returns a shallow copy; Items is shared and must be treated as read-only.
func (m *Meta) Clone() *Meta {
	if m == nil {
		return nil
	}
	cp := *m
	return &cp
}
