package domain

// SessionState is a point-in-time copy of a search session.
type SessionState struct {
	ID          string    `json:"id,omitempty"`
	Query       string    `json:"query"`
	Page        int       `json:"page"`
	Products    []Product `json:"products"`
	Total       int       `json:"total"`
	TotalPages  int       `json:"totalPages"`
	Suggestions []Product `json:"suggestions"`
	Loading     bool      `json:"loading"`
	Error       string    `json:"error,omitempty"`
	Open        bool      `json:"open"`
	Pager       Pager     `json:"pager"`
}

// ShowSuggestions reports whether the suggestion dropdown is visible.
func (s SessionState) ShowSuggestions() bool {
	return s.Open && len(s.Suggestions) > 0
}

// Empty reports whether the "no product found" state applies.
func (s SessionState) Empty() bool {
	return !s.Loading && s.Error == "" && len(s.Products) == 0
}

// Pager drives the First/Prev/[window]/Next/Last controls under the grid.
type Pager struct {
	Visible    bool  `json:"visible"`
	Current    int   `json:"current"`
	TotalPages int   `json:"totalPages"`
	Pages      []int `json:"pages"`
	CanFirst   bool  `json:"canFirst"`
	CanPrev    bool  `json:"canPrev"`
	CanNext    bool  `json:"canNext"`
	CanLast    bool  `json:"canLast"`
}

// pagerRadius is how many page numbers are shown on each side of the current page.
const pagerRadius = 2

// NewPager builds the pager for the current page. Navigation is disabled
// while a fetch is loading.
func NewPager(page, totalPages, shown int, loading bool) Pager {
	p := Pager{
		Visible:    shown > 0 && totalPages > 1,
		Current:    page,
		TotalPages: totalPages,
	}
	if totalPages < 1 {
		return p
	}

	lo := max(1, page-pagerRadius)
	hi := min(totalPages, page+pagerRadius)
	for n := lo; n <= hi; n++ {
		p.Pages = append(p.Pages, n)
	}

	p.CanFirst = page > 1 && !loading
	p.CanPrev = page > 1 && !loading
	p.CanNext = page < totalPages && !loading
	p.CanLast = page != totalPages && !loading
	return p
}
