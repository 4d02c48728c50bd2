package domain

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type SortField string

const (
	SortByDate  SortField = "date"
	SortByName  SortField = "name"
	SortByPrice SortField = "price"
)

func ParseSortField(s string) SortField {
	switch SortField(s) {
	case SortByName, SortByPrice:
		return SortField(s)
	}
	return SortByDate
}

type PageRequest struct {
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	SearchTerm string    `json:"search_term,omitempty"`
	SortBy     SortField `json:"sort_by"`
	Descending bool      `json:"descending"`
}

// Normalize clamps the page to at least 1 and the page size to
// 1..MaxPageSize, substituting DefaultPageSize for a non-positive size.
func (r PageRequest) Normalize() PageRequest {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize < 1 {
		r.PageSize = DefaultPageSize
	}
	if r.PageSize > MaxPageSize {
		r.PageSize = MaxPageSize
	}
	if r.SortBy == "" {
		r.SortBy = SortByDate
	}
	return r
}

func (r PageRequest) Offset() int {
	return (r.Page - 1) * r.PageSize
}

type PagedResult[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"total_count"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
}

// Paginate slices items for the normalized request.
func Paginate[T any](items []T, req PageRequest) PagedResult[T] {
	req = req.Normalize()

	start := min(req.Offset(), len(items))
	end := min(start+req.PageSize, len(items))

	page := make([]T, end-start)
	copy(page, items[start:end])

	return PagedResult[T]{
		Items:      page,
		TotalCount: len(items),
		Page:       req.Page,
		PageSize:   req.PageSize,
	}
}

func (p PagedResult[T]) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return (p.TotalCount + p.PageSize - 1) / p.PageSize
}

func (p PagedResult[T]) HasNext() bool     { return p.Page < p.TotalPages() }
func (p PagedResult[T]) HasPrevious() bool { return p.Page > 1 }
func (p PagedResult[T]) IsFirst() bool     { return p.Page == 1 }
func (p PagedResult[T]) IsLast() bool      { return p.Page == p.TotalPages() }

func (p PagedResult[T]) NextPage() int {
	if p.HasNext() {
		return p.Page + 1
	}
	return p.Page
}

func (p PagedResult[T]) PreviousPage() int {
	if p.HasPrevious() {
		return p.Page - 1
	}
	return p.Page
}

// StartItem is the 1-based position of the first item on the page, or 0
// when there are no results.
func (p PagedResult[T]) StartItem() int {
	if p.TotalCount == 0 {
		return 0
	}
	return (p.Page-1)*p.PageSize + 1
}

func (p PagedResult[T]) EndItem() int {
	return min(p.Page*p.PageSize, p.TotalCount)
}

type PageInfo struct {
	TotalPages   int  `json:"total_pages"`
	HasNext      bool `json:"has_next"`
	HasPrevious  bool `json:"has_previous"`
	IsFirst      bool `json:"is_first"`
	IsLast       bool `json:"is_last"`
	StartItem    int  `json:"start_item"`
	EndItem      int  `json:"end_item"`
	NextPage     int  `json:"next_page"`
	PreviousPage int  `json:"previous_page"`
}

func (p PagedResult[T]) Info() PageInfo {
	return PageInfo{
		TotalPages:   p.TotalPages(),
		HasNext:      p.HasNext(),
		HasPrevious:  p.HasPrevious(),
		IsFirst:      p.IsFirst(),
		IsLast:       p.IsLast(),
		StartItem:    p.StartItem(),
		EndItem:      p.EndItem(),
		NextPage:     p.NextPage(),
		PreviousPage: p.PreviousPage(),
	}
}
