package response

// Pagination bounds for search endpoints.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is the pagination envelope for search endpoints.
type Page struct {
	Content       interface{} `json:"content"`
	TotalElements int64       `json:"totalElements"`
	TotalPages    int         `json:"totalPages"`
	CurrentPage   int         `json:"currentPage"`
	Size          int         `json:"size"`
}

// NewPage builds a page envelope; totalPages is ceil(totalElements/size).
func NewPage(content interface{}, totalElements int64, page, size int) Page {
	totalPages := 0
	if size > 0 {
		totalPages = int((totalElements + int64(size) - 1) / int64(size))
	}
	return Page{
		Content:       content,
		TotalElements: totalElements,
		TotalPages:    totalPages,
		CurrentPage:   page,
		Size:          size,
	}
}
