package types

// Entry represents one paper extracted from an arXiv Atom feed
type Entry struct {
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
	PDFLink    string   `json:"pdf_link"`
	Authors    []string `json:"authors"`
	Categories []string `json:"categories"`
}

// QueryParams holds the arXiv query parameters. Values are forwarded to
// arXiv as received, without numeric validation.
type QueryParams struct {
	SearchQuery string
	SortBy      string
	SortOrder   string
	Start       string
	MaxResults  string
}

// SearchResponse is the success body returned to callers
type SearchResponse struct {
	Success      bool    `json:"success"`
	TotalResults int     `json:"total_results"`
	Entries      []Entry `json:"entries"`
}

// ErrorResponse is the failure body returned to callers
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
