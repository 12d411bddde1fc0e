package count

// Result is the JSON shape returned by the counting API and the source of
// the HTML result view.
type Result struct {
	Success   bool        `json:"success"`
	FileName  string      `json:"fileName"`
	MIMEType  string      `json:"mimeType,omitempty"`
	PageCount int         `json:"pageCount"`
	WordCount int         `json:"wordCount"`
	Pages     []PageCount `json:"pages,omitempty"`
	Words     []string    `json:"words,omitempty"`
	Error     *string     `json:"error,omitempty"`
}

// PageCount reports the Devanagari word count of a single page.
type PageCount struct {
	PageNumber int `json:"pageNumber"`
	WordCount  int `json:"wordCount"`
}
