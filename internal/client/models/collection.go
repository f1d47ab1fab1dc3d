package models

// CollectionMeta is the paging envelope shared by every collection response.
type CollectionMeta struct {
	Page       int `json:"page"`
	PageCount  int `json:"page_count"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// EmptyResponse decodes the body of endpoints that return nothing useful,
// including 204 No Content.
type EmptyResponse struct{}

type FeedbackFormSubmission map[string]any
