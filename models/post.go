package models

// PostResult is what the posting API returns for a created post
type PostResult struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}
