package dto

// SummarizeRequest represents the request body for POST /summarize.
type SummarizeRequest struct {
	Text string `json:"text"`
}

// SummaryResponse is returned by POST /summarize.
type SummaryResponse struct {
	SummaryText string `json:"summary_text"`
}
