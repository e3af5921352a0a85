package types

// --------------------------------------------
// Query request accepted by the chat endpoints
// --------------------------------------------
type QueryRequest struct {
	Question   string `json:"question"`
	Credential string `json:"credential,omitempty"`
	// APIKey is the field name the dashboard UI sends.
	APIKey string `json:"api_key,omitempty"`
}

// CredentialOrKey returns the per-request credential, preferring Credential.
func (r QueryRequest) CredentialOrKey() string {
	if r.Credential != "" {
		return r.Credential
	}
	return r.APIKey
}

// --------------------------------------------
// Answer delivered to the frontend
// --------------------------------------------
type QueryResponse struct {
	Answer        string  `json:"answer"`
	UsedFallback  bool    `json:"used_fallback"`
	FallbackError *string `json:"fallback_error"`
	Intent        string  `json:"intent,omitempty"`
}

// ErrorDetail returns the fallback error text or "".
func (r QueryResponse) ErrorDetail() string {
	if r.FallbackError == nil {
		return ""
	}
	return *r.FallbackError
}

// --------------------------------------------
// Stats payload for /api/stats
// --------------------------------------------
type StatsResponse struct {
	Label       string        `json:"label"`
	Stats       StatsSnapshot `json:"stats"`
	LatestMonth *MonthSummary `json:"latest_month"`
	DailyTrend  []DayCount    `json:"daily_trend"`
	ErrorSites  []Count       `json:"top_error_sites"`
}
