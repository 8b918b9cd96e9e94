package models

// PredictResponse is the success envelope for POST /api/predict.
// Constructed fresh per request, never stored.
type PredictResponse struct {
	Success       bool           `json:"success"`
	Source        Source         `json:"source"`
	NormalizedKey NormalizedKey  `json:"normalizedKey"`
	ResolvedName  string         `json:"resolvedName"`
	CanonicalName string         `json:"canonicalName,omitempty"`
	Records       []StatusRecord `json:"records"`
}

// NewPredictResponse builds the envelope from an orchestrator result.
func NewPredictResponse(res CheckResult) PredictResponse {
	records := res.Records
	if records == nil {
		records = []StatusRecord{}
	}
	return PredictResponse{
		Success:       true,
		Source:        res.Source,
		NormalizedKey: res.NormalizedKey,
		ResolvedName:  res.ResolvedName,
		CanonicalName: res.CanonicalName,
		Records:       records,
	}
}

// RefreshResponse is the success envelope for POST /api/refresh.
type RefreshResponse struct {
	Success bool           `json:"success"`
	Results []RefreshEntry `json:"results"`
}
