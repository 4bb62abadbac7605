package models

// AnalyzeRequest starts a pipeline run and streams its events.
type AnalyzeRequest struct {
	Symbol string `query:"symbol" validate:"required,min=1,max=12"`
	Mode   string `query:"mode" default:"full" validate:"oneof=full quick news data"`
}

// CachedRequest reads the most recent completed analysis for a subject.
type CachedRequest struct {
	Symbol string `query:"symbol" validate:"required,min=1,max=12"`
}
