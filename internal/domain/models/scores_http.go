package models

// Requests for the scores HTTP endpoints. Defined in domain for consistency and reuse.

type RegionScoresRequest struct {
	Region string `param:"region" json:"region" validate:"required"`
}

type HistoryRequest struct {
	Scope string `query:"scope" json:"scope" default:"global"`
	Days  int    `query:"days" json:"days" default:"30" validate:"gte=1,lte=120"`
}

type ItemHistoryRequest struct {
	ItemID string `query:"item" json:"item" validate:"required"`
	Days   int    `query:"days" json:"days" default:"7" validate:"gte=1,lte=30"`
	// From overrides the days window when set (RFC3339 or unix seconds).
	From string `query:"from" json:"from,omitempty"`
}

type RefreshRequest struct {
	MaxAgeSeconds int `query:"max_age" json:"max_age" default:"120" validate:"gte=10,lte=3600"`
}
