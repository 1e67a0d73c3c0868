package models

// Requests for the HTTP query endpoints. Defined in domain for consistency
// and reuse.

type CandlesRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	TF     string `query:"tf" json:"tf" default:"1m" validate:"oneof=1m 15m 1h"`
	Limit  int    `query:"limit" json:"limit" default:"10000" validate:"gte=1,lte=50000"`
}

type EventsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	Limit  int    `query:"limit" json:"limit" default:"500" validate:"gte=1,lte=10000"`
}

type ReplayRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	From   string `query:"from" json:"from" validate:"required"`
	To     string `query:"to" json:"to" validate:"required"`
	TF     string `query:"tf" json:"tf" default:"1m" validate:"oneof=1m 15m"`
}
