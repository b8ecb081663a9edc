package types

import "gridserver/pkg/gridengine"

// TickRequest is the body of POST /api/tick.
type TickRequest struct {
	AccountID string               `json:"account_id"`
	Equity    float64              `json:"equity"`
	Balance   float64              `json:"balance"`
	Symbol    string               `json:"symbol"`
	Ask       float64              `json:"ask"`
	Bid       float64              `json:"bid"`
	Positions []gridengine.Position `json:"positions"`
}

// TickResponse mirrors gridengine.Directive's tagged-union shape.
type TickResponse struct {
	Action  string  `json:"action"`
	Volume  float64 `json:"volume,omitempty"`
	Comment string  `json:"comment,omitempty"`
	Alert   bool    `json:"alert,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// UpdateSettingsRequest is the body of POST /api/update-settings.
type UpdateSettingsRequest struct {
	Buy  SideSettingsRequest `json:"buy"`
	Sell SideSettingsRequest `json:"sell"`
}

// SideSettingsRequest is one side's half of an update-settings body.
type SideSettingsRequest struct {
	LimitPrice float64                `json:"limit_price"`
	TPType     string                 `json:"tp_type"`
	TPValue    float64                `json:"tp_value"`
	HedgeValue float64                `json:"hedge_value"`
	Rows       []gridengine.GridLevel `json:"rows"`
}

// UpdateSettingsResponse acknowledges a settings update.
type UpdateSettingsResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// ControlRequest is the body of POST /api/control.
type ControlRequest struct {
	BuySwitch      *bool `json:"buy_switch,omitempty"`
	SellSwitch     *bool `json:"sell_switch,omitempty"`
	Cyclic         *bool `json:"cyclic,omitempty"`
	EmergencyClose bool  `json:"emergency_close,omitempty"`
}

// ControlResponse acknowledges a control request.
type ControlResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// UIDataResponse is the body of GET /api/ui-data.
type UIDataResponse struct {
	Settings     gridengine.UserSettings    `json:"settings"`
	Runtime      *gridengine.GlobalRuntime  `json:"runtime"`
	Market       UIMarket                   `json:"market"`
	LastUpdate   string                     `json:"last_update"`
}

// UIMarket bundles the price-history ring with the current mid.
type UIMarket struct {
	History []gridengine.PriceSample `json:"history"`
	Current float64                  `json:"current"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status  string  `json:"status"`
	Error   string  `json:"error,omitempty"`
	Version string  `json:"version"`
	Buy     bool    `json:"buy"`
	Sell    bool    `json:"sell"`
	Price   float64 `json:"price"`
	Ledger  string  `json:"ledger"`
	Cache   string  `json:"cache"`
}
