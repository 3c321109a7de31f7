package performance

// Position is one row of the performance table.
type Position struct {
	Symbol           string  `json:"symbol"`
	Security         string  `json:"security"`
	CostBasis        float64 `json:"cost_basis"`
	Shares           float64 `json:"shares"`
	CurrentPrice     float64 `json:"current_price"`
	PositionValue    float64 `json:"position_value"`
	PortfolioPct     float64 `json:"portfolio_pct"`
	DailyChangePct   float64 `json:"daily_change_pct"`
	YTDPct           float64 `json:"ytd_pct"`
	YoYPct           float64 `json:"yoy_pct"`
	PortGainPct      float64 `json:"port_gain_pct"`
	Week52High       float64 `json:"week_52_high"`
	Week52Low        float64 `json:"week_52_low"`
	PctBelow52WkHigh float64 `json:"pct_below_52wk_high"`
	ChanRangePct     float64 `json:"chan_range_pct"`
	Sector           string  `json:"sector"`
	Industry         string  `json:"industry"`
}

// CacheInfo tells the front end how fresh the inputs were.
type CacheInfo struct {
	MotherDuckCacheDate string `json:"motherduck_cache_date"`
	MotherDuckLoadedAt  string `json:"motherduck_loaded_at"`
	CurrentPricesCount  int    `json:"current_prices_count"`
	RefreshMode         string `json:"refresh_mode"`
}

// Result is the performance endpoint payload.
type Result struct {
	Data                []Position `json:"data"`
	TotalPositions      int        `json:"total_positions"`
	TotalPortfolioValue float64    `json:"total_portfolio_value"`
	LastUpdated         string     `json:"last_updated"`
	CacheInfo           CacheInfo  `json:"cache_info"`
}

const (
	RefreshForced = "forced"
	RefreshAuto   = "auto"
)
