package models

// MarketSnapshot is one fetched market-band payload
type MarketSnapshot struct {
	IsMarketOpen bool         `json:"isMarketOpen"`
	Indices      []IndexPoint `json:"indices"`
	TopGainers   []Mover      `json:"topGainers"`
	TopLosers    []Mover      `json:"topLosers"`
}

// IndexPoint represents a stock market index with current value and change information
type IndexPoint struct {
	Name          string  `json:"serviceName"`
	Value         float64 `json:"currentIndexValue"`
	NetChange     float64 `json:"netChange"`
	PercentChange float64 `json:"percentChange"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Open          float64 `json:"open"`
	Timestamp     string  `json:"dateTime"`
}

// IsPositive reports whether the index closed the interval at or above its previous value
func (i IndexPoint) IsPositive() bool {
	return i.NetChange >= 0
}

// Mover is a single top gainer or top loser entry
type Mover struct {
	ShortName     string  `json:"companyShortName"`
	Current       float64 `json:"current"`
	NetChange     float64 `json:"netChange"`
	PercentChange float64 `json:"percentChange"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Open          float64 `json:"open"`
}
