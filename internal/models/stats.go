package models

type MonthlyPoint struct {
	Year        int     `json:"year"`
	Month       int     `json:"month"`
	Count       int     `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

type TypeBreakdown struct {
	Type        string  `json:"type"`
	Count       int     `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

type IssuerBreakdown struct {
	Issuer      string  `json:"issuer"`
	Count       int     `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

type Statistics struct {
	Total       int               `json:"total"`
	TotalAmount float64           `json:"total_amount"`
	ByType      []TypeBreakdown   `json:"by_type"`
	TopIssuers  []IssuerBreakdown `json:"top_issuers"`
}
