package models

// SearchQuery is a keyword plus an inclusive price window in KRW.
type SearchQuery struct {
	Keyword  string   `json:"keyword"`
	MinPrice int      `json:"minPrice"`
	MaxPrice int      `json:"maxPrice"`
	Sites    []string `json:"sites,omitempty"`
}

func (q SearchQuery) InRange(price int) bool {
	return price >= q.MinPrice && price <= q.MaxPrice
}
