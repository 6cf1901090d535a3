package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

type ImageUsageStatus string

const (
	ImageUsageAvailable   ImageUsageStatus = "available"
	ImageUsageUnavailable ImageUsageStatus = "unavailable"
	ImageUsageReview      ImageUsageStatus = "review"
	ImageUsageUnknown     ImageUsageStatus = "unknown"
)

// SearchCandidate is one list-page hit. Field names are consumed verbatim by
// the registration flow.
type SearchCandidate struct {
	Name             string  `json:"name"`
	Price            int     `json:"price"`
	PriceText        string  `json:"priceText,omitempty"`
	ImageURL         string  `json:"imageUrl,omitempty"`
	SourceURL        string  `json:"sourceUrl,omitempty"`
	Site             string  `json:"site"`
	Category         string  `json:"category,omitempty"`
	ProductNo        *string `json:"productNo,omitempty"`
	MinOrderQuantity int     `json:"minOrderQuantity"`
	ShippingCost     *int    `json:"shippingCost,omitempty"`
	ShippingText     string  `json:"shippingText,omitempty"`
	Currency         string  `json:"currency,omitempty"`
	SupplierName     string  `json:"supplierName,omitempty"`
}

type OptionGroup struct {
	Name   string   `json:"name"`
	Type   string   `json:"type,omitempty"`
	Values []string `json:"values"`
}

type SupplierInfo struct {
	Name                   string `json:"name,omitempty"`
	Contact                string `json:"contact,omitempty"`
	Email                  string `json:"email,omitempty"`
	Address                string `json:"address,omitempty"`
	ZipCode                string `json:"zipCode,omitempty"`
	BusinessRegistrationNo string `json:"businessRegistrationNo,omitempty"`
}

func (s SupplierInfo) IsZero() bool {
	return s == SupplierInfo{}
}

// EnrichedProduct is a SearchCandidate upgraded with detail-page data.
type EnrichedProduct struct {
	SearchCandidate

	DetailImages     []string         `json:"detailImages"`
	DetailHTML       string           `json:"detailHtml,omitempty"`
	DetailText       string           `json:"detailText,omitempty"`
	Description      string           `json:"description,omitempty"`
	ImageUsageText   string           `json:"imageUsageText,omitempty"`
	ImageUsageStatus ImageUsageStatus `json:"imageUsageStatus"`
	Options          []OptionGroup    `json:"options"`
	Tags             []string         `json:"tags"`
	Supplier         SupplierInfo     `json:"supplier"`
	OptionPopupURL   *string          `json:"optionPopupUrl,omitempty"`
}

// Upgrade wraps a candidate as an EnrichedProduct carrying only defaults.
func Upgrade(c SearchCandidate) EnrichedProduct {
	return EnrichedProduct{
		SearchCandidate:  c,
		DetailImages:     []string{},
		ImageUsageStatus: ImageUsageUnknown,
		Options:          []OptionGroup{},
		Tags:             []string{},
		Supplier:         SupplierInfo{Name: c.SupplierName},
	}
}

// Key is the cache identity of a candidate: its canonical link, or
// site|name|price when no link exists.
func (c SearchCandidate) Key() string {
	if u := strings.TrimSpace(c.SourceURL); u != "" {
		return u
	}
	name := strings.ToLower(strings.Join(strings.Fields(c.Name), " "))
	return c.Site + "|" + name + "|" + strconv.Itoa(c.Price)
}

func (c SearchCandidate) HasShippingCost() bool {
	return c.ShippingCost != nil
}

// Record holds exactly one of a bare candidate or an enriched product.
type Record struct {
	Candidate *SearchCandidate
	Enriched  *EnrichedProduct
}

func CandidateRecord(c SearchCandidate) Record {
	return Record{Candidate: &c}
}

func EnrichedRecord(p EnrichedProduct) Record {
	return Record{Enriched: &p}
}

func (r Record) IsEnriched() bool {
	return r.Enriched != nil
}

// Base returns the candidate view regardless of variant.
func (r Record) Base() SearchCandidate {
	if r.Enriched != nil {
		return r.Enriched.SearchCandidate
	}
	if r.Candidate != nil {
		return *r.Candidate
	}
	return SearchCandidate{}
}

func (r Record) MarshalJSON() ([]byte, error) {
	if r.Enriched != nil {
		return json.Marshal(r.Enriched)
	}
	if r.Candidate != nil {
		return json.Marshal(r.Candidate)
	}
	return []byte("null"), nil
}

// UnmarshalJSON always decodes as a candidate; the wire form does not carry
// the variant tag.
func (r *Record) UnmarshalJSON(data []byte) error {
	var c SearchCandidate
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}
	r.Candidate = &c
	r.Enriched = nil
	return nil
}

func StringPtr(s string) *string {
	return &s
}

func IntPtr(i int) *int {
	return &i
}
