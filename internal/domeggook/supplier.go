package domeggook

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/wholesale-crawler/internal/extract"
	"github.com/maltedev/wholesale-crawler/internal/models"
)

var (
	quantityPattern  = regexp.MustCompile(`([\d,]+)\s*개`)
	wonAmountPattern = regexp.MustCompile(`([\d,]+)\s*원`)
	zipCodePattern   = regexp.MustCompile(`\[(\d{5,6})\]`)

	supplierNameLabel    = regexp.MustCompile(`공급사|판매자|상호`)
	supplierContactLabel = regexp.MustCompile(`문의|연락처|전화`)
	supplierEmailLabel   = regexp.MustCompile(`(?i)이메일|e-?mail`)
	supplierAddressLabel = regexp.MustCompile(`주소|소재지`)
	supplierBizNoLabel   = regexp.MustCompile(`등록번호`)

	shippingRowLabel = regexp.MustCompile(`배송|택배`)
	moqRowLabel      = regexp.MustCompile(`최소구매수량|구매수량`)
)

// infoRow is one label/value pair from the info tables on a detail page.
type infoRow struct {
	label string
	value string
	text  string
}

func infoRows(doc *goquery.Document) []infoRow {
	var rows []infoRow
	doc.Find(infoTableRows).Each(func(_ int, tr *goquery.Selection) {
		label := extract.CollapseSpace(tr.Find("th").First().Text())
		var values []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			if v := extract.CollapseSpace(td.Text()); v != "" {
				values = append(values, v)
			}
		})
		rows = append(rows, infoRow{
			label: label,
			value: strings.Join(values, " "),
			text:  extract.CollapseSpace(tr.Text()),
		})
	})
	return rows
}

// extractSupplier fills each field from the first row whose header matches
// its keyword group. The seller badge is the fallback for the name.
func extractSupplier(doc *goquery.Document, rows []infoRow, fallbackName string) models.SupplierInfo {
	var s models.SupplierInfo
	for _, row := range rows {
		if row.label == "" || row.value == "" {
			continue
		}
		if s.Name == "" && supplierNameLabel.MatchString(row.label) {
			s.Name = row.value
		}
		if s.Contact == "" && supplierContactLabel.MatchString(row.label) {
			s.Contact = row.value
		}
		if s.Email == "" && supplierEmailLabel.MatchString(row.label) {
			s.Email = row.value
		}
		if s.Address == "" && supplierAddressLabel.MatchString(row.label) {
			s.Address = row.value
		}
		if s.BusinessRegistrationNo == "" && supplierBizNoLabel.MatchString(row.label) {
			s.BusinessRegistrationNo = row.value
		}
	}

	if m := zipCodePattern.FindStringSubmatch(s.Address); len(m) > 1 {
		s.ZipCode = m[1]
	}

	if s.Name == "" {
		s.Name, _ = extract.FirstOf(
			extract.NonEmpty(func() string { return doc.Find("#lBtnShowSellerInfo b").First().Text() }),
			extract.NonEmpty(func() string { return fallbackName }),
		)
	}
	return s
}

// extractShipping returns the cost and display text from the shipping rows,
// defaulting to the flat rate when nothing is printed.
func extractShipping(rows []infoRow) (int, string) {
	var parts []string
	for _, row := range rows {
		if shippingRowLabel.MatchString(row.text) {
			parts = append(parts, row.text)
		}
	}
	text := strings.Join(parts, " ")

	switch {
	case strings.Contains(text, "무료"):
		return 0, "무료배송"
	case text != "":
		if m := wonAmountPattern.FindStringSubmatch(text); len(m) > 1 {
			if n, err := extract.ParsePrice(m[1]); err == nil {
				return n, extract.FormatWon(n)
			}
		}
	}
	return DefaultShippingCost, extract.FormatWon(DefaultShippingCost)
}

func extractMinOrderQuantity(rows []infoRow, fallback int) int {
	for _, row := range rows {
		if !moqRowLabel.MatchString(row.text) {
			continue
		}
		if m := quantityPattern.FindStringSubmatch(row.text); len(m) > 1 {
			if n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", "")); err == nil && n > 0 {
				return n
			}
		}
	}
	if fallback > 0 {
		return fallback
	}
	return 1
}

func extractTags(doc *goquery.Document) []string {
	content, _ := doc.Find(`meta[name="keywords"]`).First().Attr("content")
	var tags []string
	for _, t := range strings.Split(content, ",") {
		tags = append(tags, strings.TrimSpace(t))
	}
	return extract.Dedup(tags, 0)
}
