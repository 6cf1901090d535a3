package domeggook

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/wholesale-crawler/internal/extract"
	"github.com/maltedev/wholesale-crawler/internal/models"
)

var (
	imageUsageLabel       = regexp.MustCompile(`상세\s*설명\s*이미지\s*사용\s*여부`)
	imageHeaderLabel      = regexp.MustCompile(`이미지`)
	imageUsageBodyPattern = regexp.MustCompile(`이미지[^.]{0,60}사용\s*(?:가능|불가|제공|제한|무료|유료|허용)[^.]{0,40}`)

	usageUnavailable = regexp.MustCompile(`불가|제공안됨|제공안함|미제공|제공x|사용불가|불허`)
	usageAvailable   = regexp.MustCompile(`가능|제공|사용가능|허용|무료사용|제공됩니다`)
	usageReview      = regexp.MustCompile(`문의|협의|조건|제한|승인|요청|확인필요`)
)

// extractImageUsageText finds the seller's statement about reusing detail
// images, trying the dedicated attribute cell, the usage badge, any image
// related table header, then free text.
func extractImageUsageText(doc *goquery.Document) string {
	text, _ := extract.FirstOf[string](
		func() (string, bool) {
			var out string
			doc.Find("td.lInfoViewSubTd1").EachWithBreak(func(_ int, td *goquery.Selection) bool {
				if !imageUsageLabel.MatchString(td.Text()) {
					return true
				}
				value := extract.CollapseSpace(td.NextFiltered("td.lInfoViewSubTd2").Text())
				if value != "" {
					out = "상세설명 이미지 사용여부: " + value
					return false
				}
				return true
			})
			return out, out != ""
		},
		extract.NonEmpty(func() string {
			return extract.CollapseSpace(doc.Find(".lInfoViewImgUse").First().Text())
		}),
		func() (string, bool) {
			var out string
			doc.Find("table th").EachWithBreak(func(_ int, th *goquery.Selection) bool {
				header := extract.CollapseSpace(th.Text())
				if !imageHeaderLabel.MatchString(header) {
					return true
				}
				value := extract.CollapseSpace(th.NextFiltered("td").Text())
				if value != "" {
					out = header + ": " + value
					return false
				}
				return true
			})
			return out, out != ""
		},
		extract.NonEmpty(func() string {
			return imageUsageBodyPattern.FindString(extract.CollapseSpace(doc.Find("body").Text()))
		}),
	)
	return text
}

// ClassifyImageUsage maps free text to a status. Refusal keywords are checked
// before approval keywords.
func ClassifyImageUsage(text string) models.ImageUsageStatus {
	normalized := strings.ToLower(strings.Join(strings.Fields(text), ""))
	switch {
	case normalized == "":
		return models.ImageUsageUnknown
	case usageUnavailable.MatchString(normalized):
		return models.ImageUsageUnavailable
	case usageAvailable.MatchString(normalized):
		return models.ImageUsageAvailable
	case usageReview.MatchString(normalized):
		return models.ImageUsageReview
	}
	return models.ImageUsageUnknown
}
