// Package domeggook scrapes the Domeggook wholesale marketplace. All selector
// knowledge about the site lives here; the rest of the crawler only sees
// models.SearchCandidate and models.EnrichedProduct.
package domeggook

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/maltedev/wholesale-crawler/internal/browser"
	"github.com/maltedev/wholesale-crawler/internal/extract"
)

const (
	SiteName = "domeggook"

	BaseURL   = "https://www.domeggook.com/"
	CDNOrigin = "https://cdn1.domeggook.com/"

	landingURL     = "https://www.domeggook.com/main"
	popupURLFormat = "https://domeggook.com/main/popup/item/popup_itemOptionView.php?no=%s&market=dome"

	MaxSearchResults   = 30
	MaxContainerImages = 50
	MaxDocumentImages  = 30
	MaxOptionValues    = 100

	DefaultShippingCost = 3000

	// popup lookups need an identifier at least this long
	minPopupProductNo = 5

	placeholderName = "Unknown"
)

var searchInputSelectors = []string{
	"#searchWordForm",
	`input[name="searchword"]`,
	"input#searchWord",
}

const (
	resultItemSelector = "ol.lItemList > li"
	containerSelector  = "#lInfoViewItemContents"
	thumbnailSelector  = "#lThumbImg"
	infoHeaderSelector = "#lInfoHeader"
	infoTableRows      = "table.lTbl tr, table.lInfoViewTbl tr"
)

var (
	productNoURLPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:item)?no=(\d{4,})`),
		regexp.MustCompile(`(?i)domeggook\.com/(\d{4,})(?:[/?#]|$)`),
	}
	productNoLabelPattern = regexp.MustCompile(`상품번호\s*[:：]?\s*([0-9]{4,})`)
	headerProductNo       = regexp.MustCompile(`상품번호\s*[:：]?\s*(\d+)`)
)

type Timeouts struct {
	Navigation time.Duration
	Popup      time.Duration
	Selector   time.Duration
	Results    time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Navigation: 30 * time.Second,
		Popup:      8 * time.Second,
		Selector:   10 * time.Second,
		Results:    15 * time.Second,
	}
}

type Adapter struct {
	fetcher  browser.Fetcher
	policy   browser.RequestPolicy
	timeouts Timeouts
	logger   *slog.Logger
}

func New(fetcher browser.Fetcher, timeouts Timeouts, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		fetcher:  fetcher,
		policy:   browser.DefaultRequestPolicy(),
		timeouts: timeouts,
		logger:   logger.With("component", "domeggook"),
	}
}

func (a *Adapter) Name() string {
	return SiteName
}

// PopupURL is the option popup endpoint for a product number.
func PopupURL(productNo string) string {
	return fmt.Sprintf(popupURLFormat, productNo)
}

// ExtractProductNo recovers a numeric product identifier from a URL or text,
// trying query parameters, the short item path, then a labelled number.
func ExtractProductNo(input string) (string, bool) {
	if input == "" {
		return "", false
	}
	patterns := append(append([]*regexp.Regexp{}, productNoURLPatterns...), productNoLabelPattern)
	return extract.FirstMatch(input, patterns...)
}

func qualifies(productNo string, minLen int) bool {
	return len(productNo) >= minLen
}
