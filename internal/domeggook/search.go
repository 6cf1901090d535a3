package domeggook

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/wholesale-crawler/internal/browser"
	"github.com/maltedev/wholesale-crawler/internal/extract"
	"github.com/maltedev/wholesale-crawler/internal/models"
)

// Search submits the keyword through the landing page search box and parses
// the first result page. On failure the returned slice is empty and the error
// describes what went wrong.
func (a *Adapter) Search(ctx context.Context, q models.SearchQuery) ([]models.SearchCandidate, error) {
	start := time.Now()
	a.logger.Info("starting search", "keyword", q.Keyword, "min_price", q.MinPrice, "max_price", q.MaxPrice)

	html, err := browser.Do(ctx, a.fetcher, a.policy, func(page browser.Page) (string, error) {
		if err := page.Goto(landingURL, a.timeouts.Navigation); err != nil {
			return "", fmt.Errorf("failed to open landing page: %w", err)
		}

		input, err := a.findSearchInput(page)
		if err != nil {
			return "", err
		}
		if err := page.Fill(input, q.Keyword); err != nil {
			return "", fmt.Errorf("failed to fill search input: %w", err)
		}
		if err := page.Submit(a.timeouts.Navigation); err != nil {
			a.logger.Warn("search submit navigation did not settle", "error", err)
		}
		if err := page.WaitFor(resultItemSelector, a.timeouts.Results); err != nil {
			a.logger.Warn("result list did not appear", "error", err)
		}
		return page.Content()
	})
	if err != nil {
		a.logger.Error("search failed", "keyword", q.Keyword, "error", err)
		return []models.SearchCandidate{}, err
	}

	products := ParseSearchResults(html, q)
	a.logger.Info("search completed",
		"keyword", q.Keyword,
		"products", len(products),
		"duration", time.Since(start))
	return products, nil
}

func (a *Adapter) findSearchInput(page browser.Page) (string, error) {
	if err := page.WaitFor(strings.Join(searchInputSelectors, ", "), a.timeouts.Selector); err != nil {
		return "", fmt.Errorf("search input not found: %w", err)
	}

	extractors := make([]extract.Extractor[string], 0, len(searchInputSelectors))
	for _, sel := range searchInputSelectors {
		extractors = append(extractors, func() (string, bool) {
			n, err := page.Count(sel)
			return sel, err == nil && n > 0
		})
	}
	sel, ok := extract.FirstOf(extractors...)
	if !ok {
		return "", fmt.Errorf("%w: search input", browser.ErrSelectorNotFound)
	}
	return sel, nil
}

// ParseSearchResults extracts at most MaxSearchResults in-range candidates in
// page order. Items without a name or a parseable price are skipped.
func ParseSearchResults(html string, q models.SearchQuery) []models.SearchCandidate {
	results := make([]models.SearchCandidate, 0, MaxSearchResults)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return results
	}

	doc.Find(resultItemSelector).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if c, ok := parseListItem(item, q); ok {
			results = append(results, c)
		}
		return len(results) < MaxSearchResults
	})
	return results
}

func parseListItem(item *goquery.Selection, q models.SearchQuery) (models.SearchCandidate, bool) {
	title := item.Find("a.title").First()
	name := extract.CollapseSpace(title.Text())
	if name == "" {
		return models.SearchCandidate{}, false
	}

	priceText := strings.TrimSpace(item.Find("div.amtqty.amtQtyMargin > div.amt > b").First().Text())
	price, err := extract.ParsePrice(priceText)
	if err != nil || !q.InRange(price) {
		return models.SearchCandidate{}, false
	}

	href, _ := title.Attr("href")
	sourceURL := extract.NormalizeURL(href, BaseURL)

	c := models.SearchCandidate{
		Name:             name,
		Price:            price,
		PriceText:        priceText,
		ImageURL:         extract.NormalizeURL(imageSource(item.Find("a.thumb img").First()), CDNOrigin),
		SourceURL:        sourceURL,
		Site:             SiteName,
		Category:         q.Keyword,
		MinOrderQuantity: parseUnitQuantity(item.Find(".unitQty").First().Text()),
		Currency:         "KRW",
		SupplierName:     sellerName(item),
	}
	if no, ok := ExtractProductNo(sourceURL); ok {
		c.ProductNo = models.StringPtr(no)
	}

	if text := extract.CollapseSpace(item.Find(".infoDeli").First().Text()); text != "" {
		cost := parseShippingCost(text)
		c.ShippingCost = models.IntPtr(cost)
		c.ShippingText = text
	}
	return c, true
}

// imageSource prefers lazy-load attributes over src, which is often a spacer.
func imageSource(img *goquery.Selection) string {
	src, _ := extract.FirstOf(
		attr(img, "data-original"),
		attr(img, "data-src"),
		attr(img, "data-lazy"),
		attr(img, "src"),
	)
	return src
}

func attr(sel *goquery.Selection, name string) extract.Extractor[string] {
	return extract.NonEmpty(func() string {
		v, _ := sel.Attr(name)
		return v
	})
}

func sellerName(item *goquery.Selection) string {
	name, _ := extract.FirstOf(
		extract.NonEmpty(func() string { return item.Find(".seller .nick a").First().Text() }),
		extract.NonEmpty(func() string { return item.Find(`a[href*="sf=id"]`).First().Text() }),
	)
	return extract.CollapseSpace(name)
}

func parseUnitQuantity(text string) int {
	if m := quantityPattern.FindStringSubmatch(text); len(m) > 1 {
		if n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", "")); err == nil && n > 0 {
			return n
		}
	}
	if n, err := extract.ParsePrice(text); err == nil && n > 0 {
		return n
	}
	return 1
}

// parseShippingCost reads free shipping as 0 and otherwise the first won
// amount, falling back to the site's usual flat rate.
func parseShippingCost(text string) int {
	if strings.Contains(text, "무료") {
		return 0
	}
	if m := wonAmountPattern.FindStringSubmatch(text); len(m) > 1 {
		if n, err := extract.ParsePrice(m[1]); err == nil {
			return n
		}
	}
	return DefaultShippingCost
}
