package domeggook

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/wholesale-crawler/internal/browser"
	"github.com/maltedev/wholesale-crawler/internal/extract"
	"github.com/maltedev/wholesale-crawler/internal/models"
)

// DetailPage is the raw markup captured from one product page.
type DetailPage struct {
	ContainerHTML string
	HasContainer  bool
	FullHTML      string
}

// Enrich visits the candidate's detail page. When the page cannot be read
// the candidate comes back upgraded with defaults only, together with the
// error; callers decide whether the error matters.
func (a *Adapter) Enrich(ctx context.Context, c models.SearchCandidate) (models.EnrichedProduct, error) {
	if strings.TrimSpace(c.SourceURL) == "" {
		return models.Upgrade(c), nil
	}
	start := time.Now()

	page, err := a.fetchDetail(ctx, c.SourceURL)
	if err != nil {
		a.logger.Warn("failed to load detail page", "url", c.SourceURL, "error", err)
		return models.Upgrade(c), err
	}

	product, err := ParseDetail(page, c)
	if err != nil {
		a.logger.Warn("failed to parse detail page", "url", c.SourceURL, "error", err)
		return models.Upgrade(c), err
	}

	if len(product.Options) == 0 && product.ProductNo != nil && qualifies(*product.ProductNo, minPopupProductNo) {
		groups, err := a.FetchPopupOptions(ctx, *product.ProductNo)
		switch {
		case browser.IsLaunchError(err):
			return product, err
		case err != nil:
			a.logger.Warn("option popup failed", "product_no", *product.ProductNo, "error", err)
		case len(groups) > 0:
			product.Options = groups
		}
	}

	if strings.Contains(product.Supplier.Contact, "*") {
		a.logger.Warn("supplier contact is masked, seller details need a logged-in session", "url", c.SourceURL)
	}

	a.logger.Debug("detail enriched",
		"url", c.SourceURL,
		"images", len(product.DetailImages),
		"options", len(product.Options),
		"image_usage", product.ImageUsageStatus,
		"duration", time.Since(start))
	return product, nil
}

func (a *Adapter) fetchDetail(ctx context.Context, url string) (DetailPage, error) {
	return browser.Do(ctx, a.fetcher, a.policy, func(page browser.Page) (DetailPage, error) {
		if err := page.Goto(url, a.timeouts.Navigation); err != nil {
			return DetailPage{}, fmt.Errorf("failed to open detail page: %w", err)
		}
		if err := page.WaitFor(containerSelector, a.timeouts.Selector); err != nil {
			a.logger.Debug("detail container did not appear", "url", url, "error", err)
		}

		var out DetailPage
		container, err := page.InnerHTML(containerSelector)
		switch {
		case err == nil:
			out.ContainerHTML = container
			out.HasContainer = true
		case !errors.Is(err, browser.ErrSelectorNotFound):
			return DetailPage{}, err
		}

		full, err := page.Content()
		if err != nil {
			return DetailPage{}, fmt.Errorf("failed to read detail page: %w", err)
		}
		out.FullHTML = full
		return out, nil
	})
}

// ParseDetail builds an EnrichedProduct from captured markup. Fields the
// candidate already carries are kept unless the page offers nothing better.
func ParseDetail(page DetailPage, c models.SearchCandidate) (models.EnrichedProduct, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.FullHTML))
	if err != nil {
		return models.Upgrade(c), fmt.Errorf("failed to parse HTML: %w", err)
	}

	product := models.Upgrade(c)
	rows := infoRows(doc)

	if no, ok := detailProductNo(doc, page.FullHTML, c); ok {
		product.ProductNo = models.StringPtr(no)
		product.OptionPopupURL = models.StringPtr(PopupURL(no))
	}

	fragment := page.ContainerHTML
	if !page.HasContainer {
		fragment, _ = doc.Find("body").Html()
	}
	body, err := sanitizeDetail(fragment, MaxContainerImages)
	if err != nil {
		return models.Upgrade(c), fmt.Errorf("failed to sanitize detail body: %w", err)
	}
	product.DetailHTML = body.html
	product.DetailText = body.text

	images, limit := body.images, MaxContainerImages
	if !page.HasContainer || len(images) == 0 {
		images, limit = documentImages(doc, MaxDocumentImages), MaxDocumentImages
	}
	thumb := extract.NormalizeURL(imageSource(doc.Find(thumbnailSelector).First()), CDNOrigin)
	images = extract.Prepend(thumb, images)
	if len(images) > limit {
		images = images[:limit]
	}
	product.DetailImages = images

	product.ImageURL, _ = extract.FirstOf(
		extract.NonEmpty(func() string { return c.ImageURL }),
		extract.NonEmpty(func() string { return thumb }),
		extract.NonEmpty(func() string {
			if len(images) == 0 {
				return ""
			}
			return images[0]
		}),
	)

	if c.Name == "" || c.Name == placeholderName {
		if name, ok := detailName(doc); ok {
			product.Name = name
		}
	}
	if c.Price == 0 {
		if price, ok := detailPrice(doc); ok {
			product.Price = price
			product.PriceText = extract.FormatWon(price)
		}
	}

	if c.ShippingCost == nil {
		cost, text := extractShipping(rows)
		product.ShippingCost = models.IntPtr(cost)
		product.ShippingText = text
	}
	product.MinOrderQuantity = extractMinOrderQuantity(rows, c.MinOrderQuantity)

	product.Supplier = extractSupplier(doc, rows, c.SupplierName)
	product.SupplierName = product.Supplier.Name
	product.Tags = extractTags(doc)

	product.ImageUsageText = extractImageUsageText(doc)
	product.ImageUsageStatus = ClassifyImageUsage(product.ImageUsageText)

	product.Options = ResolveOptions(doc)

	product.Description, _ = extract.FirstOf(
		extract.NonEmpty(func() string { return product.DetailText }),
		extract.NonEmpty(func() string { return fallbackDescription(c.Site) }),
	)
	return product, nil
}

// detailProductNo prefers the info header, then the candidate, then any
// number in the page or link. Five digits are required except for the
// candidate's own value, which is the last resort.
func detailProductNo(doc *goquery.Document, html string, c models.SearchCandidate) (string, bool) {
	qualified := func(fn func() (string, bool)) extract.Extractor[string] {
		return func() (string, bool) {
			no, ok := fn()
			return no, ok && qualifies(no, minPopupProductNo)
		}
	}
	var fromCandidate extract.Extractor[string] = func() (string, bool) {
		if c.ProductNo == nil || *c.ProductNo == "" {
			return "", false
		}
		return *c.ProductNo, true
	}

	return extract.FirstOf(
		qualified(func() (string, bool) {
			return extract.FirstMatch(doc.Find(infoHeaderSelector).Text(), headerProductNo)
		}),
		qualified(fromCandidate),
		qualified(func() (string, bool) { return ExtractProductNo(html) }),
		qualified(func() (string, bool) { return ExtractProductNo(c.SourceURL) }),
		fromCandidate,
	)
}

func detailName(doc *goquery.Document) (string, bool) {
	return extract.FirstOf(
		extract.NonEmpty(func() string { return extract.CollapseSpace(doc.Find("h1").First().Text()) }),
		extract.NonEmpty(func() string { return extract.CollapseSpace(doc.Find(".lInfoTitle").First().Text()) }),
		extract.NonEmpty(func() string {
			v, _ := doc.Find(`meta[property="og:title"]`).First().Attr("content")
			return v
		}),
	)
}

func detailPrice(doc *goquery.Document) (int, bool) {
	var extractors []extract.Extractor[int]
	for _, sel := range []string{"#lBaseAmtVal", ".lInfoPrice .price strong", ".lInfoPrice"} {
		extractors = append(extractors, func() (int, bool) {
			n, err := extract.ParsePrice(doc.Find(sel).First().Text())
			return n, err == nil && n > 0
		})
	}
	return extract.FirstOf(extractors...)
}

func fallbackDescription(site string) string {
	if site == "" {
		site = SiteName
	}
	return strings.ToUpper(site) + " 소싱 상품"
}
