package domeggook

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/wholesale-crawler/internal/extract"
)

var (
	blankLineRun  = regexp.MustCompile(`\n{3,}`)
	imageFileName = regexp.MustCompile(`(?i)\.(?:jpe?g|png|gif|webp)(?:$|[?#])`)
	chromeImage   = regexp.MustCompile(`(?i)logo|icon`)
)

var lazyImageAttrs = []string{"data-src", "data-original", "data-lazy", "data-lazy-src"}

const hiddenSelector = `[style*="display:none"], [style*="display: none"], [style*="visibility:hidden"], [style*="visibility: hidden"], [hidden]`

// sanitized is the cleaned detail body.
type sanitized struct {
	html   string
	text   string
	images []string
}

// sanitizeDetail strips active content and hidden nodes from a detail body,
// collapses lazy image attributes into src and resolves links. Images are
// collected in document order up to limit.
func sanitizeDetail(fragment string, limit int) (sanitized, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return sanitized{}, err
	}
	body := doc.Find("body")

	body.Find("script, style, iframe, noscript, link").Remove()
	body.Find(hiddenSelector).Remove()
	body.Find("[onclick], [onload]").RemoveAttr("onclick").RemoveAttr("onload")

	var images []string
	body.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, _ := extract.FirstOf(
			attr(img, "src"),
			attr(img, "data-src"),
			attr(img, "data-original"),
			attr(img, "data-lazy"),
			attr(img, "data-lazy-src"),
		)
		for _, name := range lazyImageAttrs {
			img.RemoveAttr(name)
		}
		if src == "" {
			img.Remove()
			return
		}
		src = extract.NormalizeURL(src, CDNOrigin)
		img.SetAttr("src", src)
		img.SetAttr("style", "max-width:100%;height:auto;")
		images = append(images, src)
	})

	body.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if strings.HasPrefix(strings.ToLower(href), "javascript:") {
			a.RemoveAttr("href")
			return
		}
		a.SetAttr("href", extract.NormalizeURL(href, BaseURL))
	})

	html, err := body.Html()
	if err != nil {
		return sanitized{}, err
	}

	return sanitized{
		html:   strings.TrimSpace(html),
		text:   plainText(body.Clone()),
		images: extract.Dedup(images, limit),
	}, nil
}

// plainText renders a selection as text with <br> as line breaks. Blank
// lines survive only directly after a non-blank line.
func plainText(sel *goquery.Selection) string {
	sel.Find("br").ReplaceWithHtml("\n")
	raw := strings.ReplaceAll(sel.Text(), "\r", "")
	raw = strings.ReplaceAll(raw, "\u00a0", " ")

	lines := strings.Split(raw, "\n")
	kept := make([]string, 0, len(lines))
	prevBlank := true
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" && prevBlank {
			continue
		}
		kept = append(kept, line)
		prevBlank = line == ""
	}
	text := strings.Join(kept, "\n")
	return strings.TrimSpace(blankLineRun.ReplaceAllString(text, "\n\n"))
}

// documentImages scans the whole page when the detail body has none. Only
// real image files are taken and site chrome such as logos is skipped.
func documentImages(doc *goquery.Document, limit int) []string {
	var images []string
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, ok := extract.FirstOf(
			attr(img, "data-src"),
			attr(img, "data-original"),
			attr(img, "data-lazy"),
			attr(img, "src"),
		)
		if !ok || chromeImage.MatchString(src) {
			return
		}
		src = extract.NormalizeURL(src, CDNOrigin)
		if strings.HasPrefix(src, "data:") || !imageFileName.MatchString(src) {
			return
		}
		images = append(images, src)
	})
	return extract.Dedup(images, limit)
}
