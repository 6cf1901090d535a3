package domeggook

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/wholesale-crawler/internal/browser"
	"github.com/maltedev/wholesale-crawler/internal/extract"
	"github.com/maltedev/wholesale-crawler/internal/models"
)

const (
	defaultOptionName = "옵션"
	optionTypeSelect  = "select"
	optionTypeChoice  = "choice"
)

var (
	placeholderOption = regexp.MustCompile(`(?i)^\s*(?:-+\s*)?(?:선택|옵션\s*선택|please select)`)
	extraPricePattern = regexp.MustCompile(`\(\+([\d,]+)원\)`)
	leadingCount      = regexp.MustCompile(`^\s*(\d+)`)
)

// ResolveOptions reads option groups from a detail page or option popup. The
// stock table is authoritative, then the chip menu, then native selects, then
// radio and checkbox inputs; the first source that yields values wins.
func ResolveOptions(doc *goquery.Document) []models.OptionGroup {
	groups, ok := extract.FirstOf[[]models.OptionGroup](
		func() ([]models.OptionGroup, bool) { return nonEmpty(optionsFromTable(doc)) },
		func() ([]models.OptionGroup, bool) { return nonEmpty(optionsFromChips(doc)) },
		func() ([]models.OptionGroup, bool) { return nonEmpty(optionsFromSelects(doc)) },
		func() ([]models.OptionGroup, bool) { return nonEmpty(optionsFromInputs(doc)) },
	)
	if !ok {
		return []models.OptionGroup{}
	}
	return groups
}

func nonEmpty(groups []models.OptionGroup) ([]models.OptionGroup, bool) {
	return groups, len(groups) > 0
}

func singleGroup(name, kind string, values []string) []models.OptionGroup {
	values = extract.Dedup(values, MaxOptionValues)
	if len(values) == 0 {
		return nil
	}
	if name == "" {
		name = defaultOptionName
	}
	return []models.OptionGroup{{Name: name, Type: kind, Values: values}}
}

func optionsFromTable(doc *goquery.Document) []models.OptionGroup {
	table := doc.Find("#itemOptAllViewTable").First()
	if table.Length() == 0 {
		return nil
	}

	name := extract.CollapseSpace(table.Find("thead th").Eq(1).Text())
	var values []string
	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		tds := tr.Find("td")
		if tds.Length() < 4 {
			return
		}
		value := extract.CollapseSpace(tds.Eq(1).Text())
		if value == "" {
			return
		}
		priceText := extract.CollapseSpace(tds.Eq(2).Text())
		stock, ok := parseStock(tds.Eq(3).Text())

		label := value
		if strings.Contains(value, "판매종료") || !ok || stock <= 0 {
			label += " (품절)"
		}
		if m := extraPricePattern.FindStringSubmatch(priceText); len(m) > 1 {
			label += " (+" + m[1] + "원)"
		}
		values = append(values, label)
	})
	return singleGroup(name, optionTypeSelect, values)
}

// parseStock reads the leading count of a stock cell, so "1,200 개" is 1200.
// A cell without digits reports false.
func parseStock(text string) (int, bool) {
	m := leadingCount.FindStringSubmatch(strings.ReplaceAll(text, ",", ""))
	if len(m) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func optionsFromChips(doc *goquery.Document) []models.OptionGroup {
	collect := func(selector string) []string {
		var values []string
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			text := extract.CollapseSpace(s.Text())
			if text != "" && !placeholderOption.MatchString(text) {
				values = append(values, text)
			}
		})
		return values
	}

	values := collect(".pSelectUIMenu button, .pSelectUIBtn")
	if len(values) == 0 {
		values = collect(".pSelectUIMenu li")
	}
	return singleGroup("", optionTypeSelect, values)
}

func optionsFromSelects(doc *goquery.Document) []models.OptionGroup {
	var groups []models.OptionGroup
	doc.Find("select").Each(func(i int, sel *goquery.Selection) {
		var values []string
		sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
			text := extract.CollapseSpace(opt.Text())
			if text != "" && !placeholderOption.MatchString(text) {
				values = append(values, text)
			}
		})
		values = extract.Dedup(values, MaxOptionValues)
		if len(values) == 0 {
			return
		}
		groups = append(groups, models.OptionGroup{
			Name:   controlLabel(doc, sel, i),
			Type:   optionTypeSelect,
			Values: values,
		})
	})
	return groups
}

func optionsFromInputs(doc *goquery.Document) []models.OptionGroup {
	var order []string
	byName := make(map[string][]string)
	doc.Find(`input[type="radio"], input[type="checkbox"]`).Each(func(_ int, in *goquery.Selection) {
		name, _ := in.Attr("name")
		if name == "" {
			return
		}
		value, _ := extract.FirstOf(
			extract.NonEmpty(func() string {
				id, _ := in.Attr("id")
				if id == "" {
					return ""
				}
				return extract.CollapseSpace(doc.Find(`label[for="` + id + `"]`).First().Text())
			}),
			extract.NonEmpty(func() string { return extract.CollapseSpace(in.Closest("label").Text()) }),
			attr(in, "value"),
		)
		if value == "" {
			return
		}
		if _, ok := byName[name]; !ok {
			order = append(order, name)
		}
		byName[name] = append(byName[name], value)
	})

	var groups []models.OptionGroup
	for _, name := range order {
		values := extract.Dedup(byName[name], MaxOptionValues)
		if len(values) > 0 {
			groups = append(groups, models.OptionGroup{Name: name, Type: optionTypeChoice, Values: values})
		}
	}
	return groups
}

func controlLabel(doc *goquery.Document, sel *goquery.Selection, index int) string {
	label, ok := extract.FirstOf(
		extract.NonEmpty(func() string {
			id, _ := sel.Attr("id")
			if id == "" {
				return ""
			}
			return extract.CollapseSpace(doc.Find(`label[for="` + id + `"]`).First().Text())
		}),
		attr(sel, "name"),
	)
	if !ok {
		return defaultOptionName + strconv.Itoa(index+1)
	}
	return label
}

// FetchPopupOptions loads the option popup for a product number and parses it.
// A navigation timeout is tolerated as long as some markup was received.
func (a *Adapter) FetchPopupOptions(ctx context.Context, productNo string) ([]models.OptionGroup, error) {
	url := PopupURL(productNo)
	html, err := browser.Do(ctx, a.fetcher, a.policy, func(page browser.Page) (string, error) {
		if err := page.Goto(url, a.timeouts.Popup); err != nil {
			a.logger.Warn("option popup navigation incomplete", "url", url, "error", err)
		}
		return page.Content()
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(html) == "" {
		return []models.OptionGroup{}, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	groups := ResolveOptions(doc)
	a.logger.Debug("option popup parsed", "product_no", productNo, "groups", len(groups))
	return groups, nil
}
