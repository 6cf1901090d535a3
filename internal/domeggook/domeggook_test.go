package domeggook

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/wholesale-crawler/internal/browser"
	"github.com/maltedev/wholesale-crawler/internal/browser/browsertest"
	"github.com/maltedev/wholesale-crawler/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultsURL = "https://www.domeggook.com/main/item/itemList.php?sw="

func newTestAdapter(site *browsertest.Site) *Adapter {
	pool := browser.NewPool(browser.DefaultOptions(), site.Launcher(), nil, nil)
	return New(pool, DefaultTimeouts(), nil)
}

func searchSite(items []listItem) *browsertest.Site {
	site := browsertest.NewSite().
		Page(landingURL, landingHTML).
		Page(resultsURL+"텀블러", listPage(items))
	site.OnSubmit = func(text string) string { return resultsURL + text }
	return site
}

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestSearchCapsResultsAndFiltersPrice(t *testing.T) {
	site := searchSite(pricedItems(45, 1000, 100))
	adapter := newTestAdapter(site)

	q := models.SearchQuery{Keyword: "텀블러", MinPrice: 1000, MaxPrice: 4900}
	products, err := adapter.Search(context.Background(), q)
	require.NoError(t, err)

	assert.Len(t, products, MaxSearchResults)
	for _, p := range products {
		assert.True(t, q.InRange(p.Price), "price %d outside range", p.Price)
		assert.Equal(t, SiteName, p.Site)
	}
	assert.Equal(t, []string{"텀블러"}, site.Fills())
	assert.Equal(t, int64(0), site.OpenTabs())
}

func TestSearchFailsSoft(t *testing.T) {
	site := browsertest.NewSite()
	adapter := newTestAdapter(site)

	products, err := adapter.Search(context.Background(), models.SearchQuery{Keyword: "x", MaxPrice: 100})
	require.Error(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
}

func TestSearchWithoutInput(t *testing.T) {
	site := browsertest.NewSite().Page(landingURL, "<html><body>maintenance</body></html>")
	adapter := newTestAdapter(site)

	_, err := adapter.Search(context.Background(), models.SearchQuery{Keyword: "x", MaxPrice: 100})
	assert.ErrorIs(t, err, browser.ErrSelectorNotFound)
}

func TestParseSearchResultsFields(t *testing.T) {
	items := pricedItems(2, 1000, 500)
	items[1].deli = "무료배송"
	items[1].qty = ""

	products := ParseSearchResults(listPage(items), models.SearchQuery{MinPrice: 0, MaxPrice: 10000})
	require.Len(t, products, 2)

	first := products[0]
	assert.Equal(t, "상품 0", first.Name)
	assert.Equal(t, 1000, first.Price)
	assert.Equal(t, "1,000원", first.PriceText)
	assert.Equal(t, "https://cdn1.domeggook.com/upload/item/0.jpg", first.ImageURL)
	assert.Equal(t, "https://www.domeggook.com/main/item/itemView.php?no=100000", first.SourceURL)
	require.NotNil(t, first.ProductNo)
	assert.Equal(t, "100000", *first.ProductNo)
	assert.Equal(t, 10, first.MinOrderQuantity)
	require.NotNil(t, first.ShippingCost)
	assert.Equal(t, 3500, *first.ShippingCost)
	assert.Equal(t, "도매상점", first.SupplierName)
	assert.Equal(t, "KRW", first.Currency)

	second := products[1]
	require.NotNil(t, second.ShippingCost)
	assert.Equal(t, 0, *second.ShippingCost)
	assert.Equal(t, 1, second.MinOrderQuantity)
}

func TestParseSearchResultsSkipsBadItems(t *testing.T) {
	items := []listItem{
		{no: 11111, name: "", price: "1,000원"},
		{no: 22222, name: "가격없음", price: "문의"},
		{no: 33333, name: "정상", price: "2,000원"},
	}
	products := ParseSearchResults(listPage(items), models.SearchQuery{MaxPrice: 5000})
	require.Len(t, products, 1)
	assert.Equal(t, "정상", products[0].Name)
	assert.Nil(t, products[0].ShippingCost, "no delivery text leaves the cost for the detail page")
}

func TestParseSearchResultsPriceRange(t *testing.T) {
	html := listPage(pricedItems(30, 500, 250))
	ranges := []models.SearchQuery{
		{MinPrice: 0, MaxPrice: 100000},
		{MinPrice: 1000, MaxPrice: 2000},
		{MinPrice: 3000, MaxPrice: 3000},
		{MinPrice: 9000, MaxPrice: 10000},
	}
	for _, q := range ranges {
		for _, p := range ParseSearchResults(html, q) {
			assert.GreaterOrEqual(t, p.Price, q.MinPrice)
			assert.LessOrEqual(t, p.Price, q.MaxPrice)
		}
	}
	assert.Len(t, ParseSearchResults(html, models.SearchQuery{MinPrice: 3000, MaxPrice: 3000}), 1)
	assert.Empty(t, ParseSearchResults("", models.SearchQuery{MaxPrice: 100}))
}

func TestExtractProductNo(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"https://domeggook.com/main/item/itemView.php?no=12345678", "12345678", true},
		{"https://domeggook.com/item?itemNo=98765", "98765", true},
		{"https://domeggook.com/12345678", "12345678", true},
		{"https://domeggook.com/12345678?from=list", "12345678", true},
		{"<span>상품번호：55555</span>", "55555", true},
		{"https://domeggook.com/list?pageno=12345", "", false},
		{"https://domeggook.com/item?no=12", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ExtractProductNo(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func detailCandidate() models.SearchCandidate {
	return models.SearchCandidate{
		Name:             "스텐 텀블러",
		Price:            9900,
		ImageURL:         "https://cdn1.domeggook.com/upload/item/list.jpg",
		SourceURL:        "https://www.domeggook.com/12345678",
		Site:             SiteName,
		ProductNo:        models.StringPtr("12345678"),
		MinOrderQuantity: 1,
	}
}

func TestParseDetail(t *testing.T) {
	page := DetailPage{FullHTML: detailHTML}
	doc := mustDoc(t, detailHTML)
	page.ContainerHTML, _ = doc.Find(containerSelector).Html()
	page.HasContainer = true

	product, err := ParseDetail(page, detailCandidate())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://cdn1.domeggook.com/upload/item/thumb.jpg",
		"https://cdn1.domeggook.com/upload/detail/1.jpg",
		"https://cdn1.domeggook.com/upload/detail/2.jpg",
	}, product.DetailImages)
	assert.Equal(t, "https://cdn1.domeggook.com/upload/item/list.jpg", product.ImageURL)

	assert.NotContains(t, product.DetailHTML, "<script")
	assert.NotContains(t, product.DetailHTML, "<iframe")
	assert.NotContains(t, product.DetailHTML, "onclick")
	assert.NotContains(t, product.DetailHTML, "hidden.jpg")
	assert.NotContains(t, product.DetailHTML, "javascript:")
	assert.Contains(t, product.DetailHTML, `href="https://www.domeggook.com/shop/1"`)
	assert.Contains(t, product.DetailText, "첫 줄\n둘째 줄")
	assert.NotContains(t, product.DetailText, "alert")
	assert.NotContains(t, product.DetailText, "\n\n\n")
	assert.Equal(t, product.DetailText, product.Description)

	require.NotNil(t, product.ShippingCost)
	assert.Equal(t, 2500, *product.ShippingCost)
	assert.Equal(t, "2,500원", product.ShippingText)
	assert.Equal(t, 5, product.MinOrderQuantity)

	assert.Equal(t, models.SupplierInfo{
		Name:                   "주식회사 도매",
		Contact:                "02-1234-5678",
		Email:                  "shop@example.com",
		Address:                "[04524] 서울특별시 중구 세종대로 110",
		ZipCode:                "04524",
		BusinessRegistrationNo: "123-45-67890",
	}, product.Supplier)
	assert.Equal(t, "주식회사 도매", product.SupplierName)

	assert.Equal(t, []string{"텀블러", "보온병"}, product.Tags)
	assert.Equal(t, "상세설명 이미지 사용여부: 사용 가능", product.ImageUsageText)
	assert.Equal(t, models.ImageUsageAvailable, product.ImageUsageStatus)

	require.NotNil(t, product.ProductNo)
	assert.Equal(t, "12345678", *product.ProductNo)
	require.NotNil(t, product.OptionPopupURL)
	assert.Equal(t, PopupURL("12345678"), *product.OptionPopupURL)
	assert.Empty(t, product.Options)
}

func TestParseDetailKeepsKnownShipping(t *testing.T) {
	c := detailCandidate()
	c.ShippingCost = models.IntPtr(0)
	c.ShippingText = "무료배송"

	product, err := ParseDetail(DetailPage{FullHTML: detailHTML}, c)
	require.NoError(t, err)
	assert.Equal(t, 0, *product.ShippingCost)
	assert.Equal(t, "무료배송", product.ShippingText)
}

func TestParseDetailFallbacks(t *testing.T) {
	c := models.SearchCandidate{Name: placeholderName, SourceURL: "https://www.domeggook.com/777", Site: SiteName}
	product, err := ParseDetail(DetailPage{FullHTML: detailHTML}, c)
	require.NoError(t, err)

	assert.Equal(t, "스텐 텀블러 500ml", product.Name)
	assert.Equal(t, 9900, product.Price)
	assert.Equal(t, "https://cdn1.domeggook.com/upload/item/thumb.jpg", product.ImageURL)

	empty, err := ParseDetail(DetailPage{FullHTML: "<html><body></body></html>"}, c)
	require.NoError(t, err)
	assert.Equal(t, "DOMEGGOOK 소싱 상품", empty.Description)
	assert.Equal(t, DefaultShippingCost, *empty.ShippingCost)
	assert.Equal(t, "3,000원", empty.ShippingText)
	assert.Equal(t, models.ImageUsageUnknown, empty.ImageUsageStatus)
	assert.Nil(t, empty.ProductNo, "three digits is too short to be a product number")
}

func TestParseDetailImageCaps(t *testing.T) {
	c := detailCandidate()

	html := manyImagesDetail(true, 60)
	container, _ := mustDoc(t, html).Find(containerSelector).Html()
	product, err := ParseDetail(DetailPage{FullHTML: html, ContainerHTML: container, HasContainer: true}, c)
	require.NoError(t, err)
	assert.Len(t, product.DetailImages, MaxContainerImages)

	product, err = ParseDetail(DetailPage{FullHTML: manyImagesDetail(false, 60)}, c)
	require.NoError(t, err)
	assert.Len(t, product.DetailImages, MaxDocumentImages)
	for _, img := range product.DetailImages {
		assert.NotContains(t, img, "logo")
		assert.NotContains(t, img, "icon")
	}
}

func TestEnrichFetchesPopupOnce(t *testing.T) {
	c := detailCandidate()
	site := browsertest.NewSite().
		Page(c.SourceURL, detailHTML).
		Page(PopupURL("12345678"), optionTableHTML)
	adapter := newTestAdapter(site)

	product, err := adapter.Enrich(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, 1, site.Visits(PopupURL("12345678")))
	require.Len(t, product.Options, 1)
	assert.Equal(t, "색상", product.Options[0].Name)
	assert.Len(t, product.DetailImages, 3)
	assert.Equal(t, int64(0), site.OpenTabs())
}

func TestEnrichSkipsPopupWhenOptionsPresent(t *testing.T) {
	c := detailCandidate()
	html := strings.Replace(detailHTML, "</body>", `<div class="pSelectUIMenu"><button>S</button></div></body>`, 1)
	site := browsertest.NewSite().Page(c.SourceURL, html)
	adapter := newTestAdapter(site)

	product, err := adapter.Enrich(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 0, site.Visits(PopupURL("12345678")))
	assert.Equal(t, []string{"S"}, product.Options[0].Values)
}

func TestEnrichToleratesPopupFailure(t *testing.T) {
	c := detailCandidate()
	site := browsertest.NewSite().Page(c.SourceURL, detailHTML)
	adapter := newTestAdapter(site)

	product, err := adapter.Enrich(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 1, site.Visits(PopupURL("12345678")))
	assert.Empty(t, product.Options)
	assert.Equal(t, models.ImageUsageAvailable, product.ImageUsageStatus)
}

func TestEnrichUnreachablePage(t *testing.T) {
	c := detailCandidate()
	site := browsertest.NewSite().Fail(c.SourceURL, errors.New("net::ERR_CONNECTION_RESET"))
	adapter := newTestAdapter(site)

	product, err := adapter.Enrich(context.Background(), c)
	require.Error(t, err)
	assert.Equal(t, c, product.SearchCandidate)
	assert.Equal(t, models.ImageUsageUnknown, product.ImageUsageStatus)
	assert.Empty(t, product.DetailImages)
	assert.Equal(t, 0, site.Visits(PopupURL("12345678")))
}

func TestEnrichWithoutSourceURL(t *testing.T) {
	site := browsertest.NewSite()
	adapter := newTestAdapter(site)

	c := models.SearchCandidate{Name: "링크없음", Price: 1000, Site: SiteName}
	product, err := adapter.Enrich(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, c, product.SearchCandidate)
	assert.Equal(t, 0, site.TotalVisits())
}

func TestResolveOptions(t *testing.T) {
	tests := []struct {
		name string
		html string
		want []models.OptionGroup
	}{
		{
			name: "stock table",
			html: optionTableHTML,
			want: []models.OptionGroup{{Name: "색상", Type: optionTypeSelect, Values: []string{
				"블랙", "화이트 (+1,000원)", "레드 판매종료 (품절)", "블루 (품절)",
				"그레이", "네이비 (+500원)", "카키 (품절)",
			}}},
		},
		{
			name: "chips",
			html: optionChipsHTML,
			want: []models.OptionGroup{{Name: defaultOptionName, Type: optionTypeSelect, Values: []string{"S", "M", "L"}}},
		},
		{
			name: "legacy chips",
			html: optionLegacyChipsHTML,
			want: []models.OptionGroup{{Name: defaultOptionName, Type: optionTypeSelect, Values: []string{"소", "대"}}},
		},
		{
			name: "selects",
			html: optionSelectHTML,
			want: []models.OptionGroup{
				{Name: "색상", Type: optionTypeSelect, Values: []string{"빨강", "파랑"}},
				{Name: "size", Type: optionTypeSelect, Values: []string{"95", "100"}},
			},
		},
		{
			name: "radio and checkbox",
			html: optionRadioHTML,
			want: []models.OptionGroup{
				{Name: "pack", Type: optionTypeChoice, Values: []string{"1개입", "2개입"}},
				{Name: "gift", Type: optionTypeChoice, Values: []string{"포장"}},
			},
		},
		{
			name: "nothing",
			html: "<html><body><p>no options</p></body></html>",
			want: []models.OptionGroup{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveOptions(mustDoc(t, tt.html)))
		})
	}
}

func TestParseStock(t *testing.T) {
	tests := []struct {
		text  string
		want  int
		found bool
	}{
		{"120", 120, true},
		{"12개", 12, true},
		{" 1,200 개", 1200, true},
		{"0", 0, true},
		{"품절", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			n, ok := parseStock(tt.text)
			assert.Equal(t, tt.want, n)
			assert.Equal(t, tt.found, ok)
		})
	}
}

func TestResolveOptionsCapsValues(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<div class="pSelectUIMenu">`)
	for i := 0; i < 150; i++ {
		b.WriteString("<button>opt" + formatThousands(i) + "</button>")
	}
	b.WriteString("</div>")

	groups := ResolveOptions(mustDoc(t, b.String()))
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Values, MaxOptionValues)
}

func TestFetchPopupOptions(t *testing.T) {
	site := browsertest.NewSite().Page(PopupURL("55555"), optionChipsHTML)
	adapter := newTestAdapter(site)

	groups, err := adapter.FetchPopupOptions(context.Background(), "55555")
	require.NoError(t, err)
	assert.Equal(t, []string{"S", "M", "L"}, groups[0].Values)

	groups, err = adapter.FetchPopupOptions(context.Background(), "66666")
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestClassifyImageUsage(t *testing.T) {
	tests := []struct {
		text string
		want models.ImageUsageStatus
	}{
		{"상세설명 이미지 사용여부: 사용 가능", models.ImageUsageAvailable},
		{"이미지 제공됩니다", models.ImageUsageAvailable},
		{"이미지 사용 불가", models.ImageUsageUnavailable},
		{"이미지 제공 안됨", models.ImageUsageUnavailable},
		{"이미지 제공X", models.ImageUsageUnavailable},
		{"판매자에게 문의", models.ImageUsageReview},
		{"승인 후 사용", models.ImageUsageReview},
		{"해당없음", models.ImageUsageUnknown},
		{"", models.ImageUsageUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyImageUsage(tt.text))
		})
	}
}

func TestExtractImageUsageTextFallbacks(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"badge", `<div class="lInfoViewImgUse"> 이미지 사용 불가 </div>`, "이미지 사용 불가"},
		{"table header", `<table><tr><th>상세 이미지</th><td>협의 후 사용</td></tr></table>`, "상세 이미지: 협의 후 사용"},
		{"free text", `<p>본 상품의 이미지는 사용 가능합니다. 기타 안내.</p>`, "이미지는 사용 가능합니다"},
		{"none", `<p>안내 없음</p>`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractImageUsageText(mustDoc(t, tt.html)))
		})
	}
}
