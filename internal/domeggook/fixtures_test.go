package domeggook

import (
	"fmt"
	"strings"
)

const landingHTML = `<html><body>
<form id="searchForm"><input type="text" name="searchword" id="searchWord"></form>
</body></html>`

type listItem struct {
	no    int
	name  string
	price string
	thumb string
	qty   string
	deli  string
	nick  string
}

func listPage(items []listItem) string {
	var b strings.Builder
	b.WriteString(`<html><body><ol class="lItemList">`)
	for _, it := range items {
		fmt.Fprintf(&b, `<li>
  <a class="thumb" href="/%d"><img src="//cdn1.domeggook.com/spacer.gif" data-original="%s"></a>
  <a class="title" href="/main/item/itemView.php?no=%d">%s</a>
  <div class="amtqty amtQtyMargin"><div class="amt"><b>%s</b></div><span class="unitQty">%s</span><span class="infoDeli">%s</span></div>
  <div class="seller"><span class="nick"><a href="/shop?sf=id">%s</a></span></div>
</li>`, it.no, it.thumb, it.no, it.name, it.price, it.qty, it.deli, it.nick)
	}
	b.WriteString(`</ol></body></html>`)
	return b.String()
}

// pricedItems yields n items priced base, base+step, ...
func pricedItems(n, base, step int) []listItem {
	items := make([]listItem, n)
	for i := range items {
		items[i] = listItem{
			no:    100000 + i,
			name:  fmt.Sprintf("상품 %d", i),
			price: fmt.Sprintf("%s원", formatThousands(base+i*step)),
			thumb: fmt.Sprintf("upload/item/%d.jpg", i),
			qty:   "(최소 10개)",
			deli:  "택배 3,500원",
			nick:  "도매상점",
		}
	}
	return items
}

func formatThousands(n int) string {
	s := fmt.Sprint(n)
	var out []byte
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	return string(out)
}

const detailHTML = `<html>
<head>
<meta name="keywords" content="텀블러, 보온병 ,텀블러,  ">
<meta property="og:title" content="OG 텀블러">
</head>
<body>
<div id="lInfoHeader">상품번호 : 12345678</div>
<h1>스텐 텀블러 500ml</h1>
<img id="lThumbImg" src="//cdn1.domeggook.com/upload/item/thumb.jpg">
<div id="lBaseAmtVal">9,900</div>
<table class="lInfoViewTbl">
  <tr><th>배송비</th><td>택배 2,500원 (선결제)</td></tr>
  <tr><th>최소구매수량</th><td>5개 이상</td></tr>
  <tr><td class="lInfoViewSubTd1">상세설명 이미지 사용여부</td><td class="lInfoViewSubTd2">사용 가능</td></tr>
</table>
<table class="lTbl">
  <tr><th>판매자</th><td>주식회사 도매</td></tr>
  <tr><th>판매자 연락처</th><td>02-1234-5678</td></tr>
  <tr><th>이메일</th><td>shop@example.com</td></tr>
  <tr><th>사업장 소재지</th><td>[04524] 서울특별시 중구 세종대로 110</td></tr>
  <tr><th>사업자등록번호</th><td>123-45-67890</td></tr>
</table>
<div id="lInfoViewItemContents">
  <script>alert(1)</script>
  <style>.x{}</style>
  <p onclick="steal()">첫 줄<br>둘째 줄</p>
  <div style="display:none"><img src="/hidden.jpg"></div>
  <img data-original="/upload/detail/1.jpg" src="">
  <img src="https://cdn1.domeggook.com/upload/detail/2.jpg">
  <img src="/upload/detail/1.jpg">
  <a href="javascript:void(0)">bad</a>
  <a href="/shop/1">shop</a>
  <iframe src="https://ads.example.com"></iframe>
</div>
</body></html>`

func manyImagesDetail(container bool, n int) string {
	var imgs strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&imgs, `<img src="/upload/detail/%d.jpg">`, i)
	}
	if container {
		return `<html><body><div id="lThumbImg-missing"></div><div id="lInfoViewItemContents">` + imgs.String() + `</div></body></html>`
	}
	return `<html><body><img src="/img/logo.png"><img src="/img/icon_cart.gif">` + imgs.String() + `</body></html>`
}

const optionTableHTML = `<html><body>
<table id="itemOptAllViewTable">
<thead><tr><th>번호</th><th>색상</th><th>가격</th><th>재고</th></tr></thead>
<tbody>
<tr><td>1</td><td>블랙</td><td>9,900원</td><td>120</td></tr>
<tr><td>2</td><td>화이트</td><td>10,900원 (+1,000원)</td><td>3</td></tr>
<tr><td>3</td><td>레드 판매종료</td><td>9,900원</td><td>10</td></tr>
<tr><td>4</td><td>블루</td><td>9,900원</td><td>0</td></tr>
<tr><td>5</td><td>그레이</td><td>9,900원</td><td>12개</td></tr>
<tr><td>6</td><td>네이비</td><td>10,400원 (+500원)</td><td> 1,200 개</td></tr>
<tr><td>7</td><td>카키</td><td>9,900원</td><td>품절</td></tr>
<tr><td>short</td><td>row</td></tr>
</tbody>
</table>
<select name="op1"><option>선택하세요</option><option>무시됨</option></select>
</body></html>`

const optionChipsHTML = `<html><body>
<div class="pSelectUIMenu"><button>S</button><button>M</button><button>M</button><button>L</button></div>
</body></html>`

const optionLegacyChipsHTML = `<html><body>
<ul class="pSelectUIMenu"><li>소</li><li>대</li></ul>
</body></html>`

const optionSelectHTML = `<html><body>
<label for="color">색상</label>
<select id="color" name="op1"><option value="">-- 선택 --</option><option>빨강</option><option>파랑</option></select>
<select name="size"><option>옵션선택</option><option>95</option><option>100</option></select>
<select name="empty"><option>선택</option></select>
</body></html>`

const optionRadioHTML = `<html><body>
<input type="radio" name="pack" id="p1" value="1"><label for="p1">1개입</label>
<label><input type="radio" name="pack" value="2">2개입</label>
<input type="checkbox" name="gift" value="포장">
</body></html>`
