package llm

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/cardsort/internal/model"
)

var categoryGuides = map[string]string{
	"차량유지비(주유)": "주유소 결제: GS칼텍스, S-OIL, 오일뱅크, SK에너지, 현대오일, 셀프주유, 경유, 휘발유",
	"차량유지비(기타)": "통행료, 주차, 세차, 정비: 하이패스, 톨게이트, 주차장, 파킹, 자동차정비, 타이어",
	"중식대":       "음식점, 패스트푸드, 카페, 편의점 식품 구매",
	"사용료":       "소프트웨어, 클라우드, 통신, 자동결제 서비스: 한글과컴퓨터, Microsoft, Adobe, AWS",
	"복리후생비(의료)": "병원, 의원, 한의원, 치과, 약국",
	"소모품비":      "문구, 사무용품, 토너, 잉크, 복사용지, 온라인쇼핑 소모품: 다이소, 쿠팡",
	"수수료":       "금융, 법무, 우편 수수료: 보증보험, 기술보증기금, 법원, 등기소, 우체국",
	"세금":        "국세와 지방세: 부가가치세, 법인세, 자동차세, 재산세",
	"기타":        "위 카테고리에 명확히 해당하지 않거나 판단이 어려운 경우",
}

// SystemPrompt describes the taxonomy and the required <prediction> format.
func SystemPrompt(taxonomy []string) string {
	var b strings.Builder
	b.WriteString("당신은 법인카드 거래내역의 사용용도를 분류하는 전문가입니다.\n\n")
	b.WriteString("<role>\n가맹점명, 승인일자, 이용금액을 분석하여 사내 분류 체계에 따라 사용용도를 예측합니다.\n</role>\n\n")

	b.WriteString("<classification_system>\n")
	for i, cat := range taxonomy {
		fmt.Fprintf(&b, "%d. %s\n", i+1, cat)
		if guide, ok := categoryGuides[cat]; ok {
			fmt.Fprintf(&b, "   - %s\n", guide)
		}
	}
	b.WriteString("</classification_system>\n\n")

	b.WriteString("<guidelines>\n")
	b.WriteString("1. 가맹점명의 핵심 키워드를 식별하세요\n")
	b.WriteString("2. 업종이 불명확하면 금액과 일자를 참고하세요\n")
	b.WriteString("3. 예시는 참고하되 의미를 우선하세요\n")
	b.WriteString("4. 확신이 없으면 낮은 신뢰도를 부여하세요\n")
	b.WriteString("5. 반드시 위 카테고리 중 하나를 선택하세요 (새 카테고리 생성 금지)\n")
	b.WriteString("</guidelines>\n\n")

	b.WriteString("<output_requirements>\n반드시 다음 XML 형식으로만 응답하세요:\n\n")
	b.WriteString("<prediction>\n  <category>사용용도 카테고리</category>\n")
	b.WriteString("  <confidence>0.0~1.0 사이의 신뢰도 (소수점 2자리)</confidence>\n")
	b.WriteString("  <reasoning>예측 근거 1-2문장</reasoning>\n</prediction>\n")
	b.WriteString("</output_requirements>\n")
	return b.String()
}

// UserPrompt renders the few-shot examples and the transaction to classify.
func UserPrompt(merchant string, examples []model.ReferenceEntry, c *Context) string {
	var b strings.Builder

	b.WriteString("<examples>\n")
	for _, ex := range examples {
		fmt.Fprintf(&b, "<example>\n  <merchant>%s</merchant>\n  <category>%s</category>\n</example>\n",
			escape(ex.Merchant), escape(ex.Category))
	}
	b.WriteString("</examples>\n\n")

	date, amount := "", ""
	var hints []string
	if c != nil {
		if c.Date != nil {
			date = c.Date.Format("2006-01-02")
		}
		if c.Amount > 0 {
			amount = strconv.FormatInt(c.Amount, 10) + "원"
		}
		hints = c.Hints
	}

	b.WriteString("<task>\n다음 법인카드 거래의 사용용도를 예측해주세요:\n\n")
	fmt.Fprintf(&b, "<transaction>\n  <merchant>%s</merchant>\n  <date>%s</date>\n  <amount>%s</amount>\n</transaction>\n",
		escape(merchant), escape(date), escape(amount))
	if len(hints) > 0 {
		fmt.Fprintf(&b, "\n키워드 규칙 후보: %s\n", escape(strings.Join(hints, ", ")))
	}
	b.WriteString("</task>\n")
	return b.String()
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
