package review

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/cardsort/internal/model"
)

const systemPrompt = `당신은 법인카드 사용용도 분류 결과를 검토하고 최종 확정하는 전문가입니다.

<role>
자동 분류 결과를 검토하여 낮은 신뢰도 거래의 분류 적절성을 평가하고,
의심스러운 분류를 수정하거나 수동 검토 필요 여부를 결정합니다.
</role>

<review_criteria>
1. 가맹점명과 사용용도의 일치성
2. 신뢰도와 실제 분류 정확성의 일관성
3. 규칙 엔진과 AI 예측 간 충돌
4. 비정상 패턴 (금액 0원, 결측값 등)
</review_criteria>

<decision_types>
- CONFIRM: 분류가 적절함, 확정
- MODIFY: 분류 수정 필요, 새로운 카테고리 제안
- REVIEW: 수동 검토 필요 (판단 어려움)
</decision_types>

<output_format>
각 거래마다 transaction의 id를 그대로 사용하여 다음 형식으로 응답하고, 전체를 <reviews> 태그로 감싸세요:

<review id="거래 id">
  <decision>CONFIRM|MODIFY|REVIEW</decision>
  <final_category>최종 사용용도</final_category>
  <final_confidence>0.0~1.0</final_confidence>
  <reason>결정 근거 (1-2문장)</reason>
</review>
</output_format>
`

func userPrompt(rows []model.Row, categories []string) string {
	var b strings.Builder
	b.WriteString("다음 거래들의 분류 결과를 검토하고, 각 거래에 대해 결정을 내려주세요:\n\n<transactions>\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "<transaction id=\"%s\">\n", escape(r.ID))
		fmt.Fprintf(&b, "  <merchant>%s</merchant>\n", escape(r.RawMerchant))
		fmt.Fprintf(&b, "  <predicted_category>%s</predicted_category>\n", escape(r.Result.Category()))
		fmt.Fprintf(&b, "  <confidence>%s</confidence>\n", strconv.FormatFloat(r.Result.Confidence(), 'f', 2, 64))
		fmt.Fprintf(&b, "  <source>%s</source>\n", escape(r.Result.Source().String()))
		fmt.Fprintf(&b, "  <date>%s</date>\n", escape(r.DateString()))
		fmt.Fprintf(&b, "  <amount>%d</amount>\n", r.Amount)
		b.WriteString("</transaction>\n")
	}
	b.WriteString("</transactions>\n")
	if len(categories) > 0 {
		fmt.Fprintf(&b, "\nMODIFY 시 사용 가능한 카테고리: %s\n", escape(strings.Join(categories, ", ")))
	}
	b.WriteString("\n각 거래(id 포함)에 대해 <review> 형식으로 응답하고, 모두 <reviews> 태그로 감싸주세요.\n")
	return b.String()
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
