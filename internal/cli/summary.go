package cli

import (
	"fmt"
	"strings"

	"github.com/Veraticus/cardsort/internal/engine"
	"github.com/Veraticus/cardsort/internal/feedback"
	"github.com/Veraticus/cardsort/internal/llm"
	"github.com/Veraticus/cardsort/internal/model"
)

var sourceOrder = []model.Source{
	model.SourceExact,
	model.SourceFuzzy,
	model.SourceNGram,
	model.SourceAI,
	model.SourceAIRule,
	model.SourceUnmatched,
}

// RenderSummary formats a classification run.
func RenderSummary(s engine.Summary) string {
	var b strings.Builder
	b.WriteString(line("전체 거래", fmt.Sprintf("%d건", s.Total)))
	b.WriteString(line("분류율", fmt.Sprintf("%.1f%%", s.MatchRate()*100)))
	b.WriteString("\n")

	for _, src := range sourceOrder {
		n := s.BySource[src]
		if n == 0 {
			continue
		}
		b.WriteString(line(src.String(), fmt.Sprintf("%d건 (%.1f%%)", n, percent(n, s.Total))))
	}

	if s.Total > s.Unmatched {
		b.WriteString("\n")
		b.WriteString(line("신뢰도 평균", fmt.Sprintf("%.3f", s.MeanConfidence)))
		b.WriteString(line("신뢰도 중앙값", fmt.Sprintf("%.3f", s.MedianConfidence)))
		b.WriteString(line("신뢰도 범위", fmt.Sprintf("%.2f ~ %.2f", s.MinConfidence, s.MaxConfidence)))
	}

	if len(s.TopCategories) > 0 {
		b.WriteString("\n" + SubtleStyle.Render("상위 사용용도") + "\n")
		for i, c := range s.TopCategories {
			b.WriteString(fmt.Sprintf("  %2d. %s %d건\n", i+1, c.Category, c.Count))
		}
	}

	if s.AI.Calls > 0 {
		b.WriteString("\n")
		b.WriteString(renderUsage(s.AI, s.CacheHits))
	}
	return RenderBox(ChartIcon+" 분류 결과", strings.TrimRight(b.String(), "\n"))
}

func renderUsage(u llm.Snapshot, cacheHits int) string {
	var b strings.Builder
	b.WriteString(line("AI 호출", fmt.Sprintf("%d회 (성공 %d, 실패 %d, 캐시 %d)", u.Calls, u.Successes, u.Failures, cacheHits)))
	b.WriteString(line("토큰", fmt.Sprintf("입력 %d / 출력 %d", u.InputTokens, u.OutputTokens)))
	b.WriteString(line("예상 비용", fmt.Sprintf("$%.4f (%s)", u.EstimatedCostUSD, u.Model)))
	return b.String()
}

// RenderReview formats the outcome of the review stage.
func RenderReview(rows []model.FinalRow, usage llm.Snapshot) string {
	counts := make(map[model.FinalStatus]int)
	for _, r := range rows {
		counts[r.Status]++
	}

	var b strings.Builder
	for _, st := range []model.FinalStatus{
		model.StatusAutoConfirmed,
		model.StatusAIConfirmed,
		model.StatusAIModified,
		model.StatusNeedsHumanReview,
	} {
		b.WriteString(line(st.String(), fmt.Sprintf("%d건", counts[st])))
	}
	if usage.Calls > 0 {
		b.WriteString("\n")
		b.WriteString(renderUsage(usage, 0))
	}
	return RenderBox("검토 결과", strings.TrimRight(b.String(), "\n"))
}

// RenderFeedback formats a feedback collection result.
func RenderFeedback(r feedback.Result, retrainDue bool) string {
	if r.Message != "" {
		return FormatWarning(r.Message)
	}

	var b strings.Builder
	b.WriteString(line("기록", fmt.Sprintf("%d건", r.Logged)))
	b.WriteString(line("신규 추가", fmt.Sprintf("%d건", r.NewEntries)))
	b.WriteString(line("업데이트", fmt.Sprintf("%d건", r.UpdatedEntries)))
	if r.BackupPath != "" {
		b.WriteString(line("백업", r.BackupPath))
	}
	for _, e := range r.Errors {
		b.WriteString(ErrorStyle.Render("  "+ErrorIcon+" "+e) + "\n")
	}
	if retrainDue {
		b.WriteString("\n" + FormatWarning("피드백이 충분히 쌓였습니다. 'cardsort retrain export'로 학습 데이터를 내보내세요."))
	}
	return RenderBox("피드백 반영", strings.TrimRight(b.String(), "\n"))
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
