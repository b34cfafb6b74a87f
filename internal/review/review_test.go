package review

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/Veraticus/cardsort/internal/llm"
	"github.com/Veraticus/cardsort/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcClient struct {
	respond  func(req llm.Request) (string, error)
	requests []llm.Request
}

func (f *funcClient) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	f.requests = append(f.requests, req)
	text, err := f.respond(req)
	if err != nil {
		return llm.Response{}, err
	}
	return llm.Response{Text: text, Usage: llm.Usage{InputTokens: 100, OutputTokens: 20}}, nil
}

var promptID = regexp.MustCompile(`<transaction id="([^"]+)">`)

func idsIn(prompt string) []string {
	var ids []string
	for _, m := range promptID.FindAllStringSubmatch(prompt, -1) {
		ids = append(ids, m[1])
	}
	return ids
}

func reviewXMLBlock(id, decision, category, confidence, reason string) string {
	return fmt.Sprintf(`<review id="%s"><decision>%s</decision><final_category>%s</final_category><final_confidence>%s</final_confidence><reason>%s</reason></review>`,
		id, decision, category, confidence, reason)
}

func row(merchant string, result model.Result) model.Row {
	return model.Row{Transaction: model.NewTransaction(merchant, nil, 10000), Result: result}
}

func testConfig() Config {
	return Config{
		Threshold:  0.8,
		BatchSize:  10,
		CatchAll:   "기타",
		Model:      "claude-sonnet-4-5",
		MaxTokens:  4000,
		Categories: []string{"중식대", "기타", "교통비"},
	}
}

func TestSelected(t *testing.T) {
	r := New(&funcClient{}, testConfig(), nil)

	tests := []struct {
		name   string
		result model.Result
		want   bool
	}{
		{"exact", model.Exact("중식대"), false},
		{"low confidence", model.AIResult("중식대", 0.5, "x", false), true},
		{"at threshold", model.AIResult("중식대", 0.8, "x", false), false},
		{"unmatched", model.NoMatch(), true},
		{"catch-all", model.Exact("기타"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Selected(row("가게", tt.result)))
		})
	}
}

func TestReviewAppliesDecisions(t *testing.T) {
	rows := []model.Row{
		row("확실한식당", model.Exact("중식대")),
		row("애매한가게", model.AIResult("중식대", 0.5, "추측", false)),
		row("택시회사", model.AIResult("기타", 0.9, "추측", false)),
		row("모르는곳", model.NoMatch()),
	}

	client := &funcClient{respond: func(req llm.Request) (string, error) {
		ids := idsIn(req.Prompt)
		require.Len(t, ids, 3)
		return "<reviews>" +
			reviewXMLBlock(ids[0], "CONFIRM", "중식대", "0.9", "식당") +
			reviewXMLBlock(ids[1], "MODIFY", "교통비", "0.85", "택시") +
			reviewXMLBlock(ids[2], "REVIEW", "", "0.3", "판단 불가") +
			"</reviews>", nil
	}}
	r := New(client, testConfig(), nil)

	final := r.Review(context.Background(), rows)
	require.Len(t, final, 4)

	assert.Equal(t, model.StatusAutoConfirmed, final[0].Status)
	assert.Equal(t, "중식대", final[0].FinalCategory)
	assert.Equal(t, 1.0, final[0].FinalConfidence)

	assert.Equal(t, model.StatusAIConfirmed, final[1].Status)
	assert.Equal(t, "중식대", final[1].FinalCategory)
	assert.Equal(t, 0.5, final[1].FinalConfidence)
	assert.Equal(t, "식당", final[1].Reason)

	assert.Equal(t, model.StatusAIModified, final[2].Status)
	assert.Equal(t, "교통비", final[2].FinalCategory)
	assert.Equal(t, 0.85, final[2].FinalConfidence)

	assert.Equal(t, model.StatusNeedsHumanReview, final[3].Status)
	assert.Equal(t, "", final[3].FinalCategory)

	for i := range rows {
		assert.Equal(t, rows[i].ID, final[i].Row.ID)
	}

	require.Len(t, client.requests, 1)
	assert.Contains(t, client.requests[0].Prompt, "<merchant>애매한가게</merchant>")
	assert.Contains(t, client.requests[0].Prompt, "<source>미매칭</source>")
	assert.Equal(t, 1, r.Meter().Snapshot().Successes)
}

func TestReviewCorrelatesByID(t *testing.T) {
	rows := []model.Row{
		row("가게A", model.AIResult("중식대", 0.5, "", false)),
		row("가게B", model.AIResult("중식대", 0.5, "", false)),
	}
	client := &funcClient{respond: func(req llm.Request) (string, error) {
		ids := idsIn(req.Prompt)
		// Out of order, with an unknown id and a repeat.
		return reviewXMLBlock("does-not-exist", "MODIFY", "기타", "0.9", "무시") +
			reviewXMLBlock(ids[1], "MODIFY", "교통비", "0.9", "먼저") +
			reviewXMLBlock(ids[1], "MODIFY", "기타", "0.9", "나중"), nil
	}}
	r := New(client, testConfig(), nil)

	final := r.Review(context.Background(), rows)

	assert.Equal(t, model.StatusAutoConfirmed, final[0].Status)
	assert.Equal(t, "중식대", final[0].FinalCategory)
	assert.Equal(t, model.StatusAIModified, final[1].Status)
	assert.Equal(t, "교통비", final[1].FinalCategory)
	assert.Equal(t, "먼저", final[1].Reason)
}

func TestReviewRejectsUnknownCategory(t *testing.T) {
	rows := []model.Row{row("가게", model.AIResult("중식대", 0.5, "", false))}
	client := &funcClient{respond: func(req llm.Request) (string, error) {
		return reviewXMLBlock(idsIn(req.Prompt)[0], "MODIFY", "우주여행", "0.9", "엉뚱함"), nil
	}}
	r := New(client, testConfig(), nil)

	final := r.Review(context.Background(), rows)

	assert.Equal(t, model.StatusAutoConfirmed, final[0].Status)
	assert.Equal(t, "중식대", final[0].FinalCategory)
}

func TestReviewBatchFailure(t *testing.T) {
	rows := []model.Row{
		row("가게A", model.NoMatch()),
		row("가게B", model.AIResult("중식대", 0.4, "", false)),
	}
	client := &funcClient{respond: func(llm.Request) (string, error) {
		return "", &llm.StatusError{Provider: "openai", StatusCode: 429, Body: "slow down"}
	}}
	r := New(client, testConfig(), nil)

	final := r.Review(context.Background(), rows)

	for i, f := range final {
		assert.Equal(t, model.StatusAIConfirmed, f.Status)
		assert.Equal(t, rows[i].Result.Category(), f.FinalCategory)
		assert.Equal(t, "오류로 자동 확정(rate_limit)", f.Reason)
	}
	assert.Equal(t, 1, r.Meter().Snapshot().Failures)
}

func TestReviewBatches(t *testing.T) {
	var rows []model.Row
	for i := range 25 {
		rows = append(rows, row(fmt.Sprintf("가게%d", i), model.NoMatch()))
	}
	client := &funcClient{respond: func(req llm.Request) (string, error) {
		var b strings.Builder
		for _, id := range idsIn(req.Prompt) {
			b.WriteString(reviewXMLBlock(id, "CONFIRM", "", "0.5", "ok"))
		}
		return b.String(), nil
	}}
	r := New(client, testConfig(), nil)

	final := r.Review(context.Background(), rows)

	require.Len(t, client.requests, 3)
	assert.Len(t, idsIn(client.requests[0].Prompt), 10)
	assert.Len(t, idsIn(client.requests[2].Prompt), 5)
	for _, f := range final {
		assert.Equal(t, model.StatusAIConfirmed, f.Status)
	}
}

func TestReviewNothingSelected(t *testing.T) {
	client := &funcClient{respond: func(llm.Request) (string, error) {
		return "", errors.New("should not be called")
	}}
	r := New(client, testConfig(), nil)

	final := r.Review(context.Background(), []model.Row{row("가게", model.Exact("중식대"))})

	assert.Empty(t, client.requests)
	assert.Equal(t, model.StatusAutoConfirmed, final[0].Status)
}

func TestParseReviews(t *testing.T) {
	text := `설명 <reviews>
<review id="a"><decision>confirm</decision><final_category>중식대</final_category><final_confidence>1.7</final_confidence><reason> 좋음 </reason></review>
<review><decision>CONFIRM</decision></review>
<review id="b"><decision>MAYBE</decision></review>
<review id="c"><decision>MODIFY</decision><final_confidence>abc</final_confidence></review>
<review id='d'><decision>NEEDS_HUMAN_REVIEW</decision></review>
</reviews>`

	got := parseReviews(text)

	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].TransactionID)
	assert.Equal(t, model.DecisionConfirm, got[0].Decision)
	assert.Equal(t, 1.0, got[0].FinalConfidence)
	assert.Equal(t, "좋음", got[0].Reason)
	assert.Equal(t, "d", got[1].TransactionID)
	assert.Equal(t, model.DecisionNeedsHumanReview, got[1].Decision)
}
