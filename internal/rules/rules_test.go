package rules

import (
	"testing"

	"github.com/Veraticus/cardsort/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestProcessKeywordValidation(t *testing.T) {
	e := New(config.DefaultRules())

	tests := []struct {
		name       string
		merchant   string
		category   string
		wantCat    string
		wantKind   Kind
		confidence float64
		wantConf   float64
		applied    bool
	}{
		{
			name:     "low confidence rule override",
			merchant: "GS칼텍스 역삼",
			category: "기타", confidence: 0.5,
			wantCat: "차량유지비(주유)", wantConf: 0.8, applied: true, wantKind: KindKeywordOverride,
		},
		{
			name:     "confident model keeps its answer",
			merchant: "GS칼텍스 역삼",
			category: "소모품비", confidence: 0.7,
			wantCat: "소모품비", wantConf: 0.7,
		},
		{
			name:     "agreement boosts",
			merchant: "서울약국",
			category: "복리후생비(의료)", confidence: 0.6,
			wantCat: "복리후생비(의료)", wantConf: 0.7, applied: true, wantKind: KindKeywordBoost,
		},
		{
			name:     "boost capped at one",
			merchant: "서울약국",
			category: "복리후생비(의료)", confidence: 0.95,
			wantCat: "복리후생비(의료)", wantConf: 1.0, applied: true, wantKind: KindKeywordBoost,
		},
		{
			name:     "no keyword",
			merchant: "알수없는상점",
			category: "기타", confidence: 0.3,
			wantCat: "기타", wantConf: 0.3,
		},
		{
			name:     "priority keyword beats earlier table entries",
			merchant: "IC주유소",
			category: "기타", confidence: 0.2,
			wantCat: "차량유지비(주유)", wantConf: 0.8, applied: true, wantKind: KindKeywordOverride,
		},
		{
			name:     "case insensitive",
			merchant: "aws korea",
			category: "기타", confidence: 0.4,
			wantCat: "사용료", wantConf: 0.8, applied: true, wantKind: KindKeywordOverride,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := e.Process(tt.merchant, tt.category, tt.confidence, 0)

			assert.Equal(t, tt.wantCat, out.Category)
			assert.InDelta(t, tt.wantConf, out.Confidence, 1e-9)
			assert.Equal(t, tt.applied, out.Applied)
			assert.Equal(t, tt.wantKind, out.Kind)
			assert.Equal(t, tt.category, out.OriginalCategory)
		})
	}
}

func TestProcessAmountPatterns(t *testing.T) {
	e := New(config.DefaultRules())

	tests := []struct {
		name       string
		merchant   string
		category   string
		wantCat    string
		amount     int64
		confidence float64
		wantConf   float64
		wantKind   Kind
	}{
		{
			name:     "large fuel purchase overrides confident model",
			merchant: "셀프주유 강남", category: "기타", confidence: 0.9, amount: 80000,
			wantCat: "차량유지비(주유)", wantConf: 0.75, wantKind: KindAmountPattern,
		},
		{
			name:     "small cafe purchase",
			merchant: "동네카페", category: "소모품비", confidence: 0.95, amount: 6000,
			wantCat: "중식대", wantConf: 0.75, wantKind: KindAmountPattern,
		},
		{
			name:     "amount rule skipped when already that category",
			merchant: "동네카페", category: "중식대", confidence: 0.6, amount: 6000,
			wantCat: "중식대", wantConf: 0.7, wantKind: KindKeywordBoost,
		},
		{
			name:     "large cafe purchase left alone",
			merchant: "동네카페", category: "소모품비", confidence: 0.95, amount: 45000,
			wantCat: "소모품비", wantConf: 0.95,
		},
		{
			name:     "unknown amount",
			merchant: "동네카페", category: "소모품비", confidence: 0.95, amount: 0,
			wantCat: "소모품비", wantConf: 0.95,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := e.Process(tt.merchant, tt.category, tt.confidence, tt.amount)

			assert.Equal(t, tt.wantCat, out.Category)
			assert.InDelta(t, tt.wantConf, out.Confidence, 1e-9)
			assert.Equal(t, tt.wantKind, out.Kind)
		})
	}
}

func TestHints(t *testing.T) {
	e := New(config.DefaultRules())

	assert.Equal(t, []string{"차량유지비(주유)", "차량유지비(기타)"}, e.Hints("IC주유소 주차"))
	assert.Empty(t, e.Hints("무명"))
}

func TestCustomRules(t *testing.T) {
	cfg := config.DefaultRules()
	cfg.Keywords = []config.KeywordRule{{Category: "교육훈련비", Keywords: []string{" 학원 ", ""}}}
	cfg.OverrideBelow = 0.9
	e := New(cfg)

	out := e.Process("영어학원", "기타", 0.85, 0)
	assert.Equal(t, "교육훈련비", out.Category)
	assert.True(t, out.Applied)
}
