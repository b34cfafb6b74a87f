// Package config holds the classifier's tunables and loads them from viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrInvalidConfig is returned by Validate for out-of-range settings.
var ErrInvalidConfig = errors.New("invalid configuration")

// Settings is the full configuration of a classifier run.
type Settings struct {
	Paths     Paths
	LLM       LLM
	Review    Review
	Normalize Normalize
	Rules     Rules
	Matching  Matching
	Feedback  Feedback
}

// Paths locates the on-disk artifacts.
type Paths struct {
	MasterDB  string
	Ledger    string
	BackupDir string
	OutputDir string
}

// Matching tunes the deterministic cascade.
type Matching struct {
	FuzzyThreshold float64
	NGramThreshold float64
	NGramSize      int
}

// Synonym rewrites one merchant spelling into its canonical form.
type Synonym struct {
	From string `mapstructure:"from"`
	To   string `mapstructure:"to"`
}

// Normalize configures merchant name normalization.
type Normalize struct {
	Synonyms []Synonym
}

// KeywordRule associates a category with the merchant substrings that imply it.
type KeywordRule struct {
	Category string   `mapstructure:"category"`
	Keywords []string `mapstructure:"keywords"`
}

// Rules configures the post-processor applied to model predictions.
type Rules struct {
	PriorityKeyword    string
	PriorityCategory   string
	FuelMarker         string
	MealCategory       string
	Keywords           []KeywordRule
	MealMarkers        []string
	BoostStep          float64
	OverrideBelow      float64
	OverrideConfidence float64
	AmountConfidence   float64
	FuelMinAmount      int64
	MealMaxAmount      int64
}

// LLM configures the fallback classifier.
type LLM struct {
	Provider          string
	Model             string
	APIKey            string
	BaseURL           string
	ClaudeCodePath    string
	FewShotStrategy   string
	Sentinel          string
	Taxonomy          []string
	Temperature       float64
	Timeout           time.Duration
	MaxTokens         int
	RequestsPerMinute int
	FewShotCount      int
	Enabled           bool
}

// Review configures the batch review stage.
type Review struct {
	Model       string
	CatchAll    string
	Threshold   float64
	Temperature float64
	BatchSize   int
	MaxTokens   int
}

// Feedback configures the learning loop.
type Feedback struct {
	RetrainThreshold int
	TrainRatio       float64
	Seed             int64
}

// Default returns the settings used when nothing is configured.
func Default() Settings {
	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".local", "share", "cardsort")

	return Settings{
		Paths: Paths{
			MasterDB:  filepath.Join(dataDir, "master_db.csv"),
			Ledger:    filepath.Join(dataDir, "ledger.db"),
			BackupDir: filepath.Join(dataDir, "backups"),
			OutputDir: ".",
		},
		Matching: Matching{
			FuzzyThreshold: 0.85,
			NGramSize:      3,
			NGramThreshold: 0.6,
		},
		Normalize: Normalize{
			Synonyms: DefaultSynonyms(),
		},
		Rules: DefaultRules(),
		LLM: LLM{
			Enabled:           false,
			Provider:          "anthropic",
			Model:             "claude-sonnet-4-5",
			MaxTokens:         1000,
			Temperature:       0.2,
			Timeout:           60 * time.Second,
			RequestsPerMinute: 50,
			FewShotCount:      5,
			FewShotStrategy:   "diverse",
			Taxonomy:          DefaultTaxonomy(),
			Sentinel:          "미분류",
		},
		Review: Review{
			Threshold:   0.8,
			BatchSize:   10,
			CatchAll:    "기타",
			MaxTokens:   4000,
			Temperature: 0.1,
		},
		Feedback: Feedback{
			RetrainThreshold: 50,
			TrainRatio:       0.7,
			Seed:             42,
		},
	}
}

// DefaultTaxonomy lists the expense categories the model may choose from.
func DefaultTaxonomy() []string {
	return []string{
		"차량유지비(주유)",
		"차량유지비(기타)",
		"중식대",
		"사용료",
		"복리후생비(의료)",
		"소모품비",
		"수수료",
		"세금",
		"기타",
	}
}

// DefaultSynonyms returns the built-in spelling table, applied in order.
func DefaultSynonyms() []Synonym {
	return []Synonym{
		{From: "써브웨이", To: "서브웨이"},
		{From: "오일 뱅크", To: "오일뱅크"},
		{From: "GS 칼텍스", To: "GS칼텍스"},
		{From: "에스케이", To: "SK"},
		{From: "에스오일", To: "S-OIL"},
	}
}

// DefaultRules returns the built-in keyword and amount rules.
func DefaultRules() Rules {
	return Rules{
		PriorityKeyword:  "주유소",
		PriorityCategory: "차량유지비(주유)",
		Keywords: []KeywordRule{
			{Category: "차량유지비(주유)", Keywords: []string{
				"주유소", "GS칼텍스", "S-OIL", "오일뱅크", "SK에너지",
				"현대오일", "효창에너지", "셀프주유", "경유", "휘발유",
				"칼텍스", "에너지", "오일", "주유",
			}},
			{Category: "차량유지비(기타)", Keywords: []string{
				"하이패스", "톨게이트", "IC주유소", "주차", "세차",
				"자동차정비", "자동차검사", "타이어", "통행", "파킹", "주차장",
			}},
			{Category: "중식대", Keywords: []string{
				"맥도날드", "롯데리아", "버거킹", "써브웨이", "서브웨이",
				"스타벅스", "이디야", "커피", "카페", "식당", "반점",
				"중화요리", "순대국", "설렁탕", "본죽", "김밥",
				"떡볶이", "라면", "국수", "밥", "돈까스", "치킨",
			}},
			{Category: "사용료", Keywords: []string{
				"한글과컴퓨터", "Microsoft", "Adobe", "오피스365",
				"AWS", "클라우드", "자동결제", "휴대폰", "메시지",
				"구독", "정기결제",
			}},
			{Category: "복리후생비(의료)", Keywords: []string{"약국", "병원", "의원", "한의원", "치과", "의료"}},
			{Category: "소모품비", Keywords: []string{
				"다이소", "문구", "토너", "잉크", "복사용지",
				"쿠팡", "이마트", "홈플러스", "비품", "사무용품",
			}},
			{Category: "수수료", Keywords: []string{"보증보험", "기술보증기금", "법원", "우체국", "수수료", "보증료"}},
			{Category: "세금", Keywords: []string{"국세", "부가가치세", "법인세", "지방세", "자동차세", "재산세", "세금"}},
		},
		BoostStep:          0.1,
		OverrideBelow:      0.7,
		OverrideConfidence: 0.8,
		AmountConfidence:   0.75,
		FuelMarker:         "주유",
		FuelMinAmount:      50000,
		MealCategory:       "중식대",
		MealMarkers:        []string{"식당", "카페", "커피"},
		MealMaxAmount:      30000,
	}
}

// Validate reports the first setting that is out of range.
func (s Settings) Validate() error {
	checks := []struct {
		ok   bool
		what string
	}{
		{inUnit(s.Matching.FuzzyThreshold), "matching.fuzzy_threshold must be within [0, 1]"},
		{inUnit(s.Matching.NGramThreshold), "matching.ngram_threshold must be within [0, 1]"},
		{s.Matching.NGramSize > 0, "matching.ngram_size must be positive"},
		{inUnit(s.Review.Threshold), "review.threshold must be within [0, 1]"},
		{s.Review.BatchSize > 0, "review.batch_size must be positive"},
		{s.LLM.MaxTokens > 0, "llm.max_tokens must be positive"},
		{s.LLM.FewShotCount >= 0, "llm.few_shot_count must not be negative"},
		{s.LLM.Sentinel != "", "llm.sentinel must not be empty"},
		{len(s.LLM.Taxonomy) > 0, "llm.taxonomy must not be empty"},
		{s.LLM.Temperature >= 0 && s.LLM.Temperature <= 1, "llm.temperature must be within [0, 1]"},
		{s.Feedback.RetrainThreshold > 0, "feedback.retrain_threshold must be positive"},
		{s.Feedback.TrainRatio > 0 && s.Feedback.TrainRatio < 1, "feedback.train_ratio must be within (0, 1)"},
		{s.Paths.MasterDB != "", "paths.master_db must be set"},
	}
	for _, c := range checks {
		if !c.ok {
			return fmt.Errorf("%w: %s", ErrInvalidConfig, c.what)
		}
	}
	for _, syn := range s.Normalize.Synonyms {
		if syn.From == "" {
			return fmt.Errorf("%w: synonym with empty source spelling", ErrInvalidConfig)
		}
	}
	for _, kr := range s.Rules.Keywords {
		if kr.Category == "" {
			return fmt.Errorf("%w: keyword rule without category", ErrInvalidConfig)
		}
	}
	return nil
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}

// ExpandPath resolves a leading ~ and $VAR references.
func ExpandPath(path string) string {
	switch {
	case path == "~":
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	case strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return os.ExpandEnv(path)
}
