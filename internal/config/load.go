package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Load overlays the values present in v on top of Default and validates the result.
// API keys fall back to the provider's conventional environment variable.
func Load(v *viper.Viper) (Settings, error) {
	s := Default()

	setString(v, "paths.master_db", &s.Paths.MasterDB)
	setString(v, "paths.ledger", &s.Paths.Ledger)
	setString(v, "paths.backup_dir", &s.Paths.BackupDir)
	setString(v, "paths.output_dir", &s.Paths.OutputDir)
	s.Paths.MasterDB = ExpandPath(s.Paths.MasterDB)
	s.Paths.Ledger = ExpandPath(s.Paths.Ledger)
	s.Paths.BackupDir = ExpandPath(s.Paths.BackupDir)
	s.Paths.OutputDir = ExpandPath(s.Paths.OutputDir)

	setFloat(v, "matching.fuzzy_threshold", &s.Matching.FuzzyThreshold)
	setFloat(v, "matching.ngram_threshold", &s.Matching.NGramThreshold)
	setInt(v, "matching.ngram_size", &s.Matching.NGramSize)

	if v.IsSet("normalize.synonyms") {
		var synonyms []Synonym
		if err := v.UnmarshalKey("normalize.synonyms", &synonyms); err != nil {
			return Settings{}, fmt.Errorf("failed to parse normalize.synonyms: %w", err)
		}
		s.Normalize.Synonyms = synonyms
	}

	if v.IsSet("rules.keywords") {
		var keywords []KeywordRule
		if err := v.UnmarshalKey("rules.keywords", &keywords); err != nil {
			return Settings{}, fmt.Errorf("failed to parse rules.keywords: %w", err)
		}
		s.Rules.Keywords = keywords
	}
	setString(v, "rules.priority_keyword", &s.Rules.PriorityKeyword)
	setString(v, "rules.priority_category", &s.Rules.PriorityCategory)
	setFloat(v, "rules.boost_step", &s.Rules.BoostStep)
	setFloat(v, "rules.override_below", &s.Rules.OverrideBelow)
	setFloat(v, "rules.override_confidence", &s.Rules.OverrideConfidence)
	setFloat(v, "rules.amount_confidence", &s.Rules.AmountConfidence)
	if v.IsSet("rules.fuel_min_amount") {
		s.Rules.FuelMinAmount = v.GetInt64("rules.fuel_min_amount")
	}
	if v.IsSet("rules.meal_max_amount") {
		s.Rules.MealMaxAmount = v.GetInt64("rules.meal_max_amount")
	}
	if v.IsSet("rules.meal_markers") {
		s.Rules.MealMarkers = v.GetStringSlice("rules.meal_markers")
	}

	if v.IsSet("llm.enabled") {
		s.LLM.Enabled = v.GetBool("llm.enabled")
	}
	setString(v, "llm.provider", &s.LLM.Provider)
	setString(v, "llm.model", &s.LLM.Model)
	setString(v, "llm.api_key", &s.LLM.APIKey)
	setString(v, "llm.base_url", &s.LLM.BaseURL)
	setString(v, "llm.claude_code_path", &s.LLM.ClaudeCodePath)
	setString(v, "llm.few_shot_strategy", &s.LLM.FewShotStrategy)
	setString(v, "llm.sentinel", &s.LLM.Sentinel)
	setFloat(v, "llm.temperature", &s.LLM.Temperature)
	setInt(v, "llm.max_tokens", &s.LLM.MaxTokens)
	setInt(v, "llm.requests_per_minute", &s.LLM.RequestsPerMinute)
	setInt(v, "llm.few_shot_count", &s.LLM.FewShotCount)
	if v.IsSet("llm.timeout") {
		s.LLM.Timeout = v.GetDuration("llm.timeout")
	}
	if v.IsSet("llm.taxonomy") {
		s.LLM.Taxonomy = v.GetStringSlice("llm.taxonomy")
	}
	if s.LLM.APIKey == "" {
		s.LLM.APIKey = apiKeyFromEnv(s.LLM.Provider)
	}

	setString(v, "review.model", &s.Review.Model)
	setString(v, "review.catch_all", &s.Review.CatchAll)
	setFloat(v, "review.threshold", &s.Review.Threshold)
	setFloat(v, "review.temperature", &s.Review.Temperature)
	setInt(v, "review.batch_size", &s.Review.BatchSize)
	setInt(v, "review.max_tokens", &s.Review.MaxTokens)
	if s.Review.Model == "" {
		s.Review.Model = s.LLM.Model
	}

	setInt(v, "feedback.retrain_threshold", &s.Feedback.RetrainThreshold)
	setFloat(v, "feedback.train_ratio", &s.Feedback.TrainRatio)
	if v.IsSet("feedback.seed") {
		s.Feedback.Seed = v.GetInt64("feedback.seed")
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func apiKeyFromEnv(provider string) string {
	switch provider {
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	default:
		return ""
	}
}

func setString(v *viper.Viper, key string, dst *string) {
	if v.IsSet(key) {
		*dst = v.GetString(key)
	}
}

func setFloat(v *viper.Viper, key string, dst *float64) {
	if v.IsSet(key) {
		*dst = v.GetFloat64(key)
	}
}

func setInt(v *viper.Viper, key string, dst *int) {
	if v.IsSet(key) {
		*dst = v.GetInt(key)
	}
}
