package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/cardsort/internal/common"
	"github.com/Veraticus/cardsort/internal/config"
	"github.com/Veraticus/cardsort/internal/ledger"
	"github.com/Veraticus/cardsort/internal/llm"
	"github.com/Veraticus/cardsort/internal/normalize"
	"github.com/Veraticus/cardsort/internal/store"
	"github.com/spf13/viper"
)

func loadSettings() (config.Settings, error) {
	s, err := config.Load(viper.GetViper())
	if err != nil {
		return config.Settings{}, common.NewUserError("설정이 올바르지 않습니다", err)
	}
	return s, nil
}

func loadStore(s config.Settings, n *normalize.Normalizer) (*store.Store, error) {
	ref, err := store.Load(s.Paths.MasterDB, n, slog.Default())
	if errors.Is(err, store.ErrNotFound) {
		return nil, common.NewUserError(
			fmt.Sprintf("기준 DB(%s)가 없습니다. paths.master_db를 설정하세요", s.Paths.MasterDB), err)
	}
	if err != nil {
		return nil, common.NewUserError("기준 DB를 읽을 수 없습니다", err)
	}
	return ref, nil
}

func openLedger(ctx context.Context, s config.Settings) (*ledger.Ledger, func(), error) {
	l, err := ledger.Open(ctx, s.Paths.Ledger, slog.Default())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	return l, func() {
		if err := l.Close(); err != nil {
			slog.Error("Failed to close ledger", "error", err)
		}
	}, nil
}

func newClient(s config.LLM, model string) (llm.Client, error) {
	if s.APIKey == "" && s.Provider != "claudecode" {
		return nil, common.NewUserError(
			"API 키가 없습니다. ANTHROPIC_API_KEY 또는 OPENAI_API_KEY를 설정하세요", common.ErrMissingConfig)
	}
	client, err := llm.NewClient(llm.Config{
		Provider:       s.Provider,
		APIKey:         s.APIKey,
		Model:          model,
		BaseURL:        s.BaseURL,
		ClaudeCodePath: s.ClaudeCodePath,
		Timeout:        s.Timeout,
		RateLimit:      s.RequestsPerMinute,
	})
	if err != nil {
		return nil, common.NewUserError("LLM 클라이언트를 만들 수 없습니다", err)
	}
	return client, nil
}
