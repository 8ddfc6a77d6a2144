package application

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sanosuguru/sportup/internal/domain/suggestion"
	"github.com/sanosuguru/sportup/internal/pkg/logger"
	"github.com/sanosuguru/sportup/internal/pkg/metrics"
)

type SuggestionService struct {
	generator ContentGenerator
}

// NewSuggestionService はSuggestionServiceを作成する
// generator が nil の場合、提案は常に suggestion.ErrUnavailable を返す
func NewSuggestionService(generator ContentGenerator) *SuggestionService {
	return &SuggestionService{generator: generator}
}

// SuggestLocation は条件からイベント会場を提案する
func (s *SuggestionService) SuggestLocation(ctx context.Context, input suggestion.Input) (*suggestion.LocationSuggestion, error) {
	if err := input.Validate(); err != nil {
		metrics.Get().ObserveSuggestion("invalid")
		return nil, err
	}
	if s.generator == nil {
		metrics.Get().ObserveSuggestion("unavailable")
		return nil, suggestion.ErrUnavailable
	}

	prompt, err := suggestion.BuildPrompt(input)
	if err != nil {
		return nil, fmt.Errorf("プロンプトの生成に失敗しました: %w", err)
	}

	var out suggestion.LocationSuggestion
	if err := s.generator.GenerateJSON(ctx, prompt, &out); err != nil {
		metrics.Get().ObserveSuggestion("error")
		logger.Warn("会場提案の取得エラー", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", suggestion.ErrUnavailable, err)
	}
	if err := out.Validate(); err != nil {
		metrics.Get().ObserveSuggestion("empty")
		return nil, fmt.Errorf("%w: %w", suggestion.ErrUnavailable, err)
	}

	metrics.Get().ObserveSuggestion("success")
	return &out, nil
}
