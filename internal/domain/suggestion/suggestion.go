package suggestion

import (
	"errors"
	"strings"
)

var (
	ErrInputRequired = errors.New("提案に必要な項目が入力されていません")
	ErrUnavailable   = errors.New("提案サービスは利用できません")
	ErrEmptyResponse = errors.New("提案サービスから有効な応答がありませんでした")
)

// Input は会場提案のリクエスト
type Input struct {
	UserPreferences          string
	SportsCategory           string
	City                     string
	AreaPreferences          string
	GeographicalDistribution string
}

// Validate は全項目が入力されているかを検証する
func (in Input) Validate() error {
	fields := []string{
		in.UserPreferences,
		in.SportsCategory,
		in.City,
		in.AreaPreferences,
		in.GeographicalDistribution,
	}
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			return ErrInputRequired
		}
	}
	return nil
}

// LocationSuggestion は提案結果
type LocationSuggestion struct {
	SuggestedLocation string `json:"suggestedLocation"`
	Reasoning         string `json:"reasoning"`
}

// Validate は応答が空でないかを検証する
func (s *LocationSuggestion) Validate() error {
	if s == nil || strings.TrimSpace(s.SuggestedLocation) == "" {
		return ErrEmptyResponse
	}
	return nil
}
