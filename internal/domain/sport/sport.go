package sport

import (
	"net/url"
	"strings"
)

// categories は選択可能な競技カテゴリ（表示順）
var categories = []string{
	"Football",
	"Basketball",
	"Tennis",
	"Volleyball",
	"Badminton",
	"Running",
	"Cycling",
	"Yoga",
	"Hiking",
	"Swimming",
	"Cricket",
	"Table Tennis",
}

// imageExtensions は競技スラッグごとの画像拡張子
// 未登録の競技はプレースホルダー画像にフォールバックする
var imageExtensions = map[string]string{
	"badminton":  "jpg",
	"basketball": "png",
	"cycling":    "jpg",
	"football":   "png",
	"hiking":     "jpg",
	"running":    "jpg",
	"swimming":   "jpg",
	"tennis":     "jpg",
	"volleyball": "jpeg",
	"yoga":       "jpg",
}

const (
	imageBasePath      = "/images/event-categories/"
	placeholderBaseURL = "https://placehold.co/1200x400.png?text="
	defaultPlaceholder = "Event"
)

// Image はイベントのヒーロー画像参照
type Image struct {
	Path        string
	Placeholder string
}

// Categories は競技カテゴリ一覧のコピーを返す
func Categories() []string {
	out := make([]string, len(categories))
	copy(out, categories)
	return out
}

// IsValid は競技カテゴリが定義済みかを返す
func IsValid(category string) bool {
	for _, c := range categories {
		if c == category {
			return true
		}
	}
	return false
}

// Slug は競技名をパス用のスラッグに変換する
func Slug(category string) string {
	return strings.Join(strings.Fields(strings.ToLower(category)), "-")
}

// ImageFor は競技カテゴリに対応する画像を返す
func ImageFor(category string) Image {
	if strings.TrimSpace(category) == "" {
		return Image{
			Path:        placeholderBaseURL + url.QueryEscape(defaultPlaceholder),
			Placeholder: defaultPlaceholder,
		}
	}
	slug := Slug(category)
	if ext, ok := imageExtensions[slug]; ok {
		return Image{
			Path:        imageBasePath + slug + "." + ext,
			Placeholder: category,
		}
	}
	return Image{
		Path:        placeholderBaseURL + url.PathEscape(category),
		Placeholder: category,
	}
}
