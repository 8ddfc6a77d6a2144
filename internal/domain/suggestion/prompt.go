package suggestion

import (
	"strings"
	"text/template"
)

var locationPrompt = template.Must(template.New("location").Parse(
	`You are an AI assistant specialized in suggesting optimal locations for sports events.

Based on the user's preferences, the sports category, the city where the event will be held, preferred areas within the city, and the geographical distribution of potential participants, suggest the best location for the event.

User Preferences: {{.UserPreferences}}
Sports Category: {{.SportsCategory}}
City: {{.City}}
Area Preferences: {{.AreaPreferences}}
Geographical Distribution: {{.GeographicalDistribution}}

Consider factors such as accessibility, popularity, safety, and suitability for the sports category.
Provide a clear and concise reasoning for your suggestion.
Respond only with a JSON object of the form {"suggestedLocation": string, "reasoning": string}. Do not include any extra conversational text.`))

// BuildPrompt は会場提案のプロンプトを組み立てる
func BuildPrompt(in Input) (string, error) {
	var sb strings.Builder
	if err := locationPrompt.Execute(&sb, in); err != nil {
		return "", err
	}
	return sb.String(), nil
}
