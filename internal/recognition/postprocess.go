package recognition

import (
	"regexp"
	"strings"

	"github.com/ocrhub/ocr-gateway/internal/entity"
)

var (
	captchaPattern  = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	excessNewlines  = regexp.MustCompile(`\n{3,}`)
	escapedBrackets = strings.NewReplacer(`\（`, "(", `\）`, ")")
)

// postProcess classifies the raw model answer. Short purely alphanumeric
// answers are treated as captcha solutions and upper-cased; everything else
// gets light cleanup of model quirks.
func postProcess(raw string) *entity.RecognitionResult {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) <= 10 && captchaPattern.MatchString(trimmed) {
		return &entity.RecognitionResult{
			Text: strings.ToUpper(trimmed),
			Type: "captcha",
		}
	}

	text := escapedBrackets.Replace(raw)
	text = excessNewlines.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)

	return &entity.RecognitionResult{Text: text, Type: "text"}
}
