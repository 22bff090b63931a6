package extract

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// detectableLanguages bounds the lingua model set; loading every language
// costs hundreds of megabytes.
var detectableLanguages = []lingua.Language{
	lingua.English,
	lingua.Spanish,
	lingua.French,
	lingua.German,
	lingua.Portuguese,
	lingua.Italian,
	lingua.Dutch,
	lingua.Japanese,
	lingua.Korean,
	lingua.Chinese,
	lingua.Russian,
}

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// minDetectionChars guards against classifying stubs; short fragments give
// unreliable language signals.
const minDetectionChars = 40

// DetectLanguage returns the ISO 639-1 code of text's language, or "" when
// the text is too short or no language is confidently detected.
func DetectLanguage(text string) string {
	if len(text) < minDetectionChars {
		return ""
	}
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(detectableLanguages...).
			Build()
	})
	lang, ok := detector.DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}
