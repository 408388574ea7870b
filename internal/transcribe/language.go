package transcribe

import (
	"strings"

	"golang.org/x/text/language"
)

// NormalizeLanguage converts whatever language hint arrived on the webhook
// ("en-US", "English", "tr_TR") into the lowercase base code the speech
// provider expects. Unrecognizable hints return "" so the provider falls
// back to automatic language detection.
func NormalizeLanguage(hint string) string {
	hint = strings.TrimSpace(strings.ReplaceAll(hint, "_", "-"))
	if hint == "" {
		return ""
	}
	tag, err := language.Parse(hint)
	if err != nil {
		// Hints like "English" arrive as display names rather than tags.
		if tag = matchDisplayName(hint); tag == language.Und {
			return ""
		}
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return ""
	}
	return strings.ToLower(base.String())
}

var displayNameTags = map[string]language.Tag{
	"english":    language.English,
	"spanish":    language.Spanish,
	"french":     language.French,
	"german":     language.German,
	"italian":    language.Italian,
	"portuguese": language.Portuguese,
	"dutch":      language.Dutch,
	"turkish":    language.Turkish,
	"arabic":     language.Arabic,
	"russian":    language.Russian,
	"japanese":   language.Japanese,
	"korean":     language.Korean,
	"chinese":    language.Chinese,
	"hindi":      language.Hindi,
}

func matchDisplayName(hint string) language.Tag {
	if tag, ok := displayNameTags[strings.ToLower(hint)]; ok {
		return tag
	}
	return language.Und
}
