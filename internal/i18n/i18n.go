// Package i18n provides the user-facing strings in English and Nepali.
package i18n

import "client/internal/prefs"

type messages map[string]string

var english = messages{
	"signIn":          "Sign in",
	"signOut":         "Signed out.",
	"welcome":         "Welcome! Successfully signed in to your account.",
	"signInRequired":  "Please sign in to continue.",
	"checkingAuth":    "Checking authentication...",
	"generating":      "Generating content...",
	"generatingAudio": "Generating audio...",
	"quotaReached":    "You have reached your monthly limit for this feature.",
	"nearLimit":       "Running low on credits. Consider upgrading your plan.",
	"unlimited":       "Unlimited",
	"notConfigured":   "N/A",
	"contentUsage":    "Content",
	"audioUsage":      "Audio",
	"plan":            "Plan",
	"historyEmpty":    "No generated content yet.",
	"authFailed":      "Authentication failed. Please try again.",
}

var nepali = messages{
	"signIn":          "साइन इन गर्नुहोस्",
	"signOut":         "साइन आउट भयो।",
	"welcome":         "स्वागत छ! तपाईंको खातामा सफलतापूर्वक साइन इन भयो।",
	"signInRequired":  "जारी राख्न कृपया साइन इन गर्नुहोस्।",
	"checkingAuth":    "प्रमाणीकरण जाँच गर्दै...",
	"generating":      "सामग्री बनाउँदै...",
	"generatingAudio": "अडियो बनाउँदै...",
	"quotaReached":    "तपाईंले यस सुविधाको मासिक सीमा पुग्नुभयो।",
	"nearLimit":       "क्रेडिट कम हुँदैछ। योजना अपग्रेड गर्ने विचार गर्नुहोस्।",
	"unlimited":       "असीमित",
	"notConfigured":   "उपलब्ध छैन",
	"contentUsage":    "सामग्री",
	"audioUsage":      "अडियो",
	"plan":            "योजना",
	"historyEmpty":    "अहिलेसम्म कुनै सामग्री बनाइएको छैन।",
	"authFailed":      "प्रमाणीकरण असफल भयो। फेरि प्रयास गर्नुहोस्।",
}

var bundles = map[string]messages{
	"en": english,
	"ne": nepali,
}

// Bundle resolves message keys for one locale.
type Bundle struct {
	locale string
}

// New builds a Bundle for the given locale. The input is normalized, so
// region variants and unsupported locales fall back sensibly.
func New(locale string) *Bundle {
	return &Bundle{locale: prefs.NormalizeLanguage(locale)}
}

// Locale returns the bundle's resolved locale.
func (b *Bundle) Locale() string {
	return b.locale
}

// T returns the message for key, falling back to English and finally to
// the key itself so a missing translation never blanks the UI.
func (b *Bundle) T(key string) string {
	if msg, ok := bundles[b.locale][key]; ok {
		return msg
	}
	if msg, ok := english[key]; ok {
		return msg
	}
	return key
}
