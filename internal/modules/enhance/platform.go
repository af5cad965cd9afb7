package enhance

import "strings"

const (
	PlatformGPT    = "GPT 5"
	PlatformClaude = "Claude Sonnet 4"
	PlatformGemini = "Gemini 2.5"
)

var platformAliases = map[string]string{
	"chatgpt":   PlatformGPT,
	"chat-gpt":  PlatformGPT,
	"gpt":       PlatformGPT,
	"gpt-5":     PlatformGPT,
	"gpt5":      PlatformGPT,
	"gpt 5":     PlatformGPT,
	"openai":    PlatformGPT,
	"claude":    PlatformClaude,
	"claude.ai": PlatformClaude,
	"anthropic": PlatformClaude,
	"gemini":    PlatformGemini,
	"google":    PlatformGemini,
	"bard":      PlatformGemini,

	"GPT 5":           PlatformGPT,
	"Claude Sonnet 4": PlatformClaude,
	"Gemini 2.5":      PlatformGemini,
	"claude sonnet 4": PlatformClaude,
	"gemini 2.5":      PlatformGemini,
}

// NormalizePlatform maps a caller-supplied platform name to its canonical
// guide key. The exact spelling is tried first, then the lower-cased one;
// unknown names come back trimmed but otherwise unchanged.
func NormalizePlatform(name string) string {
	trimmed := strings.TrimSpace(name)
	if canonical, ok := platformAliases[trimmed]; ok {
		return canonical
	}
	if canonical, ok := platformAliases[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return trimmed
}

// KnownPlatforms lists the canonical platform names.
func KnownPlatforms() []string {
	return []string{PlatformGPT, PlatformClaude, PlatformGemini}
}
