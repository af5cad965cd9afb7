package enhance

import (
	"regexp"
	"strings"
)

// All detectors below are compiled once and only read afterwards, so they are
// shared freely across requests.

const toolNames = `python|javascript|typescript|java|golang|rust|ruby|php|swift|kotlin|scala|perl|haskell|elixir|` +
	`sql|mysql|postgres(?:ql)?|sqlite|mongodb|redis|graphql|html|css|sass|tailwind|` +
	`react|vue|angular|svelte|next\.?js|node(?:\.?js)?|express|django|flask|fastapi|spring|rails|laravel|jquery|` +
	`docker|kubernetes|k8s|terraform|ansible|aws|gcp|azure|git|github|bash|shell|powershell|linux|` +
	`excel|pandas|numpy|matplotlib|tensorflow|pytorch|scikit-learn|sklearn|matlab|` +
	`figma|notion|wordpress|shopify|unity|unreal|arduino|regex`

var (
	conversationalPrefix = regexp.MustCompile(
		`^(?:(?:hi|hello|hey|greetings|yo)(?:\s+there)?|please|pls|plz|kindly|` +
			`(?:can|could|would|will)\s+(?:you|u)|` +
			`i\s+(?:want|need)\s+you\s+to|i'?d\s+like\s+you\s+to|help\s+me(?:\s+to)?)\b[\s,!.:]*`)

	toolPattern = regexp.MustCompile(`\b(?:` + toolNames + `)\b|\bc(?:\+\+|#)(?:\W|$)`)

	toolTopicPattern = regexp.MustCompile(`^(?:` + toolNames + `|c\+\+|c#)\s+\S+`)

	explainPattern = regexp.MustCompile(
		`^(?:explain|define|describe|what\s+(?:is|are|does|do)|how\s+(?:to|do\s+i|does|do)|difference\s+between|why\s+(?:is|does|do))\b`)

	technicalQuestion = regexp.MustCompile(
		`^(?:how|why|what|where|when|which|can|could|does|do|is|are|should|would)\b.*` +
			`\b(?:code|function|method|error|exception|bug|implementation|implement|class|compile|crash|stack\s*trace)s?\b`)

	directVerbs = regexp.MustCompile(
		`\b(?:write|create|build|make|generate|implement|fix|debug|refactor|convert|translate|summari[sz]e|explain|` +
			`list|design|draft|add|optimi[sz]e|rewrite|compose|calculate|analy[sz]e|develop|deploy|compare|describe|` +
			`outline|edit|review|solve|set\s+up|update|remove|sort|parse|format|proofread|plan)\b`)

	subjectNouns = regexp.MustCompile(
		`\b(?:functions?|class(?:es)?|methods?|apis?|endpoints?|databases?|quer(?:y|ies)|scripts?|algorithms?|` +
			`programs?|apps?|applications?|websites?|web\s*pages?|components?|modules?|tests?|schemas?|tables?|` +
			`emails?|letters?|essays?|stor(?:y|ies)|poems?|reports?|articles?|blog\s+posts?|resumes?|cover\s+letters?|` +
			`summar(?:y|ies)|presentations?|slides?|proposals?|recipes?|charts?|graphs?|spreadsheets?|datasets?|csv|json|xml|` +
			`dashboards?|logos?|songs?|lyrics|bugs?|errors?|tweets?|captions?|headlines?|newsletters?|invoices?|` +
			`contracts?|itinerar(?:y|ies)|workouts?|quiz(?:zes)?|diagrams?|servers?|bots?|cli)\b`)

	connectorPattern = regexp.MustCompile(
		`\band\s+also\b|\bas\s+well\s+as\b|\badditionally\b|\bafter\s+that\b|\bthen\b|\balso\b|\bplus\b|\bfinally\b|;`)

	andPattern = regexp.MustCompile(`\band\b`)

	constraintPattern = regexp.MustCompile(
		`\b(?:without|under\s+\d+|less\s+than|fewer\s+than|no\s+more\s+than|at\s+most|at\s+least|maximum|` +
			`max\s+\d+|minimum|limit(?:ed)?\s+to|within\s+\d+|exactly\s+\d+|only\s+use|must(?:\s+not)?|do\s+not|don'?t|` +
			`avoid|no\s+external|\d+\s+(?:words|lines|sentences|characters|paragraphs|bullet\s+points))\b`)

	codeContextPatterns = []*regexp.Regexp{
		regexp.MustCompile("```"),
		regexp.MustCompile("`[^`\n]+`"),
		regexp.MustCompile(`\b(?:def|func|fn)\s+\w+\s*\(`),
		regexp.MustCompile(`\bfunction\s*\w*\s*\(`),
		regexp.MustCompile(`\bclass\s+\w+\s*[:{(]`),
		regexp.MustCompile(`(?m)^\s*(?:import\s|from\s+\S+\s+import\s|#include\b|package\s+\w+)`),
		regexp.MustCompile(`=>`),
		regexp.MustCompile(`\w+\([^)]*\)\s*[;{]`),
		regexp.MustCompile(`\b(?:traceback|stack\s*trace|segfault|nullpointerexception|typeerror|syntaxerror|referenceerror|valueerror)\b`),
		regexp.MustCompile(`(?m)^\s*(?:\$|>>>)\s`),
	}

	// Source file names count as code context unless the "file name" is a
	// framework such as next.js or node.js.
	sourceFileName = regexp.MustCompile(`\b[\w-]+\.(?:py|js|jsx|ts|tsx|go|java|rb|rs|cpp|cs|php|sql|yaml|yml)\b`)
	toolNameOnly   = regexp.MustCompile(`(?i)^(?:` + toolNames + `)$`)

	structuralMarkers = regexp.MustCompile(
		`(?m)\b(?:step|steps|first(?:ly)?|then|next|finally|requirements?|criteria)\b|^\s*(?:\d+[.)]|[-*•])\s+`)

	sentenceTerminator = regexp.MustCompile(`[.!?]+(?:\s|$)`)

	contextualPreposition = regexp.MustCompile(
		`\b(?:for|about|on|in|with|using|to|from|regarding|into|of|that|which|because)\b`)

	ambiguousFiller = regexp.MustCompile(
		`\b(?:something|stuff|things?|anything|whatever|better|good|nice|cool|help|improve|ideas?)\b`)
)

var fillerWords = map[string]struct{}{
	"something": {}, "stuff": {}, "thing": {}, "things": {}, "like": {}, "really": {}, "very": {},
	"just": {}, "kinda": {}, "sorta": {}, "basically": {}, "actually": {}, "literally": {}, "maybe": {},
	"whatever": {}, "cool": {}, "nice": {}, "awesome": {}, "good": {}, "great": {}, "some": {},
	"somehow": {}, "random": {}, "etc": {}, "totally": {}, "pretty": {}, "super": {}, "um": {}, "uh": {},
}

var fillerPhrases = regexp.MustCompile(`\b(?:you\s+know|sort\s+of|kind\s+of|i\s+guess|or\s+something|i\s+mean)\b`)

const tokenPunctuation = ".,!?;:\"'()[]{}…"

// Normalize trims the prompt, lower-cases it, and strips any leading
// conversational prefix ("hey, can you please ...").
func Normalize(prompt string) string {
	s := strings.ToLower(strings.TrimSpace(prompt))
	for {
		stripped := strings.TrimSpace(conversationalPrefix.ReplaceAllString(s, ""))
		if stripped == s {
			return s
		}
		s = stripped
	}
}

// Signals is every Pattern Library detector evaluated once against a normalized prompt.
type Signals struct {
	Normalized string
	Words      []string
	WordCount  int

	ShortClearPattern     bool
	TechnicalQuestion     bool
	CodeContext           bool
	DirectVerb            bool
	SubjectNoun           bool
	ToolName              bool
	FillerCount           int
	ConnectorCount        int
	AndCount              int
	Constraint            bool
	SentenceTerminators   int
	StructuralMarker      bool
	ContextualPreposition bool
	AmbiguousFiller       bool
}

// FillerDensity is filler occurrences per word; zero for an empty prompt.
func (s Signals) FillerDensity() float64 {
	if s.WordCount == 0 {
		return 0
	}
	return float64(s.FillerCount) / float64(s.WordCount)
}

// Analyze runs the whole library over prompt.
func Analyze(prompt string) Signals {
	n := Normalize(prompt)
	words := strings.Fields(n)
	sig := Signals{
		Normalized: n,
		Words:      words,
		WordCount:  len(words),
	}
	if n == "" {
		return sig
	}
	sig.ShortClearPattern = HasShortClearPattern(n)
	sig.TechnicalQuestion = technicalQuestion.MatchString(n)
	sig.CodeContext = HasCodeContext(n)
	sig.DirectVerb = directVerbs.MatchString(n)
	sig.SubjectNoun = subjectNouns.MatchString(n)
	sig.ToolName = HasToolName(n)
	sig.FillerCount = CountFillers(words, n)
	sig.ConnectorCount = len(connectorPattern.FindAllStringIndex(n, -1))
	sig.AndCount = len(andPattern.FindAllStringIndex(n, -1))
	sig.Constraint = constraintPattern.MatchString(n)
	sig.SentenceTerminators = len(sentenceTerminator.FindAllStringIndex(n, -1))
	sig.StructuralMarker = structuralMarkers.MatchString(n)
	sig.ContextualPreposition = contextualPreposition.MatchString(n)
	sig.AmbiguousFiller = ambiguousFiller.MatchString(n)
	return sig
}

func HasShortClearPattern(normalized string) bool {
	return toolTopicPattern.MatchString(normalized) || explainPattern.MatchString(normalized)
}

func HasToolName(normalized string) bool {
	return toolPattern.MatchString(normalized)
}

func HasCodeContext(text string) bool {
	for _, re := range codeContextPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	for _, name := range sourceFileName.FindAllString(text, -1) {
		if !toolNameOnly.MatchString(name) {
			return true
		}
	}
	return false
}

// CountFillers counts filler tokens plus multi-word filler phrases.
func CountFillers(words []string, normalized string) int {
	count := 0
	for _, w := range words {
		if _, ok := fillerWords[strings.Trim(w, tokenPunctuation)]; ok {
			count++
		}
	}
	return count + len(fillerPhrases.FindAllStringIndex(normalized, -1))
}
