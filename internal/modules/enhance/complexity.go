package enhance

// Complexity is how much rewriting a prompt needs.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityDetailed Complexity = "detailed"
	ComplexityVague    Complexity = "vague"
)

func (c Complexity) Valid() bool {
	switch c {
	case ComplexitySimple, ComplexityModerate, ComplexityDetailed, ComplexityVague:
		return true
	}
	return false
}

type RuleStage string

const (
	StageEdge     RuleStage = "edge"
	StageStandard RuleStage = "standard"
)

// DefaultRuleName is reported by Explain when no rule fires.
const DefaultRuleName = "default"

// ComplexityRule maps a predicate over Signals to a category.
type ComplexityRule struct {
	Name   string
	Stage  RuleStage
	Result Complexity
	Match  func(Signals) bool
}

// Rules are evaluated top to bottom and the first match wins. Edge rules
// deliberately shadow the standard ones: a short constrained task must stay
// simple even when it would otherwise qualify as detailed.
var complexityRules = []ComplexityRule{
	{
		Name:   "short_but_clear",
		Stage:  StageEdge,
		Result: ComplexitySimple,
		Match: func(s Signals) bool {
			return s.ShortClearPattern && s.WordCount >= 2 && s.WordCount <= 6
		},
	},
	{
		Name:   "technical_question",
		Stage:  StageEdge,
		Result: ComplexitySimple,
		Match: func(s Signals) bool {
			return s.TechnicalQuestion && s.WordCount <= 15
		},
	},
	{
		Name:   "code_context_task",
		Stage:  StageEdge,
		Result: ComplexitySimple,
		Match: func(s Signals) bool {
			return s.CodeContext && s.DirectVerb
		},
	},
	{
		Name:   "filler_heavy",
		Stage:  StageEdge,
		Result: ComplexityVague,
		Match: func(s Signals) bool {
			return s.FillerDensity() > 0.2 && !s.SubjectNoun && !s.ToolName
		},
	},
	{
		Name:   "multi_task",
		Stage:  StageEdge,
		Result: ComplexityModerate,
		Match: func(s Signals) bool {
			return (s.ConnectorCount >= 2 || s.AndCount >= 3) && s.WordCount < 25
		},
	},
	{
		Name:   "explicit_constraints",
		Stage:  StageEdge,
		Result: ComplexitySimple,
		Match: func(s Signals) bool {
			return s.Constraint && s.DirectVerb
		},
	},
	{
		Name:   "clear_direct_task",
		Stage:  StageStandard,
		Result: ComplexitySimple,
		Match: func(s Signals) bool {
			return s.DirectVerb && (s.SubjectNoun || s.ToolName) && s.WordCount >= 4 && s.WordCount <= 20
		},
	},
	{
		Name:   "long_or_structured",
		Stage:  StageStandard,
		Result: ComplexityDetailed,
		Match: func(s Signals) bool {
			return s.WordCount >= 30 || (s.SentenceTerminators >= 2 && s.StructuralMarker)
		},
	},
	{
		Name:   "underspecified",
		Stage:  StageStandard,
		Result: ComplexityVague,
		Match: func(s Signals) bool {
			return s.WordCount <= 3 || (!s.ContextualPreposition && s.AmbiguousFiller && s.WordCount < 10)
		},
	},
}

// ComplexityRules returns the ordered rule list. The slice is a copy.
func ComplexityRules() []ComplexityRule {
	out := make([]ComplexityRule, len(complexityRules))
	copy(out, complexityRules)
	return out
}

// Classify returns the complexity category of prompt. It never fails; a prompt
// that trips no rule is moderate.
func Classify(prompt string) Complexity {
	c, _ := Explain(prompt)
	return c
}

// Explain classifies prompt and names the rule that decided it.
func Explain(prompt string) (Complexity, string) {
	return ClassifySignals(Analyze(prompt))
}

func ClassifySignals(s Signals) (Complexity, string) {
	for _, r := range complexityRules {
		if r.Match(s) {
			return r.Result, r.Name
		}
	}
	return ComplexityModerate, DefaultRuleName
}
