package enhance

import (
	"fmt"
	"strings"

	"github.com/yungbote/promptlift-backend/internal/domain/guide"
)

const (
	StrategyTiered    = "tiered"
	StrategyRelevance = "relevance"
)

// OutputDirective closes every instruction document.
const OutputDirective = `OUTPUT FORMAT:
Return only the rewritten prompt text.
Do not add labels such as "Enhanced Prompt:" or "Refined Prompt:", greetings, prefixes, explanations, or meta-commentary.
Do not answer or execute the prompt; rewrite it.`

// AssemblyInput is everything an InstructionStrategy may draw from.
type AssemblyInput struct {
	Platform   string
	Prompt     string
	Complexity Complexity
	TaskType   TaskType
	Guide      *guide.Document
}

// InstructionStrategy builds the instruction document handed to the model.
// Implementations must be deterministic and must not perform I/O.
type InstructionStrategy interface {
	Name() string
	Build(in AssemblyInput) string
}

// NewStrategy resolves a strategy by name; the empty name selects the tiered strategy.
func NewStrategy(name string) (InstructionStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StrategyTiered:
		return TieredStrategy{}, nil
	case StrategyRelevance:
		return RelevanceStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown instruction strategy %q", name)
	}
}

// TieredStrategy scales the amount of rewriting to the prompt's complexity.
type TieredStrategy struct{}

func (TieredStrategy) Name() string { return StrategyTiered }

func (TieredStrategy) Build(in AssemblyInput) string {
	var b strings.Builder
	writeRole(&b, in.Platform)

	var principles []guide.Principle
	if in.Guide != nil {
		principles = in.Guide.Principles
	}

	switch in.Complexity {
	case ComplexitySimple:
		b.WriteString(`The prompt below is already clear and specific. Make light-touch edits only:
- Fix grammar, spelling, and awkward phrasing.
- Sharpen ambiguous words without changing meaning.
- Do not add new requirements, sections, personas, or assumptions.
- Keep the length close to the original and respect every stated limit.
`)
	case ComplexityDetailed:
		b.WriteString(`The prompt below is already detailed and structured. Polish it only:
- Preserve its structure, ordering, and every stated requirement.
- Tighten wording and resolve internal inconsistencies.
- Do not remove content and do not add new scope.
`)
	case ComplexityVague:
		b.WriteString(`The prompt below is vague. Expand it into a complete, specific prompt:
- Infer the most likely goal and state it explicitly.
- Add the context, audience, and constraints the model will need.
- Specify the expected output format and level of detail.
- Keep the user's original intent; do not invent unrelated requirements.
`)
		top := firstPrinciples(principles, 3)
		if len(top) > 0 {
			b.WriteString("\nApply these principles for " + platformLabel(in.Platform) + ":\n")
			for i, p := range top {
				fmt.Fprintf(&b, "%d. %s: %s\n", i+1, p.Title, strings.TrimSpace(p.Content))
			}
		}
	default:
		b.WriteString(`The prompt below is reasonably clear but can be improved. Make balanced edits:
- Improve clarity and structure where it helps.
- Add obviously missing specifics (format, scope, audience) without over-expanding.
- Keep the user's intent, voice, and scope.
`)
		top := firstPrinciples(principles, 2)
		if len(top) > 0 {
			titles := make([]string, 0, len(top))
			for _, p := range top {
				titles = append(titles, p.Title)
			}
			b.WriteString("\nKeep in mind: " + strings.Join(titles, "; ") + ".\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(OutputDirective)
	return b.String()
}

// RelevanceStrategy always uses one template and injects the guide fragments
// most relevant to the prompt.
type RelevanceStrategy struct{}

func (RelevanceStrategy) Name() string { return StrategyRelevance }

func (RelevanceStrategy) Build(in AssemblyInput) string {
	var b strings.Builder
	writeRole(&b, in.Platform)
	b.WriteString(`Rewrite the user's prompt so it gets the best possible result. Keep the user's intent,
make the task specific, add missing context and constraints, and state the desired output format.
`)

	var principles []guide.Principle
	if in.Guide != nil {
		principles = in.Guide.Principles
	}
	if sel := SelectPrinciples(in.Prompt, principles); len(sel) > 0 {
		b.WriteString("\nKEY PRINCIPLES:\n")
		for i, p := range sel {
			fmt.Fprintf(&b, "%d. %s\n%s\n", i+1, p.Title, strings.TrimSpace(p.Content))
		}
	}
	if els := SelectStructural(in.Guide); len(els) > 0 {
		b.WriteString("\nSTRUCTURE:\n")
		writeFragments(&b, els)
	}
	if aps := SelectAntiPatterns(in.Guide); len(aps) > 0 {
		b.WriteString("\nAVOID:\n")
		writeFragments(&b, aps)
	}
	if tgs := SelectTaskGuides(in.Guide, in.TaskType); len(tgs) > 0 {
		fmt.Fprintf(&b, "\nTASK GUIDANCE (%s):\n", in.TaskType)
		for _, tg := range tgs {
			fmt.Fprintf(&b, "- %s: %s\n", tg.Title, strings.TrimSpace(tg.Content))
			if tg.Example != nil && (tg.Example.Before != "" || tg.Example.After != "") {
				fmt.Fprintf(&b, "  Before: %s\n  After: %s\n", strings.TrimSpace(tg.Example.Before), strings.TrimSpace(tg.Example.After))
			}
		}
	}

	b.WriteString("\n")
	b.WriteString(OutputDirective)
	return b.String()
}

func writeRole(b *strings.Builder, platform string) {
	fmt.Fprintf(b, "You are an expert prompt engineer. You rewrite prompts that will be sent to %s.\n\n", platformLabel(platform))
}

func platformLabel(platform string) string {
	if p := strings.TrimSpace(platform); p != "" {
		return p
	}
	return "an AI assistant"
}

func writeFragments(b *strings.Builder, frags []guide.Fragment) {
	for _, f := range frags {
		fmt.Fprintf(b, "- %s: %s\n", f.Title, strings.TrimSpace(f.Content))
	}
}

func firstPrinciples(in []guide.Principle, n int) []guide.Principle {
	if len(in) < n {
		n = len(in)
	}
	return in[:n]
}
