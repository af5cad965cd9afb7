package enhance

import (
	"strings"
	"testing"

	"github.com/yungbote/promptlift-backend/internal/domain/guide"
)

func testGuide() *guide.Document {
	return &guide.Document{
		Principles: []guide.Principle{
			principle("P1", prio(1), "python"),
			principle("P2", prio(2)),
			principle("P3", prio(3)),
			principle("P4", prio(4)),
		},
		StructuralElements: []guide.Fragment{
			{Title: "Role", Content: "Open with a role."},
			{Title: "Format", Content: "State the format."},
			{Title: "Examples", Content: "Give examples."},
		},
		AntiPatterns: []guide.Fragment{
			{Title: "Vagueness", Content: "No vague asks."},
			{Title: "Overload", Content: "One task at a time."},
			{Title: "Jargon", Content: "Skip jargon."},
			{Title: "Shouting", Content: "No caps."},
		},
		TaskSpecificGuides: map[string][]guide.TaskGuide{
			string(TaskCodeGeneration): {
				{
					Title:   "Name the language",
					Content: "Say which language and version.",
					Example: &guide.Example{Before: "sort a list", After: "Write a Python 3.12 function that sorts a list."},
				},
			},
		},
	}
}

func TestNewStrategy(t *testing.T) {
	for name, want := range map[string]string{
		"":            StrategyTiered,
		"tiered":      StrategyTiered,
		" Relevance ": StrategyRelevance,
	} {
		s, err := NewStrategy(name)
		if err != nil {
			t.Fatalf("NewStrategy(%q): %v", name, err)
		}
		if s.Name() != want {
			t.Fatalf("NewStrategy(%q) = %s, want %s", name, s.Name(), want)
		}
	}
	if _, err := NewStrategy("bogus"); err == nil {
		t.Fatalf("expected error for unknown strategy")
	}
}

func TestTieredStrategyTemplates(t *testing.T) {
	doc := testGuide()
	build := func(c Complexity) string {
		return TieredStrategy{}.Build(AssemblyInput{
			Platform:   PlatformGPT,
			Prompt:     "python fibonacci",
			Complexity: c,
			TaskType:   TaskCodeGeneration,
			Guide:      doc,
		})
	}

	simple := build(ComplexitySimple)
	if !strings.Contains(simple, "light-touch") {
		t.Fatalf("simple template missing: %s", simple)
	}
	if strings.Contains(simple, "Keep in mind") || strings.Contains(simple, "Apply these principles") {
		t.Fatalf("simple template must not inject principles")
	}

	detailed := build(ComplexityDetailed)
	if !strings.Contains(detailed, "Polish it only") {
		t.Fatalf("detailed template missing: %s", detailed)
	}

	vague := build(ComplexityVague)
	for _, want := range []string{
		"Apply these principles for GPT 5:",
		"1. P1: content for P1",
		"2. P2: content for P2",
		"3. P3: content for P3",
	} {
		if !strings.Contains(vague, want) {
			t.Fatalf("vague instructions missing %q:\n%s", want, vague)
		}
	}
	if strings.Contains(vague, "P4") {
		t.Fatalf("vague instructions should include only the first three principles")
	}

	moderate := build(ComplexityModerate)
	if !strings.Contains(moderate, "Keep in mind: P1; P2.") {
		t.Fatalf("moderate instructions missing principle titles:\n%s", moderate)
	}
	if strings.Contains(moderate, "content for P1") {
		t.Fatalf("moderate instructions should carry titles only")
	}

	for _, out := range []string{simple, detailed, vague, moderate} {
		if !strings.HasPrefix(out, "You are an expert prompt engineer. You rewrite prompts that will be sent to GPT 5.") {
			t.Fatalf("missing role line:\n%s", out)
		}
		if !strings.HasSuffix(out, OutputDirective) {
			t.Fatalf("instructions must end with the output directive:\n%s", out)
		}
	}
}

func TestTieredStrategyWithoutGuide(t *testing.T) {
	out := TieredStrategy{}.Build(AssemblyInput{Prompt: "fix it", Complexity: ComplexityVague})
	if strings.Contains(out, "Apply these principles") {
		t.Fatalf("no principles to inject without a guide")
	}
	if !strings.Contains(out, "sent to an AI assistant.") {
		t.Fatalf("empty platform should fall back to a generic label:\n%s", out)
	}
	if !strings.HasSuffix(out, OutputDirective) {
		t.Fatalf("missing output directive")
	}
}

func TestRelevanceStrategySections(t *testing.T) {
	in := AssemblyInput{
		Platform:   PlatformClaude,
		Prompt:     "python fibonacci",
		Complexity: ComplexitySimple,
		TaskType:   TaskCodeGeneration,
		Guide:      testGuide(),
	}
	out := RelevanceStrategy{}.Build(in)

	for _, want := range []string{
		"KEY PRINCIPLES:",
		"1. P1\ncontent for P1",
		"STRUCTURE:",
		"- Role: Open with a role.",
		"- Format: State the format.",
		"AVOID:",
		"- Jargon: Skip jargon.",
		"TASK GUIDANCE (code_generation):",
		"- Name the language: Say which language and version.",
		"Before: sort a list",
		"After: Write a Python 3.12 function that sorts a list.",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("relevance instructions missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Examples") || strings.Contains(out, "Shouting") {
		t.Fatalf("structural and anti-pattern sections exceed their bounds:\n%s", out)
	}
	if !strings.HasSuffix(out, OutputDirective) {
		t.Fatalf("missing output directive")
	}

	in.TaskType = TaskGeneral
	if out := (RelevanceStrategy{}).Build(in); strings.Contains(out, "TASK GUIDANCE") {
		t.Fatalf("general prompts get no task guidance")
	}

	in.Guide = nil
	out = RelevanceStrategy{}.Build(in)
	if strings.Contains(out, "KEY PRINCIPLES:") || strings.Contains(out, "STRUCTURE:") {
		t.Fatalf("no sections expected without a guide:\n%s", out)
	}
}

func TestAssemblyIsIdempotent(t *testing.T) {
	in := AssemblyInput{
		Platform:   PlatformGemini,
		Prompt:     "make something cool, you know, like really nice stuff",
		Complexity: ComplexityVague,
		TaskType:   TaskGeneral,
		Guide:      testGuide(),
	}
	for _, s := range []InstructionStrategy{TieredStrategy{}, RelevanceStrategy{}} {
		first := s.Build(in)
		if second := s.Build(in); first != second {
			t.Fatalf("%s strategy is not deterministic", s.Name())
		}
	}
}
