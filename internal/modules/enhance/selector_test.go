package enhance

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/yungbote/promptlift-backend/internal/domain/guide"
)

func prio(n int) *int { return &n }

func principle(title string, priority *int, patterns ...string) guide.Principle {
	return guide.Principle{
		Title:             title,
		Content:           "content for " + title,
		DetectionPatterns: patterns,
		Priority:          priority,
	}
}

func titles(ps []guide.Principle) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Title)
	}
	return out
}

func samplePrinciples() []guide.Principle {
	return []guide.Principle{
		principle("A", prio(5), "json"),
		principle("B", prio(1), "api"),
		principle("C", prio(2)),
		principle("D", prio(3), "flask"),
		principle("E", prio(4), "python"),
		principle("F", prio(0)),
		principle("G", prio(9), "rest"),
	}
}

func TestSelectPrinciplesRelevantFirst(t *testing.T) {
	got := SelectPrinciples("Build a REST API in Python using Flask returning JSON", samplePrinciples())
	want := []string{"A", "B", "D", "E", "G"}
	if !reflect.DeepEqual(titles(got), want) {
		t.Fatalf("got %v, want %v", titles(got), want)
	}
}

func TestSelectPrinciplesBackfillsByPriority(t *testing.T) {
	got := SelectPrinciples("call the api", samplePrinciples())
	want := []string{"B", "F", "C", "D", "E"}
	if !reflect.DeepEqual(titles(got), want) {
		t.Fatalf("got %v, want %v", titles(got), want)
	}
}

func TestSelectPrinciplesMissingPrioritySortsLast(t *testing.T) {
	in := []guide.Principle{
		principle("no-priority", nil),
		principle("low", prio(50)),
		principle("high", prio(1)),
	}
	got := SelectPrinciples("nothing matches", in)
	want := []string{"high", "low", "no-priority"}
	if !reflect.DeepEqual(titles(got), want) {
		t.Fatalf("got %v, want %v", titles(got), want)
	}
}

func TestSelectPrinciplesCaseInsensitive(t *testing.T) {
	in := []guide.Principle{
		principle("X", prio(3), "JSON"),
		principle("Y", prio(1), "  Schema "),
		principle("Z", prio(2)),
		principle("W", prio(4), ""),
	}
	got := SelectPrinciples("Return JSON matching the schema", in)
	// X and Y are relevant; fewer than three so Z then W backfill.
	want := []string{"X", "Y", "Z", "W"}
	if !reflect.DeepEqual(titles(got), want) {
		t.Fatalf("got %v, want %v", titles(got), want)
	}
}

func TestSelectPrinciplesDeduplicatesTitles(t *testing.T) {
	in := []guide.Principle{
		principle("Be specific", prio(1), "write"),
		principle("Be specific", prio(2), "poem"),
		principle("Give context", prio(3)),
	}
	got := SelectPrinciples("write a poem", in)
	want := []string{"Be specific", "Give context"}
	if !reflect.DeepEqual(titles(got), want) {
		t.Fatalf("got %v, want %v", titles(got), want)
	}
}

func TestSelectPrinciplesBounds(t *testing.T) {
	for n := 0; n <= 12; n++ {
		in := make([]guide.Principle, 0, n)
		for i := 0; i < n; i++ {
			// every third entry repeats a title
			title := fmt.Sprintf("p%d", i-i%3)
			in = append(in, principle(title, prio(n-i), "word"))
		}
		orig := make([]guide.Principle, len(in))
		copy(orig, in)

		got := SelectPrinciples("a word here", in)
		if got == nil {
			t.Fatalf("n=%d: result must not be nil", n)
		}
		if len(got) > MaxPrinciples {
			t.Fatalf("n=%d: %d principles selected", n, len(got))
		}
		seen := map[string]bool{}
		for _, p := range got {
			if seen[p.Title] {
				t.Fatalf("n=%d: duplicate title %q", n, p.Title)
			}
			seen[p.Title] = true
		}
		if !reflect.DeepEqual(in, orig) {
			t.Fatalf("n=%d: input slice was modified", n)
		}
	}
}

func TestSelectFragments(t *testing.T) {
	doc := &guide.Document{
		StructuralElements: []guide.Fragment{{Title: "s1"}, {Title: "s2"}, {Title: "s3"}},
		AntiPatterns:       []guide.Fragment{{Title: "a1"}, {Title: "a2"}, {Title: "a3"}, {Title: "a4"}},
		TaskSpecificGuides: map[string][]guide.TaskGuide{
			string(TaskCodeGeneration): {{Title: "t1"}, {Title: "t2"}},
		},
	}

	if got := SelectStructural(doc); len(got) != MaxStructuralElements || got[1].Title != "s2" {
		t.Fatalf("unexpected structural selection: %+v", got)
	}
	if got := SelectAntiPatterns(doc); len(got) != MaxAntiPatterns || got[2].Title != "a3" {
		t.Fatalf("unexpected anti-pattern selection: %+v", got)
	}
	if got := SelectTaskGuides(doc, TaskCodeGeneration); len(got) != 2 || got[0].Title != "t1" {
		t.Fatalf("unexpected task guides: %+v", got)
	}
	if got := SelectTaskGuides(doc, TaskGeneral); got != nil {
		t.Fatalf("general prompts get no task guides, got %+v", got)
	}
	if got := SelectTaskGuides(doc, TaskCreativeWriting); got != nil {
		t.Fatalf("missing key should yield nothing, got %+v", got)
	}

	got := SelectStructural(doc)
	got[0].Title = "changed"
	if doc.StructuralElements[0].Title != "s1" {
		t.Fatalf("selection must not alias the guide")
	}

	if SelectStructural(nil) != nil || SelectAntiPatterns(nil) != nil || SelectTaskGuides(nil, TaskDataAnalysis) != nil {
		t.Fatalf("nil guide should select nothing")
	}
}
