package enhance

import (
	"sort"
	"strings"

	"github.com/yungbote/promptlift-backend/internal/domain/guide"
)

const (
	MaxPrinciples         = 5
	MinRelevantPrinciples = 3
	MaxStructuralElements = 2
	MaxAntiPatterns       = 3
)

// SelectPrinciples picks at most MaxPrinciples principles for prompt. Principles
// whose detection patterns occur in the prompt come first; when fewer than
// MinRelevantPrinciples match, the rest are backfilled by ascending priority.
// Titles are never repeated and the input slice is left untouched.
func SelectPrinciples(prompt string, principles []guide.Principle) []guide.Principle {
	if len(principles) == 0 {
		return []guide.Principle{}
	}
	lower := strings.ToLower(prompt)

	selected := make([]guide.Principle, 0, MaxPrinciples)
	seen := make(map[string]struct{}, MaxPrinciples)
	add := func(p guide.Principle) bool {
		if _, dup := seen[p.Title]; dup {
			return false
		}
		seen[p.Title] = struct{}{}
		selected = append(selected, p)
		return true
	}

	rest := make([]guide.Principle, 0, len(principles))
	for _, p := range principles {
		if isRelevant(lower, p) {
			add(p)
		} else {
			rest = append(rest, p)
		}
	}

	if len(selected) < MinRelevantPrinciples {
		sort.SliceStable(rest, func(i, j int) bool {
			return rest[i].SortPriority() < rest[j].SortPriority()
		})
		for _, p := range rest {
			if len(selected) >= MaxPrinciples {
				break
			}
			add(p)
		}
	}

	if len(selected) > MaxPrinciples {
		selected = selected[:MaxPrinciples]
	}
	return selected
}

func isRelevant(lowerPrompt string, p guide.Principle) bool {
	for _, pat := range p.DetectionPatterns {
		pat = strings.ToLower(strings.TrimSpace(pat))
		if pat != "" && strings.Contains(lowerPrompt, pat) {
			return true
		}
	}
	return false
}

func SelectStructural(doc *guide.Document) []guide.Fragment {
	if doc == nil {
		return nil
	}
	return head(doc.StructuralElements, MaxStructuralElements)
}

func SelectAntiPatterns(doc *guide.Document) []guide.Fragment {
	if doc == nil {
		return nil
	}
	return head(doc.AntiPatterns, MaxAntiPatterns)
}

// SelectTaskGuides returns the guide entries for taskType in document order.
// General prompts get none.
func SelectTaskGuides(doc *guide.Document, taskType TaskType) []guide.TaskGuide {
	if doc == nil || taskType == TaskGeneral || doc.TaskSpecificGuides == nil {
		return nil
	}
	entries, ok := doc.TaskSpecificGuides[string(taskType)]
	if !ok {
		return nil
	}
	out := make([]guide.TaskGuide, len(entries))
	copy(out, entries)
	return out
}

func head(in []guide.Fragment, n int) []guide.Fragment {
	if len(in) < n {
		n = len(in)
	}
	out := make([]guide.Fragment, n)
	copy(out, in[:n])
	return out
}
