package enhance

import (
	"regexp"
	"strings"
)

// TaskType is the subject-matter domain of a prompt. Its string value is the
// key used in a guide's task_specific_guides map.
type TaskType string

const (
	TaskCodeGeneration       TaskType = "code_generation"
	TaskFormalWriting        TaskType = "formal_writing"
	TaskCreativeWriting      TaskType = "creative_writing"
	TaskDataAnalysis         TaskType = "data_analysis"
	TaskReasoningAndAnalysis TaskType = "reasoning_and_analysis"
	TaskGeneral              TaskType = "general"
)

type TaskRule struct {
	Type    TaskType
	Pattern *regexp.Regexp
}

var taskRules = []TaskRule{
	{
		Type: TaskCodeGeneration,
		Pattern: regexp.MustCompile(
			`\b(?:code|coding|coder|function|bug|debug(?:ging)?|error|exception|stack\s*trace|compile[rd]?|script|` +
				`program(?:ming)?|api|endpoint|algorithm|class|method|variable|refactor|unit\s+tests?|repo(?:sitory)?|` +
				`frontend|backend|deploy(?:ment)?|database|query|` + toolNames + `)\b|\bc(?:\+\+|#)(?:\W|$)`),
	},
	{
		Type: TaskFormalWriting,
		Pattern: regexp.MustCompile(
			`\b(?:email|letter|report|proposal|memo|cover\s+letter|resume|cv|business|professional|formal|academic|` +
				`essay|thesis|paper|abstract|documentation|policy|contract|press\s+release|executive\s+summary|linkedin|` +
				`announcement|grant|whitepaper)\b`),
	},
	{
		Type: TaskCreativeWriting,
		Pattern: regexp.MustCompile(
			`\b(?:story|stories|poem|poetry|fiction|novel|narrative|character|plot|lyrics|song|screenplay|fantasy|` +
				`creative|tale|haiku|sonnet|dialogue|worldbuilding|fairy\s+tale|short\s+story)\b`),
	},
	{
		Type: TaskDataAnalysis,
		Pattern: regexp.MustCompile(
			`\b(?:data|dataset|data\s+set|csv|statistics?|statistical|regression|visuali[sz](?:e|ation)|chart|graph|` +
				`dashboard|spreadsheet|pivot|correlation|mean|median|variance|trends?|analytics|metrics|kpis?)\b`),
	},
	{
		Type: TaskReasoningAndAnalysis,
		Pattern: regexp.MustCompile(
			`\b(?:logic|logical|math|mathematics|equation|solve|proof|prove|puzzle|reason(?:ing)?|calculate|probability|` +
				`problem|step\s+by\s+step|riddle|analy[sz]e|compare|pros\s+and\s+cons|trade-?offs?|decide|evaluate)\b`),
	},
}

// TaskRules returns the ordered task rule list. The slice is a copy.
func TaskRules() []TaskRule {
	out := make([]TaskRule, len(taskRules))
	copy(out, taskRules)
	return out
}

// ClassifyTask returns the task type of prompt; the first matching rule wins
// and prompts that match nothing are general.
func ClassifyTask(prompt string) TaskType {
	s := strings.ToLower(strings.TrimSpace(prompt))
	if s == "" {
		return TaskGeneral
	}
	for _, r := range taskRules {
		if r.Pattern.MatchString(s) {
			return r.Type
		}
	}
	return TaskGeneral
}
