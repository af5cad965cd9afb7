package enhance

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/promptlift-backend/internal/domain/guide"
)

// Preparation is the classified prompt together with its instruction document.
type Preparation struct {
	Complexity   Complexity
	Rule         string
	TaskType     TaskType
	Strategy     string
	Instructions string
}

// Engine runs the classifiers and the configured InstructionStrategy.
type Engine struct {
	strategy InstructionStrategy
}

func NewEngine(strategy InstructionStrategy) *Engine {
	if strategy == nil {
		strategy = TieredStrategy{}
	}
	return &Engine{strategy: strategy}
}

func (e *Engine) Strategy() InstructionStrategy { return e.strategy }

// Prepare classifies prompt (both classifiers concurrently) and assembles the
// instruction document for platform. The only error is ctx cancellation.
func (e *Engine) Prepare(ctx context.Context, platform, prompt string, doc *guide.Document) (Preparation, error) {
	var (
		complexity Complexity
		rule       string
		taskType   TaskType
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		complexity, rule = Explain(prompt)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		taskType = ClassifyTask(prompt)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Preparation{}, err
	}

	instructions := e.strategy.Build(AssemblyInput{
		Platform:   platform,
		Prompt:     prompt,
		Complexity: complexity,
		TaskType:   taskType,
		Guide:      doc,
	})
	return Preparation{
		Complexity:   complexity,
		Rule:         rule,
		TaskType:     taskType,
		Strategy:     e.strategy.Name(),
		Instructions: instructions,
	}, nil
}
