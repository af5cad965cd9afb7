package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/promptlift-backend/internal/app"
	"github.com/yungbote/promptlift-backend/internal/domain/guide"
	"github.com/yungbote/promptlift-backend/internal/modules/enhance"
	"github.com/yungbote/promptlift-backend/internal/modules/guidesource"
)

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <prompt>",
		Short: "Print the complexity, firing rule and task type of a prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd.OutOrStdout(), strings.Join(args, " "))
		},
	}
}

func runClassify(w io.Writer, prompt string) error {
	complexity, rule := enhance.Explain(prompt)
	_, err := fmt.Fprintf(w, "complexity: %s\nrule: %s\ntask_type: %s\n", complexity, rule, enhance.ClassifyTask(prompt))
	return err
}

func assembleCmd() *cobra.Command {
	var (
		platform  string
		prompt    string
		guideFile string
		strategy  string
	)
	cmd := &cobra.Command{
		Use:   "assemble",
		Short: "Print the instruction document that would be sent to the model",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssemble(cmd.Context(), cmd.OutOrStdout(), platform, prompt, guideFile, strategy)
		},
	}
	cmd.Flags().StringVar(&platform, "platform", enhance.PlatformGPT, "target platform or alias")
	cmd.Flags().StringVar(&prompt, "prompt", "", "prompt to enhance")
	cmd.Flags().StringVar(&guideFile, "guide-file", "", "YAML or JSON guide document")
	cmd.Flags().StringVar(&strategy, "strategy", "", "instruction strategy (tiered or relevance)")
	_ = cmd.MarkFlagRequired("prompt")
	return cmd
}

func runAssemble(ctx context.Context, w io.Writer, platform, prompt, guideFile, strategyName string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if strategyName == "" {
		strategyName = os.Getenv("INSTRUCTION_STRATEGY")
	}
	strategy, err := enhance.NewStrategy(strategyName)
	if err != nil {
		return err
	}
	var doc *guide.Document
	if guideFile != "" {
		entry, err := guidesource.LoadFile(guideFile)
		if err != nil {
			return err
		}
		doc = entry.Document
	}
	prep, err := enhance.NewEngine(strategy).Prepare(ctx, enhance.NormalizePlatform(platform), prompt, doc)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "# complexity=%s rule=%s task_type=%s strategy=%s\n\n%s\n",
		prep.Complexity, prep.Rule, prep.TaskType, prep.Strategy, prep.Instructions)
	return err
}

func seedGuidesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-guides <dir|gs://bucket/prefix>",
		Short: "Upsert every guide file from a directory or GCS prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := app.New(ctx, app.Options{WithoutModel: true})
			if err != nil {
				return err
			}
			defer func() { _ = a.Shutdown(context.Background()) }()
			return a.SeedGuides(ctx, args[0])
		},
	}
}
