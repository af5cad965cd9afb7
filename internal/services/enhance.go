package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/promptlift-backend/internal/clients/llm"
	types "github.com/yungbote/promptlift-backend/internal/domain"
	"github.com/yungbote/promptlift-backend/internal/domain/guide"
	"github.com/yungbote/promptlift-backend/internal/modules/enhance"
	"github.com/yungbote/promptlift-backend/internal/observability"
	pkgerrors "github.com/yungbote/promptlift-backend/internal/pkg/errors"
	"github.com/yungbote/promptlift-backend/internal/platform/apierr"
	"github.com/yungbote/promptlift-backend/internal/platform/logger"
)

const (
	CreditCheckBeforeGuide = "before_guide"
	CreditCheckAfterGuide  = "after_guide"
)

type EnhanceRequest struct {
	Platform string
	Prompt   string
	UserID   string
}

type EnhanceResult struct {
	EnhancedPrompt     string
	CreditsRemaining   int
	HasUnlimitedAccess bool
	Platform           string
	Complexity         enhance.Complexity
	TaskType           enhance.TaskType
	Strategy           string
}

type Classification struct {
	Complexity enhance.Complexity
	Rule       string
	TaskType   enhance.TaskType
}

type EnhanceOptions struct {
	CreditCheckOrder string
	ModelTimeout     time.Duration
}

type EnhanceService interface {
	Enhance(ctx context.Context, req EnhanceRequest) (*EnhanceResult, error)
	Classify(ctx context.Context, prompt string) (*Classification, error)
}

type enhanceService struct {
	log     *logger.Logger
	engine  *enhance.Engine
	model   llm.Generator
	credits CreditService
	guides  GuideService
	opts    EnhanceOptions
}

func NewEnhanceService(baseLog *logger.Logger, engine *enhance.Engine, model llm.Generator, credits CreditService, guides GuideService, opts EnhanceOptions) EnhanceService {
	if opts.ModelTimeout <= 0 {
		opts.ModelTimeout = 60 * time.Second
	}
	if opts.CreditCheckOrder != CreditCheckAfterGuide {
		opts.CreditCheckOrder = CreditCheckBeforeGuide
	}
	if engine == nil {
		engine = enhance.NewEngine(nil)
	}
	return &enhanceService{
		log:     baseLog.With("service", "EnhanceService"),
		engine:  engine,
		model:   model,
		credits: credits,
		guides:  guides,
		opts:    opts,
	}
}

func (s *enhanceService) Enhance(ctx context.Context, req EnhanceRequest) (*EnhanceResult, error) {
	req.Platform = strings.TrimSpace(req.Platform)
	req.Prompt = strings.TrimSpace(req.Prompt)
	req.UserID = strings.TrimSpace(req.UserID)
	if err := validateEnhance(req); err != nil {
		return nil, err
	}

	user, platform, doc, err := s.gate(ctx, req)
	if err != nil {
		s.record(enhance.Preparation{}, "rejected")
		return nil, err
	}

	prep, err := s.prepare(ctx, platform, req.Prompt, doc)
	if err != nil {
		return nil, apierr.Internal(err)
	}

	text, err := s.generate(ctx, prep.Instructions, req.Prompt)
	if err != nil {
		s.record(prep, "upstream_error")
		s.log.Error("model invocation failed",
			"platform", platform,
			"complexity", string(prep.Complexity),
			"task_type", string(prep.TaskType),
			"error", err,
		)
		return nil, apierr.Upstream(fmt.Errorf("%w: %v", pkgerrors.ErrUpstream, err))
	}

	enhanced := enhance.StripLabels(text)
	if enhanced == "" {
		s.record(prep, "upstream_error")
		return nil, apierr.Upstream(fmt.Errorf("%w: model returned no text", pkgerrors.ErrUpstream))
	}

	remaining, err := s.credits.Consume(ctx, user)
	if err != nil {
		s.record(prep, "credit_error")
		return nil, err
	}

	s.record(prep, "ok")
	s.log.Info("prompt enhanced",
		"user_id", user.ID,
		"platform", platform,
		"complexity", string(prep.Complexity),
		"rule", prep.Rule,
		"task_type", string(prep.TaskType),
		"strategy", prep.Strategy,
	)
	return &EnhanceResult{
		EnhancedPrompt:     enhanced,
		CreditsRemaining:   remaining,
		HasUnlimitedAccess: user.HasUnlimitedAccess,
		Platform:           platform,
		Complexity:         prep.Complexity,
		TaskType:           prep.TaskType,
		Strategy:           prep.Strategy,
	}, nil
}

func (s *enhanceService) Classify(ctx context.Context, prompt string) (*Classification, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, apierr.BadRequest(fmt.Errorf("prompt is required"))
	}
	prep, err := s.prepare(ctx, "", prompt, nil)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return &Classification{Complexity: prep.Complexity, Rule: prep.Rule, TaskType: prep.TaskType}, nil
}

func validateEnhance(req EnhanceRequest) error {
	var missing []string
	if req.Platform == "" {
		missing = append(missing, "platform")
	}
	if req.Prompt == "" {
		missing = append(missing, "prompt")
	}
	if req.UserID == "" {
		missing = append(missing, "userId")
	}
	if len(missing) > 0 {
		return apierr.BadRequest(fmt.Errorf("%w: missing %s", pkgerrors.ErrInvalidArgument, strings.Join(missing, ", ")))
	}
	return nil
}

// gate runs the credit check and the guide lookup in the configured order.
func (s *enhanceService) gate(ctx context.Context, req EnhanceRequest) (*types.User, string, *guide.Document, error) {
	var (
		user     *types.User
		platform string
		doc      *guide.Document
		err      error
	)
	checkCredits := func() error {
		user, err = s.credits.Check(ctx, req.UserID)
		return err
	}
	lookupGuide := func() error {
		platform, doc, err = s.guides.Get(ctx, req.Platform)
		return err
	}
	steps := []func() error{checkCredits, lookupGuide}
	if s.opts.CreditCheckOrder == CreditCheckAfterGuide {
		steps = []func() error{lookupGuide, checkCredits}
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, "", nil, err
		}
	}
	return user, platform, doc, nil
}

func (s *enhanceService) prepare(ctx context.Context, platform, prompt string, doc *guide.Document) (enhance.Preparation, error) {
	ctx, span := observability.StartSpan(ctx, "enhance.prepare")
	defer span.End()
	prep, err := s.engine.Prepare(ctx, platform, prompt, doc)
	if err != nil {
		span.RecordError(err)
		return prep, err
	}
	span.SetAttributes(
		attribute.String("complexity", string(prep.Complexity)),
		attribute.String("complexity.rule", prep.Rule),
		attribute.String("task_type", string(prep.TaskType)),
		attribute.String("strategy", prep.Strategy),
	)
	observability.Current().ObserveClassification(string(prep.Complexity), prep.Rule)
	return prep, nil
}

func (s *enhanceService) generate(ctx context.Context, instructions, prompt string) (string, error) {
	if s.model == nil {
		return "", errors.New("no model configured")
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.ModelTimeout)
	defer cancel()
	ctx, span := observability.StartSpan(ctx, "llm.generate")
	defer span.End()

	text, err := s.model.GenerateText(ctx, instructions, prompt)
	if err != nil {
		span.RecordError(err)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("model call timed out after %s: %w", s.opts.ModelTimeout, err)
		}
		return "", err
	}
	return text, nil
}

func (s *enhanceService) record(prep enhance.Preparation, outcome string) {
	observability.Current().ObserveEnhancement(string(prep.Complexity), string(prep.TaskType), prep.Strategy, outcome)
}
