package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"interview-platform/config"
	"interview-platform/infrastructure"
	"interview-platform/usecase"
)

// components holds the process-wide clients shared by serve and worker.
// They are created once at startup and released by close.
type components struct {
	db         *gorm.DB
	rmq        *infrastructure.RabbitMQ
	llm        infrastructure.Completer
	evaluator  *infrastructure.LLMEvaluator
	interviews *infrastructure.InterviewRepository
	candidates *infrastructure.CandidateRepository
	positions  *infrastructure.PositionRepository
	pipeline   *usecase.Pipeline
	lifecycle  *usecase.Lifecycle

	closers []func() error
	log     *zap.Logger
}

func newComponents(ctx context.Context, cfg *config.Config, log *zap.Logger) (_ *components, err error) {
	if err := cfg.LLM.Validate(); err != nil {
		return nil, err
	}

	c := &components{log: log}
	defer func() {
		if err != nil {
			c.close()
		}
	}()

	c.db, err = infrastructure.NewDatabase(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, func() error { return infrastructure.CloseDatabase(c.db) })

	if cfg.Database.AutoMigrate {
		if err := infrastructure.Migrate(c.db); err != nil {
			return nil, err
		}
	}

	c.rmq, err = infrastructure.NewRabbitMQ(cfg.RabbitMQ, log)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, c.rmq.Close)

	c.llm, err = infrastructure.NewCompleter(ctx, cfg.LLM, log)
	if err != nil {
		return nil, fmt.Errorf("initialise language model: %w", err)
	}
	c.closers = append(c.closers, c.llm.Close)

	c.evaluator = infrastructure.NewLLMEvaluator(c.llm, cfg.LLM.Timeout, log)
	c.interviews = infrastructure.NewInterviewRepository(c.db)
	c.candidates = infrastructure.NewCandidateRepository(c.db)
	c.positions = infrastructure.NewPositionRepository(c.db)

	c.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Interviews: c.interviews,
		Candidates: c.candidates,
		Positions:  c.positions,
		Jobs:       infrastructure.NewScoringJobRepository(c.db),
		Queue:      c.rmq,
		Scorer:     c.evaluator,
		Config: usecase.PipelineConfig{
			JobTimeout:  cfg.Queue.JobTimeout,
			BackoffBase: cfg.Queue.BackoffBase,
			MaxAttempts: cfg.Queue.MaxAttempts,
			Retention:   cfg.Queue.Retention,
		},
		Log: log,
	})
	c.lifecycle = usecase.NewLifecycle(c.interviews, c.pipeline, log)

	return c, nil
}

// close releases clients in reverse order of creation.
func (c *components) close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			c.log.Warn("failed to close client", zap.Error(err))
		}
	}
	c.closers = nil
}
