package services

import (
	"context"
	"errors"
	"fmt"
)

// Router is the lifecycle of *pipeline.Router.
type Router interface {
	Run(ctx context.Context) error
	Close() error
}

// RouterFactory builds a fresh router and subscriber. A closed watermill router
// cannot be started again and takes its subscriber down with it, so every
// restart gets new ones.
type RouterFactory func() (Router, error)

// PipelineService runs the event router under a supervisor.
type PipelineService struct {
	newRouter RouterFactory
}

// NewPipelineService wraps factory.
func NewPipelineService(factory RouterFactory) *PipelineService {
	return &PipelineService{newRouter: factory}
}

// Serve implements suture.Service. A router that stops while ctx is still
// live is reported as a failure so the supervisor restarts it.
func (p *PipelineService) Serve(ctx context.Context) error {
	r, err := p.newRouter()
	if err != nil {
		return fmt.Errorf("build pipeline router: %w", err)
	}
	defer func() { _ = r.Close() }()

	runErr := r.Run(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if runErr != nil {
		return fmt.Errorf("pipeline router stopped: %w", runErr)
	}
	return errors.New("pipeline router stopped unexpectedly")
}

func (p *PipelineService) String() string {
	return "pipeline-router"
}
