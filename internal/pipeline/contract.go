package pipeline

import (
	"context"

	"github.com/kailas-cloud/vecmatch/internal/domain/event"
	"github.com/kailas-cloud/vecmatch/internal/domain/profile"
	"github.com/kailas-cloud/vecmatch/internal/usecase/matcher"
)

// ProfileMatcher handles profile-created events.
type ProfileMatcher interface {
	Process(ctx context.Context, p profile.Profile) (matcher.Result, error)
}

// FeedbackDecider handles feedback events.
type FeedbackDecider interface {
	Decide(ctx context.Context, fb event.Feedback) (event.Outcome, error)
}
