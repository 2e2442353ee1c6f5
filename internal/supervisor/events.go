package supervisor

import (
	"sort"

	"github.com/thejerf/suture/v4"
	"go.uber.org/zap"
)

// EventHook logs suture events through zap. Panics and stop timeouts are
// errors, terminations and backoff are warnings.
func EventHook(logger *zap.Logger) suture.EventHook {
	return func(e suture.Event) {
		fields := eventFields(e.Map())
		switch e.Type() {
		case suture.EventTypeServicePanic, suture.EventTypeStopTimeout:
			logger.Error(e.String(), fields...)
		case suture.EventTypeServiceTerminate, suture.EventTypeBackoff:
			logger.Warn(e.String(), fields...)
		default:
			logger.Info(e.String(), fields...)
		}
	}
}

func eventFields(m map[string]interface{}) []zap.Field {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, zap.Any(k, m[k]))
	}
	return fields
}
