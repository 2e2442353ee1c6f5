package logger

import (
	"sort"

	"github.com/ThreeDotsLabs/watermill"
	"go.uber.org/zap"
)

// Compile-time check: WatermillAdapter implements watermill.LoggerAdapter.
var _ watermill.LoggerAdapter = (*WatermillAdapter)(nil)

// WatermillAdapter routes watermill router and NATS client logs through zap.
// Trace is mapped to Debug, zap has no lower level.
type WatermillAdapter struct {
	l *zap.Logger
}

// NewWatermillAdapter wraps l. A nil logger discards everything.
func NewWatermillAdapter(l *zap.Logger) *WatermillAdapter {
	if l == nil {
		l = zap.NewNop()
	}
	return &WatermillAdapter{l: l.Named("watermill")}
}

func (a *WatermillAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.l.Error(msg, append(toZap(fields), zap.Error(err))...)
}

func (a *WatermillAdapter) Info(msg string, fields watermill.LogFields) {
	a.l.Info(msg, toZap(fields)...)
}

func (a *WatermillAdapter) Debug(msg string, fields watermill.LogFields) {
	a.l.Debug(msg, toZap(fields)...)
}

func (a *WatermillAdapter) Trace(msg string, fields watermill.LogFields) {
	a.l.Debug(msg, toZap(fields)...)
}

func (a *WatermillAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &WatermillAdapter{l: a.l.With(toZap(fields)...)}
}

// toZap sorts keys so the same fields always render in the same order.
func toZap(fields watermill.LogFields) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys)+1)
	for _, k := range keys {
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}
