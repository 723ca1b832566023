package emit

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogEmitter writes events as structured zap log entries. Error events are
// logged at error level, node start/end and routing at debug level, and
// session transitions at info level.
//
// Example:
//
//	logger, _ := zap.NewProduction()
//	emitter := emit.NewLogEmitter(logger)
type LogEmitter struct {
	logger *zap.Logger
}

// NewLogEmitter creates a LogEmitter. A nil logger discards output.
func NewLogEmitter(logger *zap.Logger) *LogEmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogEmitter{logger: logger.Named("graph")}
}

// Emit implements Emitter.
func (l *LogEmitter) Emit(event Event) {
	level := levelFor(event.Msg)
	ce := l.logger.Check(level, event.Msg)
	if ce == nil {
		return
	}

	fields := make([]zap.Field, 0, 3+len(event.Meta))
	fields = append(fields, zap.String("session_id", event.SessionID))
	if event.Step > 0 {
		fields = append(fields, zap.Int("step", event.Step))
	}
	if event.NodeID != "" {
		fields = append(fields, zap.String("node_id", event.NodeID))
	}

	keys := make([]string, 0, len(event.Meta))
	for k := range event.Meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, metaField(k, event.Meta[k]))
	}

	ce.Write(fields...)
}

func levelFor(msg string) zapcore.Level {
	switch msg {
	case MsgNodeError, MsgStepFailed:
		return zapcore.ErrorLevel
	case MsgNodeRetry:
		return zapcore.WarnLevel
	case MsgSessionStarted, MsgSessionResumed, MsgSessionPaused, MsgSessionEnded:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

func metaField(key string, v interface{}) zap.Field {
	switch val := v.(type) {
	case string:
		return zap.String(key, val)
	case int:
		return zap.Int(key, val)
	case int64:
		return zap.Int64(key, val)
	case float64:
		return zap.Float64(key, val)
	case bool:
		return zap.Bool(key, val)
	case []string:
		return zap.Strings(key, val)
	case error:
		return zap.NamedError(key, val)
	default:
		return zap.String(key, fmt.Sprint(val))
	}
}
