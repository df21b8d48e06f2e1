package log

import (
	"io"

	"github.com/rs/zerolog"
)

type zerologProvider struct {
	base zerolog.Logger
}

// NewZerologProvider returns a provider writing human-readable lines to
// standard error at level.
func NewZerologProvider(level Level) LoggerProvider {
	return &zerologProvider{base: newConsoleLogger(level)}
}

// NewJSONProvider returns a provider writing JSON lines to w.
func NewJSONProvider(w io.Writer, level Level) LoggerProvider {
	return &zerologProvider{base: zerolog.New(w).Level(level.zerolog()).With().Timestamp().Logger()}
}

func (p *zerologProvider) GetLogger() Logger {
	return &zerologLogger{l: p.base}
}

func (p *zerologProvider) GetLoggerWithName(name string) Logger {
	return &zerologLogger{l: p.base.With().Str(ComponentKey, name).Logger()}
}

func (p *zerologProvider) SetLevel(level Level) {
	p.base = p.base.Level(level.zerolog())
}

type zerologLogger struct {
	l zerolog.Logger
}

func (z *zerologLogger) Debug(msg string, fields ...interface{}) { z.emit(z.l.Debug(), msg, fields) }
func (z *zerologLogger) Info(msg string, fields ...interface{})  { z.emit(z.l.Info(), msg, fields) }
func (z *zerologLogger) Warn(msg string, fields ...interface{})  { z.emit(z.l.Warn(), msg, fields) }
func (z *zerologLogger) Error(msg string, fields ...interface{}) { z.emit(z.l.Error(), msg, fields) }

func (z *zerologLogger) With(fields ...interface{}) Logger {
	return &zerologLogger{l: z.l.With().Fields(normalize(fields)).Logger()}
}

func (z *zerologLogger) emit(ev *zerolog.Event, msg string, fields []interface{}) {
	if ev == nil {
		return
	}
	ev.Fields(normalize(fields)).Msg(msg)
}

// normalize drops a dangling key so zerolog never sees an odd-length list.
// error values are logged by message.
func normalize(fields []interface{}) []interface{} {
	if len(fields)%2 == 1 {
		fields = fields[:len(fields)-1]
	}
	out := make([]interface{}, len(fields))
	for i, f := range fields {
		if err, ok := f.(error); ok && i%2 == 1 {
			out[i] = err.Error()
			continue
		}
		out[i] = f
	}
	return out
}
