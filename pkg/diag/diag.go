// Package diag builds the console logger every command writes its
// diagnostics through.
package diag

import (
	"io"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Tally counts warnings and errors as they are logged.
type Tally struct {
	Warnings atomic.Int64
	Errors   atomic.Int64
}

func (t *Tally) hook(e zapcore.Entry) error {
	switch {
	case e.Level >= zapcore.ErrorLevel:
		t.Errors.Add(1)
	case e.Level == zapcore.WarnLevel:
		t.Warnings.Add(1)
	}
	return nil
}

// levelLabel spells levels the way MUSH tools traditionally do.
func levelLabel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	switch {
	case l >= zapcore.ErrorLevel:
		enc.AppendString("ERROR:")
	case l == zapcore.WarnLevel:
		enc.AppendString("WARNING:")
	case l == zapcore.InfoLevel:
		enc.AppendString("INFO:")
	default:
		enc.AppendString("DEBUG:")
	}
}

// New returns a logger writing plain lines to w. Debug output is shown
// only when verbose is set. A non-nil tally is updated on every entry.
func New(w io.Writer, verbose bool, tally *Tally) *zap.Logger {
	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		LevelKey:         "level",
		MessageKey:       "msg",
		EncodeLevel:      levelLabel,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	})
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(w), level)
	var opts []zap.Option
	if tally != nil {
		opts = append(opts, zap.Hooks(tally.hook))
	}
	return zap.New(core, opts...)
}
