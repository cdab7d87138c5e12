// Package logifaceadapter bridges observability.Logger to
// github.com/joeycumines/logiface, for applications that already
// standardize on logiface's structured-logging core and want Meridian's
// scheduler events flowing through the same sink, backed by the stumpy
// JSON writer.
package logifaceadapter

import (
	"io"
	"os"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"

	"github.com/ghostweasellabs/meridian-runtime-examples/observability"
)

// Adapter implements observability.Logger on top of a
// *logiface.Logger[*stumpy.Event].
type Adapter struct {
	logger *logiface.Logger[*stumpy.Event]
}

// New builds an Adapter writing newline-delimited JSON events to w. A nil
// w defaults to os.Stderr.
func New(w io.Writer) *Adapter {
	if w == nil {
		w = os.Stderr
	}
	return &Adapter{
		logger: logiface.New[*stumpy.Event](
			stumpy.WithStumpy(stumpy.WithWriter(w)),
		),
	}
}

// Log implements observability.Logger.
func (a *Adapter) Log(e observability.Event) {
	b := a.builder(e.Level)
	if e.Node != "" {
		b = b.Str("node", e.Node)
	}
	if e.Edge != "" {
		b = b.Str("edge", e.Edge)
	}
	if e.Category != "" {
		b = b.Str("category", e.Category)
	}
	if e.Err != nil {
		b = b.Err(e.Err)
	}
	for k, v := range e.Fields {
		b = b.Any(k, v)
	}
	b.Log(e.Message)
}

func (a *Adapter) builder(level observability.Level) *logiface.Builder[*stumpy.Event] {
	switch level {
	case observability.LevelDebug:
		return a.logger.Debug()
	case observability.LevelWarn:
		return a.logger.Warning()
	case observability.LevelError:
		return a.logger.Err()
	default:
		return a.logger.Info()
	}
}
