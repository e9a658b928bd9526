package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodeformat/pkg/layout"
)

// newLogger returns the logger shared by all commands, prefixed with the
// application name. Timestamps look like "14:32:01.45".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
		Prefix:          appName,
	})
}

// progress times one format or render run and collects the counts reported
// when it finishes. Not safe for concurrent use.
type progress struct {
	logger *log.Logger
	op     string
	start  time.Time
	fields []any
}

func newProgress(l *log.Logger, op string) *progress {
	return &progress{logger: l, op: op, start: time.Now()}
}

// set records a key/value pair for the completion line.
func (p *progress) set(key string, value any) {
	p.fields = append(p.fields, key, value)
}

// results records how many subgraphs were formatted, skipped or deferred and
// how many knots were created.
func (p *progress) results(rs []*layout.Result) {
	counts := map[layout.Status]int{}
	knots := 0
	for _, r := range rs {
		counts[r.Status]++
		knots += len(r.Knots)
	}
	p.set("formatted", counts[layout.StatusFormatted])
	if n := counts[layout.StatusSkipped]; n > 0 {
		p.set("skipped", n)
	}
	if n := counts[layout.StatusDeferred]; n > 0 {
		p.set("deferred", n)
	}
	if knots > 0 {
		p.set("knots", knots)
	}
}

// done logs the operation with the recorded fields and the elapsed time,
// e.g. "format formatted=2 knots=3 elapsed=12ms".
func (p *progress) done() {
	fields := append(p.fields[:len(p.fields):len(p.fields)], "elapsed", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(p.op, fields...)
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the command logger, or log.Default when the
// context carries none.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
