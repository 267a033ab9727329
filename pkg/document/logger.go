package document

import (
	"fmt"
	"log"
	"strings"
)

// Logger is a key/value logger. The variadic arguments are alternating keys
// and values.
type Logger interface {
	Debug(msg string, kv ...any)
	Error(msg string, kv ...any)
	With(kv ...any) Logger
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any)  {}
func (nopLogger) Error(string, ...any)  {}
func (n nopLogger) With(...any) Logger { return n }

// StdLogger writes through the standard library logger. Debug lines are
// dropped unless Verbose is set.
type StdLogger struct {
	Logger  *log.Logger
	Verbose bool
	Tags    []any
}

// Debug implements Logger.
func (l *StdLogger) Debug(msg string, kv ...any) {
	if !l.Verbose {
		return
	}
	l.output("DEB ", msg, kv)
}

// Error implements Logger.
func (l *StdLogger) Error(msg string, kv ...any) {
	l.output("ERR ", msg, kv)
}

// With implements Logger.
func (l *StdLogger) With(kv ...any) Logger {
	tags := make([]any, 0, len(l.Tags)+len(kv))
	tags = append(tags, l.Tags...)
	tags = append(tags, kv...)
	return &StdLogger{Logger: l.Logger, Verbose: l.Verbose, Tags: tags}
}

func (l *StdLogger) output(level, msg string, kv []any) {
	var b strings.Builder
	b.WriteString(level)
	b.WriteString(msg)
	for _, pairs := range [][]any{l.Tags, kv} {
		for idx, value := range pairs {
			if idx%2 == 0 {
				b.WriteByte(' ')
			} else {
				b.WriteByte('=')
			}
			b.WriteString(fmt.Sprint(value))
		}
	}
	if l.Logger != nil {
		l.Logger.Print(b.String())
		return
	}
	log.Print(b.String())
}
