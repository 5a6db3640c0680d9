// Package logx provides the engine's bracket-tagged status logging, the
// same plain fmt.Printf idiom the teacher's chat service uses
// (`fmt.Printf("[ChatService] ...")`), instead of pulling in a structured
// logging library nothing else in the stack reaches for.
package logx

import (
	"fmt"
	"os"
)

// Logger prints bracket-tagged lines to an underlying writer (os.Stderr
// by default). Safe for concurrent use since fmt.Fprintf already
// serializes on the destination's own locking where applicable;
// call sites that need stronger guarantees wrap their own mutex.
type Logger struct {
	tag string
	out *os.File
}

// New returns a Logger whose lines are prefixed "[tag] ".
func New(tag string) *Logger {
	return &Logger{tag: tag, out: os.Stderr}
}

func (l *Logger) Infof(format string, args ...any) {
	fmt.Fprintf(l.out, "[%s] "+format+"\n", append([]any{l.tag}, args...)...)
}

func (l *Logger) Warnf(format string, args ...any) {
	fmt.Fprintf(l.out, "[%s] WARN "+format+"\n", append([]any{l.tag}, args...)...)
}

func (l *Logger) Errorf(format string, args ...any) {
	fmt.Fprintf(l.out, "[%s] ERROR "+format+"\n", append([]any{l.tag}, args...)...)
}

func (l *Logger) Debugf(format string, args ...any) {
	if os.Getenv("MEMGRAPH_DEBUG") == "" {
		return
	}
	fmt.Fprintf(l.out, "[%s] DEBUG "+format+"\n", append([]any{l.tag}, args...)...)
}
