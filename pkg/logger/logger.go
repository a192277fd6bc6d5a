package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/billtrust/sla-monitor-report-lambda/internal/application/port"
)

type Logger struct {
	logger *log.Logger
	level  Level
	fields []interface{}

	mu        *sync.RWMutex
	publisher *port.LogPublisher
}

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func New(level string) *Logger {
	return NewWithWriter(level, os.Stdout)
}

// NewWithWriter builds a logger writing to w instead of stdout.
func NewWithWriter(level string, w io.Writer) *Logger {
	var publisher port.LogPublisher
	return &Logger{
		logger:    log.New(w, "", 0),
		level:     parseLevel(level),
		mu:        &sync.RWMutex{},
		publisher: &publisher,
	}
}

func parseLevel(level string) Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// SetLogPublisher mirrors every emitted entry to publisher. Pass nil to stop mirroring.
// Loggers derived with With share the publisher.
func (l *Logger) SetLogPublisher(publisher port.LogPublisher) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.publisher = publisher
}

// With returns a logger that appends the given key/value pairs to every entry.
func (l *Logger) With(args ...interface{}) *Logger {
	fields := make([]interface{}, 0, len(l.fields)+len(args))
	fields = append(fields, l.fields...)
	fields = append(fields, args...)
	return &Logger{
		logger:    l.logger,
		level:     l.level,
		fields:    fields,
		mu:        l.mu,
		publisher: l.publisher,
	}
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.level <= DEBUG {
		l.log(port.LogLevelDebug, msg, args...)
	}
}

func (l *Logger) Info(msg string, args ...interface{}) {
	if l.level <= INFO {
		l.log(port.LogLevelInfo, msg, args...)
	}
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.level <= WARN {
		l.log(port.LogLevelWarn, msg, args...)
	}
}

func (l *Logger) Error(msg string, err error, args ...interface{}) {
	if l.level <= ERROR {
		if err != nil {
			args = append(args, "error", err.Error())
		}
		l.log(port.LogLevelError, msg, args...)
	}
}

func (l *Logger) log(level port.LogLevel, msg string, args ...interface{}) {
	now := time.Now()
	if len(l.fields) > 0 {
		args = append(append([]interface{}{}, l.fields...), args...)
	}

	message := fmt.Sprintf("[%s] [%s] %s", now.Format("2006-01-02 15:04:05"), level, msg)

	if len(args) > 0 {
		message += " |"
		for i := 0; i < len(args); i += 2 {
			if i+1 < len(args) {
				message += fmt.Sprintf(" %v=%v", args[i], args[i+1])
			}
		}
	}

	l.logger.Println(message)
	l.mirror(now, level, msg, args)
}

func (l *Logger) mirror(now time.Time, level port.LogLevel, msg string, args []interface{}) {
	l.mu.RLock()
	publisher := *l.publisher
	l.mu.RUnlock()
	if publisher == nil {
		return
	}

	fields := make(map[string]interface{}, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		fields[fmt.Sprint(args[i])] = args[i+1]
	}

	// Publish errors are dropped: reporting them here would recurse.
	_ = publisher.Publish(context.Background(), port.LogEntry{
		Timestamp: now,
		Level:     level,
		Message:   msg,
		Fields:    fields,
	})
}
