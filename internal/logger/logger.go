package logger

import (
	"log"
	"os"
)

type Logger struct {
	level  string
	prefix string
}

func New(level string) *Logger {
	return &Logger{
		level: level,
	}
}

// WithPrefix returns a logger that tags every line, used by per-provider
// sync passes.
func (l *Logger) WithPrefix(prefix string) *Logger {
	return &Logger{
		level:  l.level,
		prefix: "[" + prefix + "] ",
	}
}

func (l *Logger) Info(msg string, args ...interface{}) {
	if l.level == "debug" || l.level == "info" {
		log.Printf("[INFO] "+l.prefix+msg, args...)
	}
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.level == "debug" {
		log.Printf("[DEBUG] "+l.prefix+msg, args...)
	}
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.level == "debug" || l.level == "info" || l.level == "warn" {
		log.Printf("[WARN] "+l.prefix+msg, args...)
	}
}

func (l *Logger) Error(msg string, args ...interface{}) {
	log.Printf("[ERROR] "+l.prefix+msg, args...)
}

func (l *Logger) Fatal(msg string, args ...interface{}) {
	log.Printf("[FATAL] "+l.prefix+msg, args...)
	os.Exit(1)
}
