// Package logger provides leveled logging for the pipeline.
package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Level represents a logging level.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func parseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

type leveledLogger struct {
	level Level
	out   *log.Logger
}

var std *leveledLogger

// Init configures the package logger. Format "text" adds caller file:line.
func Init(level string, format string) {
	flags := log.LstdFlags | log.Lmicroseconds
	if strings.ToLower(format) == "text" {
		flags |= log.Lshortfile
	}
	std = &leveledLogger{
		level: parseLevel(level),
		out:   log.New(os.Stderr, "", flags),
	}
}

func emit(at Level, tag, format string, args ...interface{}) {
	if std == nil || std.level > at {
		return
	}
	_ = std.out.Output(3, fmt.Sprintf(tag+format, args...))
}

func Debug(format string, args ...interface{}) {
	emit(DebugLevel, "[DEBUG] ", format, args...)
}

func Info(format string, args ...interface{}) {
	emit(InfoLevel, "[INFO] ", format, args...)
}

func Warn(format string, args ...interface{}) {
	emit(WarnLevel, "[WARN] ", format, args...)
}

func Error(format string, args ...interface{}) {
	emit(ErrorLevel, "[ERROR] ", format, args...)
}

func Fatal(format string, args ...interface{}) {
	if std != nil {
		_ = std.out.Output(3, fmt.Sprintf("[FATAL] "+format, args...))
	}
	os.Exit(1)
}
