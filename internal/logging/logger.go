package logging

import (
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

const (
	Critical = 50
	Fatal    = Critical
	Error    = 40
	Warning  = 30
	Info     = 20
	Debug    = 10
	NotSet   = 0
)

var (
	LogLevel      int = Info
	logLevelMutex sync.Mutex
	std           = log.New(os.Stderr, "", log.LstdFlags)
)

func init() {
	if lvl, ok := ParseLevel(os.Getenv("LOG_LEVEL")); ok {
		SetLogLevel(lvl)
	}
	localEnv := os.Getenv("LOCAL")
	if strings.ToLower(localEnv) == "true" || localEnv == "1" {
		SetLogLevel(Debug)
	}
}

// ParseLevel maps a level name ("debug", "info", "warn", ...) to its value.
func ParseLevel(name string) (int, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return Debug, true
	case "info":
		return Info, true
	case "warn", "warning":
		return Warning, true
	case "error":
		return Error, true
	case "critical", "fatal":
		return Critical, true
	default:
		return NotSet, false
	}
}

func SetLogLevel(level int) {
	logLevelMutex.Lock()
	defer logLevelMutex.Unlock()
	LogLevel = level
}

// SetOutput redirects all package level logging, mostly useful in tests.
func SetOutput(w io.Writer) {
	logLevelMutex.Lock()
	defer logLevelMutex.Unlock()
	std.SetOutput(w)
}

func logf(level int, tag, format string, v ...interface{}) {
	logLevelMutex.Lock()
	defer logLevelMutex.Unlock()
	if LogLevel <= level {
		std.Printf("["+tag+"] "+format, v...)
	}
}

func Debugf(format string, v ...interface{}) {
	logf(Debug, "DEBUG", format, v...)
}

func Infof(format string, v ...interface{}) {
	logf(Info, "INFO", format, v...)
}

func Warningf(format string, v ...interface{}) {
	logf(Warning, "WARN", format, v...)
}

func Errorf(format string, v ...interface{}) {
	logf(Error, "ERROR", format, v...)
}

func Criticalf(format string, v ...interface{}) {
	logf(Critical, "CRITICAL", format, v...)
}

func Fatalf(format string, v ...interface{}) {
	std.Fatalf("[FATAL] "+format, v...)
}
