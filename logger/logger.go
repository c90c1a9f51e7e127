// Package logger provides leveled logging for inkwell with a console/syslog
// backend, an optional file backend, and a small in-memory buffer of recent entries.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/op/go-logging"
)

const (
	module           = "inkwell"
	maxLogBufferSize = 1024                  // Maximum log entries kept in memory
	logFileName      = "inkwell.log"         // Log file name
	timeFormat       = "2006/01/02 15:04:05" // Log timestamp format
)

type entry struct {
	time  string
	level logging.Level
	log   string
}

var (
	logger  *logging.Logger
	logFile *os.File

	bufMu     sync.Mutex
	logBuffer []entry
)

// Until InitLogger runs, everything goes to stderr at INFO.
func init() {
	l := logging.MustGetLogger(module)
	backend := logging.NewBackendFormatter(logging.NewLogBackend(os.Stderr, "", 0), newFormatter(true))
	leveled := logging.AddModuleLevel(backend)
	leveled.SetLevel(logging.INFO, module)
	l.SetBackend(leveled)
	logger = l
}

// InitLogger configures the console/syslog backend at the given level and, when
// logDir is non-empty, a file backend that always records DEBUG.
func InitLogger(level logging.Level, logDir string) {
	newLogger := logging.MustGetLogger(module)
	backends := make([]logging.Backend, 0, 2)

	if consoleBackend := initDefaultBackend(); consoleBackend != nil {
		leveledBackend := logging.AddModuleLevel(consoleBackend)
		leveledBackend.SetLevel(level, module)
		backends = append(backends, leveledBackend)
	}

	if logDir != "" {
		if fileBackend := initFileBackend(logDir); fileBackend != nil {
			leveledBackend := logging.AddModuleLevel(fileBackend)
			leveledBackend.SetLevel(logging.DEBUG, module)
			backends = append(backends, leveledBackend)
		}
	}

	multiBackend := logging.MultiLogger(backends...)
	newLogger.SetBackend(multiBackend)
	logger = newLogger
}

// ParseLevel maps a textual level ("debug", "warn", ...) to a go-logging level.
func ParseLevel(level string) (logging.Level, error) {
	switch level {
	case "warn":
		return logging.WARNING, nil
	default:
		return logging.LogLevel(level)
	}
}

// initDefaultBackend uses syslog on unix-like systems when available and
// stderr otherwise.
func initDefaultBackend() logging.Backend {
	var backend logging.Backend
	includeTime := false

	if runtime.GOOS == "windows" {
		backend = logging.NewLogBackend(os.Stderr, "", 0)
		includeTime = true
	} else {
		if syslogBackend, err := logging.NewSyslogBackend(module); err != nil {
			backend = logging.NewLogBackend(os.Stderr, "", 0)
			includeTime = os.Getppid() > 0
		} else {
			backend = syslogBackend
		}
	}

	return logging.NewBackendFormatter(backend, newFormatter(includeTime))
}

func initFileBackend(logDir string) logging.Backend {
	if err := os.MkdirAll(logDir, 0o750); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log folder %s: %v\n", logDir, err)
		return nil
	}

	logPath := filepath.Join(logDir, logFileName)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o660)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file %s: %v\n", logPath, err)
		return nil
	}

	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = file

	backend := logging.NewLogBackend(file, "", 0)
	return logging.NewBackendFormatter(backend, newFormatter(true))
}

func newFormatter(withTime bool) logging.Formatter {
	format := `%{level} - %{message}`
	if withTime {
		format = `%{time:` + timeFormat + `} %{level} - %{message}`
	}
	return logging.MustStringFormatter(format)
}

// CloseLogger closes the log file. Call it during shutdown.
func CloseLogger() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

func Debug(args ...any) {
	emit(logging.DEBUG, sprint(args))
}

func Debugf(format string, args ...any) {
	emit(logging.DEBUG, fmt.Sprintf(format, args...))
}

func Info(args ...any) {
	emit(logging.INFO, sprint(args))
}

func Infof(format string, args ...any) {
	emit(logging.INFO, fmt.Sprintf(format, args...))
}

func Notice(args ...any) {
	emit(logging.NOTICE, sprint(args))
}

func Noticef(format string, args ...any) {
	emit(logging.NOTICE, fmt.Sprintf(format, args...))
}

func Warning(args ...any) {
	emit(logging.WARNING, sprint(args))
}

func Warningf(format string, args ...any) {
	emit(logging.WARNING, fmt.Sprintf(format, args...))
}

func Error(args ...any) {
	emit(logging.ERROR, sprint(args))
}

func Errorf(format string, args ...any) {
	emit(logging.ERROR, fmt.Sprintf(format, args...))
}

// sprint joins args with spaces the way the backends print them.
func sprint(args []any) string {
	return strings.TrimSuffix(fmt.Sprintln(args...), "\n")
}

// emit sends one already formatted line to the backends and the buffer.
func emit(level logging.Level, msg string) {
	switch level {
	case logging.DEBUG:
		logger.Debug(msg)
	case logging.INFO:
		logger.Info(msg)
	case logging.NOTICE:
		logger.Notice(msg)
	case logging.WARNING:
		logger.Warning(msg)
	default:
		logger.Error(msg)
	}
	addToBuffer(level, msg)
}

func addToBuffer(level logging.Level, newLog string) {
	bufMu.Lock()
	defer bufMu.Unlock()

	if len(logBuffer) >= maxLogBufferSize {
		logBuffer = logBuffer[1:]
	}
	logBuffer = append(logBuffer, entry{
		time:  time.Now().Format(timeFormat),
		level: level,
		log:   newLog,
	})
}

// GetLogs returns up to c of the newest buffered entries at or above the
// severity named by level, newest first.
func GetLogs(c int, level string) []string {
	bufMu.Lock()
	defer bufMu.Unlock()

	logLevel, err := ParseLevel(level)
	if err != nil {
		logLevel = logging.DEBUG
	}

	var output []string
	for i := len(logBuffer) - 1; i >= 0 && len(output) < c; i-- {
		if logBuffer[i].level <= logLevel {
			output = append(output, fmt.Sprintf("%s %s - %s", logBuffer[i].time, logBuffer[i].level, logBuffer[i].log))
		}
	}
	return output
}
