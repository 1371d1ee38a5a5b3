// Package logging provides leveled, printf-style logging. Messages go to the
// standard log package, or to a rotating file once Config.SetLogger is called.
package logging

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/natefinch/lumberjack"
)

type ModeFlag uint

const (
	DebugMode ModeFlag = iota
	InfoMode
	WarningMode
	ErrorMode
	CriticalMode
	SilentMode
)

func (m ModeFlag) String() string {
	switch m {
	case DebugMode:
		return "debug"
	case InfoMode:
		return "info"
	case WarningMode:
		return "warning"
	case ErrorMode:
		return "error"
	case CriticalMode:
		return "critical"
	case SilentMode:
		return "silent"
	default:
		return fmt.Sprintf("ModeFlag(%d)", uint(m))
	}
}

// ParseMode maps a level name to a ModeFlag.
func ParseMode(s string) (ModeFlag, error) {
	for m := DebugMode; m <= SilentMode; m++ {
		if m.String() == s {
			return m, nil
		}
	}
	return InfoMode, fmt.Errorf("unknown log level %q", s)
}

var (
	mu     sync.RWMutex
	mode   = InfoMode
	output *lumberjack.Logger
)

// SetLogMode sets the severity required for a message to be printed.
// SetLogMode(WarningMode) prints Warningf, Errorf and Criticalf only.
func SetLogMode(newMode ModeFlag) {
	mu.Lock()
	mode = newMode
	mu.Unlock()
}

// LogMode returns the current severity threshold.
func LogMode() ModeFlag {
	mu.RLock()
	defer mu.RUnlock()
	return mode
}

func enabled(level ModeFlag) bool {
	return LogMode() <= level
}

func write(level, format string, args ...interface{}) {
	log.Printf(" "+level+" "+format, args...)
}

func Debugf(format string, args ...interface{}) {
	if enabled(DebugMode) {
		write("DEBUG", format, args...)
	}
}

func Infof(format string, args ...interface{}) {
	if enabled(InfoMode) {
		write("INFO", format, args...)
	}
}

func Warningf(format string, args ...interface{}) {
	if enabled(WarningMode) {
		write("WARNING", format, args...)
	}
}

func Errorf(format string, args ...interface{}) {
	if enabled(ErrorMode) {
		write("ERROR", format, args...)
	}
}

func Criticalf(format string, args ...interface{}) {
	if enabled(CriticalMode) {
		write("CRITICAL", format, args...)
	}
}

// TimeLog appends the time elapsed since its creation to each message.
//
//	tlog := logging.NewTimeLog()
//	...
//	tlog.Debugf("pass %d done", i) // "pass 1 done: 1.2ms"
type TimeLog struct {
	start time.Time
}

func NewTimeLog() TimeLog {
	return TimeLog{time.Now()}
}

// Elapsed returns the time since the TimeLog was created.
func (t TimeLog) Elapsed() time.Duration {
	return time.Since(t.start)
}

func (t TimeLog) Debugf(format string, args ...interface{}) {
	Debugf(format+": %s", append(args, time.Since(t.start))...)
}

func (t TimeLog) Infof(format string, args ...interface{}) {
	Infof(format+": %s", append(args, time.Since(t.start))...)
}

func (t TimeLog) Warningf(format string, args ...interface{}) {
	Warningf(format+": %s", append(args, time.Since(t.start))...)
}
