package logging

import (
	"log"
	"os"

	"github.com/natefinch/lumberjack"
)

// Config selects where log messages go. With no Logfile, messages go to
// stderr through the standard log package.
type Config struct {
	Logfile string
	Level   string `toml:"level"`
	MaxSize int    `toml:"max_log_size"` // megabytes
	MaxAge  int    `toml:"max_log_age"`  // days
}

// SetLogger applies the configuration: level first, then the rotating
// log file if one is named.
func (c *Config) SetLogger() error {
	if c == nil {
		return nil
	}
	if c.Level != "" {
		m, err := ParseMode(c.Level)
		if err != nil {
			return err
		}
		SetLogMode(m)
	}
	if c.Logfile == "" {
		Debugf("sending log messages to stderr since no log file specified")
		return nil
	}
	l := &lumberjack.Logger{
		Filename: c.Logfile,
		MaxSize:  c.MaxSize,
		MaxAge:   c.MaxAge,
	}
	mu.Lock()
	output = l
	mu.Unlock()
	log.SetOutput(l)
	return nil
}

// Shutdown closes the rotating log file, if any, and restores stderr.
func Shutdown() {
	mu.Lock()
	l := output
	output = nil
	mu.Unlock()
	if l != nil {
		log.SetOutput(os.Stderr)
		l.Close()
	}
}
