// Package logger configures logrus and keeps a bounded journal of recent
// business events for the admin view.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ActionKey is the field every lifecycle event carries, e.g. ORDER_CREATED.
const ActionKey = "action"

type Config struct {
	Level       string
	Format      string
	JournalSize int
	Output      io.Writer
}

// New builds a logger writing to cfg.Output (stdout by default) with a
// Journal hook attached.
func New(cfg Config) (*log.Logger, *Journal, error) {
	level, err := log.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "parse log level %q", cfg.Level)
	}

	l := log.New()
	l.SetLevel(level)
	if cfg.Output != nil {
		l.SetOutput(cfg.Output)
	} else {
		l.SetOutput(os.Stdout)
	}

	switch strings.ToLower(cfg.Format) {
	case "text":
		l.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "", "json":
		l.SetFormatter(&log.JSONFormatter{})
	default:
		return nil, nil, errors.Errorf("unknown log format %q", cfg.Format)
	}

	journal := NewJournal(cfg.JournalSize)
	l.AddHook(journal)
	return l, journal, nil
}

// Discard returns a logger that drops everything, for tests.
func Discard() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}
