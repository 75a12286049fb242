package logger

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const defaultJournalSize = 1000

type Entry struct {
	Timestamp time.Time              `json:"timestamp"`
	Action    string                 `json:"action"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Journal is a logrus hook that retains the newest entries carrying an
// ActionKey field. Oldest entries are dropped first.
type Journal struct {
	mu      sync.Mutex
	size    int
	entries []Entry
}

func NewJournal(size int) *Journal {
	if size <= 0 {
		size = defaultJournalSize
	}
	return &Journal{size: size}
}

func (j *Journal) Levels() []log.Level {
	return log.AllLevels
}

func (j *Journal) Fire(e *log.Entry) error {
	action, ok := e.Data[ActionKey].(string)
	if !ok {
		return nil
	}
	data := make(map[string]interface{}, len(e.Data))
	for k, v := range e.Data {
		if k == ActionKey {
			continue
		}
		data[k] = v
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, Entry{Timestamp: e.Time, Action: action, Message: e.Message, Data: data})
	if len(j.entries) > j.size {
		j.entries = append(j.entries[:0:0], j.entries[len(j.entries)-j.size:]...)
	}
	return nil
}

// Recent returns up to n entries, newest first. n <= 0 returns all.
func (j *Journal) Recent(n int) []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	if n <= 0 || n > len(j.entries) {
		n = len(j.entries)
	}
	out := make([]Entry, 0, n)
	for i := len(j.entries) - 1; i >= len(j.entries)-n; i-- {
		out = append(out, j.entries[i])
	}
	return out
}

func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}
