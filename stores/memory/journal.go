package memory

import (
	"context"
	"hotel-panel/core"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// MaxRecords bounds the in-memory journal; older records are dropped first.
const MaxRecords = 500

type journal struct {
	mu      sync.RWMutex
	records []core.CommandRecord
}

func NewJournal() core.Journal {
	return &journal{
		records: make([]core.CommandRecord, 0, 64),
	}
}

func (j *journal) Append(ctx context.Context, record core.CommandRecord) error {
	if record.ID == "" {
		record.ID = ulid.Make().String()
	}
	record.BookedRooms = append([]int(nil), record.BookedRooms...)

	j.mu.Lock()
	j.records = append(j.records, record)
	if len(j.records) > MaxRecords {
		j.records = append(j.records[:0], j.records[len(j.records)-MaxRecords:]...)
	}
	j.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"record_id": record.ID,
		"command":   record.Command,
		"success":   record.Success,
	}).Debug("Command recorded")
	return nil
}

func (j *journal) List(ctx context.Context, limit int) ([]core.CommandRecord, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	n := len(j.records)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]core.CommandRecord, 0, n)
	for i := len(j.records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, j.records[i])
	}
	return out, nil
}
