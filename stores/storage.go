package stores

import (
	"hotel-panel/core"
	"hotel-panel/stores/memory"
	"hotel-panel/stores/sqlite"

	"github.com/sirupsen/logrus"
)

// GetJournal picks the command journal backend. Anything other than
// "sqlite" gets the in-memory journal.
func GetJournal(journalType, dataSourceName string) (core.Journal, error) {
	var journal core.Journal

	journalField := logrus.Fields{
		"journalType": journalType,
	}

	switch journalType {
	case "sqlite":
		journalField["dataSourceName"] = dataSourceName
		j, err := sqlite.NewJournal(dataSourceName)
		if err != nil {
			logrus.WithFields(journalField).WithError(err).Error("Failed to open journal")
			return nil, err
		}
		journal = j
	default:
		journal = memory.NewJournal()
		journalField["journalType"] = "in-memory"
	}
	logrus.WithFields(journalField).Info("Use journal")
	return journal, nil
}
