package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"hotel-panel/core"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

type journal struct {
	db *sql.DB
}

func NewJournal(dataSourceName string) (core.Journal, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("open sqlite journal: %w", err)
	}

	sts := `CREATE TABLE IF NOT EXISTS command_journal (
		id TEXT PRIMARY KEY,
		command TEXT NOT NULL,
		room_count INTEGER NOT NULL DEFAULT 0,
		success INTEGER NOT NULL,
		message TEXT,
		booked_rooms TEXT,
		at INTEGER NOT NULL
	);`
	if _, err := db.Exec(sts); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create command_journal table: %w", err)
	}

	return &journal{db}, nil
}

func (j *journal) Append(ctx context.Context, record core.CommandRecord) error {
	if record.ID == "" {
		record.ID = ulid.Make().String()
	}
	log := logrus.WithFields(logrus.Fields{
		"record_id": record.ID,
		"command":   record.Command,
	})

	var booked []byte
	if len(record.BookedRooms) > 0 {
		var err error
		if booked, err = json.Marshal(record.BookedRooms); err != nil {
			return fmt.Errorf("encode booked rooms: %w", err)
		}
	}

	_, err := j.db.ExecContext(ctx,
		"INSERT INTO command_journal (id, command, room_count, success, message, booked_rooms, at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		record.ID, record.Command, record.RoomCount, record.Success, record.Message, string(booked), record.At.UnixMilli())
	if err != nil {
		log.WithField("error", err).Error("Failed to record command")
		return err
	}
	log.Debug("Command recorded")
	return nil
}

func (j *journal) List(ctx context.Context, limit int) ([]core.CommandRecord, error) {
	query := "SELECT id, command, room_count, success, message, booked_rooms, at FROM command_journal ORDER BY at DESC, id DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		logrus.WithField("error", err).Error("Failed to list journal")
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			logrus.WithError(cerr).Warn("Failed to close journal rows")
		}
	}()

	records := []core.CommandRecord{}
	for rows.Next() {
		var (
			rec     core.CommandRecord
			message sql.NullString
			booked  sql.NullString
			at      int64
		)
		if err := rows.Scan(&rec.ID, &rec.Command, &rec.RoomCount, &rec.Success, &message, &booked, &at); err != nil {
			logrus.WithField("error", err).Error("Failed to scan journal record")
			continue
		}
		rec.Message = message.String
		rec.At = time.UnixMilli(at).UTC()
		if booked.String != "" {
			if err := json.Unmarshal([]byte(booked.String), &rec.BookedRooms); err != nil {
				logrus.WithError(err).WithField("record_id", rec.ID).Warn("Corrupt booked_rooms column")
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close releases the database handle.
func (j *journal) Close() error {
	return j.db.Close()
}
