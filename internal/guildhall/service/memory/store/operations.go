package store

import (
	"database/sql"
	"strings"
	"time"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
)

// InsertMemory stores one record, mirroring it into the FTS index when
// available.
func InsertMemory(db *sql.DB, record *entity.MemoryRecord, ftsAvailable bool) error {
	_, err := db.Exec(
		`INSERT INTO `+TableMemories+` (id, kind, text, source, created_at) VALUES (?, ?, ?, ?, ?)`,
		record.ID, record.Kind, record.Text, record.Source, record.CreatedAt.UnixMilli())
	if err != nil {
		return err
	}
	if ftsAvailable {
		_, err = db.Exec(
			`INSERT INTO `+TableMemoriesFTS+` (text, id, kind) VALUES (?, ?, ?)`,
			record.Text, record.ID, record.Kind)
	}
	return err
}

// SearchFTS runs an FTS5 match, best hits first.
func SearchFTS(db *sql.DB, match string, limit int) ([]*entity.MemoryRecord, error) {
	rows, err := db.Query(
		`SELECT m.id, m.kind, m.text, m.source, m.created_at
		 FROM `+TableMemoriesFTS+` f
		 JOIN `+TableMemories+` m ON m.id = f.id
		 WHERE `+TableMemoriesFTS+` MATCH ?
		 ORDER BY rank LIMIT ?`,
		match, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMemories(rows)
}

// SearchLike is the substring fallback: any token matching anywhere in the
// text counts, newest first.
func SearchLike(db *sql.DB, tokens []string, limit int) ([]*entity.MemoryRecord, error) {
	conds := make([]string, len(tokens))
	args := make([]interface{}, 0, len(tokens)+1)
	for i, tok := range tokens {
		conds[i] = "text LIKE ?"
		args = append(args, "%"+tok+"%")
	}
	args = append(args, limit)

	rows, err := db.Query(
		`SELECT id, kind, text, source, created_at FROM `+TableMemories+
			` WHERE `+strings.Join(conds, " OR ")+
			` ORDER BY created_at DESC LIMIT ?`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMemories(rows)
}

// RecentMemories returns the newest records.
func RecentMemories(db *sql.DB, limit int) ([]*entity.MemoryRecord, error) {
	rows, err := db.Query(
		`SELECT id, kind, text, source, created_at FROM `+TableMemories+
			` ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMemories(rows)
}

// CountMemories returns the total number of stored records.
func CountMemories(db *sql.DB) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM ` + TableMemories).Scan(&count)
	return count, err
}

func scanMemories(rows *sql.Rows) ([]*entity.MemoryRecord, error) {
	var records []*entity.MemoryRecord
	for rows.Next() {
		var r entity.MemoryRecord
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.Kind, &r.Text, &r.Source, &createdAt); err != nil {
			return nil, err
		}
		r.CreatedAt = time.UnixMilli(createdAt)
		records = append(records, &r)
	}
	return records, rows.Err()
}
