// Package memory is the long-term memory collaborator: a small SQLite store
// of facts recalled before dispatch and fed by archived epics' learnings.
package memory

import (
	"context"
	"database/sql"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/mverel/guildmaster/internal/guildhall/service/memory/store"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/pkg/errno"
	"github.com/mverel/guildmaster/pkg/logger"
)

// maxQueryTokens bounds how much of a query feeds the search; dispatch
// queries are whole prompts and the head carries the subject.
const maxQueryTokens = 12

// Service is the SQLite-backed memory store. It prefers FTS5 ranking and
// falls back to substring matching when the build lacks FTS5.
type Service struct {
	db           *sql.DB
	ftsAvailable bool
	now          func() time.Time
}

// Find returns up to limit records relevant to query, best first. An empty
// query returns the newest records.
func (s *Service) Find(ctx context.Context, query string, limit int) ([]*entity.MemoryRecord, error) {
	if limit <= 0 {
		limit = 5
	}

	tokens := tokenize(query)
	if len(tokens) == 0 {
		return store.RecentMemories(s.db, limit)
	}

	if s.ftsAvailable {
		records, err := store.SearchFTS(s.db, ftsQuery(tokens), limit)
		if err == nil {
			return records, nil
		}
		logger.DebugX(moduleName, "FTS lookup failed, falling back to substring search: %v", err)
	}
	return store.SearchLike(s.db, tokens, limit)
}

// Store persists one record, filling its id and timestamp.
func (s *Service) Store(ctx context.Context, record *entity.MemoryRecord) error {
	if record == nil || record.Text == "" {
		return errno.Newf(errno.ErrInvalidArgument, "memory record needs text")
	}
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = s.now()
	}
	return store.InsertMemory(s.db, record, s.ftsAvailable)
}

// Count returns how many records the store holds.
func (s *Service) Count(ctx context.Context) (int, error) {
	return store.CountMemories(s.db)
}

// tokenize splits a query into searchable word tokens, lowercased and
// deduplicated, keeping the head of long queries.
func tokenize(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
		if len(tokens) == maxQueryTokens {
			break
		}
	}
	return tokens
}

// ftsQuery builds an any-token MATCH expression. Tokens are bare words, so
// quoting keeps FTS5 from reading them as syntax.
func ftsQuery(tokens []string) string {
	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = `"` + tok + `"`
	}
	return strings.Join(quoted, " OR ")
}
