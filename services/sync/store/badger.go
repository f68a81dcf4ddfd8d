// Copyright (C) 2025 TeamSync Labs (dev@teamsync.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/teamsync-labs/teamsync/services/sync/datatypes"
)

// Key prefixes. Entities are JSON documents keyed by id; comments and
// activity entries embed the parent issue id and a nanosecond timestamp so a
// prefix scan returns them in creation order.
const (
	prefixUser      = "user:"
	prefixUserEmail = "useremail:"
	prefixBoard     = "board:"
	prefixIssue     = "issue:"
	prefixComment   = "comment:"
	prefixRule      = "rule:"
	prefixActivity  = "activity:"
)

// Config holds configuration for the embedded BadgerDB store.
type Config struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence). Used by tests.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger receives BadgerDB's internal logging. Nil disables it.
	Logger *slog.Logger

	// GCInterval is how often RunGC sweeps the value log. Zero disables GC.
	GCInterval time.Duration

	// GCDiscardRatio is the minimum garbage ratio before a sweep rewrites a
	// value log file.
	GCDiscardRatio float64
}

// DefaultConfig returns production defaults: durable writes and a five-minute
// GC sweep.
func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryConfig returns a configuration for tests: no disk I/O, no GC.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// BadgerStore is the embedded document store backing all entities.
type BadgerStore struct {
	db  *badger.DB
	cfg Config
}

var _ Store = (*BadgerStore)(nil)

// Open opens the store with the given configuration, creating the data
// directory if needed.
func Open(cfg Config) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &BadgerStore{db: db, cfg: cfg}, nil
}

// OpenInMemory opens a throwaway in-memory store for tests.
func OpenInMemory() (*BadgerStore, error) {
	return Open(InMemoryConfig())
}

// RunGC sweeps the value log until ctx is cancelled. Returns immediately when
// GC is disabled by configuration or the store is in memory.
func (s *BadgerStore) RunGC(ctx context.Context) {
	if s.cfg.GCInterval <= 0 || s.cfg.InMemory {
		return
	}
	ratio := s.cfg.GCDiscardRatio
	if ratio <= 0 {
		ratio = 0.5
	}
	ticker := time.NewTicker(s.cfg.GCInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// ErrNoRewrite just means there was nothing worth collecting.
			if err := s.db.RunValueLogGC(ratio); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				if s.cfg.Logger != nil {
					s.cfg.Logger.Warn("badger value log GC failed", "error", err)
				}
			}
		}
	}
}

// Close flushes and closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) Issues() IssueStore      { return (*issueStore)(s) }
func (s *BadgerStore) Boards() BoardStore      { return (*boardStore)(s) }
func (s *BadgerStore) Comments() CommentStore  { return (*commentStore)(s) }
func (s *BadgerStore) Users() UserStore        { return (*userStore)(s) }
func (s *BadgerStore) Rules() RuleStore        { return (*ruleStore)(s) }
func (s *BadgerStore) Activity() ActivityStore { return (*activityStore)(s) }

// setJSON writes a JSON document under key within txn.
func setJSON(txn *badger.Txn, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set([]byte(key), raw)
}

// getJSON reads a JSON document, mapping badger.ErrKeyNotFound to ErrNotFound.
func getJSON(txn *badger.Txn, key string, v any) error {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(raw []byte) error {
		return json.Unmarshal(raw, v)
	})
}

// scanJSON iterates all documents under prefix, unmarshals each into a fresh
// T and passes it to fn in key order.
func scanJSON[T any](txn *badger.Txn, prefix string, fn func(*T) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()
	for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
		var v T
		err := it.Item().Value(func(raw []byte) error {
			return json.Unmarshal(raw, &v)
		})
		if err != nil {
			return err
		}
		if err := fn(&v); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Issues
// =============================================================================

type issueStore BadgerStore

func (s *issueStore) Insert(_ context.Context, issue *datatypes.Issue) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, prefixIssue+issue.ID, issue)
	})
}

func (s *issueStore) Get(_ context.Context, id string) (*datatypes.Issue, error) {
	var issue datatypes.Issue
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, prefixIssue+id, &issue)
	})
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

func (s *issueStore) Patch(_ context.Context, id string, patch datatypes.IssuePatch) (*datatypes.Issue, error) {
	var issue datatypes.Issue
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := getJSON(txn, prefixIssue+id, &issue); err != nil {
			return err
		}
		patch.Apply(&issue)
		return setJSON(txn, prefixIssue+id, &issue)
	})
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

func (s *issueStore) Delete(_ context.Context, id string) (*datatypes.Issue, error) {
	var issue datatypes.Issue
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := getJSON(txn, prefixIssue+id, &issue); err != nil {
			return err
		}
		return txn.Delete([]byte(prefixIssue + id))
	})
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

func (s *issueStore) ListByBoard(_ context.Context, boardID string) ([]*datatypes.Issue, error) {
	var out []*datatypes.Issue
	err := s.db.View(func(txn *badger.Txn) error {
		return scanJSON(txn, prefixIssue, func(issue *datatypes.Issue) error {
			if issue.BoardID == boardID {
				out = append(out, issue)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Order < out[b].Order })
	return out, nil
}

func (s *issueStore) MaxOrder(ctx context.Context, boardID, status string) (int, error) {
	highest := 0
	err := s.db.View(func(txn *badger.Txn) error {
		return scanJSON(txn, prefixIssue, func(issue *datatypes.Issue) error {
			if issue.BoardID == boardID && issue.Status == status && issue.Order > highest {
				highest = issue.Order
			}
			return nil
		})
	})
	return highest, err
}

// =============================================================================
// Boards
// =============================================================================

type boardStore BadgerStore

func (s *boardStore) Insert(_ context.Context, board *datatypes.Board) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, prefixBoard+board.ID, board)
	})
}

func (s *boardStore) Get(_ context.Context, id string) (*datatypes.Board, error) {
	var board datatypes.Board
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, prefixBoard+id, &board)
	})
	if err != nil {
		return nil, err
	}
	return &board, nil
}

func (s *boardStore) ListByMember(_ context.Context, userID string) ([]*datatypes.Board, error) {
	var out []*datatypes.Board
	err := s.db.View(func(txn *badger.Txn) error {
		return scanJSON(txn, prefixBoard, func(board *datatypes.Board) error {
			if board.HasMember(userID) {
				out = append(out, board)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

// =============================================================================
// Comments
// =============================================================================

type commentStore BadgerStore

func commentKey(c *datatypes.Comment) string {
	return fmt.Sprintf("%s%s:%020d:%s", prefixComment, c.IssueID, c.CreatedAt.UnixNano(), c.ID)
}

func (s *commentStore) Insert(_ context.Context, comment *datatypes.Comment) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, commentKey(comment), comment)
	})
}

func (s *commentStore) ListByIssue(_ context.Context, issueID string) ([]*datatypes.Comment, error) {
	var out []*datatypes.Comment
	err := s.db.View(func(txn *badger.Txn) error {
		return scanJSON(txn, prefixComment+issueID+":", func(c *datatypes.Comment) error {
			out = append(out, c)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *commentStore) DeleteByIssue(_ context.Context, issueID string) error {
	prefix := []byte(prefixComment + issueID + ":")
	// Collect first; deleting while iterating invalidates the iterator.
	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// =============================================================================
// Users
// =============================================================================

type userStore BadgerStore

func (s *userStore) Insert(_ context.Context, user *datatypes.User) error {
	emailKey := prefixUserEmail + strings.ToLower(user.Email)
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(emailKey)); err == nil {
			return ErrConflict
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set([]byte(emailKey), []byte(user.ID)); err != nil {
			return err
		}
		return setJSON(txn, prefixUser+user.ID, user)
	})
}

func (s *userStore) Get(_ context.Context, id string) (*datatypes.User, error) {
	var user datatypes.User
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, prefixUser+id, &user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*datatypes.User, error) {
	var id string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixUserEmail + strings.ToLower(email)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(raw []byte) error {
			id = string(raw)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *userStore) List(_ context.Context) ([]*datatypes.User, error) {
	var out []*datatypes.User
	err := s.db.View(func(txn *badger.Txn) error {
		return scanJSON(txn, prefixUser, func(u *datatypes.User) error {
			out = append(out, u)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out, nil
}

// =============================================================================
// Workflow rules
// =============================================================================

type ruleStore BadgerStore

func (s *ruleStore) Insert(_ context.Context, rule *datatypes.WorkflowRule) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, prefixRule+rule.ID, rule)
	})
}

func (s *ruleStore) Get(_ context.Context, id string) (*datatypes.WorkflowRule, error) {
	var rule datatypes.WorkflowRule
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, prefixRule+id, &rule)
	})
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (s *ruleStore) Update(_ context.Context, rule *datatypes.WorkflowRule) error {
	return s.db.Update(func(txn *badger.Txn) error {
		var existing datatypes.WorkflowRule
		if err := getJSON(txn, prefixRule+rule.ID, &existing); err != nil {
			return err
		}
		return setJSON(txn, prefixRule+rule.ID, rule)
	})
}

func (s *ruleStore) Delete(_ context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		var existing datatypes.WorkflowRule
		if err := getJSON(txn, prefixRule+id, &existing); err != nil {
			return err
		}
		return txn.Delete([]byte(prefixRule + id))
	})
}

func (s *ruleStore) List(_ context.Context) ([]*datatypes.WorkflowRule, error) {
	out, err := s.scan(func(*datatypes.WorkflowRule) bool { return true })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

func (s *ruleStore) ListEnabledByTrigger(_ context.Context, trigger string) ([]*datatypes.WorkflowRule, error) {
	out, err := s.scan(func(r *datatypes.WorkflowRule) bool {
		return r.Enabled && r.Trigger == trigger
	})
	if err != nil {
		return nil, err
	}
	// Oldest first: the newest rule is applied last and wins a same-field
	// conflict within one evaluation pass.
	sort.SliceStable(out, func(a, b int) bool { return out[a].CreatedAt.Before(out[b].CreatedAt) })
	return out, nil
}

func (s *ruleStore) scan(keep func(*datatypes.WorkflowRule) bool) ([]*datatypes.WorkflowRule, error) {
	var out []*datatypes.WorkflowRule
	err := s.db.View(func(txn *badger.Txn) error {
		return scanJSON(txn, prefixRule, func(r *datatypes.WorkflowRule) error {
			if keep(r) {
				out = append(out, r)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// =============================================================================
// Activity log
// =============================================================================

type activityStore BadgerStore

func activityKey(e *datatypes.ActivityLog) string {
	return fmt.Sprintf("%s%s:%020d:%s", prefixActivity, e.IssueID, e.Timestamp.UnixNano(), e.ID)
}

func (s *activityStore) Insert(_ context.Context, entry *datatypes.ActivityLog) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, activityKey(entry), entry)
	})
}

func (s *activityStore) ListByIssue(_ context.Context, issueID string) ([]*datatypes.ActivityLog, error) {
	var out []*datatypes.ActivityLog
	err := s.db.View(func(txn *badger.Txn) error {
		return scanJSON(txn, prefixActivity+issueID+":", func(e *datatypes.ActivityLog) error {
			out = append(out, e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	// Keys scan oldest first; the timeline renders newest first.
	for a, b := 0, len(out)-1; a < b; a, b = a+1, b-1 {
		out[a], out[b] = out[b], out[a]
	}
	return out, nil
}
