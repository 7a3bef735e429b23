// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/AleutianAI/PortfolioLocal/services/portfolio/datatypes"
	"github.com/AleutianAI/PortfolioLocal/services/portfolio/patch"
)

// Key layout. The user key holds the document; the id key holds the owning
// userID so documents can be resolved by id without a scan.
const (
	userKeyPrefix = "portfolio/user/"
	idKeyPrefix   = "portfolio/id/"
)

var (
	// ErrNotFound indicates no portfolio exists for the given identity.
	ErrNotFound = errors.New("portfolio not found")

	// ErrAlreadyExists indicates the user already has a portfolio.
	ErrAlreadyExists = errors.New("portfolio already exists")
)

// PortfolioStore persists portfolio documents.
//
// Thread Safety: Safe for concurrent use; BadgerDB transactions provide
// isolation and ApplyFields retries are the caller's concern.
type PortfolioStore struct {
	db     *DB
	logger *slog.Logger
}

// NewPortfolioStore creates a store backed by the given database.
func NewPortfolioStore(db *DB, logger *slog.Logger) *PortfolioStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PortfolioStore{db: db, logger: logger}
}

// Create stores a new portfolio for the user.
//
// Description:
//
//	Assigns a document id and persists the document plus the id index in
//	one transaction. A nil document bootstraps the canonical empty
//	portfolio.
//
// Inputs:
//
//	ctx - Context for cancellation.
//	userID - Owning user. Must be non-empty.
//	doc - Initial document, or nil for the canonical empty one.
//
// Outputs:
//
//	map[string]any - The stored document, id and userId filled in.
//	error - ErrAlreadyExists if the user already has a portfolio.
func (s *PortfolioStore) Create(ctx context.Context, userID string, doc map[string]any) (map[string]any, error) {
	if userID == "" {
		return nil, errors.New("userID must not be empty")
	}
	if doc == nil {
		doc = datatypes.EmptyPortfolio(userID)
	}
	docID := uuid.NewString()
	doc["id"] = docID
	doc["userId"] = userID

	err := s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		userKey := []byte(userKeyPrefix + userID)
		if _, err := txn.Get(userKey); err == nil {
			return fmt.Errorf("user %s: %w", userID, ErrAlreadyExists)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check existing portfolio: %w", err)
		}
		if err := writeDoc(txn, userKey, doc); err != nil {
			return err
		}
		return txn.Set([]byte(idKeyPrefix+docID), []byte(userID))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("portfolio created",
		slog.String("user_id", userID),
		slog.String("doc_id", docID))
	return doc, nil
}

// GetByUserID returns the user's portfolio document.
//
// Stored documents written before a schema change may hold entities in a
// pre-canonical shape; those sections are normalized and written back before
// the document is returned (read repair).
func (s *PortfolioStore) GetByUserID(ctx context.Context, userID string) (map[string]any, error) {
	var doc map[string]any
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		var err error
		doc, err = readDoc(txn, []byte(userKeyPrefix+userID))
		return err
	})
	if err != nil {
		return nil, err
	}

	repairs := patch.NormalizeDocumentSections(doc)
	if len(repairs) == 0 {
		return doc, nil
	}
	for section, value := range repairs {
		doc[section] = value
	}
	err = s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return writeDoc(txn, []byte(userKeyPrefix+userID), doc)
	})
	if err != nil {
		// The repaired copy is still correct to serve.
		s.logger.Warn("portfolio read repair not persisted",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
	} else {
		s.logger.Info("portfolio read repair applied",
			slog.String("user_id", userID),
			slog.Int("sections", len(repairs)))
	}
	return doc, nil
}

// GetByID resolves a document id to its portfolio.
func (s *PortfolioStore) GetByID(ctx context.Context, docID string) (map[string]any, error) {
	var doc map[string]any
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(idKeyPrefix + docID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("doc %s: %w", docID, ErrNotFound)
		} else if err != nil {
			return fmt.Errorf("read id index: %w", err)
		}
		var userID string
		if err := item.Value(func(val []byte) error {
			userID = string(val)
			return nil
		}); err != nil {
			return fmt.Errorf("read id index value: %w", err)
		}
		doc, err = readDoc(txn, []byte(userKeyPrefix+userID))
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ListPage is one page of portfolio documents.
type ListPage struct {
	Documents []map[string]any
	// NextCursor is the userID to pass as startAfter for the next page.
	// Empty when this is the last page.
	NextCursor string
}

// List returns up to limit portfolios ordered by userID, starting after the
// given cursor. An empty cursor starts from the beginning.
func (s *PortfolioStore) List(ctx context.Context, startAfter string, limit int) (*ListPage, error) {
	if limit <= 0 {
		limit = 50
	}
	page := &ListPage{}
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(userKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := []byte(userKeyPrefix)
		if startAfter != "" {
			// Seek just past the cursor key.
			seek = append([]byte(userKeyPrefix+startAfter), 0)
		}
		for it.Seek(seek); it.Valid(); it.Next() {
			if len(page.Documents) == limit {
				// Another entry exists, so the page is full. The cursor is
				// the last userID handed back.
				last := page.Documents[len(page.Documents)-1]
				if id, ok := last["userId"].(string); ok {
					page.NextCursor = id
				}
				return nil
			}
			var doc map[string]any
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &doc)
			}); err != nil {
				return fmt.Errorf("decode portfolio %s: %w", it.Item().Key(), err)
			}
			page.Documents = append(page.Documents, doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Delete removes the user's portfolio and its id index entry.
func (s *PortfolioStore) Delete(ctx context.Context, userID string) error {
	return s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		doc, err := readDoc(txn, []byte(userKeyPrefix+userID))
		if err != nil {
			return err
		}
		if docID, ok := doc["id"].(string); ok {
			if err := txn.Delete([]byte(idKeyPrefix + docID)); err != nil {
				return fmt.Errorf("delete id index: %w", err)
			}
		}
		return txn.Delete([]byte(userKeyPrefix + userID))
	})
}

// ApplyFields applies a compiled mutation map to the user's portfolio.
//
// Description:
//
//	Reads the document, applies every flat field mutation, and writes the
//	result back, all inside one read-write transaction: the batch lands
//	whole or not at all. Dotted keys address nested fields; numeric
//	segments address list positions and grow the list with empty object
//	placeholders when the position is past the end.
//
// Inputs:
//
//	ctx - Context for cancellation.
//	userID - Owning user.
//	mutations - Flat field mutations, e.g. {"experience.0.role": "Eng"}.
//
// Outputs:
//
//	map[string]any - The refreshed document after the batch.
//	error - ErrNotFound if the user has no portfolio.
func (s *PortfolioStore) ApplyFields(ctx context.Context, userID string, mutations map[string]any) (map[string]any, error) {
	var doc map[string]any
	err := s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		userKey := []byte(userKeyPrefix + userID)
		var err error
		doc, err = readDoc(txn, userKey)
		if err != nil {
			return err
		}
		for field, value := range mutations {
			setDocField(doc, field, value)
		}
		return writeDoc(txn, userKey, doc)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("portfolio fields applied",
		slog.String("user_id", userID),
		slog.Int("mutations", len(mutations)))
	return doc, nil
}

// setDocField writes one flat field mutation into the document, creating
// intermediate containers as needed.
func setDocField(doc map[string]any, field string, value any) {
	segments := strings.Split(field, ".")
	doc[segments[0]] = setSegments(doc[segments[0]], segments[1:], value)
}

// setSegments descends the remaining path segments and returns the possibly
// replaced container. A numeric segment addresses a list position; lists are
// grown with empty object placeholders so intermediate positions stay
// editable. A non-container in the path is replaced, never descended into.
func setSegments(current any, segments []string, value any) any {
	if len(segments) == 0 {
		return value
	}
	seg := segments[0]
	if idx, err := strconv.Atoi(seg); err == nil && idx >= 0 {
		list, ok := current.([]any)
		if !ok {
			list = []any{}
		}
		for len(list) <= idx {
			list = append(list, map[string]any{})
		}
		list[idx] = setSegments(list[idx], segments[1:], value)
		return list
	}
	obj, ok := current.(map[string]any)
	if !ok {
		obj = map[string]any{}
	}
	obj[seg] = setSegments(obj[seg], segments[1:], value)
	return obj
}

func readDoc(txn *badger.Txn, key []byte) (map[string]any, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("read portfolio: %w", err)
	}
	var doc map[string]any
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &doc)
	}); err != nil {
		return nil, fmt.Errorf("decode portfolio: %w", err)
	}
	return doc, nil
}

func writeDoc(txn *badger.Txn, key []byte, doc map[string]any) error {
	blob, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode portfolio: %w", err)
	}
	if err := txn.Set(key, blob); err != nil {
		return fmt.Errorf("write portfolio: %w", err)
	}
	return nil
}
