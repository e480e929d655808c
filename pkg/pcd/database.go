// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pcd

import (
	"sync"
)

// Database is the in-memory token registry of one platform build. It owns
// its tokens and remembers the order they were added in, which is the
// order they are serialized in.
//
// A Database is safe for concurrent use, although the build pipeline
// itself is sequential.
type Database struct {
	mu     sync.RWMutex
	tokens map[string]*Token
	order  []string
}

// NewDatabase returns an empty database.
func NewDatabase() *Database {
	return &Database{tokens: make(map[string]*Token)}
}

// AddToken adds t under key. Adding an existing key is an error; the
// existing token is kept.
func (db *Database) AddToken(key string, t *Token) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.tokens[key]; ok {
		return &ErrDuplicateToken{Key: key}
	}
	db.tokens[key] = t
	db.order = append(db.order, key)
	return nil
}

// HasToken reports whether key is in the database.
func (db *Database) HasToken(key string) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	_, ok := db.tokens[key]
	return ok
}

// Token returns the token stored under key.
func (db *Database) Token(key string) (*Token, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	t, ok := db.tokens[key]
	if !ok {
		return nil, &ErrTokenNotFound{Key: key}
	}
	return t, nil
}

// Len returns the number of tokens.
func (db *Database) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.order)
}

// Tokens returns all tokens in insertion order.
func (db *Database) Tokens() []*Token {
	db.mu.RLock()
	defer db.mu.RUnlock()
	result := make([]*Token, 0, len(db.order))
	for _, key := range db.order {
		result = append(result, db.tokens[key])
	}
	return result
}

// Merge moves every token of other into db. Nothing is added if any key
// of other already exists in db.
func (db *Database) Merge(other *Database) error {
	if other == db {
		return nil
	}
	other.mu.RLock()
	keys := append([]string(nil), other.order...)
	tokens := make(map[string]*Token, len(other.tokens))
	for k, t := range other.tokens {
		tokens[k] = t
	}
	other.mu.RUnlock()

	db.mu.Lock()
	defer db.mu.Unlock()
	for _, key := range keys {
		if _, ok := db.tokens[key]; ok {
			return &ErrDuplicateToken{Key: key}
		}
	}
	for _, key := range keys {
		db.tokens[key] = tokens[key]
		db.order = append(db.order, key)
	}
	return nil
}

// UsageInstancesByModule returns every binding of module id, in token
// order.
func (db *Database) UsageInstancesByModule(id ModuleID) []*UsageInstance {
	var result []*UsageInstance
	for _, t := range db.Tokens() {
		if u := t.UsageInstance(id); u != nil {
			result = append(result, u)
		}
	}
	return result
}

// UsageInstancesByModuleName returns the bindings of every module called
// name, whatever its package and architecture.
func (db *Database) UsageInstancesByModuleName(name string) []*UsageInstance {
	var result []*UsageInstance
	for _, t := range db.Tokens() {
		for _, u := range t.UsageInstances() {
			if u.Module.Name == name {
				result = append(result, u)
			}
		}
	}
	return result
}

// TwoPhaseDynamicRecords splits the dynamic tokens by the phase that uses
// them. Both lists keep insertion order.
func (db *Database) TwoPhaseDynamicRecords() (pei, dxe []*Token) {
	for _, t := range db.Tokens() {
		if !t.IsDynamic() {
			continue
		}
		switch t.Phase() {
		case PhasePEI:
			pei = append(pei, t)
		default:
			dxe = append(dxe, t)
		}
	}
	return pei, dxe
}
