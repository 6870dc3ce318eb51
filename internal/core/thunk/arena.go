// Copyright 2020 CUE Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package thunk implements the memoised, one-shot thunk arena of spec.md
// §4.1 (C3). It is deliberately domain-agnostic: a cell is an opaque
// interface{} chosen by the caller (internal/core/eval), so this package has
// no dependency on internal/core/adt and adt's Value/Context types can hold
// a thunk.ID without creating an import cycle.
package thunk

import (
	"sync"
	"sync/atomic"
)

// ID is a stable handle into an Arena. Ids are never reused within a
// session (spec.md §3, ThunkId).
type ID int32

// Blackhole is the sentinel cell installed while a thunk is being forced.
// Observing it while forcing the same thunk again signals InfiniteLoop
// (spec.md §4.1, Invariant 3).
type Blackhole struct{}

type entry struct {
	mu     sync.Mutex
	loaded atomic.Bool
	cell   interface{} // meaningful only while !loaded
	value  interface{} // meaningful only once loaded
}

// Arena is the append-only, thread-safe store of thunks.
type Arena struct {
	mu      sync.RWMutex // guards append to entries; never held across forcing
	entries []*entry
}

// New returns an empty Arena.
func New() *Arena {
	return &Arena{}
}

// Alloc appends a new thunk holding the given pending-work cell and returns
// its ID. Safe to call concurrently with Force/Read on other ids.
func (a *Arena) Alloc(cell interface{}) ID {
	e := &entry{cell: cell}
	a.mu.Lock()
	id := ID(len(a.entries))
	a.entries = append(a.entries, e)
	a.mu.Unlock()
	return id
}

// AllocValue appends a new thunk that is already a fully evaluated value.
func (a *Arena) AllocValue(value interface{}) ID {
	e := &entry{value: value}
	e.loaded.Store(true)
	a.mu.Lock()
	id := ID(len(a.entries))
	a.entries = append(a.entries, e)
	a.mu.Unlock()
	return id
}

func (a *Arena) at(id ID) *entry {
	a.mu.RLock()
	e := a.entries[id]
	a.mu.RUnlock()
	return e
}

// Read returns the thunk's current state without forcing it: either its
// installed value (ok==true), or its pending cell (ok==false).
func (a *Arena) Read(id ID) (cell interface{}, value interface{}, ok bool) {
	e := a.at(id)
	if e.loaded.Load() {
		return nil, e.value, true
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loaded.Load() {
		return nil, e.value, true
	}
	return e.cell, nil, false
}

// BeginForce atomically takes the pending cell and replaces it with
// Blackhole, returning the cell that was there. If the cell was already
// Blackhole, wasBlackhole is true (spec.md §4.1, black-hole protocol): the
// caller must fail with InfiniteLoop rather than recurse. If the thunk was
// already evaluated, ok is true and value holds the result; no transition
// happens.
func (a *Arena) BeginForce(id ID) (cell interface{}, value interface{}, ok bool, wasBlackhole bool) {
	e := a.at(id)
	if e.loaded.Load() {
		return nil, e.value, true, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loaded.Load() {
		return nil, e.value, true, false
	}
	if _, isBH := e.cell.(Blackhole); isBH {
		return nil, nil, false, true
	}
	cell = e.cell
	e.cell = Blackhole{}
	return cell, nil, false, false
}

// PutValue installs the final value for a thunk that is currently
// blackholed, publishing it with release ordering. Calling PutValue twice
// for the same thunk is a programming error.
func (a *Arena) PutValue(id ID, value interface{}) {
	e := a.at(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loaded.Load() {
		panic("thunk: PutValue called twice for the same thunk")
	}
	if _, isBH := e.cell.(Blackhole); !isBH {
		panic("thunk: PutValue called without a preceding BeginForce")
	}
	e.cell = nil
	e.value = value
	e.loaded.Store(true)
}

// Len reports how many thunks have been allocated.
func (a *Arena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.entries)
}
