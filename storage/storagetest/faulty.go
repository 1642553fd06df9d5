// Package storagetest provides storage providers for tests.
package storagetest

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/anoixa/memlane/storage"
)

// ErrInjected returned by FaultyProvider for failing operations
var ErrInjected = errors.New("injected storage fault")

// FaultyProvider wraps a provider and fails selected operations
type FaultyProvider struct {
	storage.Provider

	mu          sync.Mutex
	failSave    bool
	failDelete  map[string]bool
	failAllDel  bool
	deleteCalls []string
}

func NewFaultyProvider(inner storage.Provider) *FaultyProvider {
	return &FaultyProvider{Provider: inner, failDelete: make(map[string]bool)}
}

// FailSaves makes every save fail
func (f *FaultyProvider) FailSaves(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSave = fail
}

// FailDeletes makes deletes fail for the given keys, or for every key when none are given
func (f *FaultyProvider) FailDeletes(keys ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(keys) == 0 {
		f.failAllDel = true
		return
	}
	for _, k := range keys {
		f.failDelete[k] = true
	}
}

// DeleteCalls keys passed to DeleteWithContext, in call order
func (f *FaultyProvider) DeleteCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleteCalls...)
}

func (f *FaultyProvider) SaveWithContext(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	f.mu.Lock()
	fail := f.failSave
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.Provider.SaveWithContext(ctx, key, r, size, contentType)
}

func (f *FaultyProvider) DeleteWithContext(ctx context.Context, key string) error {
	f.mu.Lock()
	f.deleteCalls = append(f.deleteCalls, key)
	fail := f.failAllDel || f.failDelete[key]
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.Provider.DeleteWithContext(ctx, key)
}
