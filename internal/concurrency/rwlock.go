package concurrency

import "sync"

// RWLock wraps sync.RWMutex with the original's WriterLock/ReaderLock
// naming so call sites read the same way as the C++ mutex->WriterLock()/
// ReaderLock()/Unlock() idiom, while staying idiomatic Go underneath
// (plain deferred Unlock/RUnlock at the call site).
type RWLock struct {
	mu sync.RWMutex
}

// WriterLock acquires the lock for exclusive (write) access.
func (l *RWLock) WriterLock() { l.mu.Lock() }

// WriterUnlock releases an exclusive lock.
func (l *RWLock) WriterUnlock() { l.mu.Unlock() }

// ReaderLock acquires the lock for shared (read) access.
func (l *RWLock) ReaderLock() { l.mu.RLock() }

// ReaderUnlock releases a shared lock.
func (l *RWLock) ReaderUnlock() { l.mu.RUnlock() }
