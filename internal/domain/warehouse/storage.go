package warehouse

import (
	"fmt"
	"sync"
)

// Storage is the warehouse's shared block inventory.
//
// Blocks form an ordered sequence addressed by a cursor. Loading hands out
// the blocks at the cursor and advances it; unloading appends at the tail.
// The cursor never moves backwards, so dispatched blocks are never handed out
// twice and returned blocks become loadable only once the cursor reaches them.
//
// Thread-Safety:
// Every read and write holds mu for its full duration, so no caller observes
// a partially advanced cursor or a partially appended tail.
//
// Invariants:
// - 0 <= cursor <= len(blocks)
// - cursor is monotonically non-decreasing
// - len(blocks) only grows (dispatched entries are never compacted)
type Storage struct {
	mu sync.Mutex

	blocks []Block
	cursor int
}

// StorageStats is a consistent point-in-time view of storage
type StorageStats struct {
	Length    int
	Cursor    int
	Available int
}

// NewStorage creates storage seeded with the given blocks, cursor at 0
func NewStorage(initial []Block) *Storage {
	blocks := make([]Block, len(initial))
	copy(blocks, initial)
	return &Storage{blocks: blocks}
}

// TakeAvailable removes maxCount blocks starting at the cursor and advances it.
//
// When fewer than maxCount blocks remain past the cursor the call fails with
// *ErrStorageShortage and storage is left untouched.
// Thread-safe.
func (s *Storage) TakeAvailable(maxCount int) ([]Block, error) {
	if maxCount < 0 {
		return nil, fmt.Errorf("take count cannot be negative, got %d", maxCount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	available := s.availableUnsafe()
	if maxCount > available {
		return nil, &ErrStorageShortage{Requested: maxCount, Available: available}
	}

	taken := make([]Block, maxCount)
	copy(taken, s.blocks[s.cursor:s.cursor+maxCount])
	s.cursor += maxCount

	return taken, nil
}

// ReturnBlocks appends blocks to the tail. The cursor is not touched.
// Thread-safe.
func (s *Storage) ReturnBlocks(blocks []Block) {
	if len(blocks) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.blocks = append(s.blocks, blocks...)
}

// Cursor returns the index of the next block to be loaded.
// Thread-safe.
func (s *Storage) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Len returns the raw length of the sequence, dispatched blocks included.
// Thread-safe.
func (s *Storage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blocks)
}

// Available returns how many blocks remain past the cursor.
// Thread-safe.
func (s *Storage) Available() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.availableUnsafe()
}

func (s *Storage) availableUnsafe() int {
	return len(s.blocks) - s.cursor
}

// Stats returns length, cursor and availability read under one lock.
// Thread-safe.
func (s *Storage) Stats() StorageStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return StorageStats{
		Length:    len(s.blocks),
		Cursor:    s.cursor,
		Available: s.availableUnsafe(),
	}
}

// Snapshot returns a copy of the blocks still available past the cursor.
// Thread-safe.
func (s *Storage) Snapshot() []Block {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]Block, s.availableUnsafe())
	copy(result, s.blocks[s.cursor:])
	return result
}

func (s *Storage) String() string {
	stats := s.Stats()
	return fmt.Sprintf("Storage[len=%d, cursor=%d, available=%d]", stats.Length, stats.Cursor, stats.Available)
}
