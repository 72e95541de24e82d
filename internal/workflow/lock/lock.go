// Package lock serializes decisions per target id.
package lock

import (
	"context"
	"sync"

	dErrors "commission/pkg/domain-errors"
)

// Locker acquires an exclusive lock on key. The returned unlock must be
// called exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// numShards bounds the number of mutexes; unrelated keys may share a shard.
const numShards = 128

// Sharded is an in-process Locker. Keys hash with FNV-1a onto a fixed set of
// single-slot semaphores so waiting can be abandoned when ctx ends.
type Sharded struct {
	shards [numShards]chan struct{}
	once   sync.Once
}

func NewSharded() *Sharded {
	s := &Sharded{}
	s.init()
	return s
}

func (s *Sharded) init() {
	s.once.Do(func() {
		for i := range s.shards {
			s.shards[i] = make(chan struct{}, 1)
		}
	})
}

// Lock blocks until the shard for key is free or ctx is done.
func (s *Sharded) Lock(ctx context.Context, key string) (func(), error) {
	s.init()
	shard := s.shards[hashKey(key)%numShards]
	select {
	case shard <- struct{}{}:
		var released sync.Once
		return func() { released.Do(func() { <-shard }) }, nil
	case <-ctx.Done():
		return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "timed out waiting for lock on "+key)
	}
}

// hashKey uses FNV-1a for an even spread of ids over shards.
func hashKey(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
