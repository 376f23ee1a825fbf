package inventory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/jhoicas/charge-ledger/internal/domain"
	"github.com/jhoicas/charge-ledger/internal/domain/entity"
)

var _ Locker = (*KeyLocker)(nil)

// KeyLocker bloqueo por clave (charge, zona) dentro del proceso.
// Las claves se toman siempre en orden ascendente (chargeID, zona) para evitar deadlocks
// entre operaciones pareadas; la espera total está acotada por wait.
type KeyLocker struct {
	mu    sync.Mutex
	slots map[entity.PositionKey]*keySlot
	wait  time.Duration
}

type keySlot struct {
	sem  *semaphore.Weighted
	refs int
}

// NewKeyLocker construye el locker con la espera máxima indicada.
func NewKeyLocker(wait time.Duration) *KeyLocker {
	if wait <= 0 {
		wait = 2 * time.Second
	}
	return &KeyLocker{slots: make(map[entity.PositionKey]*keySlot), wait: wait}
}

// Acquire bloquea todas las claves o ninguna.
func (l *KeyLocker) Acquire(ctx context.Context, keys ...entity.PositionKey) (func(), error) {
	ordered := SortKeys(keys)

	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	held := make([]entity.PositionKey, 0, len(ordered))
	for _, k := range ordered {
		s := l.ref(k)
		if err := s.sem.Acquire(waitCtx, 1); err != nil {
			l.unref(k)
			l.releaseAll(held)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, &domain.ContentionError{Keys: keyStrings(ordered), Wait: l.wait}
			}
			return nil, err
		}
		held = append(held, k)
	}

	var once sync.Once
	return func() { once.Do(func() { l.releaseAll(held) }) }, nil
}

func (l *KeyLocker) ref(k entity.PositionKey) *keySlot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[k]
	if !ok {
		s = &keySlot{sem: semaphore.NewWeighted(1)}
		l.slots[k] = s
	}
	s.refs++
	return s
}

func (l *KeyLocker) unref(k entity.PositionKey) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[k]
	if !ok {
		return
	}
	s.refs--
	if s.refs == 0 {
		delete(l.slots, k)
	}
}

func (l *KeyLocker) releaseAll(held []entity.PositionKey) {
	for i := len(held) - 1; i >= 0; i-- {
		l.mu.Lock()
		s := l.slots[held[i]]
		l.mu.Unlock()
		if s != nil {
			s.sem.Release(1)
		}
		l.unref(held[i])
	}
}

// SortKeys devuelve las claves sin duplicados en el orden global de bloqueo.
func SortKeys(keys []entity.PositionKey) []entity.PositionKey {
	seen := make(map[entity.PositionKey]bool, len(keys))
	out := make([]entity.PositionKey, 0, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

func keyStrings(keys []entity.PositionKey) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}
