// Package memory implementa los puertos de persistencia en memoria (tests y modo demo).
// Las transacciones toman el lock de escritura del store durante todo el callback y
// restauran una foto del estado si el callback devuelve error.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/charge-ledger/internal/application/inventory"
	"github.com/jhoicas/charge-ledger/internal/domain/entity"
)

var _ inventory.TxRunner = (*Store)(nil)

// Store estado completo del ledger en memoria.
type Store struct {
	mu           sync.RWMutex
	articles     map[string]*entity.Article
	charges      map[string]*entity.Charge
	movements    []*entity.Movement // orden de inserción
	movementByID map[string]*entity.Movement
	reservations map[string]*entity.Reservation
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		articles:     make(map[string]*entity.Article),
		charges:      make(map[string]*entity.Charge),
		movementByID: make(map[string]*entity.Movement),
		reservations: make(map[string]*entity.Reservation),
	}
}

// Charges repositorio de charges fuera de transacción.
func (s *Store) Charges() *ChargeRepo { return &ChargeRepo{s: s} }

// Movements repositorio de movimientos fuera de transacción.
func (s *Store) Movements() *MovementRepo { return &MovementRepo{s: s} }

// Reservations repositorio de reservas fuera de transacción.
func (s *Store) Reservations() *ReservationRepo { return &ReservationRepo{s: s} }

// Articles repositorio de artículos fuera de transacción.
func (s *Store) Articles() *ArticleRepo { return &ArticleRepo{s: s} }

// Run ejecuta fn con repos atados a la "transacción": si fn falla, el estado vuelve a la foto previa.
func (s *Store) Run(ctx context.Context, fn func(repos inventory.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(s.txRepos()); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// RunReadOnly ejecuta fn bajo el lock de lectura: ve una foto consistente entre operaciones.
func (s *Store) RunReadOnly(ctx context.Context, fn func(repos inventory.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.txRepos())
}

func (s *Store) txRepos() inventory.TxRepos {
	return inventory.TxRepos{
		Charges:      &ChargeRepo{s: s, inTx: true},
		Movements:    &MovementRepo{s: s, inTx: true},
		Reservations: &ReservationRepo{s: s, inTx: true},
		Articles:     &ArticleRepo{s: s, inTx: true},
	}
}

type snapshot struct {
	charges   map[string]*entity.Charge
	movements int
}

// snapshot los movimientos son solo inserción: basta con recordar la longitud.
func (s *Store) snapshot() snapshot {
	charges := make(map[string]*entity.Charge, len(s.charges))
	for id, c := range s.charges {
		charges[id] = c.Clone()
	}
	return snapshot{charges: charges, movements: len(s.movements)}
}

func (s *Store) restore(snap snapshot) {
	s.charges = snap.charges
	for _, m := range s.movements[snap.movements:] {
		delete(s.movementByID, m.ID)
	}
	s.movements = s.movements[:snap.movements]
}

// AddArticle registra un artículo del maestro (lo hace el servicio externo de artículos).
func (s *Store) AddArticle(a entity.Article) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := a
	s.articles[a.ID] = &cp
}

// PutReservation crea o reemplaza una reserva (lo hace el proceso de pedidos externo).
func (s *Store) PutReservation(r entity.Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := r
	s.reservations[r.ID] = &cp
}

// MovementCount número total de movimientos guardados.
func (s *Store) MovementCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.movements)
}

// lock/unlock solo fuera de transacción: dentro, el Store ya tiene el lock.
func (s *Store) rlock(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func (s *Store) lock(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}
