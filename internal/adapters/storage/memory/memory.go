// Package memory is an in-process implementation of the storage ports. It
// backs the concurrency tests and local development without Postgres; the
// compare-and-set semantics match the SQL adapter exactly.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"property-brokerage-system/internal/core/domain"
	"property-brokerage-system/internal/core/ports"
)

// Store holds all entities behind one mutex. Good enough for tests and dev;
// every conditional write is atomic under the lock.
type Store struct {
	mu          sync.Mutex
	properties  map[uuid.UUID]domain.Property
	orders      map[uuid.UUID]domain.Order
	assignments map[uuid.UUID][]domain.BrokerAssignment
	users       map[uuid.UUID]domain.User
}

func NewStore() *Store {
	return &Store{
		properties:  make(map[uuid.UUID]domain.Property),
		orders:      make(map[uuid.UUID]domain.Order),
		assignments: make(map[uuid.UUID][]domain.BrokerAssignment),
		users:       make(map[uuid.UUID]domain.User),
	}
}

func (s *Store) Properties() *PropertyRepository    { return &PropertyRepository{s} }
func (s *Store) Orders() *OrderRepository           { return &OrderRepository{s} }
func (s *Store) Assignments() *AssignmentRepository { return &AssignmentRepository{s} }
func (s *Store) Users() *UserDirectory              { return &UserDirectory{s} }

// AddUser seeds the user directory.
func (s *Store) AddUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

type PropertyRepository struct{ s *Store }

func (r *PropertyRepository) Create(_ context.Context, p *domain.Property) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.properties[p.ID] = clone(p)
	return nil
}

func (r *PropertyRepository) Get(_ context.Context, id uuid.UUID) (*domain.Property, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.properties[id]
	if !ok {
		return nil, domain.ErrPropertyNotFound
	}
	out := clone(&p)
	return &out, nil
}

func (r *PropertyRepository) List(_ context.Context, f ports.PropertyFilter) ([]domain.Property, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Property
	for _, p := range r.s.properties {
		if f.Status != nil && p.Status != *f.Status {
			continue
		}
		out = append(out, clone(&p))
	}
	sortByCreated(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *PropertyRepository) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]domain.Property, error) {
	return r.listWhere(func(p *domain.Property) bool { return p.OwnerID == ownerID })
}

func (r *PropertyRepository) ListByBroker(_ context.Context, brokerID uuid.UUID) ([]domain.Property, error) {
	return r.listWhere(func(p *domain.Property) bool {
		return p.AssignedBrokerID != nil && *p.AssignedBrokerID == brokerID
	})
}

func (r *PropertyRepository) listWhere(keep func(*domain.Property) bool) ([]domain.Property, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Property
	for _, p := range r.s.properties {
		if keep(&p) {
			out = append(out, clone(&p))
		}
	}
	sortByCreated(out)
	return out, nil
}

func (r *PropertyRepository) UpdateStatus(_ context.Context, id uuid.UUID, from, to domain.PropertyStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.properties[id]
	if !ok {
		return domain.ErrPropertyNotFound
	}
	if p.Status != from {
		return domain.ErrStatusConflict
	}
	p.Status = to
	p.UpdatedAt = time.Now().UTC()
	r.s.properties[id] = p
	return nil
}

func (r *PropertyRepository) Settle(_ context.Context, id uuid.UUID, from, to domain.PropertyStatus, finalPrice float64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.properties[id]
	if !ok {
		return domain.ErrPropertyNotFound
	}
	if p.Status != from {
		return domain.ErrStatusConflict
	}
	p.Status = to
	p.FinalPrice = &finalPrice
	p.UpdatedAt = time.Now().UTC()
	r.s.properties[id] = p
	return nil
}

func (r *PropertyRepository) SetBroker(_ context.Context, id uuid.UUID, brokerID uuid.UUID, allowed []domain.PropertyStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.properties[id]
	if !ok {
		return domain.ErrPropertyNotFound
	}
	permitted := false
	for _, s := range allowed {
		if p.Status == s {
			permitted = true
			break
		}
	}
	if !permitted {
		return domain.ErrPropertyNotAssignable
	}
	b := brokerID
	p.AssignedBrokerID = &b
	p.UpdatedAt = time.Now().UTC()
	r.s.properties[id] = p
	return nil
}

func (r *PropertyRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.properties[id]; !ok {
		return domain.ErrPropertyNotFound
	}
	delete(r.s.properties, id)
	return nil
}

type OrderRepository struct{ s *Store }

func (r *OrderRepository) Create(_ context.Context, o *domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.orders[o.ID] = *o
	return nil
}

func (r *OrderRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orders[id]; !ok {
		return domain.ErrOrderNotFound
	}
	delete(r.s.orders, id)
	return nil
}

func (r *OrderRepository) Get(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	out := o
	return &out, nil
}

func (r *OrderRepository) GetByPaymentReference(_ context.Context, ref string) (*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.orders {
		if o.PaymentReference == ref {
			out := o
			return &out, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (r *OrderRepository) ActiveByProperty(_ context.Context, propertyID uuid.UUID) (*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var found *domain.Order
	for _, o := range r.s.orders {
		if o.PropertyID != propertyID || !o.Active() {
			continue
		}
		if found == nil || o.CreatedAt.After(found.CreatedAt) {
			cp := o
			found = &cp
		}
	}
	if found == nil {
		return nil, domain.ErrOrderNotFound
	}
	return found, nil
}

func (r *OrderRepository) SetPaymentStatus(_ context.Context, id uuid.UUID, from, to domain.PaymentStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if o.PaymentStatus != from {
		return domain.ErrStatusConflict
	}
	o.PaymentStatus = to
	r.s.orders[id] = o
	return nil
}

type AssignmentRepository struct{ s *Store }

func (r *AssignmentRepository) Create(_ context.Context, a *domain.BrokerAssignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.assignments[a.PropertyID] = append(r.s.assignments[a.PropertyID], *a)
	return nil
}

func (r *AssignmentRepository) LatestByProperty(_ context.Context, propertyID uuid.UUID) (*domain.BrokerAssignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	history := r.s.assignments[propertyID]
	if len(history) == 0 {
		return nil, domain.ErrAssignmentNotFound
	}
	latest := history[len(history)-1]
	return &latest, nil
}

type UserDirectory struct{ s *Store }

func (d *UserDirectory) Get(_ context.Context, id uuid.UUID) (*domain.User, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	u, ok := d.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := u
	return &out, nil
}

func clone(p *domain.Property) domain.Property {
	cp := *p
	if p.AssignedBrokerID != nil {
		b := *p.AssignedBrokerID
		cp.AssignedBrokerID = &b
	}
	if p.FinalPrice != nil {
		f := *p.FinalPrice
		cp.FinalPrice = &f
	}
	cp.Images = append([]string(nil), p.Images...)
	return cp
}

func sortByCreated(props []domain.Property) {
	sort.Slice(props, func(i, j int) bool {
		return props[i].CreatedAt.After(props[j].CreatedAt)
	})
}
