package appointment

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memTxKey struct{}

type pairKey struct{ sender, receiver string }

// MemoryStore keeps requests and responses in process memory. It enforces
// the same uniqueness rules as the Postgres schema and implements
// Transactor by holding its lock for the whole unit of work and restoring
// a snapshot when the work fails. Each transaction copies the whole store,
// so it is meant for development and tests, not for large data sets.
type MemoryStore struct {
	mu sync.Mutex

	requests      map[uuid.UUID]Request
	requestOrder  []uuid.UUID
	pending       map[pairKey]uuid.UUID
	responses     map[uuid.UUID]Response
	responseOrder []uuid.UUID
	byRequest     map[uuid.UUID]uuid.UUID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		requests:  make(map[uuid.UUID]Request),
		pending:   make(map[pairKey]uuid.UUID),
		responses: make(map[uuid.UUID]Response),
		byRequest: make(map[uuid.UUID]uuid.UUID),
	}
}

// Requests returns the request repository view of the store.
func (s *MemoryStore) Requests() RequestRepository { return memRequests{s} }

// Responses returns the response repository view of the store.
func (s *MemoryStore) Responses() ResponseRepository { return memResponses{s} }

// lock takes the store lock unless ctx already runs inside WithinTx.
func (s *MemoryStore) lock(ctx context.Context) func() {
	if owner, _ := ctx.Value(memTxKey{}).(*MemoryStore); owner == s {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type memSnapshot struct {
	requests      map[uuid.UUID]Request
	requestOrder  []uuid.UUID
	pending       map[pairKey]uuid.UUID
	responses     map[uuid.UUID]Response
	responseOrder []uuid.UUID
	byRequest     map[uuid.UUID]uuid.UUID
}

func (s *MemoryStore) snapshot() memSnapshot {
	snap := memSnapshot{
		requests:      make(map[uuid.UUID]Request, len(s.requests)),
		requestOrder:  append([]uuid.UUID(nil), s.requestOrder...),
		pending:       make(map[pairKey]uuid.UUID, len(s.pending)),
		responses:     make(map[uuid.UUID]Response, len(s.responses)),
		responseOrder: append([]uuid.UUID(nil), s.responseOrder...),
		byRequest:     make(map[uuid.UUID]uuid.UUID, len(s.byRequest)),
	}
	for k, v := range s.requests {
		snap.requests[k] = v
	}
	for k, v := range s.pending {
		snap.pending[k] = v
	}
	for k, v := range s.responses {
		snap.responses[k] = v
	}
	for k, v := range s.byRequest {
		snap.byRequest[k] = v
	}
	return snap
}

func (s *MemoryStore) restore(snap memSnapshot) {
	s.requests = snap.requests
	s.requestOrder = snap.requestOrder
	s.pending = snap.pending
	s.responses = snap.responses
	s.responseOrder = snap.responseOrder
	s.byRequest = snap.byRequest
}

// WithinTx serializes fn against every other store access and undoes all of
// its writes if it returns an error or panics.
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if owner, _ := ctx.Value(memTxKey{}).(*MemoryStore); owner == s {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	committed := false
	defer func() {
		if !committed {
			s.restore(snap)
		}
	}()

	if err := fn(context.WithValue(ctx, memTxKey{}, s)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	committed = true
	return nil
}

// =========== Requests ===========

type memRequests struct{ s *MemoryStore }

func (m memRequests) Create(ctx context.Context, r *Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer m.s.lock(ctx)()

	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = r.CreatedAt
	}
	key := pairKey{r.SenderID, r.ReceiverID}
	if r.Status == StatusPending {
		if _, exists := m.s.pending[key]; exists {
			return ErrPendingExists
		}
		m.s.pending[key] = r.ID
	}
	m.s.requests[r.ID] = *r
	m.s.requestOrder = append(m.s.requestOrder, r.ID)
	return nil
}

func (m memRequests) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer m.s.lock(ctx)()

	r, ok := m.s.requests[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &r, nil
}

// GetByIDForUpdate relies on WithinTx holding the store lock.
func (m memRequests) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Request, error) {
	return m.GetByID(ctx, id)
}

func (m memRequests) UpdateStatus(ctx context.Context, id uuid.UUID, from, to RequestStatus, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer m.s.lock(ctx)()

	r, ok := m.s.requests[id]
	if !ok {
		return ErrRecordNotFound
	}
	if r.Status != from {
		return ErrStaleStatus
	}
	key := pairKey{r.SenderID, r.ReceiverID}
	if to == StatusPending {
		if _, exists := m.s.pending[key]; exists {
			return ErrPendingExists
		}
		m.s.pending[key] = id
	} else if from == StatusPending {
		delete(m.s.pending, key)
	}
	r.Status = to
	r.UpdatedAt = at
	m.s.requests[id] = r
	return nil
}

func (m memRequests) List(ctx context.Context, f RequestFilter) ([]*Request, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer m.s.lock(ctx)()

	items := []*Request{}
	for _, id := range m.s.requestOrder {
		r := m.s.requests[id]
		if f.SenderID != "" && r.SenderID != f.SenderID {
			continue
		}
		if f.ReceiverID != "" && r.ReceiverID != f.ReceiverID {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		items = append(items, &r)
	}
	return items, nil
}

// =========== Responses ===========

type memResponses struct{ s *MemoryStore }

func (m memResponses) Create(ctx context.Context, r *Response) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer m.s.lock(ctx)()

	if _, ok := m.s.requests[r.RequestID]; !ok {
		return ErrRecordNotFound
	}
	if _, exists := m.s.byRequest[r.RequestID]; exists {
		return ErrResponseExists
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	m.s.responses[r.ID] = *r
	m.s.responseOrder = append(m.s.responseOrder, r.ID)
	m.s.byRequest[r.RequestID] = r.ID
	return nil
}

func (m memResponses) GetByID(ctx context.Context, id uuid.UUID) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer m.s.lock(ctx)()

	r, ok := m.s.responses[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &r, nil
}

func (m memResponses) List(ctx context.Context, f ResponseFilter) ([]*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer m.s.lock(ctx)()

	items := []*Response{}
	for _, id := range m.s.responseOrder {
		r := m.s.responses[id]
		if f.SenderID != "" && r.SenderID != f.SenderID {
			continue
		}
		if f.ReceiverID != "" && r.ReceiverID != f.ReceiverID {
			continue
		}
		if f.RequestID != uuid.Nil && r.RequestID != f.RequestID {
			continue
		}
		items = append(items, &r)
	}
	return items, nil
}
