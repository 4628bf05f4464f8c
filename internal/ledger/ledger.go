package ledger

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrUnknownTicketType     = errors.New("unknown ticket type")
	ErrTicketTypeExists      = errors.New("ticket type already registered")
	ErrInvalidQuantity       = errors.New("invalid quantity")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrUnknownHold           = errors.New("unknown or spent hold")
)

// Hold is a temporary claim on inventory units pending payment. It is
// bound to the amount reserved; commit or release consumes it exactly
// once.
type Hold struct {
	ID           uuid.UUID
	TicketTypeID uuid.UUID
	Quantity     int
}

// Snapshot is a point-in-time view of one pool's counters.
type Snapshot struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Held      int `json:"held"`
	Sold      int `json:"sold"`
}

// pool counters keep the invariant available + held + sold == total.
// All mutation happens under the pool's own mutex, so reservations
// against different ticket types never contend.
type pool struct {
	mu        sync.Mutex
	total     int
	available int
	held      int
	sold      int
	holds     map[uuid.UUID]int
}

// Ledger is the single source of truth for per-ticket-type inventory.
// The outer lock only guards the pool map; counter arithmetic is
// serialized per ticket type.
type Ledger struct {
	mu    sync.RWMutex
	pools map[uuid.UUID]*pool
}

func New() *Ledger {
	return &Ledger{pools: make(map[uuid.UUID]*pool)}
}

// Register loads a pool. sold accounts for units already committed in
// past runs; they are deducted from the available count up front.
func (l *Ledger) Register(ticketTypeID uuid.UUID, total, sold int) error {
	if total < 0 || sold < 0 || sold > total {
		return ErrInvalidQuantity
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.pools[ticketTypeID]; exists {
		return ErrTicketTypeExists
	}
	l.pools[ticketTypeID] = &pool{
		total:     total,
		available: total - sold,
		sold:      sold,
		holds:     make(map[uuid.UUID]int),
	}
	return nil
}

func (l *Ledger) pool(ticketTypeID uuid.UUID) (*pool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, ok := l.pools[ticketTypeID]
	if !ok {
		return nil, ErrUnknownTicketType
	}
	return p, nil
}

// Reserve atomically checks and moves quantity units from available to
// held. The check-and-move under the pool mutex is the sole defense
// against oversell; on failure nothing changes.
func (l *Ledger) Reserve(ticketTypeID uuid.UUID, quantity int) (Hold, error) {
	if quantity < 1 {
		return Hold{}, ErrInvalidQuantity
	}

	p, err := l.pool(ticketTypeID)
	if err != nil {
		return Hold{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.available < quantity {
		return Hold{}, ErrInsufficientInventory
	}

	hold := Hold{ID: uuid.New(), TicketTypeID: ticketTypeID, Quantity: quantity}
	p.available -= quantity
	p.held += quantity
	p.holds[hold.ID] = quantity
	return hold, nil
}

// Commit moves the hold's units from held to sold, permanently. A
// second commit (or a commit after release) fails without touching the
// counters.
func (l *Ledger) Commit(hold Hold) error {
	p, err := l.pool(hold.TicketTypeID)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	quantity, ok := p.holds[hold.ID]
	if !ok {
		return ErrUnknownHold
	}
	delete(p.holds, hold.ID)
	p.held -= quantity
	p.sold += quantity
	return nil
}

// Release returns the hold's units from held to available; used on
// deadline expiry and explicit cancellation. Same single-use contract
// as Commit.
func (l *Ledger) Release(hold Hold) error {
	p, err := l.pool(hold.TicketTypeID)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	quantity, ok := p.holds[hold.ID]
	if !ok {
		return ErrUnknownHold
	}
	delete(p.holds, hold.ID)
	p.held -= quantity
	p.available += quantity
	return nil
}

func (l *Ledger) Snapshot(ticketTypeID uuid.UUID) (Snapshot, error) {
	p, err := l.pool(ticketTypeID)
	if err != nil {
		return Snapshot{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return Snapshot{Total: p.total, Available: p.available, Held: p.held, Sold: p.sold}, nil
}
