package orders

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/referral"
)

// memState is a whole database. InTx works on a copy and swaps it in on
// success, so a failed fn leaves nothing behind.
type memState struct {
	orders    map[int64]Order
	items     map[int64][]OrderItem
	products  map[int64]Product
	cancels   map[int64]CancelLog
	earnings  map[int64]referral.Earning
	referrers map[int64]int64 // buyer -> referrer
	balances  map[int64]decimal.Decimal
	rate      *decimal.Decimal
	nextID    int64

	withdrawals []referral.Withdrawal
}

func newMemState() *memState {
	return &memState{
		orders:    map[int64]Order{},
		items:     map[int64][]OrderItem{},
		products:  map[int64]Product{},
		cancels:   map[int64]CancelLog{},
		earnings:  map[int64]referral.Earning{},
		referrers: map[int64]int64{},
		balances:  map[int64]decimal.Decimal{},
		nextID:    100,
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.items {
		c.items[k] = append([]OrderItem(nil), v...)
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.cancels {
		c.cancels[k] = v
	}
	for k, v := range s.earnings {
		c.earnings[k] = v
	}
	for k, v := range s.referrers {
		c.referrers[k] = v
	}
	for k, v := range s.balances {
		c.balances[k] = v
	}
	c.rate = s.rate
	c.withdrawals = append([]referral.Withdrawal(nil), s.withdrawals...)
	c.nextID = s.nextID
	return c
}

func (s *memState) id() int64 {
	s.nextID++
	return s.nextID
}

type faults struct {
	stock  map[int64]error // product id -> UpdateStock error
	adjust error           // referral balance write
	create error           // cancel log insert
}

type memStore struct {
	mu     sync.Mutex
	state  *memState
	faults faults
	txs    int
}

func newMemStore() *memStore { return &memStore{state: newMemState()} }

func (m *memStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs++
	work := m.state.clone()
	if err := fn(memTx{st: work, f: &m.faults}); err != nil {
		return err
	}
	m.state = work
	return nil
}

func (m *memStore) Read() Tx { return memTx{st: m.state, f: &m.faults} }

func (m *memStore) snapshot() *memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

func (m *memStore) cancelLogsFor(orderID int64) []CancelLog {
	var out []CancelLog
	for _, c := range m.snapshot().cancels {
		if c.OrderID == orderID {
			out = append(out, c)
		}
	}
	return out
}

type memTx struct {
	st *memState
	f  *faults
}

func (t memTx) Orders() OrderStore         { return memOrders(t) }
func (t memTx) Products() ProductStore     { return memProducts(t) }
func (t memTx) CancelLogs() CancelLogStore { return memCancels(t) }
func (t memTx) Referrals() referral.Store  { return memLedger(t) }

type memOrders memTx

func (m memOrders) Find(_ context.Context, id int64) (Order, error) {
	o, ok := m.st.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return o, nil
}

func (m memOrders) FindForUpdate(ctx context.Context, id int64) (Order, error) {
	return m.Find(ctx, id)
}

func (m memOrders) Update(_ context.Context, id int64, u OrderUpdate) error {
	o, ok := m.st.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.Status = u.Status
	o.DeliveredAt = u.DeliveredAt
	o.Version++
	m.st.orders[id] = o
	return nil
}

func (m memOrders) Items(_ context.Context, orderID int64) ([]OrderItem, error) {
	return append([]OrderItem(nil), m.st.items[orderID]...), nil
}

type memProducts memTx

func (m memProducts) Find(_ context.Context, id int64) (Product, error) {
	p, ok := m.st.products[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

func (m memProducts) UpdateStock(_ context.Context, id int64, delta int) error {
	if err := m.f.stock[id]; err != nil {
		return err
	}
	p, ok := m.st.products[id]
	if !ok {
		return ErrProductNotFound
	}
	p.Stock += delta
	m.st.products[id] = p
	return nil
}

type memCancels memTx

func (m memCancels) Create(_ context.Context, c CancelLog) (int64, error) {
	if m.f.create != nil {
		return 0, m.f.create
	}
	c.ID = m.st.id()
	c.CreatedAt = time.Unix(c.ID, 0).UTC()
	c.UpdatedAt = c.CreatedAt
	m.st.cancels[c.ID] = c
	return c.ID, nil
}

func (m memCancels) UpdateStatus(_ context.Context, id int64, st CancelStatus) error {
	c, ok := m.st.cancels[id]
	if !ok {
		return ErrCancelLogNotFound
	}
	c.Status = st
	m.st.cancels[id] = c
	return nil
}

func (m memCancels) Find(_ context.Context, id int64) (CancelLog, error) {
	c, ok := m.st.cancels[id]
	if !ok {
		return CancelLog{}, ErrCancelLogNotFound
	}
	return c, nil
}

func (m memCancels) List(_ context.Context, f CancelFilter) ([]CancelLog, error) {
	out := []CancelLog{}
	for _, c := range m.st.cancels {
		if f.Status == "" || c.Status == f.Status {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if f.Offset >= len(out) {
		return []CancelLog{}, nil
	}
	out = out[f.Offset:]
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// memLedger reads orders from the same state, so the ledger sees status
// writes made earlier in the transaction.
type memLedger memTx

func (m memLedger) OrderReferral(_ context.Context, orderID int64) (referral.OrderReferral, error) {
	o, ok := m.st.orders[orderID]
	if !ok {
		return referral.OrderReferral{}, referral.ErrOrderNotFound
	}
	r := referral.OrderReferral{OrderID: o.ID, OrderStatus: string(o.Status), BuyerID: o.BuyerID, Invoice: o.Invoice}
	if ref, ok := m.st.referrers[o.BuyerID]; ok {
		r.ReferrerID = &ref
	}
	return r, nil
}

func (m memLedger) CommissionLines(_ context.Context, orderID int64) ([]referral.CommissionLine, error) {
	var out []referral.CommissionLine
	for _, it := range m.st.items[orderID] {
		l := referral.CommissionLine{ProductID: it.ProductID, UnitPrice: it.UnitPrice, Quantity: it.Quantity}
		if p, ok := m.st.products[it.ProductID]; ok {
			l.AffiliateRate = p.AffiliateCommission
		}
		out = append(out, l)
	}
	return out, nil
}

func (m memLedger) DefaultCommissionRate(context.Context) (decimal.Decimal, bool, error) {
	if m.st.rate == nil {
		return decimal.Zero, false, nil
	}
	return *m.st.rate, true, nil
}

func (m memLedger) FindByOrder(_ context.Context, orderID int64) (referral.Earning, error) {
	for _, e := range m.st.earnings {
		if e.OrderID == orderID {
			return e, nil
		}
	}
	return referral.Earning{}, referral.ErrNotFound
}

func (m memLedger) Create(_ context.Context, e referral.Earning) (int64, error) {
	e.ID = m.st.id()
	m.st.earnings[e.ID] = e
	return e.ID, nil
}

func (m memLedger) UpdateStatus(_ context.Context, id int64, st referral.Status) error {
	e, ok := m.st.earnings[id]
	if !ok {
		return referral.ErrNotFound
	}
	e.Status = st
	m.st.earnings[id] = e
	return nil
}

func (m memLedger) AdjustBalance(_ context.Context, userID int64, delta decimal.Decimal) error {
	if m.f.adjust != nil {
		return m.f.adjust
	}
	b := m.st.balances[userID].Add(delta)
	if b.IsNegative() {
		b = decimal.Zero
	}
	m.st.balances[userID] = b
	return nil
}

func (m memLedger) AvailableBalance(_ context.Context, userID int64) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, e := range m.st.earnings {
		if e.UserID == userID && (e.Status == referral.StatusApproved || e.Status == referral.StatusPaid) {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

func (m memLedger) LockUser(_ context.Context, userID int64) error {
	for buyer, ref := range m.st.referrers {
		if buyer == userID || ref == userID {
			return nil
		}
	}
	return referral.ErrUserNotFound
}

func (m memLedger) CreateWithdrawal(_ context.Context, w referral.Withdrawal) (int64, error) {
	id := m.st.id()
	w.ID = id
	m.st.withdrawals = append(m.st.withdrawals, w)
	return id, nil
}

type published struct {
	Topic     string
	EventType string
	OrderID   int64
	Payload   any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, eventType string, orderID int64, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{topic, eventType, orderID, payload})
	return p.err
}

type memCache struct {
	entries     map[int64]StatusSnapshot
	invalidated []int64
	hits        int
}

func newMemCache() *memCache { return &memCache{entries: map[int64]StatusSnapshot{}} }

func (c *memCache) Get(_ context.Context, id int64) (StatusSnapshot, bool) {
	s, ok := c.entries[id]
	if ok {
		c.hits++
	}
	return s, ok
}

func (c *memCache) Set(_ context.Context, s StatusSnapshot) { c.entries[s.OrderID] = s }

func (c *memCache) Invalidate(_ context.Context, id int64) {
	delete(c.entries, id)
	c.invalidated = append(c.invalidated, id)
}
