package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"rental-booking/internal/data/entity"
	"rental-booking/internal/data/repository"
	"rental-booking/internal/payment"
	"rental-booking/internal/pricing"
	"rental-booking/pkg/apperr"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

// memStore is an in-memory stand-in for postgres. txMu plays the part of the
// unit row lock plus serializable isolation; the overlap check in put plays the
// exclusion constraint.
type memStore struct {
	txMu sync.Mutex

	mu       sync.Mutex
	units    map[uuid.UUID]*entity.RentalUnit
	bookings map[uuid.UUID]*entity.Booking
	logs     []*entity.PaymentLog

	beforeUpdate func(id uuid.UUID)
}

func newMemStore() *memStore {
	return &memStore{
		units:    make(map[uuid.UUID]*entity.RentalUnit),
		bookings: make(map[uuid.UUID]*entity.Booking),
	}
}

func (s *memStore) repo() *repository.Repository {
	return &repository.Repository{
		RentalUnit: memUnits{s},
		Booking:    memBookings{s},
		PaymentLog: memLogs{s},
		Tx:         memTx{s},
	}
}

func (s *memStore) addUnit(mutate func(u *entity.RentalUnit)) *entity.RentalUnit {
	u := &entity.RentalUnit{
		OwnerID:      uuid.New(),
		Title:        "Lake cabin",
		BaseRate:     2000,
		PricingUnit:  entity.PricingUnitNight,
		MinStay:      1,
		MaxStay:      30,
		MaxOccupancy: 4,
		Status:       entity.RentalUnitStatusActive,
	}
	u.ID = uuid.New()
	if mutate != nil {
		mutate(u)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.units[u.ID] = u
	return u
}

// addBooking stores b as-is, bypassing the overlap guard.
func (s *memStore) addBooking(b *entity.Booking) *entity.Booking {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[b.ID] = b.Clone()
	return b
}

func (s *memStore) get(id uuid.UUID) *entity.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.bookings[id]; ok {
		return b.Clone()
	}
	return nil
}

func (s *memStore) all() []*entity.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, b.Clone())
	}
	return out
}

// put must be called with mu held.
func (s *memStore) put(b *entity.Booking) error {
	if b.Status.IsActiveHold() {
		for _, other := range s.bookings {
			if other.ID != b.ID && other.RentalUnitID == b.RentalUnitID &&
				other.Status.IsActiveHold() && other.Overlaps(b.CheckIn, b.CheckOut) {
				return fmt.Errorf("%w: exclusion constraint", apperr.ErrDatesUnavailable)
			}
		}
	}
	s.bookings[b.ID] = b.Clone()
	return nil
}

type memTx struct{ s *memStore }

func (t memTx) WithinTx(ctx context.Context, fn func(tx *repository.Repository) error) error {
	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()
	return fn(t.s.repo())
}

type memUnits struct{ s *memStore }

func (r memUnits) FindByID(_ context.Context, id uuid.UUID) (*entity.RentalUnit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.units[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (r memUnits) LockByID(ctx context.Context, id uuid.UUID) (*entity.RentalUnit, error) {
	return r.FindByID(ctx, id)
}

type memBookings struct{ s *memStore }

func (r memBookings) Create(_ context.Context, b *entity.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.bookings[b.ID]; ok {
		return errors.New("duplicate key")
	}
	return r.s.put(b)
}

func (r memBookings) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.s.get(id), nil
}

func (r memBookings) FindByOrderID(_ context.Context, orderID string) (*entity.Booking, error) {
	for _, b := range r.s.all() {
		if b.Payment.OrderID != nil && *b.Payment.OrderID == orderID {
			return b, nil
		}
	}
	return nil, nil
}

func (r memBookings) filter(keep func(b *entity.Booking) bool) []*entity.Booking {
	out := []*entity.Booking{}
	for _, b := range r.s.all() {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func page(bookings []*entity.Booking, limit, offset int) []*entity.Booking {
	if offset >= len(bookings) {
		return []*entity.Booking{}
	}
	end := offset + limit
	if end > len(bookings) {
		end = len(bookings)
	}
	return bookings[offset:end]
}

func (r memBookings) FindByGuestID(_ context.Context, guestID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	return page(r.filter(func(b *entity.Booking) bool { return b.GuestID == guestID }), limit, offset), nil
}

func (r memBookings) CountByGuestID(_ context.Context, guestID uuid.UUID) (int64, error) {
	return int64(len(r.filter(func(b *entity.Booking) bool { return b.GuestID == guestID }))), nil
}

func (r memBookings) FindByHostID(_ context.Context, hostID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	return page(r.filter(func(b *entity.Booking) bool { return b.HostID == hostID }), limit, offset), nil
}

func (r memBookings) CountByHostID(_ context.Context, hostID uuid.UUID) (int64, error) {
	return int64(len(r.filter(func(b *entity.Booking) bool { return b.HostID == hostID }))), nil
}

func (r memBookings) Update(_ context.Context, b *entity.Booking, expected entity.BookingStatus) error {
	if hook := r.s.beforeUpdate; hook != nil {
		hook(b.ID)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.bookings[b.ID]
	if !ok || current.Status != expected {
		return fmt.Errorf("%w: booking %s", apperr.ErrConflict, b.ID)
	}
	return r.s.put(b)
}

func (r memBookings) AttachPaymentSession(_ context.Context, id uuid.UUID, orderID, sessionToken string, updatedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.bookings[id]
	if !ok || current.Status != entity.BookingStatusPendingPayment || current.Payment.OrderID != nil {
		return fmt.Errorf("%w: payment session of booking %s", apperr.ErrConflict, id)
	}
	current.Payment.OrderID = &orderID
	current.Payment.SessionToken = &sessionToken
	current.UpdatedAt = updatedAt
	return nil
}

func (r memBookings) UpdateRefund(_ context.Context, id uuid.UUID, expected, status entity.RefundStatus, ref *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.bookings[id]
	if !ok || current.Cancellation == nil || current.Cancellation.RefundStatus != expected {
		return fmt.Errorf("%w: refund of booking %s", apperr.ErrConflict, id)
	}
	current.Cancellation.RefundStatus = status
	if ref != nil {
		current.Cancellation.RefundRef = ref
	}
	return nil
}

func (r memBookings) FindActiveHolds(_ context.Context, unitID uuid.UUID, from, to time.Time, excludeID *uuid.UUID) ([]*entity.Booking, error) {
	return r.filter(func(b *entity.Booking) bool {
		return b.RentalUnitID == unitID && b.Status.IsActiveHold() && b.Overlaps(from, to) &&
			(excludeID == nil || b.ID != *excludeID)
	}), nil
}

func (r memBookings) FindElapsedConfirmed(_ context.Context, now time.Time, limit int) ([]*entity.Booking, error) {
	return page(r.filter(func(b *entity.Booking) bool {
		return b.Status == entity.BookingStatusConfirmed && b.CheckOut.Before(now)
	}), limit, 0), nil
}

func (r memBookings) FindStalePending(_ context.Context, createdBefore time.Time, limit int) ([]*entity.Booking, error) {
	return page(r.filter(func(b *entity.Booking) bool {
		return b.Status == entity.BookingStatusPendingPayment && b.CreatedAt.Before(createdBefore)
	}), limit, 0), nil
}

type memLogs struct{ s *memStore }

func (r memLogs) Create(_ context.Context, entry *entity.PaymentLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *entry
	r.s.logs = append(r.s.logs, &c)
	return nil
}

func (r memLogs) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]*entity.PaymentLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*entity.PaymentLog{}
	for _, l := range r.s.logs {
		if l.BookingID == bookingID {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeProvider struct {
	mu          sync.Mutex
	createErr   error
	queryErr    error
	refundErr   error
	pending     bool
	refundDelay time.Duration
	onCreate    func(req payment.ChargeRequest)
	charges     int
	refunds     []int64
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) CreateCharge(_ context.Context, req payment.ChargeRequest) (*payment.Charge, error) {
	if p.onCreate != nil {
		p.onCreate(req)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.charges++
	return &payment.Charge{OrderID: req.OrderID, SessionToken: "sess_" + req.OrderID}, nil
}

func (p *fakeProvider) QueryChargeStatus(_ context.Context, orderID string) (*payment.ChargeStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.queryErr != nil {
		return nil, p.queryErr
	}
	if p.pending {
		return &payment.ChargeStatus{}, nil
	}
	return &payment.ChargeStatus{Settled: true, TransactionRef: "txn_" + orderID}, nil
}

func (p *fakeProvider) Refund(_ context.Context, bookingID uuid.UUID, amount int64) (string, error) {
	time.Sleep(p.refundDelay)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.refundErr != nil {
		return "", p.refundErr
	}
	p.refunds = append(p.refunds, amount)
	return "rfnd_" + bookingID.String(), nil
}

type fakeCooldown struct {
	mu   sync.Mutex
	held map[string]bool
	err  error
}

func (c *fakeCooldown) Acquire(_ context.Context, actor, action string, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return false, c.err
	}
	if c.held == nil {
		c.held = make(map[string]bool)
	}
	key := action + ":" + actor
	if c.held[key] {
		return false, nil
	}
	c.held[key] = true
	return true, nil
}

type testEnv struct {
	store    *memStore
	provider *fakeProvider
	cooldown *fakeCooldown
	booking  *bookingService
	payment  *paymentService
	sweep    *sweepService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := newMemStore()
	repo := store.repo()
	provider := &fakeProvider{}
	cooldown := &fakeCooldown{}
	log := zap.NewNop()

	refunds := &refunder{repo: repo, provider: provider, currency: "INR", log: log, now: testClock}

	bs := NewBookingService(repo, pricing.DefaultFeePolicy(), provider.Name(), 12, refunds, log).(*bookingService)
	bs.now = testClock

	settlement := newSettler(repo, refunds, log)
	settlement.now = testClock

	ps := NewPaymentService(repo, provider, cooldown, 10*time.Second, settlement, refunds, log).(*paymentService)
	ps.now = testClock

	ss := NewSweepService(repo, provider, settlement, 30*time.Minute, log).(*sweepService)
	ss.now = testClock

	return &testEnv{
		store:    store,
		provider: provider,
		cooldown: cooldown,
		booking:  bs,
		payment:  ps,
		sweep:    ss,
	}
}

// disjoint reports whether the active holds of every unit are pairwise non-overlapping.
func disjoint(bookings []*entity.Booking) bool {
	for i, a := range bookings {
		if !a.Status.IsActiveHold() {
			continue
		}
		for _, b := range bookings[i+1:] {
			if b.Status.IsActiveHold() && a.RentalUnitID == b.RentalUnitID && a.Overlaps(b.CheckIn, b.CheckOut) {
				return false
			}
		}
	}
	return true
}
