//go:build unit

package commands

import (
	"context"
	"sync"
	"testing"
	"time"

	"pharmex/internal/domain/offer"
	"pharmex/internal/domain/reservation"
	"pharmex/internal/infra"
	"pharmex/internal/infra/repository"
	"pharmex/internal/pkg/clock"
	"pharmex/internal/pkg/config"
	"pharmex/internal/pkg/errs"
	"pharmex/internal/usecase/shared"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// ----- in-memory fakes -----

type offerRow struct {
	typ              offer.Type
	declaredQuantity int
	bundle           offer.BundleSpec
	status           offer.Status
	soldQuantity     int
}

type fakeOfferRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*offerRow
}

func newFakeOfferRepo() *fakeOfferRepo {
	return &fakeOfferRepo{rows: make(map[uuid.UUID]*offerRow)}
}

func (f *fakeOfferRepo) FindByID(_ context.Context, _ repository.DBTX, id uuid.UUID) (*offer.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, infra.WrapRepoErr("offer not found", nil, infra.KindNotFound)
	}
	return offer.ReconstructOffer(
		id, uuid.New(), uuid.New(),
		row.typ, decimal.NewFromInt(100),
		row.declaredQuantity, 0, row.bundle,
		"2027-06", row.status, row.soldQuantity,
		time.Now(), time.Now(),
	)
}

func (f *fakeOfferRepo) AddSoldQuantity(_ context.Context, _ repository.DBTX, id uuid.UUID, quantity int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return 0, infra.WrapRepoErr("offer not found", nil, infra.KindNotFound)
	}
	row.soldQuantity += quantity
	return row.soldQuantity, nil
}

func (f *fakeOfferRepo) UpdateStatus(_ context.Context, _ repository.DBTX, id uuid.UUID, status offer.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return infra.WrapRepoErr("offer not found", nil, infra.KindNotFound)
	}
	row.status = status
	return nil
}

type resKey struct {
	offerID  uuid.UUID
	holderID uuid.UUID
}

type fakeReservationRepo struct {
	mu   sync.Mutex
	rows map[resKey]*reservation.Reservation
}

func newFakeReservationRepo() *fakeReservationRepo {
	return &fakeReservationRepo{rows: make(map[resKey]*reservation.Reservation)}
}

func (f *fakeReservationRepo) Get(_ context.Context, _ repository.DBTX, offerID, holderID uuid.UUID) (*reservation.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.rows[resKey{offerID, holderID}]
	if !ok {
		return nil, infra.WrapRepoErr("reservation not found", nil, infra.KindNotFound)
	}
	return res, nil
}

func (f *fakeReservationRepo) Upsert(_ context.Context, _ repository.DBTX, res *reservation.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[resKey{res.OfferID(), res.HolderID()}] = res
	return nil
}

func (f *fakeReservationRepo) Delete(_ context.Context, _ repository.DBTX, offerID, holderID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := resKey{offerID, holderID}
	_, ok := f.rows[key]
	delete(f.rows, key)
	return ok, nil
}

func (f *fakeReservationRepo) DeleteStale(_ context.Context, _ repository.DBTX, offerID uuid.UUID, cutoff time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	evicted := 0
	for key, res := range f.rows {
		if key.offerID == offerID && res.LastRenewedAt().Before(cutoff) {
			delete(f.rows, key)
			evicted++
		}
	}
	return evicted, nil
}

func (f *fakeReservationRepo) SumOthersActive(_ context.Context, _ repository.DBTX, offerID, excludeHolder uuid.UUID, cutoff time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := 0
	for key, res := range f.rows {
		if key.offerID == offerID && key.holderID != excludeHolder && !res.LastRenewedAt().Before(cutoff) {
			sum += res.Quantity()
		}
	}
	return sum, nil
}

func (f *fakeReservationRepo) HolderQuantity(_ context.Context, _ repository.DBTX, offerID, holderID uuid.UUID, cutoff time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if res, ok := f.rows[resKey{offerID, holderID}]; ok && !res.LastRenewedAt().Before(cutoff) {
		return res.Quantity(), nil
	}
	return 0, nil
}

type fakeContributionRepo struct {
	mu   sync.Mutex
	rows []*reservation.Contribution
}

func newFakeContributionRepo() *fakeContributionRepo {
	return &fakeContributionRepo{}
}

func (f *fakeContributionRepo) Insert(_ context.Context, _ repository.DBTX, c *reservation.Contribution) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, c)
	return nil
}

func (f *fakeContributionRepo) SumByOffer(_ context.Context, _ repository.DBTX, offerID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := 0
	for _, c := range f.rows {
		if c.OfferID() == offerID {
			sum += c.Quantity()
		}
	}
	return sum, nil
}

func (f *fakeContributionRepo) SumByBuyer(_ context.Context, _ repository.DBTX, offerID, buyerID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := 0
	for _, c := range f.rows {
		if c.OfferID() == offerID && c.BuyerID() == buyerID {
			sum += c.Quantity()
		}
	}
	return sum, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) RunInTx(_ context.Context, fn func(db repository.DBTX) error) error {
	return fn(nil)
}

type fakeUnlocker struct{}

func (fakeUnlocker) Release(context.Context) error { return nil }

type fakeLocker struct{}

func (fakeLocker) Lock(context.Context, uuid.UUID) (shared.Unlocker, error) {
	return fakeUnlocker{}, nil
}

type recordingRelay struct {
	mu     sync.Mutex
	events []shared.ChangeEvent
}

func (r *recordingRelay) Publish(_ context.Context, event shared.ChangeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingRelay) Events() []shared.ChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]shared.ChangeEvent, len(r.events))
	copy(out, r.events)
	return out
}

// ----- suite -----

type LedgerSuite struct {
	suite.Suite

	offers        *fakeOfferRepo
	reservations  *fakeReservationRepo
	contributions *fakeContributionRepo
	relay         *recordingRelay
	clock         *clock.MockClock
	cfg           config.LedgerConfig
	ledger        LedgerCommands
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupTest() {
	s.offers = newFakeOfferRepo()
	s.reservations = newFakeReservationRepo()
	s.contributions = newFakeContributionRepo()
	s.relay = &recordingRelay{}
	s.clock = clock.NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	s.cfg = config.LedgerConfig{
		RenewalWindow:   10 * time.Minute,
		MaxPoolMultiple: 20,
	}
	s.ledger = NewLedgerCommands(
		s.offers, s.reservations, s.contributions,
		fakeLocker{}, s.relay, fakeTxRunner{}, s.clock, s.cfg,
	)
}

func (s *LedgerSuite) addStockOffer(declared, sold int, status offer.Status) uuid.UUID {
	id := uuid.New()
	s.offers.rows[id] = &offerRow{
		typ:              offer.TypeStockSale,
		declaredQuantity: declared,
		status:           status,
		soldQuantity:     sold,
	}
	return id
}

func (s *LedgerSuite) addPooledOffer(bundleQty, bundleBonus int) uuid.UUID {
	id := uuid.New()
	s.offers.rows[id] = &offerRow{
		typ:    offer.TypeJointOrder,
		bundle: offer.BundleSpec{Quantity: bundleQty, Bonus: bundleBonus},
		status: offer.StatusActive,
	}
	return id
}

func (s *LedgerSuite) TestStockSale_ClampsToRemainingStock() {
	ctx := context.Background()
	offerID := s.addStockOffer(10, 0, offer.StatusActive)
	buyerA := uuid.New()
	buyerB := uuid.New()

	resA, err := s.ledger.SetReservation(ctx, offerID, buyerA, 6)
	s.Require().NoError(err)
	want := &SetResult{
		Requested:         6,
		Accepted:          6,
		Adjusted:          false,
		AvailableToHolder: 10,
		EffectiveCapacity: 10,
	}
	s.Empty(cmp.Diff(want, resA))

	// B asks for more than what is left and gets clamped, not refused.
	resB, err := s.ledger.SetReservation(ctx, offerID, buyerB, 7)
	s.Require().NoError(err)
	s.Equal(4, resB.Accepted)
	s.True(resB.Adjusted)
	s.Equal(4, resB.AvailableToHolder)
}

func (s *LedgerSuite) TestStockSale_CommitDecrementsAndClosesWhenExhausted() {
	ctx := context.Background()
	offerID := s.addStockOffer(10, 0, offer.StatusActive)
	buyerA := uuid.New()
	buyerB := uuid.New()

	_, err := s.ledger.SetReservation(ctx, offerID, buyerA, 6)
	s.Require().NoError(err)
	_, err = s.ledger.SetReservation(ctx, offerID, buyerB, 4)
	s.Require().NoError(err)

	commitA, err := s.ledger.Commit(ctx, offerID, buyerA, false)
	s.Require().NoError(err)
	s.Equal(CommitStockDecrement, commitA.Kind)
	s.Equal(6, commitA.Quantity)
	s.Equal(offer.StatusActive, commitA.OfferStatus)

	// B's committed units exhaust the declared stock and close the offer.
	commitB, err := s.ledger.Commit(ctx, offerID, buyerB, false)
	s.Require().NoError(err)
	s.Equal(4, commitB.Quantity)
	s.Equal(offer.StatusClosed, commitB.OfferStatus)
	s.Equal(offer.StatusClosed, s.offers.rows[offerID].status)
	s.Equal(10, s.offers.rows[offerID].soldQuantity)

	// Each stock purchase is attributed to its buyer.
	boughtA, err := s.contributions.SumByBuyer(ctx, nil, offerID, buyerA)
	s.Require().NoError(err)
	s.Equal(6, boughtA)
	boughtB, err := s.contributions.SumByBuyer(ctx, nil, offerID, buyerB)
	s.Require().NoError(err)
	s.Equal(4, boughtB)
}

func (s *LedgerSuite) TestStockSale_CommitFailsWhenCapacityShrank() {
	ctx := context.Background()
	offerID := s.addStockOffer(10, 0, offer.StatusActive)
	buyer := uuid.New()

	_, err := s.ledger.SetReservation(ctx, offerID, buyer, 6)
	s.Require().NoError(err)

	// Stock sold out-of-band since the reservation was taken.
	s.offers.rows[offerID].soldQuantity = 8

	_, err = s.ledger.Commit(ctx, offerID, buyer, false)
	s.Require().ErrorIs(err, errs.ErrStaleReservation)

	// The reservation survives a failed commit; the holder can re-quote.
	qty, err := s.reservations.HolderQuantity(ctx, nil, offerID, buyer, s.clock.Now().Add(-s.cfg.RenewalWindow))
	s.Require().NoError(err)
	s.Equal(6, qty)
}

func (s *LedgerSuite) TestStaleReservationsAreEvicted() {
	ctx := context.Background()
	offerID := s.addStockOffer(10, 0, offer.StatusActive)
	buyerA := uuid.New()
	buyerB := uuid.New()

	_, err := s.ledger.SetReservation(ctx, offerID, buyerA, 6)
	s.Require().NoError(err)

	// A walks away; past the renewal window their claim no longer counts.
	s.clock.Add(s.cfg.RenewalWindow + time.Second)

	resB, err := s.ledger.SetReservation(ctx, offerID, buyerB, 10)
	s.Require().NoError(err)
	s.Equal(10, resB.Accepted)

	// A's commit now fails: the reservation was evicted, not just ignored.
	_, err = s.ledger.Commit(ctx, offerID, buyerA, false)
	s.Require().True(errs.Is(err, errs.ErrReservationNotFound))
}

func (s *LedgerSuite) TestResizeReplacesOwnClaim() {
	ctx := context.Background()
	offerID := s.addStockOffer(10, 0, offer.StatusActive)
	buyer := uuid.New()

	_, err := s.ledger.SetReservation(ctx, offerID, buyer, 6)
	s.Require().NoError(err)

	// The holder's own claim does not count against them on resize.
	res, err := s.ledger.SetReservation(ctx, offerID, buyer, 9)
	s.Require().NoError(err)
	s.Equal(9, res.Accepted)
	s.False(res.Adjusted)
}

func (s *LedgerSuite) TestPooled_PoolGrowsWithDemand() {
	ctx := context.Background()
	offerID := s.addPooledOffer(50, 5) // unit = 55
	buyerA := uuid.New()
	buyerB := uuid.New()

	// 60 requested needs two bundle units: pool sizes to 110.
	resA, err := s.ledger.SetReservation(ctx, offerID, buyerA, 60)
	s.Require().NoError(err)
	s.Equal(60, resA.Accepted)
	s.Equal(110, resA.EffectiveCapacity)

	// B fits in the remainder without growing the pool.
	resB, err := s.ledger.SetReservation(ctx, offerID, buyerB, 50)
	s.Require().NoError(err)
	s.Equal(50, resB.Accepted)
	s.Equal(110, resB.EffectiveCapacity)
}

func (s *LedgerSuite) TestPooled_MaxMultipleCapsGrowth() {
	ctx := context.Background()
	offerID := s.addPooledOffer(10, 0)
	s.cfg.MaxPoolMultiple = 2
	s.ledger = NewLedgerCommands(
		s.offers, s.reservations, s.contributions,
		fakeLocker{}, s.relay, fakeTxRunner{}, s.clock, s.cfg,
	)
	buyer := uuid.New()

	res, err := s.ledger.SetReservation(ctx, offerID, buyer, 50)
	s.Require().NoError(err)
	s.Equal(20, res.Accepted)
	s.True(res.Adjusted)
	s.Equal(20, res.EffectiveCapacity)
}

func (s *LedgerSuite) TestPooled_CommitRecordsContribution() {
	ctx := context.Background()
	offerID := s.addPooledOffer(50, 5)
	buyer := uuid.New()

	_, err := s.ledger.SetReservation(ctx, offerID, buyer, 60)
	s.Require().NoError(err)

	commit, err := s.ledger.Commit(ctx, offerID, buyer, true)
	s.Require().NoError(err)
	s.Equal(CommitContribution, commit.Kind)
	s.Equal(60, commit.Quantity)

	sum, err := s.contributions.SumByBuyer(ctx, nil, offerID, buyer)
	s.Require().NoError(err)
	s.Equal(60, sum)
	s.True(s.contributions.rows[0].DepotFulfillment())

	// Committed contributions keep counting against the pool.
	other := uuid.New()
	res, err := s.ledger.SetReservation(ctx, offerID, other, 60)
	s.Require().NoError(err)
	s.Equal(50, res.Accepted)
	s.True(res.Adjusted)
}

func (s *LedgerSuite) TestRelease_IsIdempotent() {
	ctx := context.Background()
	offerID := s.addStockOffer(10, 0, offer.StatusActive)
	buyer := uuid.New()

	_, err := s.ledger.SetReservation(ctx, offerID, buyer, 3)
	s.Require().NoError(err)

	s.Require().NoError(s.ledger.ReleaseReservation(ctx, offerID, buyer))
	s.Require().NoError(s.ledger.ReleaseReservation(ctx, offerID, buyer))

	events := s.relay.Events()
	released := 0
	for _, e := range events {
		if e.Kind == shared.ChangeReleased {
			released++
		}
	}
	// The second release was a no-op and published nothing.
	s.Equal(1, released)
}

func (s *LedgerSuite) TestSetReservation_RejectsBadInput() {
	ctx := context.Background()
	buyer := uuid.New()

	_, err := s.ledger.SetReservation(ctx, uuid.New(), buyer, 0)
	s.ErrorIs(err, errs.ErrInvalidQuantity)

	_, err = s.ledger.SetReservation(ctx, uuid.New(), buyer, 5)
	s.True(errs.Is(err, errs.ErrOfferNotFound))

	closed := s.addStockOffer(10, 10, offer.StatusClosed)
	_, err = s.ledger.SetReservation(ctx, closed, buyer, 5)
	s.ErrorIs(err, errs.ErrOfferNotActive)
}

func (s *LedgerSuite) TestChangeEventsCarryAffectedHolder() {
	ctx := context.Background()
	offerID := s.addStockOffer(10, 0, offer.StatusActive)
	buyer := uuid.New()

	_, err := s.ledger.SetReservation(ctx, offerID, buyer, 3)
	s.Require().NoError(err)
	_, err = s.ledger.Commit(ctx, offerID, buyer, false)
	s.Require().NoError(err)

	events := s.relay.Events()
	s.Require().Len(events, 2)
	s.Equal(shared.ChangeReserved, events[0].Kind)
	s.Equal(shared.ChangeCommitted, events[1].Kind)
	s.Equal([]uuid.UUID{buyer}, events[1].AffectedHolders)
	s.Equal(offerID, events[1].OfferID)
}
