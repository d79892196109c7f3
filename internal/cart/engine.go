package cart

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"pharmex/internal/pkg/config"
	"pharmex/internal/pkg/errs"
	"pharmex/internal/usecase/commands"

	"github.com/google/uuid"
)

// ItemState tracks where a line item sits between the shopper's last edit
// and the reservation ledger.
type ItemState string

const (
	// StateOptimistic: edited locally, the settle timer has not fired yet.
	StateOptimistic ItemState = "optimistic"
	// StateSettling: a ledger call is in flight.
	StateSettling ItemState = "settling"
	// StateSettled: the ledger confirmed the current quantity.
	StateSettled ItemState = "settled"
	// StateFailed: the last ledger call failed; quantity rolled back.
	StateFailed ItemState = "failed"
)

type item struct {
	offerID   uuid.UUID
	desired   int
	confirmed int // last quantity the ledger accepted
	state     ItemState
	depot     bool
	lastErr   error

	// claimable is the holder-relative capacity from the last ledger
	// response or availability refresh. Zero value means unknown.
	claimable    int
	hasClaimable bool

	// adjustedFrom is set when the ledger (or a local clamp) shrank the
	// requested quantity, so the UI can tell the shopper.
	adjustedFrom *int

	timer    *time.Timer
	inFlight bool
	dirty    bool
}

// ItemView is an immutable snapshot of one line item.
type ItemView struct {
	OfferID          uuid.UUID
	Quantity         int
	State            ItemState
	Provisional      bool
	DepotFulfillment bool
	AdjustedFrom     *int
}

// CommitOutcome reports the checkout result for one line item.
type CommitOutcome struct {
	OfferID  uuid.UUID
	Quantity int
	Kind     commands.CommitKind
	Err      error
}

// Engine reconciles one holder's cart against the reservation ledger. Edits
// apply locally at once; the ledger sees one call per item per settle
// window, carrying whatever the shopper last asked for. All methods are safe
// for concurrent use.
type Engine struct {
	holderID uuid.UUID
	ledger   commands.LedgerCommands
	cfg      config.CartConfig

	// ctx is used for ledger calls triggered by settle timers, which have
	// no request context of their own.
	ctx context.Context

	mu    sync.Mutex
	items map[uuid.UUID]*item
}

func NewEngine(ctx context.Context, holderID uuid.UUID, ledger commands.LedgerCommands, cfg config.CartConfig) *Engine {
	return &Engine{
		holderID: holderID,
		ledger:   ledger,
		cfg:      cfg,
		ctx:      ctx,
		items:    make(map[uuid.UUID]*item),
	}
}

func (e *Engine) HolderID() uuid.UUID { return e.holderID }

// RequestQuantityChange applies the shopper's edit locally and schedules a
// ledger call for when the settle window closes. Rapid edits within the
// window collapse into one call carrying the latest value: the running
// timer is reused, never reset, so a fidgeting shopper still settles within
// one window of their first edit.
func (e *Engine) RequestQuantityChange(ctx context.Context, offerID uuid.UUID, quantity int, depotFulfillment bool) (ItemView, error) {
	if quantity <= 0 {
		err := e.Remove(ctx, offerID)
		return ItemView{OfferID: offerID}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	it, ok := e.items[offerID]
	if !ok {
		it = &item{offerID: offerID}
		e.items[offerID] = it
	}

	clamped, from := e.clampLocked(it, quantity)
	it.desired = clamped
	it.depot = depotFulfillment
	it.state = StateOptimistic
	it.adjustedFrom = from
	it.lastErr = nil

	switch {
	case it.inFlight:
		it.dirty = true
	case it.timer == nil:
		e.armLocked(it)
	}
	return e.viewLocked(it), nil
}

// Remove drops the item optimistically, then releases the reservation. If
// the release fails the item reappears at its last confirmed quantity.
func (e *Engine) Remove(ctx context.Context, offerID uuid.UUID) error {
	e.mu.Lock()
	it, ok := e.items[offerID]
	if !ok {
		e.mu.Unlock()
		return errs.ErrItemNotFound
	}

	if it.timer != nil {
		it.timer.Stop()
		it.timer = nil
	}
	if it.inFlight {
		// Let the in-flight call finish; its completion handler sees the
		// zero desired quantity and performs the release.
		it.desired = 0
		it.dirty = true
		e.mu.Unlock()
		return nil
	}

	confirmed := it.confirmed
	delete(e.items, offerID)
	e.mu.Unlock()

	if confirmed == 0 {
		// Never reached the ledger; nothing to release.
		return nil
	}

	if err := e.ledger.ReleaseReservation(ctx, offerID, e.holderID); err != nil {
		e.mu.Lock()
		e.items[offerID] = &item{
			offerID:   offerID,
			desired:   confirmed,
			confirmed: confirmed,
			state:     StateFailed,
			lastErr:   err,
		}
		e.mu.Unlock()
		return err
	}
	return nil
}

// Clear removes every item. Items whose release fails are restored; the
// caller gets one error covering all of them.
func (e *Engine) Clear(ctx context.Context) error {
	e.mu.Lock()
	ids := make([]uuid.UUID, 0, len(e.items))
	for id := range e.items {
		ids = append(ids, id)
	}
	e.mu.Unlock()

	var failed []error
	for _, id := range ids {
		if err := e.Remove(ctx, id); err != nil && !errs.Is(err, errs.ErrItemNotFound) {
			failed = append(failed, err)
		}
	}
	if len(failed) > 0 {
		return errs.Mark(errs.Join(failed...), errs.ErrPartialClear)
	}
	return nil
}

// CommitAll converts every settled reservation into a purchase. Items still
// settling are skipped with ErrItemSettling so the shopper can retry once
// they quiesce; items whose commit fails stay in the cart.
func (e *Engine) CommitAll(ctx context.Context) []CommitOutcome {
	e.mu.Lock()
	type pending struct {
		offerID  uuid.UUID
		quantity int
		depot    bool
	}
	var ready []pending
	var outcomes []CommitOutcome
	for _, it := range e.items {
		if it.state != StateSettled || it.timer != nil || it.inFlight {
			outcomes = append(outcomes, CommitOutcome{
				OfferID:  it.offerID,
				Quantity: it.desired,
				Err:      errs.ErrItemSettling,
			})
			continue
		}
		ready = append(ready, pending{it.offerID, it.confirmed, it.depot})
	}
	e.mu.Unlock()

	for _, p := range ready {
		result, err := e.ledger.Commit(ctx, p.offerID, e.holderID, p.depot)
		if err != nil {
			e.mu.Lock()
			if it, ok := e.items[p.offerID]; ok {
				it.state = StateFailed
				it.lastErr = err
			}
			e.mu.Unlock()
			outcomes = append(outcomes, CommitOutcome{OfferID: p.offerID, Quantity: p.quantity, Err: err})
			continue
		}
		e.mu.Lock()
		// An edit may have raced the commit; only drop the item if it is
		// still exactly what we committed.
		if it, ok := e.items[p.offerID]; ok {
			switch {
			case !it.inFlight && it.timer == nil && it.desired == p.quantity:
				delete(e.items, p.offerID)
			case it.inFlight || it.timer != nil:
				// The committed reservation is gone; the pending edit has to
				// reserve from scratch when it settles.
				it.confirmed = 0
			}
		}
		e.mu.Unlock()
		outcomes = append(outcomes, CommitOutcome{
			OfferID:  p.offerID,
			Quantity: result.Quantity,
			Kind:     result.Kind,
		})
	}

	sort.Slice(outcomes, func(i, j int) bool {
		return outcomes[i].OfferID.String() < outcomes[j].OfferID.String()
	})
	return outcomes
}

// UpdateAvailability feeds a fresh holder-relative capacity figure into the
// clamp, typically after a change notification for the offer.
func (e *Engine) UpdateAvailability(offerID uuid.UUID, claimable int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if it, ok := e.items[offerID]; ok {
		it.claimable = claimable
		it.hasClaimable = true
	}
}

// Holds reports whether the cart currently carries the offer.
func (e *Engine) Holds(offerID uuid.UUID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.items[offerID]
	return ok
}

// Snapshot returns the cart ordered by offer id for stable rendering.
func (e *Engine) Snapshot() []ItemView {
	e.mu.Lock()
	defer e.mu.Unlock()

	views := make([]ItemView, 0, len(e.items))
	for _, it := range e.items {
		views = append(views, e.viewLocked(it))
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].OfferID.String() < views[j].OfferID.String()
	})
	return views
}

func (e *Engine) viewLocked(it *item) ItemView {
	var adjusted *int
	if it.adjustedFrom != nil {
		v := *it.adjustedFrom
		adjusted = &v
	}
	return ItemView{
		OfferID:          it.offerID,
		Quantity:         it.desired,
		State:            it.state,
		Provisional:      it.state != StateSettled,
		DepotFulfillment: it.depot,
		AdjustedFrom:     adjusted,
	}
}

// clampLocked bounds a requested quantity by the hard ceiling and, when
// known, the holder's claimable capacity. Returns the bounded value and the
// original when clamping happened.
func (e *Engine) clampLocked(it *item, quantity int) (int, *int) {
	bound := e.cfg.HardCeiling
	if it.hasClaimable && it.claimable < bound {
		bound = it.claimable
	}
	if quantity <= bound {
		return quantity, nil
	}
	original := quantity
	return bound, &original
}

func (e *Engine) armLocked(it *item) {
	offerID := it.offerID
	it.timer = time.AfterFunc(e.cfg.SettleWindow, func() {
		e.flush(offerID)
	})
}

// flush is the settle-timer body: it pushes the latest desired quantity to
// the ledger in a single call. At most one call per item is ever in flight;
// edits arriving mid-flight set the dirty flag and are flushed again once
// the response lands.
func (e *Engine) flush(offerID uuid.UUID) {
	e.mu.Lock()
	it, ok := e.items[offerID]
	if !ok {
		e.mu.Unlock()
		return
	}
	it.timer = nil
	if it.inFlight {
		it.dirty = true
		e.mu.Unlock()
		return
	}
	desired := it.desired
	if desired == it.confirmed && it.state != StateFailed {
		it.state = StateSettled
		e.mu.Unlock()
		return
	}
	it.inFlight = true
	it.dirty = false
	it.state = StateSettling
	e.mu.Unlock()

	if desired == 0 {
		e.finishRelease(it, e.ledger.ReleaseReservation(e.ctx, offerID, e.holderID))
		return
	}
	result, err := e.ledger.SetReservation(e.ctx, offerID, e.holderID, desired)
	e.finishSet(it, desired, result, err)
}

func (e *Engine) finishSet(it *item, requested int, result *commands.SetResult, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	it.inFlight = false

	if err != nil {
		// Roll back to the last quantity the ledger confirmed.
		it.desired = it.confirmed
		it.state = StateFailed
		it.lastErr = err
		slog.Warn("cart settle failed",
			"holder_id", e.holderID, "offer_id", it.offerID, "error", err)
		if it.confirmed == 0 {
			delete(e.items, it.offerID)
		}
		return
	}

	it.confirmed = result.Accepted
	it.claimable = result.AvailableToHolder
	it.hasClaimable = true

	if it.dirty && it.desired != requested {
		// The shopper kept editing while we were on the wire; settle again.
		it.state = StateOptimistic
		e.armLocked(it)
		return
	}

	if result.Adjusted {
		from := requested
		it.adjustedFrom = &from
	}
	it.desired = result.Accepted
	it.state = StateSettled
	if result.Accepted == 0 {
		delete(e.items, it.offerID)
	}
}

func (e *Engine) finishRelease(it *item, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	it.inFlight = false

	if err != nil {
		it.desired = it.confirmed
		it.state = StateFailed
		it.lastErr = err
		return
	}

	if it.dirty && it.desired > 0 {
		// Removed and re-added within one flight; reserve the new quantity.
		it.state = StateOptimistic
		e.armLocked(it)
		return
	}
	delete(e.items, it.offerID)
}
