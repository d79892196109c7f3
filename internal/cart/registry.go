package cart

import (
	"context"
	"log/slog"
	"sync"

	"pharmex/internal/pkg/config"
	"pharmex/internal/usecase/commands"
	"pharmex/internal/usecase/queries"
	"pharmex/internal/usecase/shared"

	"github.com/google/uuid"
)

// Registry owns one Engine per holder and wires the change notification
// relay into them: whenever an offer's accounting changes, every cart
// holding that offer gets a fresh holder-relative capacity figure.
type Registry struct {
	ledger  commands.LedgerCommands
	queries queries.OfferQueries
	sub     shared.Subscriber
	cfg     config.CartConfig

	ctx    context.Context
	cancel func()

	mu      sync.Mutex
	engines map[uuid.UUID]*Engine
}

func NewRegistry(
	ledger commands.LedgerCommands,
	offerQueries queries.OfferQueries,
	sub shared.Subscriber,
	cfg config.CartConfig,
) *Registry {
	return &Registry{
		ledger:  ledger,
		queries: offerQueries,
		sub:     sub,
		cfg:     cfg,
		engines: make(map[uuid.UUID]*Engine),
	}
}

// Start subscribes to the relay. Engines created before Start still work;
// they just miss push refreshes until it runs.
func (r *Registry) Start(ctx context.Context) error {
	r.ctx = ctx
	cancel, err := r.sub.Subscribe(ctx, r.handleEvent)
	if err != nil {
		return err
	}
	r.cancel = cancel
	return nil
}

func (r *Registry) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
}

// ForHolder returns the holder's engine, creating it on first use. Engines
// live for the process lifetime; an empty cart costs a map entry.
func (r *Registry) ForHolder(holderID uuid.UUID) *Engine {
	r.mu.Lock()
	defer r.mu.Unlock()

	if engine, ok := r.engines[holderID]; ok {
		return engine
	}
	ctx := r.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	engine := NewEngine(ctx, holderID, r.ledger, r.cfg)
	r.engines[holderID] = engine
	return engine
}

// handleEvent refreshes the claimable capacity of every cart holding the
// changed offer. Each refresh is an independent read; one slow holder does
// not stall the others.
func (r *Registry) handleEvent(event shared.ChangeEvent) {
	r.mu.Lock()
	var holding []*Engine
	for _, engine := range r.engines {
		if engine.Holds(event.OfferID) {
			holding = append(holding, engine)
		}
	}
	ctx := r.ctx
	r.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	for _, engine := range holding {
		go r.refresh(ctx, engine, event.OfferID)
	}
}

func (r *Registry) refresh(ctx context.Context, engine *Engine, offerID uuid.UUID) {
	view, err := r.queries.GetAvailability(ctx, offerID, engine.HolderID())
	if err != nil {
		slog.Warn("failed to refresh offer availability",
			"offer_id", offerID, "holder_id", engine.HolderID(), "error", err)
		return
	}
	// What this holder could claim: the open remainder plus what they
	// already hold.
	engine.UpdateAvailability(offerID, view.RemainingCapacity+view.MyClaimed)
}
