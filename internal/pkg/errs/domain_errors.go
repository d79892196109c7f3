package errs

// Domain-specific sentinel errors for the reservation ledger and cart engine
var (
	// Offer errors
	ErrOfferNotFound     = New("offer not found")
	ErrOfferNotActive    = New("offer is not active")
	ErrInvalidTransition = New("invalid offer status transition")

	// Threshold pool errors
	ErrInvalidBundle = New("bundle unit must be positive")

	// Reservation ledger errors
	ErrReservationNotFound = New("reservation not found")
	ErrInvalidQuantity     = New("quantity must be positive")
	ErrStaleReservation    = New("capacity shrank since reservation; re-quote required")
	ErrOfferBusy           = New("offer is locked by a concurrent operation")

	// Cart engine errors
	ErrItemNotFound = New("cart item not found")
	ErrItemSettling = New("cart item has a pending quantity change")
	ErrPartialClear = New("some cart items could not be released")

	// Operation errors
	ErrDatabaseOperationFailed = New("database operation failed")
)
