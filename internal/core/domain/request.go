package domain

// RequestSignals carries everything the selection resolver may consult for a
// single request. It is assembled once by the transport layer.
type RequestSignals struct {
	CurrencyParam string      // ?currency=XXX query parameter, may be empty
	SessionID     string      // anonymous visitor session, may be empty
	UserID        string      // authenticated user, may be empty
	UserAgent     string
	ClientIP      string
	Cart          CartContext
	Bootstrapped  bool // true once the cart pipeline is safe to recalculate
}

// RequestState memoizes per-request resolution results so stored-selection
// reads and recalculation scheduling each happen at most once per request.
type RequestState struct {
	Signals RequestSignals

	storedRead    bool
	storedCode    string
	resolved      *Currency
	geoApplied    bool
	recalcPending bool
	recalcDone    bool
}

// NewRequestState wraps signals in a fresh per-request state.
func NewRequestState(signals RequestSignals) *RequestState {
	return &RequestState{Signals: signals}
}

// StoredSelection returns the memoized stored-selection code and whether it
// has been read yet this request.
func (s *RequestState) StoredSelection() (string, bool) {
	return s.storedCode, s.storedRead
}

// MemoizeStoredSelection records the stored-selection read result for the
// remainder of the request.
func (s *RequestState) MemoizeStoredSelection(code string) {
	s.storedCode = code
	s.storedRead = true
}

// ResolvedCurrency returns the memoized resolution result for this request.
func (s *RequestState) ResolvedCurrency() (Currency, bool) {
	if s.resolved == nil {
		return Currency{}, false
	}
	return *s.resolved, true
}

// MemoizeResolvedCurrency records the resolution result so repeated price
// conversions within one request resolve at most once.
func (s *RequestState) MemoizeResolvedCurrency(c Currency) {
	s.resolved = &c
}

// InvalidateResolvedCurrency drops the memoized resolution after an explicit
// selection change.
func (s *RequestState) InvalidateResolvedCurrency() {
	s.resolved = nil
}

// MarkGeolocationApplied records that geolocation decided this request's
// currency; the transport layer may then establish a session for the visitor.
func (s *RequestState) MarkGeolocationApplied() { s.geoApplied = true }

// GeolocationApplied reports whether geolocation decided the currency.
func (s *RequestState) GeolocationApplied() bool { return s.geoApplied }

// MarkRecalcNeeded flags that the active currency changed and cart totals
// must be recalculated. Returns false when a recalculation was already
// performed or scheduled for this request.
func (s *RequestState) MarkRecalcNeeded() bool {
	if s.recalcPending || s.recalcDone {
		return false
	}
	s.recalcPending = true
	return true
}

// RecalcPending reports whether a deferred recalculation is still owed.
func (s *RequestState) RecalcPending() bool {
	return s.recalcPending
}

// MarkRecalcDone clears the pending flag after the recalculation ran.
func (s *RequestState) MarkRecalcDone() {
	s.recalcPending = false
	s.recalcDone = true
}
