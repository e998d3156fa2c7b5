package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/storelens/multicurrency/internal/apperrors"
	"github.com/storelens/multicurrency/internal/core/domain"
	portsrepo "github.com/storelens/multicurrency/internal/core/ports/repositories"
	portssvc "github.com/storelens/multicurrency/internal/core/ports/services"
	"github.com/storelens/multicurrency/pkg/config"
)

// VaryCookieName is the output-only cookie that lets edge/full-page caches
// vary cached responses by currency. It is never read back for selection.
const VaryCookieName = "store_currency_vary"

// SelectionService resolves the active currency for a request. Precedence,
// highest first: compatibility override, URL parameter, stored selection,
// geolocation, store default.
type SelectionService struct {
	currencies portssvc.EnabledCurrencyLister
	sessions   portsrepo.SessionStore
	userMeta   portsrepo.UserMetaStore
	settings   portsrepo.SettingsRepositoryFacade
	compat     portssvc.CompatibilitySvc
	geo        portssvc.GeolocationSvc
	recalc     portsrepo.CartRecalculator
	cfg        *config.Config
	logger     *slog.Logger
}

// NewSelectionService creates a new SelectionService.
func NewSelectionService(
	currencies portssvc.EnabledCurrencyLister,
	sessions portsrepo.SessionStore,
	userMeta portsrepo.UserMetaStore,
	settings portsrepo.SettingsRepositoryFacade,
	compat portssvc.CompatibilitySvc,
	geo portssvc.GeolocationSvc,
	recalc portsrepo.CartRecalculator,
	cfg *config.Config,
	logger *slog.Logger,
) *SelectionService {
	return &SelectionService{
		currencies: currencies,
		sessions:   sessions,
		userMeta:   userMeta,
		settings:   settings,
		compat:     compat,
		geo:        geo,
		recalc:     recalc,
		cfg:        cfg,
		logger:     logger,
	}
}

// Resolve determines the active currency for the request. Results are
// memoized on the request state; repeated calls within one request are cheap
// and stable.
func (s *SelectionService) Resolve(ctx context.Context, state *domain.RequestState) domain.Currency {
	if cur, ok := state.ResolvedCurrency(); ok {
		return cur
	}

	enabled, def := s.enabledSet(ctx)
	cur := s.resolve(ctx, state, enabled, def)
	state.MemoizeResolvedCurrency(cur)
	return cur
}

func (s *SelectionService) resolve(ctx context.Context, state *domain.RequestState, enabled map[string]domain.Currency, def domain.Currency) domain.Currency {
	// 1. Compatibility override: renewal/switch/resubscribe pins the
	// currency to the original order's, regardless of any other signal.
	if code := s.compat.OverrideSelectedCurrency(ctx, state.Signals.Cart); code != "" {
		if cur, ok := enabled[code]; ok {
			return cur
		}
		s.logger.Warn("Override currency is not enabled, using default",
			slog.String("currency_code", code))
		return def
	}

	stored := s.storedSelection(ctx, state)

	// 2. Explicit URL parameter, validated against the enabled set. Invalid
	// codes are silently ignored.
	if param := strings.ToUpper(strings.TrimSpace(state.Signals.CurrencyParam)); param != "" {
		if cur, ok := enabled[param]; ok {
			if param != stored {
				s.persistSelection(ctx, state, param)
				s.scheduleRecalc(ctx, state)
			}
			return cur
		}
	}

	// 3. Stored selection (session or user metadata).
	if stored != "" {
		if cur, ok := enabled[stored]; ok {
			return cur
		}
	}

	// 4. Geolocation, only when the merchant enabled automatic switching,
	// nothing is stored yet, and no renewal context vetoes it.
	if s.cfg.AutoCurrencySwitch && stored == "" && s.compat.AllowAutomaticSwitch(state.Signals.Cart) {
		if code := s.geo.ResolveCurrency(ctx, state.Signals); code != "" {
			if cur, ok := enabled[code]; ok {
				// Soft selection: persist only into an already existing
				// session so crawl traffic never creates sessions.
				s.persistSelection(ctx, state, code)
				if cur.Code != def.Code {
					state.MarkGeolocationApplied()
					s.scheduleRecalc(ctx, state)
				}
				return cur
			}
		}
	}

	// 5. Store default.
	return def
}

// UpdateSelected records an explicit currency choice. Codes outside the
// enabled set are ignored without error.
func (s *SelectionService) UpdateSelected(ctx context.Context, state *domain.RequestState, code string, persist bool) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	enabled, _ := s.enabledSet(ctx)
	cur, ok := enabled[code]
	if !ok {
		s.logger.Info("Ignoring selection of non-enabled currency", slog.String("currency_code", code))
		return nil
	}

	previous := s.storedSelection(ctx, state)
	if persist && previous != code {
		s.persistSelection(ctx, state, code)
		s.scheduleRecalc(ctx, state)
	}
	state.MemoizeResolvedCurrency(cur)
	return nil
}

// FlushDeferred runs a recalculation that was deferred because the request
// was not yet bootstrapped when the selection changed.
func (s *SelectionService) FlushDeferred(ctx context.Context, state *domain.RequestState) {
	if !state.RecalcPending() {
		return
	}
	s.runRecalc(ctx, state)
}

// VaryCookie returns the cache-vary cookie recording code and rate for the
// active currency.
func (s *SelectionService) VaryCookie(currency domain.Currency) (string, string) {
	return VaryCookieName, fmt.Sprintf("%s_%s", currency.Code, currency.Rate.String())
}

// storedSelection reads the persisted selection at most once per request.
func (s *SelectionService) storedSelection(ctx context.Context, state *domain.RequestState) string {
	if code, read := state.StoredSelection(); read {
		return code
	}

	var (
		code string
		err  error
	)
	switch {
	case state.Signals.UserID != "":
		code, err = s.userMeta.GetSelectedCurrency(ctx, state.Signals.UserID)
	case state.Signals.SessionID != "":
		code, err = s.sessions.GetSelectedCurrency(ctx, state.Signals.SessionID)
	}
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn("Failed to read stored currency selection", slog.String("error", err.Error()))
		}
		code = ""
	}

	state.MemoizeStoredSelection(code)
	return code
}

// persistSelection writes the selection to user metadata for authenticated
// users, or to the session store when a session already exists. Visitors
// without either keep an ephemeral, request-only selection.
func (s *SelectionService) persistSelection(ctx context.Context, state *domain.RequestState, code string) {
	var err error
	switch {
	case state.Signals.UserID != "":
		err = s.userMeta.SetSelectedCurrency(ctx, state.Signals.UserID, code)
	case state.Signals.SessionID != "":
		err = s.sessions.SetSelectedCurrency(ctx, state.Signals.SessionID, code)
	default:
		state.MemoizeStoredSelection(code)
		return
	}
	if err != nil {
		s.logger.Warn("Failed to persist currency selection",
			slog.String("currency_code", code), slog.String("error", err.Error()))
		return
	}

	state.MemoizeStoredSelection(code)
	s.appendUsageHistory(ctx, code)
}

// scheduleRecalc arranges cart total recalculation exactly once per change:
// immediately when the request pipeline is ready, deferred to end of request
// otherwise.
func (s *SelectionService) scheduleRecalc(ctx context.Context, state *domain.RequestState) {
	if !state.MarkRecalcNeeded() {
		return
	}
	if state.Signals.Bootstrapped {
		s.runRecalc(ctx, state)
	}
}

func (s *SelectionService) runRecalc(ctx context.Context, state *domain.RequestState) {
	err := s.recalc.Recalculate(ctx, state.Signals.SessionID, state.Signals.UserID)
	if err != nil {
		s.logger.Warn("Cart recalculation failed", slog.String("error", err.Error()))
	}
	state.MarkRecalcDone()
}

// appendUsageHistory records the code in the customer currency usage list.
func (s *SelectionService) appendUsageHistory(ctx context.Context, code string) {
	history, err := readStringListSetting(ctx, s.settings, settingCustomerCurrencyHistory)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		s.logger.Warn("Failed to read currency usage history", slog.String("error", err.Error()))
		return
	}
	for _, existing := range history {
		if existing == code {
			return
		}
	}
	history = append(history, code)
	if err := writeStringListSetting(ctx, s.settings, settingCustomerCurrencyHistory, history); err != nil {
		s.logger.Warn("Failed to persist currency usage history", slog.String("error", err.Error()))
	}
}

// enabledSet builds a lookup of enabled currencies plus the default. On any
// failure it degrades to a default-only set so resolution always succeeds.
func (s *SelectionService) enabledSet(ctx context.Context) (map[string]domain.Currency, domain.Currency) {
	def, err := s.currencies.GetDefaultCurrency(ctx)
	if err != nil {
		s.logger.Error("Failed to load default currency", slog.String("error", err.Error()))
		def = domain.Currency{
			Code:             s.cfg.StoreCurrency,
			Rate:             decimalOne,
			NumberOfDecimals: domain.DefaultDecimals,
			IsDefault:        true,
		}
	}

	enabled := map[string]domain.Currency{def.Code: def}
	list, err := s.currencies.GetEnabledCurrencies(ctx)
	if err != nil {
		s.logger.Error("Failed to load enabled currencies", slog.String("error", err.Error()))
		return enabled, def
	}
	for _, cur := range list {
		enabled[cur.Code] = cur
	}
	return enabled, def
}
