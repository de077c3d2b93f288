package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/thryvyng/club-api/internal/obs"
)

// ErrNotFound indicates the requested cart item could not be located.
var ErrNotFound = errors.New("cart item not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

type session struct {
	cart     Cart
	referral string
	loaded   bool
}

// Service keeps per-owner carts in memory and writes every mutation through
// to the store once the initial load has completed. Persistence failures are
// logged and swallowed: the store is a convenience, not a correctness
// requirement, so a failed write never surfaces to the caller.
type Service struct {
	Store Store
	Log   zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

func (s *Service) ensureLoaded(ctx context.Context, owner string) (*session, error) {
	if s.Store == nil {
		return nil, errors.New("cart service not configured")
	}
	if owner == "" {
		return nil, ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions == nil {
		s.sessions = make(map[string]*session)
	}
	if st, ok := s.sessions[owner]; ok && st.loaded {
		return st, nil
	}
	c, _, err := s.Store.LoadCart(ctx, owner)
	if err != nil {
		// Degrade to an empty cart; the load error is logged, not surfaced.
		s.Log.Error().Err(err).Str("owner", owner).Msg("load cart")
		c = Cart{}
	}
	referral, err := s.Store.LoadReferral(ctx, owner)
	if err != nil {
		s.Log.Error().Err(err).Str("owner", owner).Msg("load referral code")
		referral = ""
	}
	st := &session{cart: c, referral: referral, loaded: true}
	s.sessions[owner] = st
	return st, nil
}

func (s *Service) persist(ctx context.Context, owner string, st *session) {
	if err := s.Store.SaveCart(ctx, owner, st.cart); err != nil {
		s.Log.Error().Err(err).Str("owner", owner).Msg("persist cart")
		if obs.CartPersistFailures != nil {
			obs.CartPersistFailures.Inc()
		}
	}
}

// Get returns the owner's cart, loading it from the store on first access.
func (s *Service) Get(ctx context.Context, owner string) (Cart, error) {
	st, err := s.ensureLoaded(ctx, owner)
	if err != nil {
		return Cart{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return st.cart, nil
}

// AddItem adds the item to the owner's cart per the (id, type) uniqueness
// rules and persists the result.
func (s *Service) AddItem(ctx context.Context, owner string, item Item) (Cart, error) {
	if item.ID == "" || !item.Type.Valid() {
		return Cart{}, ErrInvalidInput
	}
	st, err := s.ensureLoaded(ctx, owner)
	if err != nil {
		return Cart{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.cart.Add(item) {
		s.persist(ctx, owner, st)
	}
	return st.cart, nil
}

// UpdateQuantity sets an item's quantity; quantities below 1 remove the item.
func (s *Service) UpdateQuantity(ctx context.Context, owner, id string, t ItemType, quantity int) (Cart, error) {
	st, err := s.ensureLoaded(ctx, owner)
	if err != nil {
		return Cart{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !st.cart.UpdateQuantity(id, t, quantity) {
		return st.cart, ErrNotFound
	}
	s.persist(ctx, owner, st)
	return st.cart, nil
}

// RemoveItem deletes the (id, type) entry from the owner's cart.
func (s *Service) RemoveItem(ctx context.Context, owner, id string, t ItemType) (Cart, error) {
	st, err := s.ensureLoaded(ctx, owner)
	if err != nil {
		return Cart{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !st.cart.Remove(id, t) {
		return st.cart, ErrNotFound
	}
	s.persist(ctx, owner, st)
	return st.cart, nil
}

// Clear empties the owner's cart.
func (s *Service) Clear(ctx context.Context, owner string) error {
	st, err := s.ensureLoaded(ctx, owner)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st.cart.Clear()
	s.persist(ctx, owner, st)
	return nil
}

// Referral returns the stored referral code for the owner.
func (s *Service) Referral(ctx context.Context, owner string) (string, error) {
	st, err := s.ensureLoaded(ctx, owner)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return st.referral, nil
}

// SetReferral stores a referral code for the owner under the second fixed
// key, with the same fire-and-forget persistence policy as the cart.
func (s *Service) SetReferral(ctx context.Context, owner, code string) error {
	st, err := s.ensureLoaded(ctx, owner)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st.referral = code
	if err := s.Store.SaveReferral(ctx, owner, code); err != nil {
		s.Log.Error().Err(err).Str("owner", owner).Msg("persist referral code")
	}
	return nil
}
