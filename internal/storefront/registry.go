// Package storefront is the session-facing edge: it binds a visitor token to
// an identity, a cart store over the right backend, and a checkout adapter,
// and upgrades the whole bundle in place on login.
package storefront

import (
	"context"
	"io"
	"log"
	"sync"

	"github.com/bwmarrin/snowflake"

	"watchstore/internal/cart"
	"watchstore/internal/checkout"
	"watchstore/internal/domain"
	"watchstore/internal/identity"
	"watchstore/internal/notify"
	"watchstore/internal/promotion"
)

// API is everything the storefront needs from the commerce API: the cart
// endpoints, both promotion feeds, and catalog lookups.
type API interface {
	cart.CartAPI
	promotion.FeedSource
	Product(ctx context.Context, id string) (*domain.Product, error)
}

// GuestStore is the local guest cart persistence.
type GuestStore interface {
	Load(guestID string) []domain.CartItem
	Save(guestID string, items []domain.CartItem) error
	Delete(guestID string) error
}

// Session bundles everything one visitor token resolves to.
type Session struct {
	id       identity.Session
	Store    *cart.Store
	Checkout *checkout.Adapter
	Sink     *notify.Sink

	mu      sync.Mutex
	pending []notify.Notification
}

func (s *Session) Authenticated() bool { return s.id.Authenticated() }
func (s *Session) UserID() string      { return s.id.UserID() }
func (s *Session) GuestID() string     { return s.id.GuestID() }

// DrainNotifications returns buffered notifications and clears the buffer.
func (s *Session) DrainNotifications() []notify.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}

func (s *Session) buffer(n notify.Notification) {
	s.mu.Lock()
	s.pending = append(s.pending, n)
	s.mu.Unlock()
}

// Registry maps session tokens to live sessions.
type Registry struct {
	ids    *identity.Service
	api    API
	guests GuestStore
	node   *snowflake.Node
	logger *log.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(ids *identity.Service, api API, guests GuestStore, node *snowflake.Node, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Registry{
		ids:      ids,
		api:      api,
		guests:   guests,
		node:     node,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Begin issues a guest session backed by the local cart record.
func (r *Registry) Begin(ctx context.Context) (string, *Session, error) {
	token, id, err := r.ids.IssueGuest()
	if err != nil {
		return "", nil, err
	}

	backend := cart.NewGuestBackend(r.guests, id.GuestID(), r.node)
	sess := r.build(id, backend)
	sess.Store.Load(ctx)

	r.mu.Lock()
	r.sessions[token] = sess
	r.mu.Unlock()
	return token, sess, nil
}

// Login upgrades the token's session: the guest cart is merged into the
// user's server cart, then the session is rebound to the server backend.
func (r *Registry) Login(ctx context.Context, token, userID string) (*Session, error) {
	id, err := r.ids.Login(token, userID)
	if err != nil {
		return nil, err
	}

	backend := cart.NewServerBackend(r.api, userID)
	sess := r.build(id, backend)
	if err := cart.Merge(ctx, r.guests, id.GuestID(), r.api, userID, sess.Sink); err != nil {
		r.logger.Printf("storefront: guest cart merge failed for user %s: %v", userID, err)
	}
	sess.Store.Load(ctx)

	r.mu.Lock()
	r.sessions[token] = sess
	r.mu.Unlock()
	return sess, nil
}

// Resolve returns the live session for a token, if any.
func (r *Registry) Resolve(token string) (*Session, bool) {
	if _, ok := r.ids.Lookup(token); !ok {
		r.mu.Lock()
		delete(r.sessions, token)
		r.mu.Unlock()
		return nil, false
	}
	r.mu.Lock()
	sess, ok := r.sessions[token]
	r.mu.Unlock()
	return sess, ok
}

// Logout drops the session. The guest cart record survives for the next
// visit under the same guest ID.
func (r *Registry) Logout(token string) {
	r.ids.Logout(token)
	r.mu.Lock()
	delete(r.sessions, token)
	r.mu.Unlock()
}

func (r *Registry) build(id identity.Session, backend cart.Backend) *Session {
	sink := notify.NewSink(r.logger)
	store := cart.NewStore(backend, sink, r.logger)
	feeds := promotion.NewFeeds(r.api, r.logger)
	adapter := checkout.NewAdapter(store, promotion.NewResolver(), feeds, id, r.api, sink, r.logger)

	sess := &Session{id: id, Store: store, Checkout: adapter, Sink: sink}
	if err := sink.Subscribe(sess.buffer); err != nil {
		r.logger.Printf("storefront: notification subscribe failed: %v", err)
	}
	return sess
}
