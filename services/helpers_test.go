package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/restaurant-ordering/database"
	"github.com/yeremiapane/restaurant-ordering/models"
)

func newTestStore(t *testing.T) *database.GormStore {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.OpenGorm("sqlite", "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)

	store := database.NewGormStore(db)
	require.NoError(t, store.AutoMigrate())
	t.Cleanup(func() { store.Close(context.Background()) })
	return store
}

type fakeNotifier struct {
	mu     sync.Mutex
	phones []string
	orders []models.Order
	err    error
	panic  bool
}

func (n *fakeNotifier) SendConfirmation(_ context.Context, phone string, order models.Order) error {
	if n.panic {
		panic("gateway exploded")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.phones = append(n.phones, phone)
	n.orders = append(n.orders, order)
	return n.err
}

func (n *fakeNotifier) calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.phones...)
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (b *fakeBroadcaster) Broadcast(event string, _ interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

type fixture struct {
	store      *database.GormStore
	carts      *CartService
	orders     *OrderService
	catalog    *CatalogService
	notifier   *fakeNotifier
	dispatcher *Dispatcher
	hub        *fakeBroadcaster
}

func newFixture(t *testing.T, strict bool) *fixture {
	t.Helper()
	store := newTestStore(t)
	notifier := &fakeNotifier{}
	dispatcher := NewDispatcher(notifier)
	hub := &fakeBroadcaster{}
	carts := NewCartService(store)
	return &fixture{
		store:      store,
		carts:      carts,
		notifier:   notifier,
		dispatcher: dispatcher,
		hub:        hub,
		catalog:    NewCatalogService(store),
		orders: NewOrderService(store, carts, OrderServiceOptions{
			Dispatcher:        dispatcher,
			Broadcaster:       hub,
			StrictTransitions: strict,
			PublicBaseURL:     "https://shop.example/",
		}),
	}
}

func price(v float64) *float64 { return &v }

func quantity(n int) *int { return &n }

func riceItem(qty int) AddItemInput {
	return AddItemInput{
		FoodID:          "F1",
		Name:            "Rice",
		Price:           price(500),
		Quantity:        quantity(qty),
		SelectedPortion: &models.SelectedPortion{Index: 0, Label: "Large", Price: 500},
	}
}

var checkout = CheckoutInput{
	CustomerName:  "Asha",
	CustomerPhone: "+911234567890",
	Address:       "12 Lake Road",
}

// placeOrder fills the user's cart and checks out.
func (f *fixture) placeOrder(t *testing.T, userID string) *models.Order {
	t.Helper()
	ctx := context.Background()
	_, err := f.carts.AddItem(ctx, userID, riceItem(2))
	require.NoError(t, err)
	order, err := f.orders.CreateOrder(ctx, userID, checkout)
	require.NoError(t, err)
	return order
}

// conflictingCartStore fails the first n saves with a version conflict.
type conflictingCartStore struct {
	database.CartStore
	mu        sync.Mutex
	conflicts int
	saves     int
}

func (s *conflictingCartStore) SaveCart(ctx context.Context, cart *models.Cart) error {
	s.mu.Lock()
	s.saves++
	if s.conflicts > 0 {
		s.conflicts--
		s.mu.Unlock()
		return database.ErrVersionConflict
	}
	s.mu.Unlock()
	return s.CartStore.SaveCart(ctx, cart)
}

// failingClearStore lets the first save through and fails all later ones.
type failingClearStore struct {
	database.CartStore
	saved bool
}

func (s *failingClearStore) SaveCart(ctx context.Context, cart *models.Cart) error {
	if s.saved {
		return errors.New("disk full")
	}
	s.saved = true
	return s.CartStore.SaveCart(ctx, cart)
}

// interleavingCartStore runs hook once, right after the first FindCart
// that happens while it is armed.
type interleavingCartStore struct {
	database.CartStore
	mu   sync.Mutex
	hook func()
}

func (s *interleavingCartStore) FindCart(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.CartStore.FindCart(ctx, userID)
	s.mu.Lock()
	hook := s.hook
	s.hook = nil
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	return cart, err
}
