package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/windly-shop/windly/internal/catalog"
	"github.com/windly-shop/windly/internal/db"
	"github.com/windly-shop/windly/internal/user"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrCartNotActive     = errors.New("cart is not active")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNotCancellable    = errors.New("order can no longer be cancelled")
	ErrInvalidStatus     = errors.New("invalid cart status")
	ErrNotOwner          = errors.New("cart belongs to another user")
)

// Notifier delivers the post-checkout confirmation. Implementations must be
// best-effort: a failure never fails the order.
type Notifier interface {
	OrderPlaced(ctx context.Context, email string, orderID uuid.UUID, total float64) error
}

type Service interface {
	GetCart(ctx context.Context, cartID uuid.UUID) (*Cart, []DetailedItem, error)
	// AddToCart puts qty units of the product into the target cart.
	// cartID may be uuid.Nil, in which case the user's default cart is
	// used, created first if the user has none. Returns the cart used.
	AddToCart(ctx context.Context, userID string, cartID, productID uuid.UUID, qty int) (uuid.UUID, error)
	UpdateItemQuantity(ctx context.Context, cartID, productID uuid.UUID, qty int) error
	RemoveFromCart(ctx context.Context, cartID, productID uuid.UUID) error
	ClearCart(ctx context.Context, cartID uuid.UUID) error
	// ItemCount returns the sum of line-item quantities; any failure is
	// logged and reported as zero.
	ItemCount(ctx context.Context, cartID uuid.UUID) int

	OrderCart(ctx context.Context, cartID uuid.UUID) error
	CancelOrder(ctx context.Context, cartID uuid.UUID) error
	SetStatus(ctx context.Context, cartID uuid.UUID, status Status) error
	SyncStatus(ctx context.Context, cartID uuid.UUID) (bool, error)
	SyncAll(ctx context.Context) (int, error)
	ListOrders(ctx context.Context, userID string) ([]Cart, error)
}

type service struct {
	pool     db.Querier
	tx       db.TxRunner
	carts    Repository
	products catalog.Repository
	users    user.Repository
	notifier Notifier
}

func NewService(pool db.Querier, tx db.TxRunner, carts Repository, products catalog.Repository, users user.Repository, notifier Notifier) Service {
	return &service{
		pool:     pool,
		tx:       tx,
		carts:    carts,
		products: products,
		users:    users,
		notifier: notifier,
	}
}

func (s *service) GetCart(ctx context.Context, cartID uuid.UUID) (*Cart, []DetailedItem, error) {
	c, err := s.carts.GetByID(ctx, s.pool, cartID)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.carts.ListDetailedItems(ctx, s.pool, cartID)
	if err != nil {
		log.Error().Err(err).Stringer("cart_id", cartID).Msg("service: failed to load cart items")
		return nil, nil, fmt.Errorf("service: failed to load cart items: %w", err)
	}
	return c, items, nil
}

// resolveCart finds the cart to mutate: the explicit id if given (owner
// only), else the user's default cart, else a freshly created one that
// becomes the default. A default that is no longer active (an admin cancel
// can leave one behind) is replaced the same way a missing one is.
func (s *service) resolveCart(ctx context.Context, q db.Querier, userID string, cartID uuid.UUID) (*Cart, error) {
	if cartID != uuid.Nil {
		c, err := s.carts.GetByID(ctx, q, cartID)
		if err != nil {
			return nil, err
		}
		if c.UserID != userID {
			return nil, ErrNotOwner
		}
		return c, nil
	}

	u, err := s.users.GetByID(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	if u.DefaultCartID != nil {
		c, err := s.carts.GetByID(ctx, q, *u.DefaultCartID)
		if err != nil && !errors.Is(err, ErrCartNotFound) {
			return nil, err
		}
		if err == nil && c.Status == StatusActive {
			return c, nil
		}
	}

	c := &Cart{UserID: userID, Status: StatusActive}
	if err := s.carts.Create(ctx, q, c); err != nil {
		return nil, err
	}
	if err := s.users.SetDefaultCart(ctx, q, userID, c.ID); err != nil {
		return nil, err
	}
	log.Info().Stringer("cart_id", c.ID).Str("user_id", userID).Msg("service: created default cart")
	return c, nil
}

func (s *service) AddToCart(ctx context.Context, userID string, cartID, productID uuid.UUID, qty int) (uuid.UUID, error) {
	if qty < MinItemQuantity {
		qty = MinItemQuantity
	}

	var resolved uuid.UUID
	err := s.tx.WithinTx(ctx, func(q db.Querier) error {
		c, err := s.resolveCart(ctx, q, userID, cartID)
		if err != nil {
			return err
		}
		resolved = c.ID
		if c.Status != StatusActive {
			return ErrCartNotActive
		}

		p, err := s.products.GetByID(ctx, q, productID)
		if err != nil {
			return err
		}

		existing, err := s.carts.GetItem(ctx, q, c.ID, productID)
		if err != nil && !errors.Is(err, ErrItemNotFound) {
			return err
		}

		// The stock check here is advisory only: the authoritative
		// check-and-decrement happens at order time. Worst case an
		// over-committed cart is rejected at checkout.
		desired := qty
		if existing != nil {
			desired += existing.Quantity
		}
		clamped := desired
		if clamped > MaxItemQuantity {
			clamped = MaxItemQuantity
		}
		if clamped > p.Stock {
			return fmt.Errorf("%w: only %d left for %s", ErrInsufficientStock, p.Stock, p.Name)
		}

		if existing != nil {
			return s.carts.UpdateItemQuantity(ctx, q, c.ID, productID, clamped)
		}
		return s.carts.InsertItem(ctx, q, &Item{CartID: c.ID, ProductID: productID, Quantity: clamped})
	})
	if err != nil {
		return resolved, err
	}

	log.Info().Stringer("cart_id", resolved).Stringer("product_id", productID).Int("quantity", qty).Msg("service: added to cart")
	return resolved, nil
}

func (s *service) UpdateItemQuantity(ctx context.Context, cartID, productID uuid.UUID, qty int) error {
	if qty < MinItemQuantity {
		return s.RemoveFromCart(ctx, cartID, productID)
	}
	if qty > MaxItemQuantity {
		qty = MaxItemQuantity
	}

	return s.tx.WithinTx(ctx, func(q db.Querier) error {
		c, err := s.carts.GetByID(ctx, q, cartID)
		if err != nil {
			return err
		}
		if c.Status != StatusActive {
			return ErrCartNotActive
		}

		p, err := s.products.GetByID(ctx, q, productID)
		if err != nil {
			return err
		}
		if qty > p.Stock {
			return fmt.Errorf("%w: only %d left for %s", ErrInsufficientStock, p.Stock, p.Name)
		}

		return s.carts.UpdateItemQuantity(ctx, q, cartID, productID, qty)
	})
}

func (s *service) RemoveFromCart(ctx context.Context, cartID, productID uuid.UUID) error {
	c, err := s.carts.GetByID(ctx, s.pool, cartID)
	if err != nil {
		return err
	}
	if c.Status != StatusActive {
		return ErrCartNotActive
	}
	return s.carts.DeleteItem(ctx, s.pool, cartID, productID)
}

func (s *service) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	c, err := s.carts.GetByID(ctx, s.pool, cartID)
	if err != nil {
		return err
	}
	if c.Status != StatusActive {
		return ErrCartNotActive
	}
	return s.carts.DeleteItems(ctx, s.pool, cartID)
}

func (s *service) ItemCount(ctx context.Context, cartID uuid.UUID) int {
	sum, err := s.carts.ItemQuantitySum(ctx, s.pool, cartID)
	if err != nil {
		log.Warn().Err(err).Stringer("cart_id", cartID).Msg("service: failed to count cart items, reporting zero")
		return 0
	}
	return sum
}

// OrderCart places the order in one all-or-nothing transaction: every line
// item's stock is checked and decremented, the cart is marked ordered, and a
// fresh active cart replaces it as the user's default. Any failure rolls the
// whole thing back.
func (s *service) OrderCart(ctx context.Context, cartID uuid.UUID) error {
	var (
		owner string
		total float64
	)

	err := s.tx.WithinTx(ctx, func(q db.Querier) error {
		c, err := s.carts.GetByID(ctx, q, cartID)
		if err != nil {
			return err
		}
		if c.Status != StatusActive {
			return ErrCartNotActive
		}
		owner = c.UserID

		items, err := s.carts.ListDetailedItems(ctx, q, cartID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		for i := range items {
			it := &items[i]
			if err := s.products.DecrementStock(ctx, q, it.ProductID, it.Quantity); err != nil {
				if errors.Is(err, catalog.ErrOutOfStock) {
					return fmt.Errorf("%w: only %d left for %s", ErrInsufficientStock, it.Stock, it.Name)
				}
				return err
			}
			total += it.UnitPrice() * float64(it.Quantity)
		}

		if err := s.carts.UpdateStatus(ctx, q, cartID, StatusOrdered); err != nil {
			return err
		}

		fresh := &Cart{UserID: c.UserID, Status: StatusActive}
		if err := s.carts.Create(ctx, q, fresh); err != nil {
			return err
		}
		return s.users.SetDefaultCart(ctx, q, c.UserID, fresh.ID)
	})
	if err != nil {
		log.Warn().Err(err).Stringer("cart_id", cartID).Msg("service: order placement failed")
		return err
	}

	log.Info().Stringer("cart_id", cartID).Str("user_id", owner).Float64("total", total).Msg("service: order placed")
	s.sendConfirmation(ctx, owner, cartID, total)
	return nil
}

func (s *service) sendConfirmation(ctx context.Context, userID string, orderID uuid.UUID, total float64) {
	if s.notifier == nil {
		return
	}
	u, err := s.users.GetByID(ctx, s.pool, userID)
	if err != nil || u.Email == "" {
		log.Warn().Err(err).Str("user_id", userID).Msg("service: skipping order confirmation email")
		return
	}
	if err := s.notifier.OrderPlaced(ctx, u.Email, orderID, total); err != nil {
		log.Warn().Err(err).Stringer("order_id", orderID).Msg("service: failed to send order confirmation")
	}
}

// CancelOrder restores stock only when the order actually holds it (ordered
// or shipped); a delivered or already cancelled cart must not double-restore.
// The status is set to cancelled regardless.
func (s *service) CancelOrder(ctx context.Context, cartID uuid.UUID) error {
	return s.tx.WithinTx(ctx, func(q db.Querier) error {
		c, err := s.carts.GetByID(ctx, q, cartID)
		if err != nil {
			return err
		}

		if c.Status == StatusOrdered || c.Status == StatusShipped {
			items, err := s.carts.ListDetailedItems(ctx, q, cartID)
			if err != nil {
				return err
			}
			for i := range items {
				if err := s.products.IncrementStock(ctx, q, items[i].ProductID, items[i].Quantity); err != nil {
					return err
				}
			}
		}

		if err := s.carts.UpdateStatus(ctx, q, cartID, StatusCancelled); err != nil {
			return err
		}
		log.Info().Stringer("cart_id", cartID).Stringer("previous_status", c.Status).Msg("service: order cancelled")
		return nil
	})
}

// SetStatus overwrites the status with no transition validation. Reserved
// for administrative flows; the validated paths are OrderCart, CancelOrder
// and the sync.
func (s *service) SetStatus(ctx context.Context, cartID uuid.UUID, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return s.carts.UpdateStatus(ctx, s.pool, cartID, status)
}

// SyncStatus advances a single ordered cart to shipped once it has sat for
// the ship window. Carts in any other status are left alone.
func (s *service) SyncStatus(ctx context.Context, cartID uuid.UUID) (bool, error) {
	c, err := s.carts.GetByID(ctx, s.pool, cartID)
	if err != nil {
		return false, err
	}
	if !ShouldShip(c, time.Now()) {
		return false, nil
	}
	if err := s.carts.UpdateStatus(ctx, s.pool, cartID, StatusShipped); err != nil {
		return false, err
	}
	log.Info().Stringer("cart_id", cartID).Msg("service: order advanced to shipped")
	return true, nil
}

// SyncAll applies SyncStatus to every ordered cart. It is triggered by an
// external scheduler, not a background worker.
func (s *service) SyncAll(ctx context.Context) (int, error) {
	carts, err := s.carts.ListByStatus(ctx, s.pool, StatusOrdered)
	if err != nil {
		return 0, err
	}

	advanced := 0
	now := time.Now()
	for i := range carts {
		c := &carts[i]
		if !ShouldShip(c, now) {
			continue
		}
		if err := s.carts.UpdateStatus(ctx, s.pool, c.ID, StatusShipped); err != nil {
			return advanced, fmt.Errorf("service: failed to advance cart %s: %w", c.ID, err)
		}
		advanced++
	}

	if advanced > 0 {
		log.Info().Int("advanced", advanced).Msg("service: order status sync complete")
	}
	return advanced, nil
}

func (s *service) ListOrders(ctx context.Context, userID string) ([]Cart, error) {
	carts, err := s.carts.ListByUser(ctx, s.pool, userID)
	if err != nil {
		return nil, err
	}

	orders := carts[:0]
	for _, c := range carts {
		if c.Status != StatusActive {
			orders = append(orders, c)
		}
	}
	return orders, nil
}
