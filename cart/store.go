// Package cart keeps a shopper's productID -> quantity mapping and persists it
// to the cart-items cookie after every mutation.
package cart

import (
	"farm-store/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Item is one entry of the cart mapping. Quantity is always >= 1.
type Item struct {
	ProductID string
	Quantity  int
}

// Line is a cart entry joined with the catalog product at read time
type Line struct {
	Product  models.Product `json:"product"`
	Quantity int            `json:"quantity"`
}

// Subtotal is price x quantity for the line
func (l Line) Subtotal() decimal.Decimal {
	return decimal.NewFromFloat(l.Product.Price).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Persister stores the serialized mapping somewhere outside the process
type Persister interface {
	Save(items []Item) error
	Remove() error
}

// Store is the in-memory cart mapping. It is not safe for concurrent use; one
// request owns one Store.
type Store struct {
	order     []string
	qty       map[string]int
	persister Persister
	logger    *zap.Logger
}

// NewStore creates a Store seeded with items. Entries with a non-positive
// quantity are skipped. persister may be nil for carts that live only in memory.
func NewStore(persister Persister, logger *zap.Logger, items ...Item) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		qty:       make(map[string]int, len(items)),
		persister: persister,
		logger:    logger,
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		s.put(item.ProductID, item.Quantity)
	}
	return s
}

// Add increments the quantity of productID by one
func (s *Store) Add(productID string) {
	s.put(productID, s.qty[productID]+1)
	s.persist()
}

// SetQuantity sets the quantity exactly; quantity <= 0 removes the entry
func (s *Store) SetQuantity(productID string, quantity int) {
	if quantity <= 0 {
		s.delete(productID)
	} else {
		s.put(productID, quantity)
	}
	s.persist()
}

// Remove deletes productID from the cart
func (s *Store) Remove(productID string) {
	s.delete(productID)
	s.persist()
}

// Clear empties the cart
func (s *Store) Clear() {
	s.order = nil
	s.qty = make(map[string]int)
	s.persist()
}

// Discard removes the persisted cart state
func (s *Store) Discard() {
	if s.persister == nil {
		return
	}
	if err := s.persister.Remove(); err != nil {
		s.logger.Warn("failed to remove persisted cart", zap.Error(err))
	}
}

// Quantity returns the quantity held for productID, 0 when absent
func (s *Store) Quantity(productID string) int {
	return s.qty[productID]
}

// Len is the number of distinct products in the cart
func (s *Store) Len() int {
	return len(s.order)
}

// Items returns a copy of the mapping in insertion order
func (s *Store) Items() []Item {
	items := make([]Item, 0, len(s.order))
	for _, id := range s.order {
		items = append(items, Item{ProductID: id, Quantity: s.qty[id]})
	}
	return items
}

// TotalItems is the sum of all quantities
func (s *Store) TotalItems() int {
	total := 0
	for _, q := range s.qty {
		total += q
	}
	return total
}

// Snapshot joins the mapping against products. Entries whose product is not
// in the list are dropped, which covers cookies that reference deleted products.
func (s *Store) Snapshot(products []models.Product) []Line {
	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]Line, 0, len(s.order))
	for _, id := range s.order {
		product, ok := byID[id]
		if !ok {
			continue
		}
		lines = append(lines, Line{Product: product, Quantity: s.qty[id]})
	}
	return lines
}

// TotalPrice is the exact sum of price x quantity over the snapshot
func (s *Store) TotalPrice(products []models.Product) decimal.Decimal {
	return Total(s.Snapshot(products))
}

// Total sums the subtotals of lines
func Total(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// FormatPrice renders an amount with two decimal places
func FormatPrice(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

func (s *Store) put(productID string, quantity int) {
	if _, ok := s.qty[productID]; !ok {
		s.order = append(s.order, productID)
	}
	s.qty[productID] = quantity
}

func (s *Store) delete(productID string) {
	if _, ok := s.qty[productID]; !ok {
		return
	}
	delete(s.qty, productID)
	for i, id := range s.order {
		if id == productID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Store) persist() {
	if s.persister == nil {
		return
	}
	if err := s.persister.Save(s.Items()); err != nil {
		s.logger.Warn("failed to persist cart", zap.Error(err))
	}
}
