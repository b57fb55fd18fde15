// Package checkout turns a cart into a stored order.
package checkout

import (
	"context"
	"time"

	"farm-store/cart"
	"farm-store/models"
	"farm-store/repository"
	"farm-store/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// State is the position of a Flow in its lifecycle
type State int

const (
	Idle State = iota
	Validating
	Submitting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Cart is what the flow needs from the shopper's cart
type Cart interface {
	Snapshot(products []models.Product) []cart.Line
	Clear()
	Discard()
}

var customerMessages = map[string]string{
	"first_name": "Required",
	"last_name":  "Required",
	"phone":      "Phone must be at least 10 digits",
}

// Validate checks the customer fields and that there is something to order
func Validate(details models.CustomerDetails, lines []cart.Line) error {
	fields := utils.ValidateStruct(details, customerMessages)
	if len(lines) == 0 {
		if fields == nil {
			fields = make(map[string]string)
		}
		fields["cart"] = "No items in order"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Flow submits one order built from a cart. A Flow is used by one caller at a
// time.
type Flow struct {
	orders repository.OrderWriter
	cart   Cart
	logger *zap.Logger

	state     State
	err       error
	pendingID string

	// OnTransition, when set, observes every state change
	OnTransition func(from, to State)
	// OnSuccess, when set, receives the stored submission
	OnSuccess func(sub *models.OrderSubmission)

	newID func() string
	now   func() time.Time
}

// NewFlow creates an idle Flow writing to orders
func NewFlow(orders repository.OrderWriter, c Cart, logger *zap.Logger) *Flow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Flow{
		orders: orders,
		cart:   c,
		logger: logger,
		newID:  uuid.NewString,
		now:    time.Now,
	}
}

// State returns the current state
func (f *Flow) State() State { return f.state }

// Err returns the error of the last failed submission
func (f *Flow) Err() error { return f.err }

// PendingOrderID is the id the next Submit writes under. It is kept after a
// failed storage write so a retry lands on the same header, and is empty once
// an order succeeds.
func (f *Flow) PendingOrderID() string { return f.pendingID }

// UseOrderID makes the next Submit write under id, resuming a submission that
// failed in an earlier Flow.
func (f *Flow) UseOrderID(id string) { f.pendingID = id }

// Submit validates details, snapshots the cart against products and writes the
// order header followed by its lines. Prices are copied from products. On
// success the cart is cleared and its persisted state discarded; on any
// failure the cart is left as it was.
func (f *Flow) Submit(ctx context.Context, details models.CustomerDetails, products []models.Product) (*models.OrderSubmission, error) {
	if f.state == Validating || f.state == Submitting {
		return nil, ErrInProgress
	}
	f.err = nil
	f.transition(Validating)

	lines := f.cart.Snapshot(products)
	if err := Validate(details, lines); err != nil {
		return nil, f.fail(err)
	}

	sub := f.build(details, lines)
	f.transition(Submitting)

	id, err := f.orders.InsertOrder(ctx, sub.Header())
	if err != nil {
		return nil, f.fail(&HeaderInsertError{Err: err})
	}
	sub.OrderID = id

	if err := f.orders.InsertOrderItems(ctx, id, sub.OrderItems()); err != nil {
		f.logger.Error("order header stored without items", zap.String("order_id", id), zap.Error(err))
		return nil, f.fail(&LineInsertError{OrderID: id, Err: err})
	}

	f.pendingID = ""
	f.cart.Clear()
	f.cart.Discard()
	f.transition(Succeeded)
	f.logger.Info("order placed",
		zap.String("order_id", id),
		zap.Int("lines", len(sub.Lines)),
		zap.String("total", sub.Total.StringFixed(2)))

	if f.OnSuccess != nil {
		f.OnSuccess(sub)
	}
	return sub, nil
}

func (f *Flow) build(details models.CustomerDetails, lines []cart.Line) *models.OrderSubmission {
	if f.pendingID == "" {
		f.pendingID = f.newID()
	}
	sub := &models.OrderSubmission{
		OrderID:   f.pendingID,
		Customer:  details,
		Total:     cart.Total(lines),
		Lines:     make([]models.SubmissionLine, 0, len(lines)),
		CreatedAt: f.now(),
	}
	for _, line := range lines {
		sub.Lines = append(sub.Lines, models.SubmissionLine{
			ProductID:   line.Product.ID,
			ProductName: line.Product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   decimal.NewFromFloat(line.Product.Price),
		})
	}
	return sub
}

func (f *Flow) fail(err error) error {
	f.err = err
	f.transition(Failed)
	f.transition(Idle)
	return err
}

func (f *Flow) transition(to State) {
	from := f.state
	f.state = to
	f.logger.Debug("checkout state", zap.Stringer("from", from), zap.Stringer("to", to))
	if f.OnTransition != nil {
		f.OnTransition(from, to)
	}
}
