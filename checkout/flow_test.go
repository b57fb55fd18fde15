package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"farm-store/cart"
	"farm-store/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrders struct {
	headers   []*models.Order
	items     map[string][]models.OrderItem
	headerErr error
	itemsErr  error
	onInsert  func()
}

func (f *fakeOrders) InsertOrder(_ context.Context, order *models.Order) (string, error) {
	if f.onInsert != nil {
		f.onInsert()
	}
	if f.headerErr != nil {
		return "", f.headerErr
	}
	f.headers = append(f.headers, order)
	return order.ID, nil
}

func (f *fakeOrders) InsertOrderItems(_ context.Context, orderID string, items []models.OrderItem) error {
	if f.itemsErr != nil {
		return f.itemsErr
	}
	if f.items == nil {
		f.items = make(map[string][]models.OrderItem)
	}
	f.items[orderID] = items
	return nil
}

type countingCart struct {
	*cart.Store
	clears   int
	discards int
}

func (c *countingCart) Clear() {
	c.clears++
	c.Store.Clear()
}

func (c *countingCart) Discard() {
	c.discards++
	c.Store.Discard()
}

func newCart(items ...cart.Item) *countingCart {
	return &countingCart{Store: cart.NewStore(nil, nil, items...)}
}

var catalog = []models.Product{
	{ID: "p1", Name: "Kienyeji chicken", Price: 1200, Category: models.CategoryChicken},
	{ID: "p2", Name: "Tray of eggs", Price: 450.5, Category: models.CategoryEggs},
}

var customer = models.CustomerDetails{
	FirstName: "Wanjiru",
	LastName:  "Kamau",
	Phone:     "0712345678",
	Location:  "Maua town",
}

func newFlow(orders *fakeOrders, c Cart) (*Flow, *[]State) {
	flow := NewFlow(orders, c, nil)
	flow.newID = func() string { return "order-1" }
	flow.now = func() time.Time { return time.Date(2026, 6, 1, 8, 30, 0, 0, time.UTC) }
	var seen []State
	flow.OnTransition = func(_, to State) { seen = append(seen, to) }
	return flow, &seen
}

func TestSubmit_Success(t *testing.T) {
	orders := &fakeOrders{}
	c := newCart(cart.Item{ProductID: "p1", Quantity: 1}, cart.Item{ProductID: "p2", Quantity: 2})
	flow, seen := newFlow(orders, c)
	var notified *models.OrderSubmission
	flow.OnSuccess = func(sub *models.OrderSubmission) { notified = sub }

	sub, err := flow.Submit(context.Background(), customer, catalog)

	require.NoError(t, err)
	assert.Equal(t, "order-1", sub.OrderID)
	assert.Equal(t, "2101.00", sub.Total.StringFixed(2))
	require.Len(t, sub.Lines, 2)
	assert.Equal(t, "Tray of eggs", sub.Lines[1].ProductName)
	assert.Equal(t, 2, sub.Lines[1].Quantity)

	require.Len(t, orders.headers, 1)
	header := orders.headers[0]
	assert.Equal(t, "Wanjiru", header.FirstName)
	assert.Equal(t, "Maua town", header.Location)
	assert.Equal(t, 2101.0, header.TotalPrice)
	assert.Equal(t, models.StatusPending, header.Status)

	items := orders.items["order-1"]
	require.Len(t, items, 2)
	assert.Equal(t, "p2", items[1].ProductID)
	assert.Equal(t, 450.5, items[1].UnitPrice)
	assert.Equal(t, 901.0, items[1].TotalPrice)

	assert.Equal(t, 1, c.clears)
	assert.Equal(t, 1, c.discards)
	assert.Equal(t, 0, c.Len())
	assert.Same(t, sub, notified)
	assert.Equal(t, Succeeded, flow.State())
	assert.NoError(t, flow.Err())
	assert.Equal(t, []State{Validating, Submitting, Succeeded}, *seen)
}

func TestSubmit_ShortFirstNameFailsWithoutStorageCall(t *testing.T) {
	orders := &fakeOrders{}
	c := newCart(cart.Item{ProductID: "p1", Quantity: 3})
	flow, seen := newFlow(orders, c)
	details := customer
	details.FirstName = "A"

	_, err := flow.Submit(context.Background(), details, catalog)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, map[string]string{"first_name": "Required"}, verr.Fields)
	assert.Empty(t, orders.headers)
	assert.Equal(t, 3, c.Quantity("p1"))
	assert.Equal(t, 0, c.clears)
	assert.Equal(t, Idle, flow.State())
	assert.Equal(t, err, flow.Err())
	assert.Equal(t, []State{Validating, Failed, Idle}, *seen)
}

func TestSubmit_FieldMessages(t *testing.T) {
	orders := &fakeOrders{}
	flow, _ := newFlow(orders, newCart())

	_, err := flow.Submit(context.Background(), models.CustomerDetails{LastName: "K", Phone: "07123"}, catalog)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, map[string]string{
		"first_name": "Required",
		"last_name":  "Required",
		"phone":      "Phone must be at least 10 digits",
		"cart":       "No items in order",
	}, verr.Fields)
	assert.Equal(t, "checkout: invalid cart, first_name, last_name, phone", err.Error())
}

func TestSubmit_LocationIsOptional(t *testing.T) {
	orders := &fakeOrders{}
	flow, _ := newFlow(orders, newCart(cart.Item{ProductID: "p1", Quantity: 1}))
	details := customer
	details.Location = ""

	_, err := flow.Submit(context.Background(), details, catalog)

	require.NoError(t, err)
}

func TestSubmit_StaleCartLinesAreNotOrdered(t *testing.T) {
	orders := &fakeOrders{}
	flow, _ := newFlow(orders, newCart(cart.Item{ProductID: "deleted", Quantity: 2}))

	_, err := flow.Submit(context.Background(), customer, catalog)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "cart")
	assert.Empty(t, orders.headers)
}

func TestSubmit_HeaderFailureKeepsCart(t *testing.T) {
	orders := &fakeOrders{headerErr: errors.New("connection reset")}
	c := newCart(cart.Item{ProductID: "p1", Quantity: 1})
	flow, seen := newFlow(orders, c)

	_, err := flow.Submit(context.Background(), customer, catalog)

	var herr *HeaderInsertError
	require.ErrorAs(t, err, &herr)
	assert.EqualError(t, errors.Unwrap(err), "connection reset")
	assert.Nil(t, orders.items)
	assert.Equal(t, 1, c.Quantity("p1"))
	assert.Equal(t, 0, c.clears)
	assert.Equal(t, 0, c.discards)
	assert.Equal(t, []State{Validating, Submitting, Failed, Idle}, *seen)
}

func TestSubmit_LineFailureLeavesOrphanedHeader(t *testing.T) {
	orders := &fakeOrders{itemsErr: errors.New("write conflict")}
	c := newCart(cart.Item{ProductID: "p1", Quantity: 1})
	flow, _ := newFlow(orders, c)

	_, err := flow.Submit(context.Background(), customer, catalog)

	var lerr *LineInsertError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, "order-1", lerr.OrderID)
	require.Len(t, orders.headers, 1, "header is not rolled back")
	assert.Equal(t, 1, c.Quantity("p1"))
	assert.Equal(t, 0, c.clears)
	assert.Equal(t, Idle, flow.State())
	assert.Same(t, lerr, flow.Err())
}

func TestSubmit_PricesAreCopied(t *testing.T) {
	orders := &fakeOrders{}
	products := []models.Product{{ID: "p1", Name: "Broiler", Price: 700}}
	flow, _ := newFlow(orders, newCart(cart.Item{ProductID: "p1", Quantity: 2}))

	sub, err := flow.Submit(context.Background(), customer, products)
	require.NoError(t, err)

	products[0].Price = 900
	products[0].Name = "Broiler (large)"

	assert.Equal(t, "700", sub.Lines[0].UnitPrice.String())
	assert.Equal(t, "Broiler", sub.Lines[0].ProductName)
	assert.Equal(t, 700.0, orders.items["order-1"][0].UnitPrice)
}

func TestSubmit_RejectsConcurrentSubmit(t *testing.T) {
	orders := &fakeOrders{}
	flow, _ := newFlow(orders, newCart(cart.Item{ProductID: "p1", Quantity: 1}))
	var nested error
	orders.onInsert = func() {
		_, nested = flow.Submit(context.Background(), customer, catalog)
	}

	_, err := flow.Submit(context.Background(), customer, catalog)

	require.NoError(t, err)
	assert.ErrorIs(t, nested, ErrInProgress)
	assert.Len(t, orders.headers, 1)
}

func TestSubmit_RetryAfterFailure(t *testing.T) {
	orders := &fakeOrders{headerErr: errors.New("timeout")}
	c := newCart(cart.Item{ProductID: "p2", Quantity: 1})
	flow, _ := newFlow(orders, c)

	_, err := flow.Submit(context.Background(), customer, catalog)
	require.Error(t, err)

	orders.headerErr = nil
	sub, err := flow.Submit(context.Background(), customer, catalog)

	require.NoError(t, err)
	assert.Equal(t, "450.50", sub.Total.StringFixed(2))
	assert.NoError(t, flow.Err())
	assert.Equal(t, 1, c.clears)
}

func TestSubmit_RetryAfterLineFailureReusesOrderID(t *testing.T) {
	orders := &fakeOrders{itemsErr: errors.New("write conflict")}
	c := newCart(cart.Item{ProductID: "p1", Quantity: 2})
	flow := NewFlow(orders, c, nil)

	_, err := flow.Submit(context.Background(), customer, catalog)
	var lerr *LineInsertError
	require.ErrorAs(t, err, &lerr)
	pending := flow.PendingOrderID()
	require.NotEmpty(t, pending)
	assert.Equal(t, pending, lerr.OrderID)

	orders.itemsErr = nil
	sub, err := flow.Submit(context.Background(), customer, catalog)
	require.NoError(t, err)

	require.Len(t, orders.headers, 2)
	assert.Equal(t, orders.headers[0].ID, orders.headers[1].ID)
	assert.Equal(t, pending, sub.OrderID)
	assert.Contains(t, orders.items, pending)
	assert.Empty(t, flow.PendingOrderID())
}

func TestSubmit_ValidationFailureDoesNotReserveID(t *testing.T) {
	flow := NewFlow(&fakeOrders{}, newCart(), nil)

	_, err := flow.Submit(context.Background(), customer, catalog)

	require.Error(t, err)
	assert.Empty(t, flow.PendingOrderID())
}

func TestSubmit_UseOrderID(t *testing.T) {
	orders := &fakeOrders{}
	flow := NewFlow(orders, newCart(cart.Item{ProductID: "p2", Quantity: 1}), nil)
	flow.UseOrderID("3b241101-e2bb-4255-8caf-4136c566a962")

	sub, err := flow.Submit(context.Background(), customer, catalog)

	require.NoError(t, err)
	assert.Equal(t, "3b241101-e2bb-4255-8caf-4136c566a962", sub.OrderID)
	assert.Equal(t, "3b241101-e2bb-4255-8caf-4136c566a962", orders.headers[0].ID)
}

func TestSubmit_SuccessiveOrdersGetFreshIDs(t *testing.T) {
	orders := &fakeOrders{}
	c := newCart(cart.Item{ProductID: "p1", Quantity: 1})
	flow := NewFlow(orders, c, nil)

	_, err := flow.Submit(context.Background(), customer, catalog)
	require.NoError(t, err)
	c.Add("p2")
	_, err = flow.Submit(context.Background(), customer, catalog)
	require.NoError(t, err)

	require.Len(t, orders.headers, 2)
	assert.NotEqual(t, orders.headers[0].ID, orders.headers[1].ID)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "submitting", Submitting.String())
	assert.Equal(t, "unknown", State(42).String())
}
