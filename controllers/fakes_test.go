package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"farm-store/cart"
	"farm-store/models"
	"farm-store/repository"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

type fakeProducts struct {
	products []models.Product
	updated  map[string]models.StockUpdate
	err      error
}

func (f *fakeProducts) ListProducts(_ context.Context, filter repository.ProductFilter) ([]models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Product
	for _, p := range f.products {
		if len(filter.IDs) > 0 && !contains(filter.IDs, p.ID) {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.InStock != nil && p.InStock != *filter.InStock {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProducts) GetProduct(_ context.Context, id string) (*models.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeProducts) CreateProduct(_ context.Context, product *models.Product) (string, error) {
	product.ID = "new-product"
	f.products = append(f.products, *product)
	return product.ID, nil
}

func (f *fakeProducts) UpdateProductStock(_ context.Context, id string, price float64, inStock bool) error {
	for i := range f.products {
		if f.products[i].ID == id {
			f.products[i].Price = price
			f.products[i].InStock = inStock
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeProducts) DeleteProduct(_ context.Context, id string) error {
	for i := range f.products {
		if f.products[i].ID == id {
			f.products = append(f.products[:i], f.products[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeOrders struct {
	headerErr error
	lineErr   error
	headers   []*models.Order
	items     map[string][]models.OrderItem
	statuses  map[string]string
	deleted   []string
}

func (f *fakeOrders) InsertOrder(_ context.Context, order *models.Order) (string, error) {
	if f.headerErr != nil {
		return "", f.headerErr
	}
	for _, h := range f.headers {
		if h.ID != order.ID {
			continue
		}
		if h.Phone != order.Phone || h.TotalPrice != order.TotalPrice {
			return "", repository.ErrDuplicate
		}
		return order.ID, nil
	}
	f.headers = append(f.headers, order)
	return order.ID, nil
}

func (f *fakeOrders) InsertOrderItems(_ context.Context, orderID string, items []models.OrderItem) error {
	if f.lineErr != nil {
		return f.lineErr
	}
	if f.items == nil {
		f.items = make(map[string][]models.OrderItem)
	}
	f.items[orderID] = items
	return nil
}

func (f *fakeOrders) ListOrders(_ context.Context, filter repository.OrderFilter) ([]models.Order, error) {
	var out []models.Order
	for _, h := range f.headers {
		if filter.Status != "" && h.Status != filter.Status {
			continue
		}
		o := *h
		o.Items = f.items[h.ID]
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeOrders) UpdateOrderStatus(_ context.Context, id, status string) error {
	for _, h := range f.headers {
		if h.ID == id {
			if f.statuses == nil {
				f.statuses = make(map[string]string)
			}
			f.statuses[id] = status
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeOrders) DeleteOrderItem(_ context.Context, itemID string) error {
	f.deleted = append(f.deleted, itemID)
	return nil
}

type fakeProfiles struct {
	byEmail map[string]*models.Profile
}

func (f *fakeProfiles) CreateProfile(_ context.Context, profile *models.Profile) (string, error) {
	if f.byEmail == nil {
		f.byEmail = make(map[string]*models.Profile)
	}
	if _, ok := f.byEmail[profile.Email]; ok {
		return "", repository.ErrDuplicate
	}
	profile.ID = "user-" + profile.Email
	f.byEmail[profile.Email] = profile
	return profile.ID, nil
}

func (f *fakeProfiles) FindProfileByEmail(_ context.Context, email string) (*models.Profile, error) {
	if p, ok := f.byEmail[email]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeProfiles) FindProfileByID(_ context.Context, id string) (*models.Profile, error) {
	for _, p := range f.byEmail {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeExpenses struct {
	expenses []models.Expense
	from, to string
}

func (f *fakeExpenses) InsertExpense(_ context.Context, expense *models.Expense) (string, error) {
	expense.ID = "exp-1"
	f.expenses = append(f.expenses, *expense)
	return expense.ID, nil
}

func (f *fakeExpenses) ListExpenses(_ context.Context, from, to string) ([]models.Expense, error) {
	f.from, f.to = from, to
	return f.expenses, nil
}

type recordingMailer struct {
	sent chan string
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{sent: make(chan string, 1)}
}

func (m *recordingMailer) SendEmail(toEmail, subject, _ string) error {
	m.sent <- toEmail + ": " + subject
	return nil
}

var errStorage = errors.New("connection reset")

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func catalog() *fakeProducts {
	return &fakeProducts{products: []models.Product{
		{ID: "p1", Name: "Kienyeji Chicken", Price: 500, Category: models.CategoryChicken, InStock: true},
		{ID: "p2", Name: "Eggs (tray)", Price: 300, Category: models.CategoryEggs, InStock: true},
		{ID: "p3", Name: "Avocado Seedling", Price: 99.99, Category: models.CategoryPlants},
	}}
}

// withCart attaches a cart-items cookie holding items
func withCart(t *testing.T, r *http.Request, items ...cart.Item) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, cart.NewCookiePersister(rec, false, nil).Save(items))
	for _, c := range rec.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

// cartCookie returns the last cart-items cookie written to rec
func cartCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	var found *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == cart.CookieName {
			found = c
		}
	}
	return found
}

// serve routes r through a router holding a single pattern so mux vars resolve
func serve(pattern string, h http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	router := mux.NewRouter()
	router.HandleFunc(pattern, h)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, r)
	return rec
}

// cartItems decodes the cart cookie written to rec
func cartItems(rec *httptest.ResponseRecorder) []cart.Item {
	c := cartCookie(rec)
	if c == nil {
		return nil
	}
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(c)
	return cart.Load(r, nil)
}
