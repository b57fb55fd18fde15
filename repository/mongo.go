package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"farm-store/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const duplicateKeyCode = 11000

// Mongo implements every repository interface on one database
type Mongo struct {
	products   *mongo.Collection
	orders     *mongo.Collection
	orderItems *mongo.Collection
	profiles   *mongo.Collection
	expenses   *mongo.Collection

	newID func() string
	now   func() time.Time
}

var (
	_ ProductRepository = (*Mongo)(nil)
	_ OrderRepository   = (*Mongo)(nil)
	_ ProfileRepository = (*Mongo)(nil)
	_ ExpenseRepository = (*Mongo)(nil)
)

// NewMongo creates a Mongo repository over db
func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{
		products:   db.Collection("products"),
		orders:     db.Collection("orders"),
		orderItems: db.Collection("order_items"),
		profiles:   db.Collection("profiles"),
		expenses:   db.Collection("expenses"),
		newID:      uuid.NewString,
		now:        time.Now,
	}
}

// EnsureIndexes creates the indexes the queries rely on
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{m.orderItems, mongo.IndexModel{Keys: bson.D{{Key: "order_id", Value: 1}}}},
		{m.orders, mongo.IndexModel{Keys: bson.D{{Key: "created_at", Value: -1}}}},
		{m.products, mongo.IndexModel{Keys: bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}}}},
		{m.profiles, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{m.expenses, mongo.IndexModel{Keys: bson.D{{Key: "expense_date", Value: -1}}}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("create index on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

func containsIgnoreCase(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

// ListProducts returns products ordered by category then name
func (m *Mongo) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	query := bson.M{}
	if filter.IDs != nil {
		query["_id"] = bson.M{"$in": filter.IDs}
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Search != "" {
		query["name"] = containsIgnoreCase(filter.Search)
	}
	if filter.InStock != nil {
		query["in_stock"] = *filter.InStock
	}

	opts := options.Find().SetSort(bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}})
	cursor, err := m.products.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

// GetProduct finds one product by id
func (m *Mongo) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := m.products.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find product %s: %w", id, err)
	}
	return &product, nil
}

// CreateProduct inserts product, assigning an id when it has none
func (m *Mongo) CreateProduct(ctx context.Context, product *models.Product) (string, error) {
	if product.ID == "" {
		product.ID = m.newID()
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = m.now()
	}
	if _, err := m.products.InsertOne(ctx, product); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrDuplicate
		}
		return "", fmt.Errorf("insert product: %w", err)
	}
	return product.ID, nil
}

// UpdateProductStock sets the price and stock flag of a product
func (m *Mongo) UpdateProductStock(ctx context.Context, id string, price float64, inStock bool) error {
	result, err := m.products.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"price": price, "in_stock": inStock},
	})
	if err != nil {
		return fmt.Errorf("update product %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProduct removes a product from the catalog
func (m *Mongo) DeleteProduct(ctx context.Context, id string) error {
	result, err := m.products.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertOrder writes the order header. The id is chosen by the caller (or
// generated here), so inserting the same header twice is not an error. An id
// already held by a different order fails with ErrDuplicate.
func (m *Mongo) InsertOrder(ctx context.Context, order *models.Order) (string, error) {
	if order.ID == "" {
		order.ID = m.newID()
	}
	if order.Status == "" {
		order.Status = models.StatusPending
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = m.now()
	}
	if _, err := m.orders.InsertOne(ctx, order); err != nil {
		if isOnlyDuplicates(err) {
			return m.matchStoredOrder(ctx, order)
		}
		return "", fmt.Errorf("insert order: %w", err)
	}
	return order.ID, nil
}

// matchStoredOrder accepts a repeated header only when the stored one is the
// same customer and total
func (m *Mongo) matchStoredOrder(ctx context.Context, order *models.Order) (string, error) {
	var stored models.Order
	if err := m.orders.FindOne(ctx, bson.M{"_id": order.ID}).Decode(&stored); err != nil {
		return "", fmt.Errorf("read existing order %s: %w", order.ID, err)
	}
	if stored.FirstName != order.FirstName ||
		stored.LastName != order.LastName ||
		stored.Phone != order.Phone ||
		stored.TotalPrice != order.TotalPrice {
		return "", fmt.Errorf("order %s belongs to another submission: %w", order.ID, ErrDuplicate)
	}
	return order.ID, nil
}

// InsertOrderItems writes the lines of orderID. Line ids derive from the
// order id and position, so a repeated call does not duplicate lines.
func (m *Mongo) InsertOrderItems(ctx context.Context, orderID string, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(items))
	for i, item := range items {
		item.ID = fmt.Sprintf("%s-%d", orderID, i+1)
		item.OrderID = orderID
		docs = append(docs, item)
	}
	_, err := m.orderItems.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil && !isOnlyDuplicates(err) {
		return fmt.Errorf("insert order items for %s: %w", orderID, err)
	}
	return nil
}

// isOnlyDuplicates reports whether every write error in err is a duplicate key
func isOnlyDuplicates(err error) bool {
	var bulk mongo.BulkWriteException
	if errors.As(err, &bulk) {
		if bulk.WriteConcernError != nil || len(bulk.WriteErrors) == 0 {
			return false
		}
		for _, we := range bulk.WriteErrors {
			if we.Code != duplicateKeyCode {
				return false
			}
		}
		return true
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		if we.WriteConcernError != nil || len(we.WriteErrors) == 0 {
			return false
		}
		for _, e := range we.WriteErrors {
			if e.Code != duplicateKeyCode {
				return false
			}
		}
		return true
	}
	return false
}

// ListOrders returns orders newest first, each with its items
func (m *Mongo) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Search != "" {
		query["first_name"] = containsIgnoreCase(filter.Search)
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := m.orders.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	ids := []string{}
	for cursor.Next(ctx) {
		var order models.Order
		if err := cursor.Decode(&order); err != nil {
			return nil, fmt.Errorf("decode order: %w", err)
		}
		orders = append(orders, order)
		ids = append(ids, order.ID)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("read orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	itemCursor, err := m.orderItems.Find(ctx, bson.M{"order_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find order items: %w", err)
	}
	var items []models.OrderItem
	if err := itemCursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode order items: %w", err)
	}

	byOrder := make(map[string][]models.OrderItem, len(orders))
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []models.OrderItem{}
		}
	}
	return orders, nil
}

// UpdateOrderStatus moves an order to status
func (m *Mongo) UpdateOrderStatus(ctx context.Context, id, status string) error {
	result, err := m.orders.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"status": status},
	})
	if err != nil {
		return fmt.Errorf("update order %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteOrderItem removes one line from an order
func (m *Mongo) DeleteOrderItem(ctx context.Context, itemID string) error {
	result, err := m.orderItems.DeleteOne(ctx, bson.M{"_id": itemID})
	if err != nil {
		return fmt.Errorf("delete order item %s: %w", itemID, err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateProfile inserts a new account; the email must be unused
func (m *Mongo) CreateProfile(ctx context.Context, profile *models.Profile) (string, error) {
	if profile.ID == "" {
		profile.ID = m.newID()
	}
	if profile.Role == "" {
		profile.Role = models.RoleUser
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = m.now()
	}
	if _, err := m.profiles.InsertOne(ctx, profile); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrDuplicate
		}
		return "", fmt.Errorf("insert profile: %w", err)
	}
	return profile.ID, nil
}

// FindProfileByEmail looks up an account by email
func (m *Mongo) FindProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	return m.findProfile(ctx, bson.M{"email": email})
}

// FindProfileByID looks up an account by id
func (m *Mongo) FindProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	return m.findProfile(ctx, bson.M{"_id": id})
}

func (m *Mongo) findProfile(ctx context.Context, query bson.M) (*models.Profile, error) {
	var profile models.Profile
	err := m.profiles.FindOne(ctx, query).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return &profile, nil
}

// InsertExpense records an expense
func (m *Mongo) InsertExpense(ctx context.Context, expense *models.Expense) (string, error) {
	if expense.ID == "" {
		expense.ID = m.newID()
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = m.now()
	}
	if _, err := m.expenses.InsertOne(ctx, expense); err != nil {
		return "", fmt.Errorf("insert expense: %w", err)
	}
	return expense.ID, nil
}

// ListExpenses returns expenses dated within [from, to], newest first. Dates
// are YYYY-MM-DD strings; an empty bound is open.
func (m *Mongo) ListExpenses(ctx context.Context, from, to string) ([]models.Expense, error) {
	query := bson.M{}
	dateRange := bson.M{}
	if from != "" {
		dateRange["$gte"] = from
	}
	if to != "" {
		dateRange["$lte"] = to
	}
	if len(dateRange) > 0 {
		query["expense_date"] = dateRange
	}

	opts := options.Find().SetSort(bson.D{{Key: "expense_date", Value: -1}})
	cursor, err := m.expenses.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find expenses: %w", err)
	}
	expenses := []models.Expense{}
	if err := cursor.All(ctx, &expenses); err != nil {
		return nil, fmt.Errorf("decode expenses: %w", err)
	}
	return expenses, nil
}
