package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yeremiapane/restaurant-ordering/models"
)

const (
	categoriesCollection    = "categories"
	menusCollection         = "menus"
	cartsCollection         = "carts"
	ordersCollection        = "orders"
	notificationsCollection = "notifications"
)

// MongoStore keeps carts and orders as camelCase documents, one per aggregate.
type MongoStore struct {
	client        *mongo.Client
	Categories    *mongo.Collection
	Menus         *mongo.Collection
	Carts         *mongo.Collection
	Orders        *mongo.Collection
	Notifications *mongo.Collection
}

func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return NewMongoStoreFromDatabase(client.Database(database)), nil
}

func NewMongoStoreFromDatabase(db *mongo.Database) *MongoStore {
	return &MongoStore{
		client:        db.Client(),
		Categories:    db.Collection(categoriesCollection),
		Menus:         db.Collection(menusCollection),
		Carts:         db.Collection(cartsCollection),
		Orders:        db.Collection(ordersCollection),
		Notifications: db.Collection(notificationsCollection),
	}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.Carts, mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{s.Categories, mongo.IndexModel{Keys: bson.D{{Key: "nameKey", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{s.Menus, mongo.IndexModel{Keys: bson.D{{Key: "categoryId", Value: 1}}}},
		{s.Orders, mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}}},
		{s.Orders, mongo.IndexModel{Keys: bson.D{{Key: "status", Value: 1}}}},
		{s.Notifications, mongo.IndexModel{Keys: bson.D{{Key: "createdAt", Value: -1}}}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("create index on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func translateMongo(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrRecordNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	}
	return err
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts *options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Carts

func (s *MongoStore) FindCart(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	if err := s.Carts.FindOne(ctx, bson.M{"userId": userID}).Decode(&cart); err != nil {
		return nil, translateMongo(err)
	}
	return &cart, nil
}

func (s *MongoStore) SaveCart(ctx context.Context, cart *models.Cart) error {
	now := time.Now().UTC()
	if cart.Version == 0 {
		cart.Version = 1
		cart.CreatedAt, cart.UpdatedAt = now, now
		if _, err := s.Carts.InsertOne(ctx, cart); err != nil {
			cart.Version = 0
			if err = translateMongo(err); errors.Is(err, ErrDuplicate) {
				return ErrVersionConflict
			}
			return err
		}
		return nil
	}

	lines := cart.Lines
	if lines == nil {
		lines = models.CartLines{}
	}
	res, err := s.Carts.UpdateOne(ctx,
		bson.M{"userId": cart.UserID, "version": cart.Version},
		bson.M{"$set": bson.M{
			"lines":       lines,
			"itemCount":   cart.ItemCount,
			"totalAmount": cart.TotalAmount,
			"version":     cart.Version + 1,
			"updatedAt":   now,
		}},
	)
	if err != nil {
		return translateMongo(err)
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	cart.Version++
	cart.UpdatedAt = now
	return nil
}

// Orders

func (s *MongoStore) CreateOrder(ctx context.Context, order *models.Order) error {
	_, err := s.Orders.InsertOne(ctx, order)
	return translateMongo(err)
}

func (s *MongoStore) FindOrder(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := s.Orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return nil, translateMongo(err)
	}
	return &order, nil
}

func (s *MongoStore) UpdateOrderStatus(ctx context.Context, id string, upd StatusUpdate) (*models.Order, error) {
	set := bson.M{
		"status":    upd.Status,
		"updatedAt": upd.UpdatedAt,
	}
	if upd.EstimatedDeliveryTime != nil {
		set["estimatedDeliveryTime"] = *upd.EstimatedDeliveryTime
	}
	if upd.PickupTime != nil {
		set["pickupTime"] = *upd.PickupTime
	}
	if upd.ActualDeliveryTime != nil {
		set["actualDeliveryTime"] = *upd.ActualDeliveryTime
	}

	var order models.Order
	err := s.Orders.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": upd.From},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, findErr := s.FindOrder(ctx, id); findErr != nil {
			return nil, findErr
		}
		return nil, ErrVersionConflict
	}
	if err != nil {
		return nil, translateMongo(err)
	}
	return &order, nil
}

func (s *MongoStore) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	query := bson.M{}
	if filter.UserID != "" {
		query["userId"] = filter.UserID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(listLimit(filter.Limit)))
	return findAll[models.Order](ctx, s.Orders, query, opts)
}

func (s *MongoStore) CountOrdersByStatus(ctx context.Context) (map[models.OrderStatus]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := s.Orders.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status models.OrderStatus `bson:"_id"`
		Count  int64              `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	counts := make(map[models.OrderStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func (s *MongoStore) SumGrandTotal(ctx context.Context, status models.OrderStatus) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "status", Value: status}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$grandTotal"}}},
		}}},
	}
	cursor, err := s.Orders.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

// Catalog

func (s *MongoStore) CreateCategory(ctx context.Context, cat *models.MenuCategory) error {
	_, err := s.Categories.InsertOne(ctx, cat)
	return translateMongo(err)
}

func (s *MongoStore) UpdateCategory(ctx context.Context, cat *models.MenuCategory) error {
	cat.UpdatedAt = time.Now().UTC()
	return replaceByID(ctx, s.Categories, cat.ID, cat)
}

func (s *MongoStore) FindCategory(ctx context.Context, id string) (*models.MenuCategory, error) {
	var cat models.MenuCategory
	if err := s.Categories.FindOne(ctx, bson.M{"_id": id}).Decode(&cat); err != nil {
		return nil, translateMongo(err)
	}
	return &cat, nil
}

func (s *MongoStore) ListCategories(ctx context.Context) ([]models.MenuCategory, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	return findAll[models.MenuCategory](ctx, s.Categories, bson.M{}, opts)
}

func (s *MongoStore) CreateMenu(ctx context.Context, menu *models.Menu) error {
	_, err := s.Menus.InsertOne(ctx, menu)
	return translateMongo(err)
}

func (s *MongoStore) UpdateMenu(ctx context.Context, menu *models.Menu) error {
	menu.UpdatedAt = time.Now().UTC()
	return replaceByID(ctx, s.Menus, menu.ID, menu)
}

func (s *MongoStore) FindMenu(ctx context.Context, id string) (*models.Menu, error) {
	var menu models.Menu
	if err := s.Menus.FindOne(ctx, bson.M{"_id": id}).Decode(&menu); err != nil {
		return nil, translateMongo(err)
	}
	return &menu, nil
}

func (s *MongoStore) ListMenus(ctx context.Context, categoryID string) ([]models.Menu, error) {
	query := bson.M{}
	if categoryID != "" {
		query["categoryId"] = categoryID
	}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	return findAll[models.Menu](ctx, s.Menus, query, opts)
}

func replaceByID(ctx context.Context, coll *mongo.Collection, id string, doc interface{}) error {
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return translateMongo(err)
	}
	if res.MatchedCount == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Notifications

func (s *MongoStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	_, err := s.Notifications.InsertOne(ctx, n)
	return translateMongo(err)
}

func (s *MongoStore) ListNotifications(ctx context.Context, limit int) ([]models.Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(listLimit(limit)))
	return findAll[models.Notification](ctx, s.Notifications, bson.M{}, opts)
}
