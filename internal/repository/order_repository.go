package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amanshu0143/backend/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type orderLineDocument struct {
	ProductID   string               `bson:"_id,omitempty"`
	ProductCode string               `bson:"productCode"`
	ProductName string               `bson:"productName"`
	Price       primitive.Decimal128 `bson:"price"`
	ImageURL    string               `bson:"imageUrl"`
	Size        string               `bson:"size"`
}

type pricingDocument struct {
	Subtotal primitive.Decimal128 `bson:"subtotal"`
	Discount primitive.Decimal128 `bson:"discount"`
	Delivery primitive.Decimal128 `bson:"delivery"`
	Total    primitive.Decimal128 `bson:"total"`
}

type addressDocument struct {
	FullName     string `bson:"fullName"`
	AddressLine1 string `bson:"addressLine1"`
	AddressLine2 string `bson:"addressLine2"`
	City         string `bson:"city"`
	State        string `bson:"state"`
	PostalCode   string `bson:"postalCode"`
	Country      string `bson:"country"`
	Phone        string `bson:"phone"`
}

type orderDocument struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty"`
	Cart        []orderLineDocument `bson:"cart"`
	Address     addressDocument     `bson:"address"`
	Pricing     pricingDocument     `bson:"pricing"`
	Hash        string              `bson:"orderHash"`
	OrderDate   time.Time           `bson:"orderDate"`
	Status      string              `bson:"status"`
	Published   bool                `bson:"published"`
	PublishedAt *time.Time          `bson:"publishedAt,omitempty"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("failed to convert %s to decimal128: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

func newOrderDocument(o *domain.PersistedOrder) (*orderDocument, error) {
	doc := &orderDocument{
		Cart: make([]orderLineDocument, 0, len(o.Cart)),
		Address: addressDocument{
			FullName:     o.Address.FullName,
			AddressLine1: o.Address.AddressLine1,
			AddressLine2: o.Address.AddressLine2,
			City:         o.Address.City,
			State:        o.Address.State,
			PostalCode:   o.Address.PostalCode,
			Country:      o.Address.Country,
			Phone:        o.Address.Phone,
		},
		Hash:      o.Hash,
		OrderDate: o.OrderDate,
		Status:    o.Status.String(),
	}

	for _, l := range o.Cart {
		price, err := toDecimal128(l.Price)
		if err != nil {
			return nil, err
		}
		doc.Cart = append(doc.Cart, orderLineDocument{
			ProductID:   l.ProductID,
			ProductCode: l.ProductCode,
			ProductName: l.ProductName,
			Price:       price,
			ImageURL:    l.ImageURL,
			Size:        l.Size,
		})
	}

	var err error
	if doc.Pricing.Subtotal, err = toDecimal128(o.Pricing.Subtotal); err != nil {
		return nil, err
	}
	if doc.Pricing.Discount, err = toDecimal128(o.Pricing.Discount); err != nil {
		return nil, err
	}
	if doc.Pricing.Delivery, err = toDecimal128(o.Pricing.Delivery); err != nil {
		return nil, err
	}
	if doc.Pricing.Total, err = toDecimal128(o.Pricing.Total); err != nil {
		return nil, err
	}
	return doc, nil
}

func (d *orderDocument) toDomain() domain.PersistedOrder {
	cart := make([]domain.PricedLine, 0, len(d.Cart))
	for _, l := range d.Cart {
		cart = append(cart, domain.PricedLine{
			ProductID:   l.ProductID,
			ProductCode: l.ProductCode,
			ProductName: l.ProductName,
			Price:       fromDecimal128(l.Price),
			ImageURL:    l.ImageURL,
			Size:        l.Size,
		})
	}

	return domain.PersistedOrder{
		ID:   d.ID.Hex(),
		Cart: cart,
		Address: domain.ShippingAddress{
			FullName:     d.Address.FullName,
			AddressLine1: d.Address.AddressLine1,
			AddressLine2: d.Address.AddressLine2,
			City:         d.Address.City,
			State:        d.Address.State,
			PostalCode:   d.Address.PostalCode,
			Country:      d.Address.Country,
			Phone:        d.Address.Phone,
		},
		Pricing: domain.PricingSummary{
			Subtotal: fromDecimal128(d.Pricing.Subtotal),
			Discount: fromDecimal128(d.Pricing.Discount),
			Delivery: fromDecimal128(d.Pricing.Delivery),
			Total:    fromDecimal128(d.Pricing.Total),
		},
		Hash:      d.Hash,
		OrderDate: d.OrderDate,
		Status:    domain.OrderStatus(d.Status),
	}
}

type orderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) OrderRepository {
	return &orderRepository{
		collection: db.Collection("orders"),
	}
}

// InsertOrder appends a new order and returns its generated id. Orders are
// never deduplicated.
func (r *orderRepository) InsertOrder(ctx context.Context, order *domain.PersistedOrder) (string, error) {
	doc, err := newOrderDocument(order)
	if err != nil {
		return "", fmt.Errorf("failed to insert order: %w", err)
	}

	res, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("failed to insert order: %w", err)
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return id.Hex(), nil
}

func (r *orderRepository) GetOrder(ctx context.Context, id string) (*domain.PersistedOrder, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrOrderNotFound
	}

	var doc orderDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	order := doc.toDomain()
	return &order, nil
}

// FindUnpublished returns up to limit orders that have not been announced yet,
// oldest first.
func (r *orderRepository) FindUnpublished(ctx context.Context, limit int) ([]domain.PersistedOrder, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "orderDate", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"published": false}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find unpublished orders: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []orderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode unpublished orders: %w", err)
	}

	orders := make([]domain.PersistedOrder, 0, len(docs))
	for i := range docs {
		orders = append(orders, docs[i].toDomain())
	}
	return orders, nil
}

func (r *orderRepository) MarkPublished(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrOrderNotFound
	}

	update := bson.M{"$set": bson.M{"published": true, "publishedAt": time.Now().UTC()}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to mark order published: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}
