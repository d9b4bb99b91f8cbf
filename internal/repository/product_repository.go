package repository

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/amanshu0143/backend/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// productDocument mirrors the loosely typed catalog collection, so the id and
// price are decoded by hand.
type productDocument struct {
	ID       bson.RawValue `bson:"_id"`
	Code     string        `bson:"product_code"`
	Name     string        `bson:"product_name"`
	Price    bson.RawValue `bson:"product_price"`
	ImageURL string        `bson:"product_imageurl"`
}

func (d productDocument) toDomain() domain.Product {
	return domain.Product{
		ID:       rawID(d.ID),
		Code:     d.Code,
		Name:     d.Name,
		Price:    rawPrice(d.Price),
		ImageURL: d.ImageURL,
	}
}

func rawID(v bson.RawValue) string {
	switch v.Type {
	case bson.TypeObjectID:
		return v.ObjectID().Hex()
	case bson.TypeString:
		return v.StringValue()
	default:
		return ""
	}
}

// rawPrice reads a numeric price. Missing, non-numeric and NaN values read as 0.
func rawPrice(v bson.RawValue) decimal.Decimal {
	switch v.Type {
	case bson.TypeDouble:
		f := v.Double()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(f)
	case bson.TypeInt32:
		return decimal.NewFromInt32(v.Int32())
	case bson.TypeInt64:
		return decimal.NewFromInt(v.Int64())
	case bson.TypeDecimal128:
		d, err := decimal.NewFromString(v.Decimal128().String())
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

type productRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) ProductRepository {
	return &productRepository{
		collection: db.Collection("product"),
	}
}

func (r *productRepository) FindProductsByCode(ctx context.Context, codes []string) ([]domain.Product, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	// codes are bound as plain strings inside $in, never as operators
	filter := bson.M{"product_code": bson.M{"$in": codes}}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	products := make([]domain.Product, 0, len(docs))
	for _, d := range docs {
		products = append(products, d.toDomain())
	}
	return products, nil
}

func (r *productRepository) FindProductByCode(ctx context.Context, code string) (*domain.Product, error) {
	var doc productDocument

	err := r.collection.FindOne(ctx, bson.M{"product_code": code}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	p := doc.toDomain()
	return &p, nil
}
