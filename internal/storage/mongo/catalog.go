package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/magabrotheeeer/token-billing/internal/models"
	"github.com/magabrotheeeer/token-billing/internal/storage"
)

const (
	collectionPackages  = "packages"
	collectionDataPlans = "dataplans"
)

// packageDoc — документ пакета. Цена хранится числом, в модель переводится в decimal.
type packageDoc struct {
	ObjectID       primitive.ObjectID `bson:"_id,omitempty"`
	ID             string             `bson:"id"`
	Label          string             `bson:"label"`
	Icon           string             `bson:"icon"`
	Amount         float64            `bson:"amount"`
	Tokens         int64              `bson:"tokens"`
	IsSubscription bool               `bson:"isSubscription"`
	DurationDays   int                `bson:"durationDays"`
}

func (d packageDoc) toModel() *models.TokenPackage {
	id := d.ID
	if id == "" {
		id = d.ObjectID.Hex()
	}
	return &models.TokenPackage{
		ID:             id,
		Label:          d.Label,
		Icon:           d.Icon,
		Amount:         decimal.NewFromFloat(d.Amount),
		Tokens:         d.Tokens,
		IsSubscription: d.IsSubscription,
		DurationDays:   d.DurationDays,
	}
}

type dataPlanDoc struct {
	ObjectID         primitive.ObjectID `bson:"_id,omitempty"`
	PlanName         string             `bson:"planName"`
	USSDCodeTemplate string             `bson:"ussdCodeTemplate"`
	Placeholder      string             `bson:"placeholder"`
	Amount           float64            `bson:"amount"`
}

func (d dataPlanDoc) toModel() *models.DataPlan {
	return &models.DataPlan{
		ID:               d.ObjectID.Hex(),
		PlanName:         d.PlanName,
		USSDCodeTemplate: d.USSDCodeTemplate,
		Placeholder:      d.Placeholder,
		Amount:           decimal.NewFromFloat(d.Amount),
	}
}

// Catalog читает продукты из MongoDB.
type Catalog struct {
	packages *mongo.Collection
	plans    *mongo.Collection
}

var _ storage.Catalog = (*Catalog)(nil)

// NewCatalog создаёт каталог поверх базы db.
func NewCatalog(db *mongo.Database) *Catalog {
	return &Catalog{
		packages: db.Collection(collectionPackages),
		plans:    db.Collection(collectionDataPlans),
	}
}

// packageFilter ищет пакет по полю id либо по _id, если productID похож на ObjectID.
func packageFilter(productID string) bson.M {
	oid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return bson.M{"id": productID}
	}
	return bson.M{"$or": bson.A{bson.M{"id": productID}, bson.M{"_id": oid}}}
}

// FindProduct возвращает пакет или пакет интернета.
func (c *Catalog) FindProduct(ctx context.Context, purchaseType models.PurchaseType, productID string) (models.Product, error) {
	const op = "mongo.FindProduct"
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	switch purchaseType {
	case models.PurchaseTokenPackage:
		var doc packageDoc
		if err := c.packages.FindOne(ctx, packageFilter(productID)).Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: %w", op, notFound(err))
		}
		return doc.toModel(), nil
	case models.PurchaseDataPlan:
		oid, err := primitive.ObjectIDFromHex(productID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrProductNotFound)
		}
		var doc dataPlanDoc
		if err := c.plans.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: %w", op, notFound(err))
		}
		return doc.toModel(), nil
	default:
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnknownPurchaseType)
	}
}

// ListTokenPackages возвращает все пакеты по возрастанию цены.
func (c *Catalog) ListTokenPackages(ctx context.Context) ([]*models.TokenPackage, error) {
	const op = "mongo.ListTokenPackages"
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := c.packages.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "amount", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var docs []packageDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*models.TokenPackage, 0, len(docs))
	for _, d := range docs {
		result = append(result, d.toModel())
	}
	return result, nil
}

// ListDataPlans возвращает все пакеты интернета по возрастанию цены.
func (c *Catalog) ListDataPlans(ctx context.Context) ([]*models.DataPlan, error) {
	const op = "mongo.ListDataPlans"
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := c.plans.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "amount", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var docs []dataPlanDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*models.DataPlan, 0, len(docs))
	for _, d := range docs {
		result = append(result, d.toModel())
	}
	return result, nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.ErrProductNotFound
	}
	return err
}
