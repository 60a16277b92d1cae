package catalog

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/campuslink/campuslink-server/internal/apperr"
	"github.com/campuslink/campuslink-server/internal/models"
	"github.com/campuslink/campuslink-server/internal/query"
)

// UniversityRepository persists the university side of the catalog. The link
// methods mutate one side only; keeping both sides consistent is the service's
// job.
type UniversityRepository interface {
	Insert(ctx context.Context, u *models.University) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.University, error)
	GetMany(ctx context.Context, ids []primitive.ObjectID) ([]*models.University, error)
	List(ctx context.Context, p query.Params) ([]*models.University, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.University, error)
	SetActive(ctx context.Context, id primitive.ObjectID, active bool) error
	AddMajor(ctx context.Context, uniID, majorID primitive.ObjectID) error
	RemoveMajor(ctx context.Context, uniID, majorID primitive.ObjectID) error
	Overview(ctx context.Context) (*UniversityOverview, error)
}

// MajorRepository persists the major side.
type MajorRepository interface {
	Insert(ctx context.Context, m *models.Major) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Major, error)
	GetMany(ctx context.Context, ids []primitive.ObjectID) ([]*models.Major, error)
	List(ctx context.Context, p query.Params) ([]*models.Major, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Major, error)
	SetActive(ctx context.Context, id primitive.ObjectID, active bool) error
	AddUniversity(ctx context.Context, majorID, uniID primitive.ObjectID) error
	RemoveUniversity(ctx context.Context, majorID, uniID primitive.ObjectID) error
}

// UniversityOverview aggregates catalog-wide counts for the admin dashboard.
type UniversityOverview struct {
	Total      int64            `json:"total"`
	Active     int64            `json:"active"`
	ByType     map[string]int64 `json:"byType"`
	ByLevel    map[string]int64 `json:"byLevel"`
	ByProvince map[string]int64 `json:"byProvince"`
}

// MongoUniversityRepository implements UniversityRepository on the
// universities collection.
type MongoUniversityRepository struct {
	col *mongo.Collection
}

func NewMongoUniversityRepository(col *mongo.Collection) *MongoUniversityRepository {
	return &MongoUniversityRepository{col: col}
}

func (r *MongoUniversityRepository) Insert(ctx context.Context, u *models.University) error {
	now := time.Now().UTC()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	_, err := r.col.InsertOne(ctx, u)
	return err
}

func (r *MongoUniversityRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.University, error) {
	var u models.University
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *MongoUniversityRepository) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]*models.University, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.University
	for cur.Next(ctx) {
		var u models.University
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	return out, cur.Err()
}

func (r *MongoUniversityRepository) List(ctx context.Context, p query.Params) ([]*models.University, int64, error) {
	filter := p.Filter(bson.M{"isActive": true}, "name", "englishName", "description")
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	cur, err := r.col.Find(ctx, filter, p.FindOptions())
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	var out []*models.University
	for cur.Next(ctx) {
		var u models.University
		if err := cur.Decode(&u); err != nil {
			return nil, 0, err
		}
		out = append(out, &u)
	}
	return out, total, cur.Err()
}

func (r *MongoUniversityRepository) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.University, error) {
	set["updatedAt"] = time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.University
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *MongoUniversityRepository) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"isActive": active, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("university not found")
	}
	return nil
}

func (r *MongoUniversityRepository) AddMajor(ctx context.Context, uniID, majorID primitive.ObjectID) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": uniID},
		bson.M{"$addToSet": bson.M{"majors": majorID}, "$set": bson.M{"updatedAt": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("university not found")
	}
	return nil
}

func (r *MongoUniversityRepository) RemoveMajor(ctx context.Context, uniID, majorID primitive.ObjectID) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": uniID},
		bson.M{"$pull": bson.M{"majors": majorID}, "$set": bson.M{"updatedAt": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("university not found")
	}
	return nil
}

func (r *MongoUniversityRepository) Overview(ctx context.Context) (*UniversityOverview, error) {
	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	active, err := r.col.CountDocuments(ctx, bson.M{"isActive": true})
	if err != nil {
		return nil, err
	}
	ov := &UniversityOverview{
		Total:      total,
		Active:     active,
		ByType:     map[string]int64{},
		ByLevel:    map[string]int64{},
		ByProvince: map[string]int64{},
	}
	for field, into := range map[string]map[string]int64{
		"$type":              ov.ByType,
		"$level":             ov.ByLevel,
		"$location.province": ov.ByProvince,
	} {
		cur, err := r.col.Aggregate(ctx, mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"isActive": true}}},
			{{Key: "$group", Value: bson.M{"_id": field, "count": bson.M{"$sum": 1}}}},
		})
		if err != nil {
			return nil, err
		}
		var rows []struct {
			ID    string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cur.All(ctx, &rows); err != nil {
			return nil, err
		}
		for _, row := range rows {
			if row.ID != "" {
				into[row.ID] = row.Count
			}
		}
	}
	return ov, nil
}

// MongoMajorRepository implements MajorRepository on the majors collection.
type MongoMajorRepository struct {
	col *mongo.Collection
}

func NewMongoMajorRepository(col *mongo.Collection) *MongoMajorRepository {
	return &MongoMajorRepository{col: col}
}

func (r *MongoMajorRepository) Insert(ctx context.Context, m *models.Major) error {
	now := time.Now().UTC()
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	m.CreatedAt = now
	m.UpdatedAt = now
	_, err := r.col.InsertOne(ctx, m)
	return err
}

func (r *MongoMajorRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Major, error) {
	var m models.Major
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *MongoMajorRepository) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]*models.Major, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.Major
	for cur.Next(ctx) {
		var m models.Major
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, cur.Err()
}

func (r *MongoMajorRepository) List(ctx context.Context, p query.Params) ([]*models.Major, int64, error) {
	filter := p.Filter(bson.M{"isActive": true}, "name", "englishName", "description")
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	cur, err := r.col.Find(ctx, filter, p.FindOptions())
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	var out []*models.Major
	for cur.Next(ctx) {
		var m models.Major
		if err := cur.Decode(&m); err != nil {
			return nil, 0, err
		}
		out = append(out, &m)
	}
	return out, total, cur.Err()
}

func (r *MongoMajorRepository) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Major, error) {
	set["updatedAt"] = time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var m models.Major
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&m); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *MongoMajorRepository) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"isActive": active, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("major not found")
	}
	return nil
}

func (r *MongoMajorRepository) AddUniversity(ctx context.Context, majorID, uniID primitive.ObjectID) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": majorID},
		bson.M{"$addToSet": bson.M{"universities": uniID}, "$set": bson.M{"updatedAt": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("major not found")
	}
	return nil
}

func (r *MongoMajorRepository) RemoveUniversity(ctx context.Context, majorID, uniID primitive.ObjectID) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": majorID},
		bson.M{"$pull": bson.M{"universities": uniID}, "$set": bson.M{"updatedAt": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("major not found")
	}
	return nil
}
