package users

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/campuslink/campuslink-server/internal/apperr"
	"github.com/campuslink/campuslink-server/internal/models"
	"github.com/campuslink/campuslink-server/internal/query"
)

// ProfileUpdate carries the fields a user may change on their own account.
// Nil fields are left untouched.
type ProfileUpdate struct {
	Username    *string
	Avatar      *string
	Profile     *models.UserProfile
	Preferences *models.UserPreferences
}

// StatsOverview is the admin dashboard aggregate.
type StatsOverview struct {
	TotalUsers        int64 `json:"totalUsers"`
	ActiveUsers       int64 `json:"activeUsers"`
	AdminUsers        int64 `json:"adminUsers"`
	NewUsersThisMonth int64 `json:"newUsersThisMonth"`
}

// Repository defines persistence operations for users. Lookups return nil
// (not an error) when no document matches.
type Repository interface {
	Insert(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error
	SetActive(ctx context.Context, id primitive.ObjectID, active bool) (*models.User, error)
	SetRole(ctx context.Context, id primitive.ObjectID, role string) (*models.User, error)
	SetLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
	IncPostsCount(ctx context.Context, id primitive.ObjectID, delta int) error
	List(ctx context.Context, p query.Params) ([]*models.User, int64, error)
	Stats(ctx context.Context) (*StatsOverview, error)
}

// MongoRepository implements Repository on the users collection.
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Insert(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	if _, err := r.col.InsertOne(ctx, u); err != nil {
		if field := duplicateKeyField(err); field != "" {
			return apperr.Duplicate(field, field+" already in use")
		}
		return err
	}
	return nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(email)})
}

func (r *MongoRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, filter).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *MongoRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Username != nil {
		set["username"] = *upd.Username
	}
	if upd.Avatar != nil {
		set["avatar"] = *upd.Avatar
	}
	if upd.Profile != nil {
		set["profile"] = *upd.Profile
	}
	if upd.Preferences != nil {
		set["preferences"] = *upd.Preferences
	}
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": set})
}

func (r *MongoRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"password": hash, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

func (r *MongoRepository) SetActive(ctx context.Context, id primitive.ObjectID, active bool) (*models.User, error) {
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": bson.M{"isActive": active, "updatedAt": time.Now().UTC()}})
}

func (r *MongoRepository) SetRole(ctx context.Context, id primitive.ObjectID, role string) (*models.User, error) {
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": bson.M{"role": role, "updatedAt": time.Now().UTC()}})
}

func (r *MongoRepository) SetLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"lastLoginAt": at}})
	return err
}

func (r *MongoRepository) IncPostsCount(ctx context.Context, id primitive.ObjectID, delta int) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"stats.postsCount": delta}})
	return err
}

func (r *MongoRepository) List(ctx context.Context, p query.Params) ([]*models.User, int64, error) {
	filter := p.Filter(bson.M{}, "username", "email")
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	cur, err := r.col.Find(ctx, filter, p.FindOptions())
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	var out []*models.User
	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, 0, err
		}
		out = append(out, &u)
	}
	return out, total, cur.Err()
}

func (r *MongoRepository) Stats(ctx context.Context) (*StatsOverview, error) {
	monthStart := time.Date(time.Now().Year(), time.Now().Month(), 1, 0, 0, 0, 0, time.UTC)
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":         nil,
			"totalUsers":  bson.M{"$sum": 1},
			"activeUsers": bson.M{"$sum": bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$isActive", true}}, 1, 0}}},
			"adminUsers":  bson.M{"$sum": bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$role", models.RoleAdmin}}, 1, 0}}},
			"newUsersThisMonth": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$gte": bson.A{"$createdAt", monthStart}}, 1, 0}}},
		}}},
	}
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var rows []StatsOverview
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &StatsOverview{}, nil
	}
	return &rows[0], nil
}

func (r *MongoRepository) findOneAndUpdate(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		if field := duplicateKeyField(err); field != "" {
			return nil, apperr.Duplicate(field, field+" already in use")
		}
		return nil, err
	}
	return &u, nil
}

// duplicateKeyField returns the offending field name when err is a Mongo
// E11000 unique-index violation, or "" otherwise. The index name embedded in
// the error message identifies the field.
func duplicateKeyField(err error) string {
	if err == nil || !mongo.IsDuplicateKeyError(err) {
		return ""
	}
	msg := err.Error()
	for _, field := range []string{"email", "username", "name", "code"} {
		if strings.Contains(msg, field+"_1") {
			return field
		}
	}
	return "key"
}
