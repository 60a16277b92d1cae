package forum

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

// PostUpdate carries the whitelisted editable fields. Author, likes, comments
// and stats are never updatable through this path.
type PostUpdate struct {
	Title    *string
	Content  *string
	Category *string
	Tags     *[]string
	Images   *[]models.PostImage
}

// Repository defines persistence for posts. Every mutation that changes the
// likes set or the comments array updates the matching stats counter in the
// same document operation, so the cached counters can never drift from the
// collections they mirror.
type Repository interface {
	Insert(ctx context.Context, p *models.Post) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	List(ctx context.Context, p query.Params) ([]*models.Post, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, upd PostUpdate) (*models.Post, error)
	SetActive(ctx context.Context, id primitive.ObjectID, active bool) error
	// ToggleLike atomically adds or removes userID from the likes set together
	// with the stats.likes counter. Returns the updated post and whether the
	// post is now liked by the user.
	ToggleLike(ctx context.Context, postID, userID primitive.ObjectID) (*models.Post, bool, error)
	PushComment(ctx context.Context, postID primitive.ObjectID, c models.Comment) error
	DeactivateComment(ctx context.Context, postID, commentID primitive.ObjectID) error
	IncViews(ctx context.Context, postID primitive.ObjectID) error
}

// MongoRepository implements Repository on the posts collection.
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Insert(ctx context.Context, p *models.Post) error {
	now := time.Now().UTC()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := r.col.InsertOne(ctx, p)
	return err
}

func (r *MongoRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var p models.Post
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *MongoRepository) List(ctx context.Context, p query.Params) ([]*models.Post, int64, error) {
	filter := p.Filter(bson.M{"isActive": true}, "title", "content")
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	cur, err := r.col.Find(ctx, filter, p.FindOptions())
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	var out []*models.Post
	for cur.Next(ctx) {
		var post models.Post
		if err := cur.Decode(&post); err != nil {
			return nil, 0, err
		}
		out = append(out, &post)
	}
	return out, total, cur.Err()
}

func (r *MongoRepository) Update(ctx context.Context, id primitive.ObjectID, upd PostUpdate) (*models.Post, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Content != nil {
		set["content"] = *upd.Content
	}
	if upd.Category != nil {
		set["category"] = *upd.Category
	}
	if upd.Tags != nil {
		set["tags"] = *upd.Tags
	}
	if upd.Images != nil {
		set["images"] = *upd.Images
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Post
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *MongoRepository) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"isActive": active, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("post not found")
	}
	return nil
}

// ToggleLike issues two conditional single-document updates instead of a
// read-then-write: the filter carries the expected membership state, so the
// $pull/$addToSet and the $inc land together or not at all. Concurrent
// toggles from different users can never produce a lost counter update; a
// same-user race just makes one of the two filters miss, and we retry.
func (r *MongoRepository) ToggleLike(ctx context.Context, postID, userID primitive.ObjectID) (*models.Post, bool, error) {
	after := options.FindOneAndUpdate().SetReturnDocument(options.After)
	for attempt := 0; attempt < 3; attempt++ {
		// already liked: remove and decrement
		var p models.Post
		err := r.col.FindOneAndUpdate(ctx,
			bson.M{"_id": postID, "likes": userID},
			bson.M{"$pull": bson.M{"likes": userID}, "$inc": bson.M{"stats.likes": -1}},
			after,
		).Decode(&p)
		if err == nil {
			return &p, false, nil
		}
		if err != mongo.ErrNoDocuments {
			return nil, false, err
		}

		// not liked yet: add and increment
		err = r.col.FindOneAndUpdate(ctx,
			bson.M{"_id": postID, "likes": bson.M{"$ne": userID}},
			bson.M{"$addToSet": bson.M{"likes": userID}, "$inc": bson.M{"stats.likes": 1}},
			after,
		).Decode(&p)
		if err == nil {
			return &p, true, nil
		}
		if err != mongo.ErrNoDocuments {
			return nil, false, err
		}

		// both filters missed: either the post is gone, or the same user
		// toggled concurrently between the two updates
		n, err := r.col.CountDocuments(ctx, bson.M{"_id": postID})
		if err != nil {
			return nil, false, err
		}
		if n == 0 {
			return nil, false, apperr.NotFound("post not found")
		}
	}
	return nil, false, apperr.Internal("like toggle kept racing, try again", nil)
}

func (r *MongoRepository) PushComment(ctx context.Context, postID primitive.ObjectID, c models.Comment) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": postID},
		bson.M{
			"$push": bson.M{"comments": c},
			"$inc":  bson.M{"stats.comments": 1},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("post not found")
	}
	return nil
}

func (r *MongoRepository) DeactivateComment(ctx context.Context, postID, commentID primitive.ObjectID) error {
	// the elemMatch on isActive makes the operation idempotent: a second
	// delete matches nothing and the counter is decremented exactly once
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": postID, "comments": bson.M{"$elemMatch": bson.M{"_id": commentID, "isActive": true}}},
		bson.M{
			"$set": bson.M{"comments.$.isActive": false},
			"$inc": bson.M{"stats.comments": -1},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("comment not found")
	}
	return nil
}

func (r *MongoRepository) IncViews(ctx context.Context, postID primitive.ObjectID) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": postID}, bson.M{"$inc": bson.M{"stats.views": 1}})
	return err
}
