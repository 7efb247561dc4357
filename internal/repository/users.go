package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/viewtube/viewtube-backend/internal/database"
	"github.com/viewtube/viewtube-backend/internal/models"
)

var (
	// ErrNotFound means no user matched the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicate means a unique index (username or email) rejected a write.
	ErrDuplicate = errors.New("username or email already exists")
)

// Users is everything the session controller needs from the user store.
type Users interface {
	Create(ctx context.Context, user *models.User) (primitive.ObjectID, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)

	SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error
	ClearRefreshToken(ctx context.Context, id primitive.ObjectID) error
	// RotateRefreshToken swaps the stored refresh token for next in a single
	// conditional update: it succeeds only while presented is still the
	// stored value, so two refreshes racing with the same stale token
	// cannot both win.
	RotateRefreshToken(ctx context.Context, id primitive.ObjectID, presented, next string) (bool, error)

	UpdatePassword(ctx context.Context, id primitive.ObjectID, digest string) error
	UpdateAccountDetails(ctx context.Context, id primitive.ObjectID, username, fullname, email string) (*models.User, error)
	UpdateAvatar(ctx context.Context, id primitive.ObjectID, url string) (*models.User, error)
	UpdateCoverImage(ctx context.Context, id primitive.ObjectID, url string) (*models.User, error)
	AddToWatchHistory(ctx context.Context, id, videoID primitive.ObjectID) error

	ChannelProfile(ctx context.Context, username string, viewer primitive.ObjectID) (*models.ChannelProfile, error)
	WatchHistory(ctx context.Context, id primitive.ObjectID) ([]models.WatchVideo, error)
}

// MongoUsers implements Users on the users/videos/subscriptions collections.
type MongoUsers struct {
	db *mongo.Database
}

func NewMongoUsers(db *mongo.Database) *MongoUsers {
	return &MongoUsers{db: db}
}

func (r *MongoUsers) users() *mongo.Collection {
	return r.db.Collection(database.UsersCollection)
}

func (r *MongoUsers) Create(ctx context.Context, user *models.User) (primitive.ObjectID, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	res, err := r.users().InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, ErrDuplicate
		}
		return primitive.NilObjectID, err
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("unexpected inserted id type")
	}
	return id, nil
}

func (r *MongoUsers) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.users().FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *MongoUsers) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	var user models.User
	filter := bson.M{"$or": bson.A{
		bson.M{"username": username},
		bson.M{"email": email},
	}}
	err := r.users().FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *MongoUsers) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"username": username},
		bson.M{"email": email},
	}}
	count, err := r.users().CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *MongoUsers) SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error {
	res, err := r.users().UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"refresh_token": token, "updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearRefreshToken unsets the stored token. Clearing an already-cleared
// token is not an error (logout is idempotent).
func (r *MongoUsers) ClearRefreshToken(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.users().UpdateByID(ctx, id, bson.M{
		"$unset": bson.M{"refresh_token": ""},
		"$set":   bson.M{"updated_at": time.Now()},
	})
	return err
}

func (r *MongoUsers) RotateRefreshToken(ctx context.Context, id primitive.ObjectID, presented, next string) (bool, error) {
	res, err := r.users().UpdateOne(ctx,
		bson.M{"_id": id, "refresh_token": presented},
		bson.M{"$set": bson.M{"refresh_token": next, "updated_at": time.Now()}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (r *MongoUsers) UpdatePassword(ctx context.Context, id primitive.ObjectID, digest string) error {
	res, err := r.users().UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"password": digest, "updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoUsers) updateAndReturn(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error) {
	set["updated_at"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	err := r.users().FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &user, nil
}

func (r *MongoUsers) UpdateAccountDetails(ctx context.Context, id primitive.ObjectID, username, fullname, email string) (*models.User, error) {
	return r.updateAndReturn(ctx, id, bson.M{
		"username": username,
		"fullname": fullname,
		"email":    email,
	})
}

func (r *MongoUsers) UpdateAvatar(ctx context.Context, id primitive.ObjectID, url string) (*models.User, error) {
	return r.updateAndReturn(ctx, id, bson.M{"avatar": url})
}

func (r *MongoUsers) UpdateCoverImage(ctx context.Context, id primitive.ObjectID, url string) (*models.User, error) {
	return r.updateAndReturn(ctx, id, bson.M{"cover_image": url})
}

// AddToWatchHistory records a view at the front of the list, removing any
// older entry for the same video first so the list stays most-recent-first
// without duplicates.
func (r *MongoUsers) AddToWatchHistory(ctx context.Context, id, videoID primitive.ObjectID) error {
	_, err := r.users().UpdateByID(ctx, id, bson.M{
		"$pull": bson.M{"watch_history": videoID},
	})
	if err != nil {
		return err
	}
	res, err := r.users().UpdateByID(ctx, id, bson.M{
		"$push": bson.M{"watch_history": bson.M{
			"$each":     bson.A{videoID},
			"$position": 0,
		}},
		"$set": bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ChannelProfile joins the subscription edges twice: once as the channel
// side (subscriber count, isSubscribed) and once as the subscriber side
// (channels-subscribed-to count).
func (r *MongoUsers) ChannelProfile(ctx context.Context, username string, viewer primitive.ObjectID) (*models.ChannelProfile, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"username": username}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         database.SubscriptionsCollection,
			"localField":   "_id",
			"foreignField": "channel",
			"as":           "subscribers",
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         database.SubscriptionsCollection,
			"localField":   "_id",
			"foreignField": "subscriber",
			"as":           "subscribed_to",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"subscribers_count":            bson.M{"$size": "$subscribers"},
			"channels_subscribed_to_count": bson.M{"$size": "$subscribed_to"},
			"is_subscribed": bson.M{"$cond": bson.M{
				"if":   bson.M{"$in": bson.A{viewer, "$subscribers.subscriber"}},
				"then": true,
				"else": false,
			}},
		}}},
		{{Key: "$project", Value: bson.M{
			"username":                     1,
			"fullname":                     1,
			"email":                        1,
			"avatar":                       1,
			"cover_image":                  1,
			"subscribers_count":            1,
			"channels_subscribed_to_count": 1,
			"is_subscribed":                1,
		}}},
	}

	cursor, err := r.users().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var profiles []models.ChannelProfile
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, ErrNotFound
	}
	return &profiles[0], nil
}

// WatchHistory resolves the user's watch-history references against the
// video collection, joining each video's owner and collapsing the owner
// array to its first element.
func (r *MongoUsers) WatchHistory(ctx context.Context, id primitive.ObjectID) ([]models.WatchVideo, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": id}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         database.VideosCollection,
			"localField":   "watch_history",
			"foreignField": "_id",
			"as":           "watch_history",
			"pipeline": bson.A{
				bson.M{"$lookup": bson.M{
					"from":         database.UsersCollection,
					"localField":   "owner",
					"foreignField": "_id",
					"as":           "owner",
					"pipeline": bson.A{
						bson.M{"$project": bson.M{
							"fullname": 1,
							"username": 1,
							"avatar":   1,
						}},
					},
				}},
				bson.M{"$addFields": bson.M{
					"owner": bson.M{"$first": "$owner"},
				}},
			},
		}}},
	}

	cursor, err := r.users().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []struct {
		WatchHistory []models.WatchVideo `bson:"watch_history"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	return results[0].WatchHistory, nil
}
