package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subscription is a directed subscriber→channel edge. There is no uniqueness
// constraint on (subscriber, channel); counts count edges.
type Subscription struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`

	Subscriber primitive.ObjectID `bson:"subscriber" json:"subscriber"`
	Channel    primitive.ObjectID `bson:"channel" json:"channel"`
}

// ChannelProfile is the projection returned by the channel-profile
// aggregation: user fields plus subscription counts for the viewer.
type ChannelProfile struct {
	ID                   primitive.ObjectID `bson:"_id" json:"id"`
	Username             string             `bson:"username" json:"username"`
	Fullname             string             `bson:"fullname" json:"fullname"`
	Email                string             `bson:"email" json:"email"`
	Avatar               string             `bson:"avatar" json:"avatar"`
	CoverImage           string             `bson:"cover_image,omitempty" json:"cover_image,omitempty"`
	SubscribersCount     int64              `bson:"subscribers_count" json:"subscribers_count"`
	ChannelsSubscribedTo int64              `bson:"channels_subscribed_to_count" json:"channels_subscribed_to_count"`
	IsSubscribed         bool               `bson:"is_subscribed" json:"is_subscribed"`
}
