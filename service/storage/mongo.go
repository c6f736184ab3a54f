package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collUsers          = "users"
	collChannelMembers = "channel_members"
	collMessages       = "messages"
	collReactions      = "message_reactions"
)

// MongoStore implements Store on MongoDB.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "mongo connect")
	}
	if err := cli.Ping(ctx, nil); err != nil {
		return nil, errors.Wrap(err, "mongo ping")
	}
	s := &MongoStore{db: cli.Database(dbName)}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(collChannelMembers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "channel_id", Value: 1}, {Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return errors.Wrap(err, "index channel_members")
	}
	_, err = s.db.Collection(collReactions).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "message_id", Value: 1}, {Key: "user_id", Value: 1}, {Key: "emoji", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return errors.Wrap(err, "index message_reactions")
	}
	_, err = s.db.Collection(collMessages).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "channel_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return errors.Wrap(err, "index messages")
}

func (s *MongoStore) IsChannelMember(ctx context.Context, channelID, userID string) (bool, error) {
	n, err := s.db.Collection(collChannelMembers).CountDocuments(ctx,
		bson.M{"channel_id": channelID, "user_id": userID},
		options.Count().SetLimit(1))
	if err != nil {
		return false, errors.Wrap(err, "count channel_members")
	}
	return n > 0, nil
}

func (s *MongoStore) ChannelsOfUser(ctx context.Context, userID string) ([]string, error) {
	cur, err := s.db.Collection(collChannelMembers).Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, errors.Wrap(err, "find channel_members")
	}
	defer cur.Close(ctx)

	var out []string
	for cur.Next(ctx) {
		var row ChannelMember
		if err := cur.Decode(&row); err != nil {
			return nil, errors.Wrap(err, "decode channel_member")
		}
		out = append(out, row.ChannelID)
	}
	return out, errors.Wrap(cur.Err(), "cursor channel_members")
}

func (s *MongoStore) SaveMessage(ctx context.Context, m *Message) error {
	_, err := s.db.Collection(collMessages).InsertOne(ctx, m)
	return errors.Wrap(err, "insert message")
}

func (s *MongoStore) GetMessage(ctx context.Context, messageID string) (*Message, error) {
	var m Message
	err := s.db.Collection(collMessages).FindOne(ctx, bson.M{"_id": messageID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, NotFound("message")
	}
	if err != nil {
		return nil, errors.Wrap(err, "find message")
	}
	return &m, nil
}

func (s *MongoStore) UpdateMessageContent(ctx context.Context, messageID, content string, at time.Time) error {
	res, err := s.db.Collection(collMessages).UpdateOne(ctx,
		bson.M{"_id": messageID},
		bson.M{"$set": bson.M{"content": content, "updated_at": at}})
	if err != nil {
		return errors.Wrap(err, "update message")
	}
	if res.MatchedCount == 0 {
		return NotFound("message")
	}
	return nil
}

func (s *MongoStore) DeleteMessage(ctx context.Context, messageID string) error {
	_, err := s.db.Collection(collReactions).DeleteMany(ctx, bson.M{"message_id": messageID})
	if err != nil {
		return errors.Wrap(err, "delete message reactions")
	}
	res, err := s.db.Collection(collMessages).DeleteOne(ctx, bson.M{"_id": messageID})
	if err != nil {
		return errors.Wrap(err, "delete message")
	}
	if res.DeletedCount == 0 {
		return NotFound("message")
	}
	return nil
}

func (s *MongoStore) AddReaction(ctx context.Context, r *Reaction) error {
	_, err := s.db.Collection(collReactions).UpdateOne(ctx,
		bson.M{"message_id": r.MessageID, "user_id": r.UserID, "emoji": r.Emoji},
		bson.M{"$setOnInsert": r},
		options.Update().SetUpsert(true))
	return errors.Wrap(err, "upsert reaction")
}

func (s *MongoStore) RemoveReaction(ctx context.Context, messageID, userID, emoji string) (bool, error) {
	res, err := s.db.Collection(collReactions).DeleteOne(ctx,
		bson.M{"message_id": messageID, "user_id": userID, "emoji": emoji})
	if err != nil {
		return false, errors.Wrap(err, "delete reaction")
	}
	return res.DeletedCount > 0, nil
}

func (s *MongoStore) FindUserByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := s.db.Collection(collUsers).FindOne(ctx, bson.M{"username": username}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, NotFound("user")
	}
	if err != nil {
		return nil, errors.Wrap(err, "find user")
	}
	return &u, nil
}

func (s *MongoStore) UpdateUserStatus(ctx context.Context, userID, status, customStatus string, at time.Time) error {
	_, err := s.db.Collection(collUsers).UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"status": status, "custom_status": customStatus, "updated_at": at}})
	return errors.Wrap(err, "update user status")
}
