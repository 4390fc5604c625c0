package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/duetchat/duet/internal/domain"
)

const (
	colUsers         = "users"
	colConversations = "conversations"
	colMessages      = "messages"
)

type Mongo struct {
	db *mongo.Database
}

// OpenMongo connects, pings, and ensures the indexes the relay's hot
// queries depend on (recipient+created_at for missed-message delivery,
// participants for conversation resolution).
func OpenMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetMaxPoolSize(20))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	m := &Mongo{db: client.Database(database)}
	if err := m.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	_, err := m.db.Collection(colMessages).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "created_at", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("messages index: %w", err)
	}
	_, err = m.db.Collection(colConversations).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "participants", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("conversations index: %w", err)
	}
	_, err = m.db.Collection(colUsers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("users index: %w", err)
	}
	return nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.db.Client().Disconnect(ctx)
}

func (m *Mongo) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	return m.findUser(ctx, bson.M{"_id": id})
}

func (m *Mongo) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return m.findUser(ctx, bson.M{"username": username})
}

func (m *Mongo) findUser(ctx context.Context, filter bson.M) (*domain.User, error) {
	var u domain.User
	err := m.db.Collection(colUsers).FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (m *Mongo) FindConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	var c domain.Conversation
	err := m.db.Collection(colConversations).FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	return &c, nil
}

func (m *Mongo) FindConversationByParticipants(ctx context.Context, a, b string) (*domain.Conversation, error) {
	var c domain.Conversation
	filter := bson.M{"participants": bson.M{"$all": bson.A{a, b}}}
	err := m.db.Collection(colConversations).FindOne(ctx, filter).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find conversation by participants: %w", err)
	}
	return &c, nil
}

func (m *Mongo) CreateConversation(ctx context.Context, conv *domain.Conversation) error {
	if conv.ID == "" {
		conv.ID = primitive.NewObjectID().Hex()
	}
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = time.Now()
	}
	if _, err := m.db.Collection(colConversations).InsertOne(ctx, conv); err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}
	return nil
}

func (m *Mongo) SaveMessage(ctx context.Context, msg *domain.Message) error {
	if msg.ID == "" {
		msg.ID = primitive.NewObjectID().Hex()
	}
	if _, err := m.db.Collection(colMessages).InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("save message: %w", err)
	}
	return nil
}

func (m *Mongo) UpdateConversationLastMessage(ctx context.Context, convID, msgID string, at time.Time) error {
	res, err := m.db.Collection(colConversations).UpdateOne(ctx,
		bson.M{"_id": convID},
		bson.M{"$set": bson.M{"last_message_id": msgID, "last_message_at": at}},
	)
	if err != nil {
		return fmt.Errorf("update conversation: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) FindMissedMessages(ctx context.Context, recipient string, since time.Time) ([]domain.Message, error) {
	filter := bson.M{"recipient": recipient, "created_at": bson.M{"$gte": since}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := m.db.Collection(colMessages).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find missed messages: %w", err)
	}
	defer cur.Close(ctx)
	var out []domain.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode missed messages: %w", err)
	}
	return out, nil
}
