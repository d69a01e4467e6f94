package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"collab-server/core"

	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connect opens a client and verifies the connection with a ping. The caller
// owns the client and should Disconnect it on shutdown.
func Connect(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// documentStore persists documents with a string _id, mirroring the records
// the frontend already knows. Updates are unconditional $set writes.
type documentStore struct {
	col *mongo.Collection
}

func NewDocumentStore(col *mongo.Collection) core.DocumentStore {
	return &documentStore{col: col}
}

func (s *documentStore) List(ctx context.Context) ([]core.Document, error) {
	cur, err := s.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	docs := []core.Document{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *documentStore) Create(ctx context.Context, title string) (*core.Document, error) {
	now := time.Now().UTC()
	doc := core.Document{
		ID:        ulid.Make().String(),
		Title:     title,
		Content:   map[string]any{"text": ""},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *documentStore) Get(ctx context.Context, id string) (*core.Document, error) {
	var doc core.Document
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *documentStore) UpdateContent(ctx context.Context, id string, content map[string]any) (*core.Document, error) {
	update := bson.M{"$set": bson.M{"content": content, "updatedAt": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc core.Document
	err := s.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *documentStore) Delete(ctx context.Context, id string) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return core.ErrNotFound
	}
	return nil
}

type whiteboardStore struct {
	col *mongo.Collection
}

func NewWhiteboardStore(col *mongo.Collection) core.WhiteboardStore {
	return &whiteboardStore{col: col}
}

func (s *whiteboardStore) List(ctx context.Context) ([]core.Whiteboard, error) {
	cur, err := s.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	boards := []core.Whiteboard{}
	if err := cur.All(ctx, &boards); err != nil {
		return nil, err
	}
	return boards, nil
}

func (s *whiteboardStore) Create(ctx context.Context, title string) (*core.Whiteboard, error) {
	now := time.Now().UTC()
	wb := core.Whiteboard{
		ID:        ulid.Make().String(),
		Title:     title,
		Elements:  []any{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.col.InsertOne(ctx, wb); err != nil {
		return nil, err
	}
	return &wb, nil
}

func (s *whiteboardStore) Get(ctx context.Context, id string) (*core.Whiteboard, error) {
	var wb core.Whiteboard
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&wb)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if wb.Elements == nil {
		wb.Elements = []any{}
	}
	return &wb, nil
}

func (s *whiteboardStore) UpdateElements(ctx context.Context, id string, elements []any) (*core.Whiteboard, error) {
	update := bson.M{"$set": bson.M{"elements": elements, "updatedAt": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var wb core.Whiteboard
	err := s.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&wb)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &wb, nil
}

func (s *whiteboardStore) Delete(ctx context.Context, id string) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return core.ErrNotFound
	}
	return nil
}
