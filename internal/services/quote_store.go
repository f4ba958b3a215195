package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wefixit/wefixit-backend/internal/models"
)

// QuoteStore persists quote requests and their embedded replies.
type QuoteStore struct {
	col *mongo.Collection
}

func NewQuoteStore(db *mongo.Database) *QuoteStore {
	return &QuoteStore{col: db.Collection(QuotesCollection)}
}

// Create stores a new request with an empty reply list.
func (s *QuoteStore) Create(ctx context.Context, quote *models.Quote) error {
	quote.ID = primitive.NilObjectID
	quote.CreatedAt = time.Now().UTC()
	quote.Replies = []models.QuoteReply{}
	if quote.Features == nil {
		quote.Features = []string{}
	}

	res, err := s.col.InsertOne(ctx, quote)
	if err != nil {
		return fmt.Errorf("insert quote: %w", err)
	}
	quote.ID = objectID(res.InsertedID)
	return nil
}

// Get returns ErrNotFound for an unknown id.
func (s *QuoteStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Quote, error) {
	var quote models.Quote
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&quote)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find quote: %w", err)
	}
	return &quote, nil
}

// List returns requests newest first.
func (s *QuoteStore) List(ctx context.Context, opts models.ListOptions) (*models.Page[models.Quote], error) {
	total, err := s.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("count quotes: %w", err)
	}

	cursor, err := s.col.Find(ctx, bson.M{}, findOptions(opts.Limit, opts.Offset))
	if err != nil {
		return nil, fmt.Errorf("find quotes: %w", err)
	}
	defer cursor.Close(ctx)

	items := make([]models.Quote, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode quotes: %w", err)
	}
	for i := range items {
		if items[i].Replies == nil {
			items[i].Replies = []models.QuoteReply{}
		}
	}
	return &models.Page[models.Quote]{Items: items, Total: total, Limit: opts.Limit, Offset: opts.Offset}, nil
}

// Delete removes a request together with its replies.
func (s *QuoteStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete quote: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendReply pushes a new reply with a generated id and returns it.
func (s *QuoteStore) AppendReply(ctx context.Context, id primitive.ObjectID, content, admin string) (*models.QuoteReply, error) {
	reply := models.QuoteReply{
		ID:      uuid.NewString(),
		Content: content,
		SentAt:  models.FlexTime{Time: time.Now().UTC()},
		Admin:   admin,
	}

	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$push": bson.M{"replies": reply}})
	if err != nil {
		return nil, fmt.Errorf("append reply: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, ErrNotFound
	}
	return &reply, nil
}

// RemoveReply deletes one reply addressed by ref, which is either the
// reply's position in the list or its id. The removed reply is returned.
func (s *QuoteStore) RemoveReply(ctx context.Context, id primitive.ObjectID, ref string) (*models.QuoteReply, error) {
	quote, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	index, ok := ResolveReply(quote.Replies, ref)
	if !ok {
		return nil, ErrNotFound
	}
	target := quote.Replies[index]

	if target.ID != "" {
		res, err := s.col.UpdateOne(ctx,
			bson.M{"_id": id},
			bson.M{"$pull": bson.M{"replies": bson.M{"id": target.ID}}},
		)
		if err != nil {
			return nil, fmt.Errorf("remove reply: %w", err)
		}
		if res.ModifiedCount == 0 {
			return nil, ErrNotFound
		}
		return &target, nil
	}

	// Replies without an id can only be addressed by position; only write
	// if the list still has the shape that was read.
	remaining := make([]models.QuoteReply, 0, len(quote.Replies)-1)
	remaining = append(remaining, quote.Replies[:index]...)
	remaining = append(remaining, quote.Replies[index+1:]...)

	res, err := s.col.UpdateOne(ctx,
		bson.M{
			"_id":     id,
			"replies": bson.M{"$size": len(quote.Replies)},
			"replies." + strconv.Itoa(index) + ".content": target.Content,
		},
		bson.M{"$set": bson.M{"replies": remaining}},
	)
	if err != nil {
		return nil, fmt.Errorf("remove reply: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, ErrConflict
	}
	return &target, nil
}

// ResolveReply finds the reply addressed by ref: a non-negative position,
// or a reply id.
func ResolveReply(replies []models.QuoteReply, ref string) (int, bool) {
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 0 || n >= len(replies) {
			return 0, false
		}
		return n, true
	}
	for i, r := range replies {
		if r.ID != "" && r.ID == ref {
			return i, true
		}
	}
	return 0, false
}
