package store

import (
	"context"
	"fmt"
	"time"

	"github.com/AnshRaj112/commentwall-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const commentsCollection = "comments"

type mongoComment struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	CreatedAt   time.Time            `bson:"created_at"`
	Status      models.CommentStatus `bson:"status"`
	Content     string               `bson:"content"`
	AuthorID    *string              `bson:"author_id,omitempty"`
	DisplayName *string              `bson:"display_name,omitempty"`
	Email       string               `bson:"email,omitempty"`
}

func (d mongoComment) toModel() models.Comment {
	return models.Comment{
		ID:          d.ID.Hex(),
		CreatedAt:   d.CreatedAt,
		Status:      d.Status,
		Content:     d.Content,
		AuthorID:    d.AuthorID,
		DisplayName: d.DisplayName,
		Email:       d.Email,
	}
}

// MongoStore keeps comments in the comments collection.
type MongoStore struct {
	db  *mongo.Database
	col *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db, col: db.Collection(commentsCollection)}
}

// EnsureIndexes configures indexes for the comments collection.
// Called on startup after Mongo has connected.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_status_created_at"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_created_at"),
		},
	}
	_, err := s.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (s *MongoStore) Insert(ctx context.Context, c models.Comment) (*models.Comment, error) {
	if !c.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, c.Status)
	}
	doc := mongoComment{
		ID:          primitive.NewObjectID(),
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
		Status:      c.Status,
		Content:     c.Content,
		AuthorID:    c.AuthorID,
		DisplayName: c.DisplayName,
		Email:       c.Email,
	}
	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	stored := doc.toModel()
	return &stored, nil
}

func (s *MongoStore) QueryLatest(ctx context.Context, limit int, status models.CommentStatus) ([]models.Comment, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	return s.find(ctx, bson.M{"status": status}, opts)
}

func (s *MongoStore) QueryAll(ctx context.Context, orderDesc bool) ([]models.Comment, error) {
	dir := 1
	if orderDesc {
		dir = -1
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: dir}, {Key: "_id", Value: dir}})
	return s.find(ctx, bson.M{}, opts)
}

func (s *MongoStore) Count(ctx context.Context, status *models.CommentStatus) (int64, error) {
	filter := bson.M{}
	if status != nil {
		filter["status"] = *status
	}
	return s.col.CountDocuments(ctx, filter)
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

func (s *MongoStore) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Comment, error) {
	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []mongoComment
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	comments := make([]models.Comment, 0, len(docs))
	for _, d := range docs {
		comments = append(comments, d.toModel())
	}
	return comments, nil
}
