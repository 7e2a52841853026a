package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	domaingames "pickup-games/internal/domain/games"
	domainusers "pickup-games/internal/domain/users"
)

const (
	gamesCollection = "games"
	usersCollection = "users"

	duplicateKeyCode = 11000
)

// MongoStore persists games and users in MongoDB. Writes are conditional on the
// stored version so two racing mutations of one document cannot both land.
type MongoStore struct {
	client *mongo.Client
	games  *mongo.Collection
	users  *mongo.Collection
}

// NewMongoStore connects to uri and uses database for both collections.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	db := client.Database(database)
	s := &MongoStore{
		client: client,
		games:  db.Collection(gamesCollection),
		users:  db.Collection(usersCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.games.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "startsAt", Value: 1}}},
		{Keys: bson.D{{Key: "hostId", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("mongo indexes: %w", err)
	}
	return nil
}

// Ping checks connectivity against the primary.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) CreateGame(ctx context.Context, g domaingames.Game) (domaingames.Game, error) {
	g = g.Clone()
	g.Version = 1
	if _, err := s.games.InsertOne(ctx, g); err != nil {
		if isDuplicateKey(err) {
			return domaingames.Game{}, ErrAlreadyExists
		}
		return domaingames.Game{}, fmt.Errorf("insert game: %w", err)
	}
	return g, nil
}

func (s *MongoStore) GetGame(ctx context.Context, id string) (domaingames.Game, error) {
	var g domaingames.Game
	err := s.games.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&g)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domaingames.Game{}, ErrNotFound
	}
	if err != nil {
		return domaingames.Game{}, fmt.Errorf("find game: %w", err)
	}
	return g, nil
}

func (s *MongoStore) ListGames(ctx context.Context, filter GameFilter) ([]domaingames.Game, error) {
	query := bson.D{}
	if filter.HostID != "" {
		query = append(query, bson.E{Key: "hostId", Value: filter.HostID})
	}
	if len(filter.Statuses) > 0 {
		query = append(query, bson.E{Key: "status", Value: bson.D{{Key: "$in", Value: filter.Statuses}}})
	}
	opts := options.Find().SetSort(bson.D{{Key: "startsAt", Value: 1}, {Key: "_id", Value: 1}})

	cur, err := s.games.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find games: %w", err)
	}
	games := make([]domaingames.Game, 0)
	if err := cur.All(ctx, &games); err != nil {
		return nil, fmt.Errorf("decode games: %w", err)
	}
	return games, nil
}

// UpdateGame replaces the document only while it still carries g.Version.
func (s *MongoStore) UpdateGame(ctx context.Context, g domaingames.Game) (domaingames.Game, error) {
	expected := g.Version
	next := g.Clone()
	next.Version = expected + 1

	res, err := s.games.ReplaceOne(ctx, bson.D{{Key: "_id", Value: g.ID}, {Key: "version", Value: expected}}, next)
	if err != nil {
		return domaingames.Game{}, fmt.Errorf("replace game: %w", err)
	}
	if res.MatchedCount == 0 {
		return domaingames.Game{}, s.missOrConflict(ctx, s.games, g.ID)
	}
	return next, nil
}

func (s *MongoStore) GetUser(ctx context.Context, id string) (domainusers.User, error) {
	var u domainusers.User
	err := s.users.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domainusers.User{}, ErrNotFound
	}
	if err != nil {
		return domainusers.User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (s *MongoStore) ListUsers(ctx context.Context) ([]domainusers.User, error) {
	cur, err := s.users.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	users := make([]domainusers.User, 0)
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

// SaveUser writes u conditionally on u.Version. Version 0 inserts; a concurrent
// insert of the same id surfaces as a duplicate key and maps to ErrVersionConflict.
func (s *MongoStore) SaveUser(ctx context.Context, u domainusers.User) (domainusers.User, error) {
	expected := u.Version
	next := u.Clone()
	next.Version = expected + 1

	if expected == 0 {
		if _, err := s.users.InsertOne(ctx, next); err != nil {
			if isDuplicateKey(err) {
				return domainusers.User{}, ErrVersionConflict
			}
			return domainusers.User{}, fmt.Errorf("insert user: %w", err)
		}
		return next, nil
	}

	res, err := s.users.ReplaceOne(ctx, bson.D{{Key: "_id", Value: u.ID}, {Key: "version", Value: expected}}, next)
	if err != nil {
		return domainusers.User{}, fmt.Errorf("replace user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domainusers.User{}, s.missOrConflict(ctx, s.users, u.ID)
	}
	return next, nil
}

// missOrConflict tells a lost race apart from a missing document after a
// conditional write matched nothing.
func (s *MongoStore) missOrConflict(ctx context.Context, coll *mongo.Collection, id string) error {
	n, err := coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("count %s: %w", coll.Name(), err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrVersionConflict
}

func isDuplicateKey(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == duplicateKeyCode {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		return ce.Code == duplicateKeyCode
	}
	return false
}
