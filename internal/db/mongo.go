package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pubtagger/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const fieldDomain = "publication.domain"

type MongoDB struct {
	client   *mongo.Client
	articles *mongo.Collection
	timeout  time.Duration
}

// NewMongoDB connects and pings within 10s, or sooner if ctx is cancelled.
func NewMongoDB(ctx context.Context, cfg config.DBConfig, timeout time.Duration) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Connection))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("can't ping MongoDB: %w", err)
	}

	return &MongoDB{
		client:   client,
		articles: client.Database(cfg.Database).Collection(cfg.Collections.Articles),
		timeout:  timeout,
	}, nil
}

// NewMongoDBFromCollection wraps an already connected collection. Close is a
// no-op for stores built this way.
func NewMongoDBFromCollection(coll *mongo.Collection, timeout time.Duration) *MongoDB {
	return &MongoDB{articles: coll, timeout: timeout}
}

func (d *MongoDB) Close() error {
	if d.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return d.client.Disconnect(ctx)
}

func (d *MongoDB) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.timeout)
}

func domainIn(domains []string) bson.M {
	return bson.M{fieldDomain: bson.M{"$in": domains}}
}

// DeleteByDomains removes every article whose publication domain is one of
// domains, in a single bulk delete.
func (d *MongoDB) DeleteByDomains(ctx context.Context, domains []string) (int64, error) {
	if len(domains) == 0 {
		return 0, nil
	}
	ctx, cancel := d.opContext(ctx)
	defer cancel()

	res, err := d.articles.DeleteMany(ctx, domainIn(domains))
	if err != nil {
		return 0, fmt.Errorf("delete articles: %w", err)
	}
	return res.DeletedCount, nil
}

// TagDomain sets pub and adds tag to the tags set on every article from domain.
func (d *MongoDB) TagDomain(ctx context.Context, domain, pub, tag string) (matched, modified int64, err error) {
	ctx, cancel := d.opContext(ctx)
	defer cancel()

	filter := bson.M{fieldDomain: domain}
	update := bson.M{
		"$set":      bson.M{"pub": pub},
		"$addToSet": bson.M{"tags": tag},
	}

	res, err := d.articles.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, 0, fmt.Errorf("update articles for %s: %w", domain, err)
	}
	return res.MatchedCount, res.ModifiedCount, nil
}

func (d *MongoDB) CountByDomains(ctx context.Context, domains []string) (int64, error) {
	if len(domains) == 0 {
		return 0, nil
	}
	return d.count(ctx, domainIn(domains))
}

// CountUntagged counts the articles from domain that TagDomain would still
// change: wrong pub, or tag missing from tags.
func (d *MongoDB) CountUntagged(ctx context.Context, domain, pub, tag string) (int64, error) {
	return d.count(ctx, bson.M{
		fieldDomain: domain,
		"$or": bson.A{
			bson.M{"pub": bson.M{"$ne": pub}},
			bson.M{"tags": bson.M{"$ne": tag}},
		},
	})
}

func (d *MongoDB) CountByPub(ctx context.Context, pub string) (int64, error) {
	return d.count(ctx, bson.M{"pub": pub})
}

func (d *MongoDB) count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := d.opContext(ctx)
	defer cancel()

	n, err := d.articles.CountDocuments(ctx, filter)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, fmt.Errorf("count articles timed out after %s: %w", d.timeout, err)
		}
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return n, nil
}
