package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/wefixit/wefixit-backend/internal/logging"
)

const (
	connectTimeout         = 30 * time.Second
	pingTimeout            = 20 * time.Second
	serverSelectionTimeout = 20 * time.Second
)

// Connect opens a MongoDB client and verifies it with a ping. When the
// given URI fails and is an SRV URI, one more attempt is made with the
// equivalent standard "mongodb://" URI before giving up.
func Connect(ctx context.Context, mongoURI string, logger *logrus.Logger) (*mongo.Client, error) {
	client, err := connect(ctx, mongoURI)
	if err == nil {
		logger.Info("Connected to MongoDB")
		return client, nil
	}
	logger.WithError(err).WithField("uri", logging.MaskURI(mongoURI)).Error("MongoDB connection failed")

	fallback, ok := StandardURI(mongoURI)
	if !ok {
		return nil, err
	}

	logger.WithField("uri", logging.MaskURI(fallback)).Warn("Retrying MongoDB with standard connection string")
	client, fallbackErr := connect(ctx, fallback)
	if fallbackErr != nil {
		return nil, fmt.Errorf("mongo connect (srv: %v): %w", err, fallbackErr)
	}
	logger.Info("Connected to MongoDB using standard URI fallback")
	return client, nil
}

// StandardURI rewrites a mongodb+srv:// URI to mongodb://. It reports false
// when the URI is not an SRV URI.
func StandardURI(mongoURI string) (string, bool) {
	const srv = "mongodb+srv://"
	if !strings.HasPrefix(mongoURI, srv) {
		return "", false
	}
	return "mongodb://" + strings.TrimPrefix(mongoURI, srv), true
}

func connect(ctx context.Context, mongoURI string) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(mongoURI).
		SetServerSelectionTimeout(serverSelectionTimeout)

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, err
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, pingTimeout)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// Disconnect closes the client with a bounded wait.
func Disconnect(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return client.Disconnect(ctx)
}
