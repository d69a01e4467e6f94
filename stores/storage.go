package stores

import (
	"context"

	"collab-server/config"
	"collab-server/core"
	"collab-server/stores/memory"
	"collab-server/stores/mongo"
	"collab-server/stores/sqlite"

	"github.com/sirupsen/logrus"
)

// GetStore builds the document and whiteboard stores for the configured
// backend. Connection failures are fatal; the server is useless without
// its store.
func GetStore(ctx context.Context, cfg *config.Config) (core.DocumentStore, core.WhiteboardStore) {
	storageField := logrus.Fields{
		"storageType": cfg.StorageType,
	}

	switch cfg.StorageType {
	case "mongo":
		storageField["uri"] = cfg.Mongo.URI
		storageField["database"] = cfg.Mongo.Database
		client, err := mongo.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Timeout)
		if err != nil {
			logrus.WithFields(storageField).WithError(err).Fatal("Failed to connect to MongoDB")
		}
		db := client.Database(cfg.Mongo.Database)
		logrus.WithFields(storageField).Info("Use storage")
		return mongo.NewDocumentStore(db.Collection("documents")),
			mongo.NewWhiteboardStore(db.Collection("whiteboards"))
	case "sqlite":
		storageField["dataSourceName"] = cfg.DataSourceName
		db, err := sqlite.Open(cfg.DataSourceName)
		if err != nil {
			logrus.WithFields(storageField).WithError(err).Fatal("Failed to open sqlite database")
		}
		logrus.WithFields(storageField).Info("Use storage")
		return sqlite.NewDocumentStore(db), sqlite.NewWhiteboardStore(db)
	default:
		storageField["storageType"] = "in-memory"
		logrus.WithFields(storageField).Info("Use storage")
		return memory.NewDocumentStore(), memory.NewWhiteboardStore()
	}
}
