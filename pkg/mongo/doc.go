// Package mongo provides MongoDB connection management for the storefront.
//
// Configuration comes from MONGODB_* environment variables. New connects and
// pings with exponential backoff so the service survives a database that
// starts a little later than the application.
//
// # Usage
//
//	db, err := mongo.NewWithDatabase(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Client().Disconnect(context.Background())
//
//	health := mongo.Healthcheck(db.Client())
//
// Collections and indexes are managed by pkg/storage/mongostore.
package mongo
