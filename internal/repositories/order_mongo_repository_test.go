package repositories_test

import (
	"context"
	"fmt"
	"testing"

	"storefront/internal/repositories"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func TestMongoOrderRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping MongoDB container test in short mode")
	}
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	dbIndex := 0
	runOrderRepositoryContract(t, func(t *testing.T) repositories.OrderRepository {
		dbIndex++
		db, err := repositories.ConnectMongoDB(ctx, uri, fmt.Sprintf("orders_test_%d", dbIndex))
		require.NoError(t, err)
		t.Cleanup(func() {
			_ = db.Drop(ctx)
			_ = db.Client().Disconnect(ctx)
		})

		repo := repositories.NewMongoOrderRepository(db)
		require.NoError(t, repo.CreateIndexes(ctx))
		return repo
	})
}
