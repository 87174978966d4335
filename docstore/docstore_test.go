package docstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"hackconnect/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// runStoreSuite exercises the Store contract against any implementation.
func runStoreSuite(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		_, err := s.Get(ctx, "Events", "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("add then get", func(t *testing.T) {
		id, err := s.Add(ctx, "Events", Document{"title": "HackNight"})
		require.NoError(t, err)
		require.NotEmpty(t, id)

		snap, err := s.Get(ctx, "Events", id)
		require.NoError(t, err)
		assert.Equal(t, id, snap.ID)
		assert.Equal(t, "HackNight", snap.Data["title"])
	})

	t.Run("set replaces", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "Tickets", "t1", Document{"status": "active", "tierName": "GA"}))
		require.NoError(t, s.Set(ctx, "Tickets", "t1", Document{"status": "checkedIn"}))

		snap, err := s.Get(ctx, "Tickets", "t1")
		require.NoError(t, err)
		assert.Equal(t, "checkedIn", snap.Data["status"])
		assert.NotContains(t, snap.Data, "tierName")
	})

	t.Run("create is exclusive", func(t *testing.T) {
		require.NoError(t, s.Create(ctx, "Wallets", "0xA", Document{"username": "0xA"}))
		err := s.Create(ctx, "Wallets", "0xA", Document{"username": "other"})
		assert.ErrorIs(t, err, ErrAlreadyExists)

		snap, err := s.Get(ctx, "Wallets", "0xA")
		require.NoError(t, err)
		assert.Equal(t, "0xA", snap.Data["username"])
	})

	t.Run("update", func(t *testing.T) {
		assert.ErrorIs(t, s.Update(ctx, "Wallets", "missing", Document{"x": 1}), ErrNotFound)

		require.NoError(t, s.Set(ctx, "Wallets", "0xB", Document{"username": "b", "reputation": 1}))
		require.NoError(t, s.Update(ctx, "Wallets", "0xB", Document{"reputation": 2}))

		snap, err := s.Get(ctx, "Wallets", "0xB")
		require.NoError(t, err)
		assert.Equal(t, "b", snap.Data["username"])
		assert.Equal(t, 2, models.AsInt(snap.Data["reputation"]))
	})

	t.Run("find with filters and limit", func(t *testing.T) {
		coll := "Find-" + uuid.NewString()
		for i := 0; i < 4; i++ {
			wallet := "0xW"
			if i == 3 {
				wallet = "0xZ"
			}
			_, err := s.Add(ctx, coll, Document{"walletAddress": wallet, "eventId": fmt.Sprintf("E%d", i%2)})
			require.NoError(t, err)
		}

		all, err := s.Find(ctx, coll, Query{})
		require.NoError(t, err)
		assert.Len(t, all, 4)

		mine, err := s.Find(ctx, coll, Where("walletAddress", "0xW"))
		require.NoError(t, err)
		assert.Len(t, mine, 3)

		both, err := s.Find(ctx, coll, Where("walletAddress", "0xW").And("eventId", "E0"))
		require.NoError(t, err)
		assert.Len(t, both, 2)

		one, err := s.Find(ctx, coll, Where("walletAddress", "0xW").WithLimit(1))
		require.NoError(t, err)
		assert.Len(t, one, 1)

		none, err := s.Find(ctx, coll, Where("walletAddress", "0xQ"))
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("transact", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "Events", "E1", Document{"sold": 0}))

		err := s.Transact(ctx, "Events", "E1", func(d Document) (Document, error) {
			d["sold"] = models.AsInt(d["sold"]) + 1
			return d, nil
		})
		require.NoError(t, err)

		boom := errors.New("abort")
		err = s.Transact(ctx, "Events", "E1", func(d Document) (Document, error) {
			d["sold"] = 100
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)

		snap, err := s.Get(ctx, "Events", "E1")
		require.NoError(t, err)
		assert.Equal(t, 1, models.AsInt(snap.Data["sold"]))

		err = s.Transact(ctx, "Events", "missing", func(d Document) (Document, error) { return d, nil })
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, NewMemory())
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Set(ctx, "Events", "E", Document{"tiers": []any{Document{"tierName": "GA"}}}))

	snap, err := s.Get(ctx, "Events", "E")
	require.NoError(t, err)
	snap.Data["tiers"].([]any)[0].(Document)["tierName"] = "mutated"

	again, err := s.Get(ctx, "Events", "E")
	require.NoError(t, err)
	assert.Equal(t, "GA", again.Data["tiers"].([]any)[0].(Document)["tierName"])
}

func TestMemoryTransactIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Set(ctx, "Events", "E", Document{"sold": 0}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Transact(ctx, "Events", "E", func(d Document) (Document, error) {
				d["sold"] = models.AsInt(d["sold"]) + 1
				return d, nil
			})
		}()
	}
	wg.Wait()

	snap, err := s.Get(ctx, "Events", "E")
	require.NoError(t, err)
	assert.Equal(t, 50, models.AsInt(snap.Data["sold"]))
}

func TestMemoryHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemory().Get(ctx, "Events", "E")
	assert.ErrorIs(t, err, context.Canceled)
}

// TestMongoStore runs against a real server when MONGO_TEST_URI is set.
func TestMongoStore(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	db := client.Database("hackconnect_test_" + uuid.NewString()[:8])
	t.Cleanup(func() { _ = db.Drop(context.Background()) })

	runStoreSuite(t, NewMongo(db))
}
