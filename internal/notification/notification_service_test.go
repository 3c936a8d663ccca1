package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go-timeoff/internal/shared/counter"
	"go-timeoff/internal/store"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepo struct {
	createFn      func(ctx context.Context, n *Notification) error
	findAllFn     func(ctx context.Context, companyID string) ([]Notification, error)
	markHandledFn func(ctx context.Context, companyID, recordID string) (int64, error)
}

func (f *fakeRepo) Create(ctx context.Context, n *Notification) error {
	return f.createFn(ctx, n)
}

func (f *fakeRepo) FindAllByCompany(ctx context.Context, companyID string) ([]Notification, error) {
	return f.findAllFn(ctx, companyID)
}

func (f *fakeRepo) MarkHandledByRecordID(ctx context.Context, companyID, recordID string) (int64, error) {
	return f.markHandledFn(ctx, companyID, recordID)
}

type fakeCounter struct {
	nextFn func(ctx context.Context, companyID, counterType string) (int64, error)
}

func (f *fakeCounter) GetNextValue(ctx context.Context, companyID string, counterType string) (int64, error) {
	return f.nextFn(ctx, companyID, counterType)
}

func TestNotificationService_Create(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.NewString()
	employeeID := uuid.NewString()
	recordID := uuid.NewString()

	t.Run("stamps the next sequence and signals the company channel", func(t *testing.T) {
		var persisted *Notification
		repo := &fakeRepo{
			createFn: func(ctx context.Context, n *Notification) error {
				persisted = n
				return nil
			},
		}
		fakeSeq := &fakeCounter{
			nextFn: func(ctx context.Context, cid, counterType string) (int64, error) {
				assert.Equal(t, companyID, cid)
				assert.Equal(t, counter.SeqNotification, counterType)
				return 42, nil
			},
		}
		rdb, redisMock := redismock.NewClientMock()
		redisMock.ExpectDel(GetListKey(companyID)).SetVal(1)

		feed := store.NewMemoryChangeFeed()
		sub, err := feed.Subscribe(ctx, store.CompanyScope(store.CollectionNotifications, companyID))
		require.NoError(t, err)
		defer sub.Close()

		svc := NewService(repo, fakeSeq, feed, rdb, zap.NewNop())

		resp, err := svc.Create(ctx, companyID, NewNotification{
			EmployeeID:         employeeID,
			Type:               TypeCallOut,
			Message:            "Alice called out on 2026-08-27: flu",
			AttendanceRecordID: &recordID,
		})

		require.NoError(t, err)
		assert.Equal(t, int64(42), resp.Seq)
		assert.False(t, resp.Handled)
		require.NotNil(t, resp.AttendanceRecordID)
		assert.Equal(t, recordID, *resp.AttendanceRecordID)

		require.NotNil(t, persisted)
		assert.Equal(t, int64(42), persisted.Seq)
		assert.Equal(t, employeeID, persisted.EmployeeID.String())

		select {
		case <-sub.Changes:
		case <-time.After(time.Second):
			t.Fatal("expected a change signal on the company channel")
		}
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("counter failure aborts before persisting", func(t *testing.T) {
		repo := &fakeRepo{
			createFn: func(ctx context.Context, n *Notification) error {
				t.Fatal("repo must not be called when the counter fails")
				return nil
			},
		}
		fakeSeq := &fakeCounter{
			nextFn: func(ctx context.Context, cid, counterType string) (int64, error) {
				return 0, errors.New("counter unavailable")
			},
		}
		svc := NewService(repo, fakeSeq, store.NewMemoryChangeFeed(), nil, zap.NewNop())

		_, err := svc.Create(ctx, companyID, NewNotification{
			EmployeeID: employeeID,
			Type:       TypePtoRequest,
			Message:    "Alice requested vacation leave from 2026-09-01 to 2026-09-03",
		})
		assert.Error(t, err)
	})

	t.Run("rejects a malformed record reference", func(t *testing.T) {
		bad := "not-a-uuid"
		repo := &fakeRepo{
			createFn: func(ctx context.Context, n *Notification) error { return nil },
		}
		fakeSeq := &fakeCounter{
			nextFn: func(ctx context.Context, cid, counterType string) (int64, error) { return 1, nil },
		}
		svc := NewService(repo, fakeSeq, store.NewMemoryChangeFeed(), nil, zap.NewNop())

		_, err := svc.Create(ctx, companyID, NewNotification{
			EmployeeID:         employeeID,
			Type:               TypeCallOut,
			Message:            "msg",
			AttendanceRecordID: &bad,
		})
		assert.Error(t, err)
	})
}

func TestNotificationService_List(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.NewString()
	cacheKey := GetListKey(companyID)

	t.Run("cache hit skips the repository", func(t *testing.T) {
		cached := []NotificationResponse{
			{ID: uuid.NewString(), Message: "cached", Seq: 7},
		}
		payload, _ := json.Marshal(cached)

		rdb, redisMock := redismock.NewClientMock()
		redisMock.ExpectGet(cacheKey).SetVal(string(payload))

		repo := &fakeRepo{
			findAllFn: func(ctx context.Context, cid string) ([]Notification, error) {
				t.Fatal("repository must not be hit on a cache hit")
				return nil, nil
			},
		}
		svc := NewService(repo, &fakeCounter{}, nil, rdb, zap.NewNop())

		resp, err := svc.List(ctx, companyID)
		require.NoError(t, err)
		require.Len(t, resp, 1)
		assert.Equal(t, "cached", resp[0].Message)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("cache miss reads the database and repopulates", func(t *testing.T) {
		rows := []Notification{
			{
				ID:         uuid.New(),
				CompanyID:  uuid.MustParse(companyID),
				EmployeeID: uuid.New(),
				Type:       TypePtoStatusUpdate,
				Message:    "your vacation leave request (2026-09-01 to 2026-09-03) was approved",
				Seq:        9,
				CreatedAt:  time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC),
			},
		}
		expected, _ := json.Marshal(mapToListResponse(rows))

		rdb, redisMock := redismock.NewClientMock()
		redisMock.ExpectGet(cacheKey).RedisNil()
		redisMock.ExpectSet(cacheKey, expected, 30*time.Second).SetVal("OK")

		repo := &fakeRepo{
			findAllFn: func(ctx context.Context, cid string) ([]Notification, error) {
				assert.Equal(t, companyID, cid)
				return rows, nil
			},
		}
		svc := NewService(repo, &fakeCounter{}, nil, rdb, zap.NewNop())

		resp, err := svc.List(ctx, companyID)
		require.NoError(t, err)
		require.Len(t, resp, 1)
		assert.Equal(t, int64(9), resp[0].Seq)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("database error surfaces", func(t *testing.T) {
		rdb, redisMock := redismock.NewClientMock()
		redisMock.ExpectGet(cacheKey).RedisNil()

		repo := &fakeRepo{
			findAllFn: func(ctx context.Context, cid string) ([]Notification, error) {
				return nil, errors.New("db down")
			},
		}
		svc := NewService(repo, &fakeCounter{}, nil, rdb, zap.NewNop())

		_, err := svc.List(ctx, companyID)
		assert.Error(t, err)
	})
}

func TestNotificationService_MarkHandledForRecord(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.NewString()
	recordID := uuid.NewString()

	t.Run("flips the flag and invalidates the list cache", func(t *testing.T) {
		repo := &fakeRepo{
			markHandledFn: func(ctx context.Context, cid, rid string) (int64, error) {
				assert.Equal(t, companyID, cid)
				assert.Equal(t, recordID, rid)
				return 1, nil
			},
		}
		rdb, redisMock := redismock.NewClientMock()
		redisMock.ExpectDel(GetListKey(companyID)).SetVal(1)

		svc := NewService(repo, &fakeCounter{}, store.NewMemoryChangeFeed(), rdb, zap.NewNop())

		handled, err := svc.MarkHandledForRecord(ctx, companyID, recordID)
		require.NoError(t, err)
		assert.True(t, handled)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("no matching notification is a quiet no-op", func(t *testing.T) {
		repo := &fakeRepo{
			markHandledFn: func(ctx context.Context, cid, rid string) (int64, error) {
				return 0, nil
			},
		}
		rdb, redisMock := redismock.NewClientMock()

		svc := NewService(repo, &fakeCounter{}, store.NewMemoryChangeFeed(), rdb, zap.NewNop())

		handled, err := svc.MarkHandledForRecord(ctx, companyID, recordID)
		require.NoError(t, err)
		assert.False(t, handled)
		// Nothing was updated, so nothing was invalidated.
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})
}
