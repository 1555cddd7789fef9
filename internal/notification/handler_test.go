package notification_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nonconf/internal/notification"
	id "nonconf/pkg/domain"
	"nonconf/pkg/testutil"
)

func newRouter(store notification.Store) chi.Router {
	router := chi.NewRouter()
	notification.NewHandler(store).Register(router)
	return router
}

func seedNotification(t *testing.T, store notification.Store, userID id.UserID) *notification.Notification {
	t.Helper()
	row := &notification.Notification{
		ID:        id.NewNotificationID(),
		UserID:    userID,
		RecordID:  id.NewRecordID(),
		Title:     "RNC #42 assigned to you",
		Message:   "you were assigned record 42",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Create(t.Context(), row))
	return row
}

func TestHandleList(t *testing.T) {
	store := notification.NewInMemory()
	router := newRouter(store)
	userID := id.NewUserID()
	seedNotification(t, store, userID)
	seedNotification(t, store, id.NewUserID()) // someone else's row

	t.Run("requires authentication", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/notifications"))
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	t.Run("lists only the actor's rows", func(t *testing.T) {
		req := testutil.WithUser(testutil.NewRequest(t, http.MethodGet, "/notifications"), userID)
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusOK(t, rr)
		rows := testutil.UnmarshalResponse[[]notification.NotificationResponse](t, rr)
		require.Len(t, *rows, 1)
		assert.Equal(t, "RNC #42 assigned to you", (*rows)[0].Title)
		assert.False(t, (*rows)[0].Read)
	})
}

func TestHandleMarkRead(t *testing.T) {
	store := notification.NewInMemory()
	router := newRouter(store)
	userID := id.NewUserID()
	row := seedNotification(t, store, userID)

	t.Run("recipient marks the row read", func(t *testing.T) {
		req := testutil.WithUser(testutil.NewRequest(t, http.MethodPost, "/notifications/"+row.ID.String()+"/read"), userID)
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusNoContent)

		rows, err := store.ListByUser(t.Context(), userID)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.True(t, rows[0].Read)
	})

	t.Run("another recipient cannot", func(t *testing.T) {
		req := testutil.WithUser(testutil.NewRequest(t, http.MethodPost, "/notifications/"+row.ID.String()+"/read"), id.NewUserID())
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})

	t.Run("malformed id is a 400", func(t *testing.T) {
		req := testutil.WithUser(testutil.NewRequest(t, http.MethodPost, "/notifications/nope/read"), userID)
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})
}
