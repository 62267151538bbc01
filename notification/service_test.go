package notification_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/violation-case-api/models"
	"github.com/linesmerrill/violation-case-api/notification"
)

type notificationDB struct {
	mock.Mock
}

func (m *notificationDB) InsertIfAbsent(ctx context.Context, n *models.Notification) (bool, error) {
	args := m.Called(ctx, n)
	return args.Bool(0), args.Error(1)
}

func (m *notificationDB) FindByUser(ctx context.Context, userID string, limit int64) ([]models.Notification, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]models.Notification), args.Error(1)
}

type userDB struct {
	mock.Mock
}

func (m *userDB) FindByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *userDB) FindByRole(ctx context.Context, role string) ([]models.User, error) {
	args := m.Called(ctx, role)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *userDB) InsertOne(ctx context.Context, u *models.User) error {
	return m.Called(ctx, u).Error(0)
}

func TestNotify_StoresWithDedupeKey(t *testing.T) {
	db := &notificationDB{}
	db.On("InsertIfAbsent", mock.Anything, mock.MatchedBy(func(n *models.Notification) bool {
		return n.UserID == "u1" && n.DedupeKey == "case:1:v1:approve" && n.Link == "/cases/1"
	})).Return(true, nil).Once()

	svc := notification.NewService(db, &userDB{}, nil)
	err := svc.Notify(context.Background(), "u1", "Case closed", "Case VC-1 was approved.", "/cases/1", "case:1:v1:approve")

	assert.NoError(t, err)
	db.AssertExpectations(t)
}

func TestNotify_EmptyUserIsNoop(t *testing.T) {
	db := &notificationDB{}
	svc := notification.NewService(db, &userDB{}, nil)

	assert.NoError(t, svc.Notify(context.Background(), "", "t", "m", "", "k"))
	db.AssertNotCalled(t, "InsertIfAbsent", mock.Anything, mock.Anything)
}

func TestNotify_StoreError(t *testing.T) {
	db := &notificationDB{}
	db.On("InsertIfAbsent", mock.Anything, mock.Anything).Return(false, errors.New("mongo down"))

	svc := notification.NewService(db, &userDB{}, nil)
	err := svc.Notify(context.Background(), "u1", "t", "m", "", "k")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "mongo down")
}

func TestNotifyRole_KeysPerUserAndContinuesOnError(t *testing.T) {
	db := &notificationDB{}
	users := &userDB{}
	users.On("FindByRole", mock.Anything, models.RoleRegistrar).Return([]models.User{{ID: "r1"}, {ID: "r2"}, {ID: "r3"}}, nil)
	db.On("InsertIfAbsent", mock.Anything, mock.MatchedBy(func(n *models.Notification) bool { return n.DedupeKey == "case:9:submitted:r1" })).Return(true, nil)
	db.On("InsertIfAbsent", mock.Anything, mock.MatchedBy(func(n *models.Notification) bool { return n.DedupeKey == "case:9:submitted:r2" })).Return(false, errors.New("timeout"))
	db.On("InsertIfAbsent", mock.Anything, mock.MatchedBy(func(n *models.Notification) bool { return n.DedupeKey == "case:9:submitted:r3" })).Return(false, nil)

	svc := notification.NewService(db, users, nil)
	err := svc.NotifyRole(context.Background(), models.RoleRegistrar, "New case", "m", "/cases/9", "case:9:submitted")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
	db.AssertNumberOfCalls(t, "InsertIfAbsent", 3)
}

func TestForUser_ClampsLimit(t *testing.T) {
	db := &notificationDB{}
	db.On("FindByUser", mock.Anything, "u1", int64(50)).Return([]models.Notification{{Title: "a"}}, nil)

	svc := notification.NewService(db, &userDB{}, nil)
	got, err := svc.ForUser(context.Background(), "u1", 1000)

	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestHub_PushesNewNotification(t *testing.T) {
	hub := notification.NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, r.URL.Query().Get("userID"))
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?userID=u1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Connected("u1") }, time.Second, 10*time.Millisecond)

	db := &notificationDB{}
	db.On("InsertIfAbsent", mock.Anything, mock.Anything).Return(true, nil)
	svc := notification.NewService(db, &userDB{}, hub)
	require.NoError(t, svc.Notify(context.Background(), "u1", "Hearing scheduled", "m", "/cases/1", "k1"))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got struct {
		Event string              `json:"event"`
		Data  models.Notification `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, notification.EventNewNotification, got.Event)
	assert.Equal(t, "Hearing scheduled", got.Data.Title)

	assert.False(t, hub.Send("nobody", notification.EventNewNotification, nil))
}
