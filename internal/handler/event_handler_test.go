package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EkyaSchools001/pdi-updated-sub000/internal/middleware"
	"github.com/EkyaSchools001/pdi-updated-sub000/internal/models"
	appErrors "github.com/EkyaSchools001/pdi-updated-sub000/pkg/errors"
	"github.com/EkyaSchools001/pdi-updated-sub000/pkg/realtime"
)

type tokenStub struct{}

func (tokenStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.ErrUnauthorized
	}
	return claimsFor(models.RoleTeacher), nil
}

func TestEventHandlerStreamsWithQueryToken(t *testing.T) {
	hub := realtime.NewHub(nil)
	r := gin.New()
	r.GET("/events", middleware.StreamJWT(tokenStub{}), NewEventHandler(hub, nil, nil).Stream)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events"

	_, resp, err := websocket.Dial(ctx, wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.Dial(ctx, wsURL+"?token=good", nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	var evt realtime.Event
	require.NoError(t, wsjson.Read(ctx, conn, &evt))
	assert.Equal(t, realtime.EventReady, evt.Name)

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 10*time.Millisecond)
	hub.Publish(realtime.SettingsUpdated("school_display_name"))
	require.NoError(t, wsjson.Read(ctx, conn, &evt))
	key, ok := evt.SettingsKey()
	assert.True(t, ok)
	assert.Equal(t, "school_display_name", key)
}
