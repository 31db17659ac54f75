package controller_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lms_backend/internals/features/home/notifications/model"
	"lms_backend/internals/features/home/notifications/route"
	"lms_backend/internals/features/home/notifications/service"
	"lms_backend/internals/helpers/testdb"
)

func TestNotificationRoutes(t *testing.T) {
	db := testdb.Open(t, &model.NotificationModel{})
	pub := service.NewPublisher(db)
	ctx := context.Background()

	me, other := uuid.New(), uuid.New()
	require.NoError(t, pub.Insert(ctx, service.Event{Type: model.TypePaymentVerified, Title: "Lunas", StudentID: &me, Tags: []string{"fee"}}))
	require.NoError(t, pub.Insert(ctx, service.Event{Type: model.TypePaymentRejected, Title: "Ditolak", StudentID: &other}))
	require.NoError(t, pub.Insert(ctx, service.Event{Type: model.TypeAttendanceLocked, Title: "Absensi dikunci"}))

	app := fiber.New()
	user := app.Group("/api/u", func(c *fiber.Ctx) error {
		c.Locals("user_id", me.String())
		return c.Next()
	})
	route.NotificationUserRoutes(user, db)
	route.NotificationAdminRoutes(app.Group("/api/a"), db)

	get := func(path string) map[string]any {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		var out map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return out
	}

	mine := get("/api/u/notifications")
	items := mine["data"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Lunas", items[0].(map[string]any)["notification_title"])

	locked := get("/api/a/notifications?type=attendance_locked")
	require.Len(t, locked["data"].([]any), 1)

	all := get("/api/a/notifications?limit=500")
	assert.Len(t, all["data"].([]any), 3)
}
