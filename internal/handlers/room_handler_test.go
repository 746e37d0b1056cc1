package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lagoonresort/reservation-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var roomRowColumns = []string{
	"id", "name", "category", "capacity", "base_price_cents", "dynamic_price_cents",
	"is_available", "description", "created_at", "updated_at",
}

func roomRows(id, basePriceCents int64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(roomRowColumns).
		AddRow(id, "Ocean Suite", "suite", 2, basePriceCents, basePriceCents, true, "", now, now)
}

func TestRoomHandler_GetRoomPrice(t *testing.T) {
	t.Run("December Stay", func(t *testing.T) {
		env := newHandlerEnv(t)
		env.mock.ExpectQuery(`SELECT (.+) FROM rooms WHERE id = \$1`).
			WithArgs(int64(7)).
			WillReturnRows(roomRows(7, 120000))

		w := serve(http.MethodGet, "/api/rooms/:id/price",
			"/api/rooms/7/price?check_in=2025-12-10&check_out=2025-12-13", nil, env.rooms.GetRoomPrice)

		require.Equal(t, http.StatusOK, w.Code)
		var quote models.PriceQuote
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &quote))
		assert.Equal(t, int64(432000), quote.TotalPriceCents)
		assert.True(t, quote.PeakSeason)
		assert.NoError(t, env.mock.ExpectationsWereMet())
	})

	t.Run("Bad Dates", func(t *testing.T) {
		env := newHandlerEnv(t)

		w := serve(http.MethodGet, "/api/rooms/:id/price",
			"/api/rooms/7/price?check_in=2025-12-13&check_out=2025-12-10", nil, env.rooms.GetRoomPrice)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.NoError(t, env.mock.ExpectationsWereMet())
	})

	t.Run("Unknown Room", func(t *testing.T) {
		env := newHandlerEnv(t)
		env.mock.ExpectQuery(`SELECT (.+) FROM rooms WHERE id = \$1`).
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows(roomRowColumns))

		w := serve(http.MethodGet, "/api/rooms/:id/price",
			"/api/rooms/99/price?check_in=2025-12-10&check_out=2025-12-13", nil, env.rooms.GetRoomPrice)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "not_found", decodeError(t, w).Error)
	})
}

func TestRoomHandler_InvalidID(t *testing.T) {
	env := newHandlerEnv(t)

	for _, target := range []string{"/api/rooms/abc", "/api/rooms/0", "/api/rooms/-3"} {
		w := serve(http.MethodGet, "/api/rooms/:id", target, nil, env.rooms.GetRoom)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestRoomHandler_ListAvailableRooms(t *testing.T) {
	t.Run("Invalid Guests", func(t *testing.T) {
		env := newHandlerEnv(t)

		w := serve(http.MethodGet, "/api/rooms/available",
			"/api/rooms/available?check_in=2025-12-10&check_out=2025-12-13&guests=two", nil, env.rooms.ListAvailableRooms)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Missing Dates", func(t *testing.T) {
		env := newHandlerEnv(t)

		w := serve(http.MethodGet, "/api/rooms/available", "/api/rooms/available", nil, env.rooms.ListAvailableRooms)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.NoError(t, env.mock.ExpectationsWereMet())
	})
}

func TestRoomHandler_RepriceRoom_InvalidDate(t *testing.T) {
	env := newHandlerEnv(t)

	w := serve(http.MethodPost, "/api/rooms/:id/reprice", "/api/rooms/7/reprice?date=12/01/2025", nil, env.rooms.RepriceRoom)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w).Message, "expected YYYY-MM-DD")
	assert.NoError(t, env.mock.ExpectationsWereMet())
}
