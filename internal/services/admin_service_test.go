package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pazaryeri/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

const testPayoutID = "7a3b9c1e-52f4-4d6a-8b0f-9c2d4e6f8a1b"

func adminRequest(method, target, body string) *http.Request {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	ctx := context.WithValue(r.Context(), "userID", "admin1")
	return r.WithContext(ctx)
}

func expectAdminProfile(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SELECT id, role FROM profiles").
		WithArgs("admin1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "role"}).AddRow("profile1", "admin"))
}

func TestAdminService_ApprovePayout(t *testing.T) {
	t.Run("admin approval completes the request", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		service := NewAdminService(db, nil)

		expectAdminProfile(mock)
		mock.ExpectQuery("UPDATE payout_requests SET status").
			WithArgs(models.PayoutStatusCompleted, testPayoutID).
			WillReturnRows(sqlmock.NewRows([]string{"seller_id"}).AddRow("seller1"))

		w := httptest.NewRecorder()
		service.ApprovePayout(w, adminRequest("POST", "/api/v1/admin/payouts/approve", `{"id": "`+testPayoutID+`"}`))

		assert.Equal(t, http.StatusOK, w.Code)

		var resp map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, true, resp["success"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("re-approval is a harmless overwrite", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		service := NewAdminService(db, nil)

		// The update matches on id only, so an already completed
		// request is overwritten with the same status.
		expectAdminProfile(mock)
		mock.ExpectQuery("UPDATE payout_requests SET status").
			WithArgs(models.PayoutStatusCompleted, testPayoutID).
			WillReturnRows(sqlmock.NewRows([]string{"seller_id"}).AddRow("seller1"))

		w := httptest.NewRecorder()
		service.ApprovePayout(w, adminRequest("POST", "/api/v1/admin/payouts/approve", `{"id": "`+testPayoutID+`"}`))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-admin caller is forbidden", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		service := NewAdminService(db, nil)

		mock.ExpectQuery("SELECT id, role FROM profiles").
			WithArgs("admin1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "role"}).AddRow("seller1", "seller"))

		w := httptest.NewRecorder()
		service.ApprovePayout(w, adminRequest("POST", "/api/v1/admin/payouts/approve", `{"id": "`+testPayoutID+`"}`))

		assert.Equal(t, http.StatusForbidden, w.Code)

		var resp map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, false, resp["success"])
		assert.NotEmpty(t, resp["error"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown payout id", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		service := NewAdminService(db, nil)

		expectAdminProfile(mock)
		mock.ExpectQuery("UPDATE payout_requests SET status").
			WithArgs(models.PayoutStatusCompleted, testPayoutID).
			WillReturnError(sql.ErrNoRows)

		w := httptest.NewRecorder()
		service.ApprovePayout(w, adminRequest("POST", "/api/v1/admin/payouts/approve", `{"id": "`+testPayoutID+`"}`))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing id fails validation", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		service := NewAdminService(db, nil)

		expectAdminProfile(mock)

		w := httptest.NewRecorder()
		service.ApprovePayout(w, adminRequest("POST", "/api/v1/admin/payouts/approve", `{}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unauthenticated caller", func(t *testing.T) {
		db, _, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		service := NewAdminService(db, nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest("POST", "/api/v1/admin/payouts/approve", strings.NewReader(`{"id": "`+testPayoutID+`"}`))
		service.ApprovePayout(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAdminService_ListPendingPayouts(t *testing.T) {
	t.Run("pending requests oldest first", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		service := NewAdminService(db, nil)
		now := time.Now()

		expectAdminProfile(mock)
		mock.ExpectQuery("SELECT id, seller_id, bank_account_id, amount, currency, status, requested_at FROM payout_requests").
			WithArgs(models.PayoutStatusPendingApproval).
			WillReturnRows(sqlmock.NewRows([]string{"id", "seller_id", "bank_account_id", "amount", "currency", "status", "requested_at"}).
				AddRow("req1", "seller1", testBankAccountID, "400", "TRY", models.PayoutStatusPendingApproval, now.Add(-time.Hour)).
				AddRow("req2", "seller2", testBankAccountID, "900", "TRY", models.PayoutStatusPendingApproval, now))

		w := httptest.NewRecorder()
		service.ListPendingPayouts(w, adminRequest("GET", "/api/v1/admin/payouts", ""))

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Success bool                   `json:"success"`
			Payouts []models.PayoutRequest `json:"payouts"`
		}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Len(t, resp.Payouts, 2)
		assert.Equal(t, "req1", resp.Payouts[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-admin caller is forbidden", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		service := NewAdminService(db, nil)

		mock.ExpectQuery("SELECT id, role FROM profiles").
			WithArgs("admin1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "role"}).AddRow("seller1", "seller"))

		w := httptest.NewRecorder()
		service.ListPendingPayouts(w, adminRequest("GET", "/api/v1/admin/payouts", ""))

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
