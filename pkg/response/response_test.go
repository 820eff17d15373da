package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestJSONEnvelope(t *testing.T) {
	c, w := newContext()
	JSON(c, http.StatusOK, map[string]string{"id": "p-1"}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, map[string]interface{}{"cache_hit": false})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "data")
	assert.Contains(t, body, "pagination")
	assert.Contains(t, body, "meta")
	assert.NotContains(t, body, "error")
}

func TestErrorKeepsKindAndFields(t *testing.T) {
	c, w := newContext()
	Error(c, appErrors.Clone(appErrors.ErrStateConflict, "proposal status changed"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"STATE_CONFLICT"`)

	c, w = newContext()
	Error(c, appErrors.WithFields(appErrors.ErrValidation, "invalid members", map[string]string{"member_ids": "exceeds batas_anggota"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "batas_anggota")
}

func TestErrorHidesInternalCause(t *testing.T) {
	c, w := newContext()
	Error(c, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
	require.Len(t, c.Errors, 1)
}
