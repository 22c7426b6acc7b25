package pacs

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luckypig3400/NEC-Backend/internal/middleware"
	"github.com/luckypig3400/NEC-Backend/internal/model"
	"github.com/luckypig3400/NEC-Backend/internal/repository/memory"
	"github.com/luckypig3400/NEC-Backend/internal/service/pacs"
)

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	middleware.RegisterValidation()

	r := gin.New()
	h := NewHandler(pacs.NewService(memory.NewDeviceConfigRepository(memory.NewDB()), nil))
	h.RegisterRoutes(r.Group("/api"))
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func TestPacsRoutes(t *testing.T) {
	r := newEngine()

	ids := map[string]string{}
	for name, weight := range map[string]float64{"A": 3, "B": 1, "C": 2} {
		w, body := do(t, r, http.MethodPost, "/api/pacs", map[string]interface{}{
			"name":   name,
			"weight": weight,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		require.NotEmpty(t, body["_id"])
		assert.Equal(t, name, body["name"])
		ids[name] = body["_id"].(string)
	}

	t.Run("list", func(t *testing.T) {
		w, body := do(t, r, http.MethodGet, "/api/pacs", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(3), body["count"])
		assert.Equal(t, []string{"B", "C", "A"}, resultNames(body))
	})

	t.Run("get", func(t *testing.T) {
		w, body := do(t, r, http.MethodGet, "/api/pacs/"+ids["A"], nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(3), body["weight"])

		w, body = do(t, r, http.MethodGet, "/api/pacs/"+model.NewID(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "pacs setting not found", body["message"])

		w, _ = do(t, r, http.MethodGet, "/api/pacs/not-an-id", nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("reorder", func(t *testing.T) {
		w, body := do(t, r, http.MethodPatch, "/api/pacs/sort", []map[string]interface{}{
			{"_id": ids["A"], "weight": 0},
			{"_id": ids["B"], "weight": 2},
			{"_id": ids["C"], "weight": 1},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, []string{"A", "C", "B"}, resultNames(body))
	})

	t.Run("reorder unknown id", func(t *testing.T) {
		w, body := do(t, r, http.MethodPatch, "/api/pacs/sort", []map[string]interface{}{
			{"_id": model.NewID(), "weight": 0},
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "pacs setting not found", body["message"])
	})

	t.Run("patch", func(t *testing.T) {
		w, body := do(t, r, http.MethodPatch, "/api/pacs/"+ids["C"], map[string]interface{}{"host": "10.0.0.5"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "10.0.0.5", body["host"])
		assert.Equal(t, "C", body["name"])
	})

	t.Run("bad body", func(t *testing.T) {
		w, body := do(t, r, http.MethodPost, "/api/pacs", "{")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid request body", body["message"])
	})

	t.Run("delete", func(t *testing.T) {
		w, body := do(t, r, http.MethodDelete, "/api/pacs/"+ids["B"], nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, ids["B"], body["_id"])

		w, _ = do(t, r, http.MethodDelete, "/api/pacs/"+ids["B"], nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func resultNames(body map[string]interface{}) []string {
	var names []string
	for _, r := range body["results"].([]interface{}) {
		names = append(names, r.(map[string]interface{})["name"].(string))
	}
	return names
}
