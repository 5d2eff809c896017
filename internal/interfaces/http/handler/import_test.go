package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/erp/rental/internal/interfaces/http/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// upload posts content as the file field of a multipart form
func (a *testApp) upload(fields map[string]string, contentType, content string) (*httptest.ResponseRecorder, dto.Response) {
	a.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(a.t, mw.WriteField(k, v))
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="data.csv"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(a.t, err)
	_, err = part.Write([]byte(content))
	require.NoError(a.t, err)
	require.NoError(a.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var resp dto.Response
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp
}

type importSession struct {
	ID        string `json:"id"`
	State     string `json:"state"`
	TotalRows int    `json:"total_rows"`
	ErrorRows int    `json:"error_rows"`
}

func decodeData(t *testing.T, resp dto.Response, out any) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

// ============ Import API Tests ============

func TestAPI_Import(t *testing.T) {
	app := newTestApp(t)
	csv := "code,name,property_type\nBLD-A,Al Noor Building,building\nBLD-B,Marina Heights,apartment\n"

	var session importSession
	t.Run("validate opens a session", func(t *testing.T) {
		w, resp := app.upload(map[string]string{"entity_type": "properties"}, "text/csv", csv)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		decodeData(t, resp, &session)
		assert.Equal(t, "validated", session.State)
		assert.Equal(t, 2, session.TotalRows)
		assert.Zero(t, session.ErrorRows)
	})

	t.Run("run imports the rows", func(t *testing.T) {
		var result struct {
			ImportedRows int `json:"imported_rows"`
		}
		app.must(http.StatusOK, http.MethodPost, "/imports/"+session.ID+"/run", nil, &result)
		assert.Equal(t, 2, result.ImportedRows)

		var props []struct {
			Code string `json:"code"`
		}
		w, resp := app.do(http.MethodGet, "/properties", nil)
		require.Equal(t, http.StatusOK, w.Code)
		decodeData(t, resp, &props)
		assert.Len(t, props, 2)
	})

	t.Run("a finished session cannot run again", func(t *testing.T) {
		w, resp := app.do(http.MethodPost, "/imports/"+session.ID+"/run", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeInvalidState, resp.Error.Code)
	})

	t.Run("get and list", func(t *testing.T) {
		var got importSession
		app.must(http.StatusOK, http.MethodGet, "/imports/"+session.ID, nil, &got)
		assert.Equal(t, "completed", got.State)

		var list []importSession
		app.must(http.StatusOK, http.MethodGet, "/imports?limit=5", nil, &list)
		require.Len(t, list, 1)
		assert.Equal(t, session.ID, list[0].ID)
	})

	t.Run("unknown session", func(t *testing.T) {
		w, _ := app.do(http.MethodGet, "/imports/"+uuid.New().String(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAPI_ImportRejectsBadUploads(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name        string
		fields      map[string]string
		contentType string
		content     string
		wantStatus  int
	}{
		{"unknown entity", map[string]string{"entity_type": "invoices"}, "text/csv", "a\n1\n", http.StatusBadRequest},
		{"unknown conflict mode", map[string]string{"entity_type": "tenants", "conflict_mode": "merge"}, "text/csv", "name,mobile\nA,1\n", http.StatusBadRequest},
		{"not a csv", map[string]string{"entity_type": "tenants"}, "image/png", "name,mobile\nA,1\n", http.StatusUnsupportedMediaType},
		{"too large", map[string]string{"entity_type": "tenants"}, "text/csv", "name,mobile\n" + strings.Repeat("x", 1<<20), http.StatusRequestEntityTooLarge},
		{"empty file", map[string]string{"entity_type": "tenants"}, "text/csv", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := app.upload(tt.fields, tt.contentType, tt.content)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.False(t, resp.Success)
		})
	}

	t.Run("invalid rows are reported on the session", func(t *testing.T) {
		w, resp := app.upload(map[string]string{"entity_type": "tenants"}, "text/csv", "name,mobile\nRavi Kumar,not-a-phone\n")
		require.Equal(t, http.StatusCreated, w.Code)
		var session importSession
		decodeData(t, resp, &session)
		assert.Equal(t, 1, session.ErrorRows)

		w, _ = app.do(http.MethodPost, "/imports/"+session.ID+"/run", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}
