package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/erp/rental/internal/bootstrap"
	"github.com/erp/rental/internal/infrastructure/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type uploadTicket struct {
	DocumentID string `json:"document_id"`
	UploadURL  string `json:"upload_url"`
	StorageKey string `json:"storage_key"`
}

type documentBody struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Kind        string `json:"kind"`
	DownloadURL string `json:"download_url"`
}

// ============ Document API Tests ============

func TestAPI_Documents(t *testing.T) {
	objects := storage.NewStrictStubObjectStorage()
	app := newTestApp(t, bootstrap.WithObjectStorage(objects))
	lease := app.leaseRoom()

	var ticket uploadTicket
	t.Run("initiate returns an upload url", func(t *testing.T) {
		app.must(http.StatusCreated, http.MethodPost, "/documents", map[string]any{
			"owner_type":   "agreement",
			"owner_id":     lease.agreementID,
			"kind":         "contract",
			"file_name":    "lease.pdf",
			"file_size":    2048,
			"content_type": "application/pdf",
		}, &ticket)
		assert.Contains(t, ticket.StorageKey, "agreements/"+lease.agreementID+"/")
		assert.Contains(t, ticket.UploadURL, "/upload/"+ticket.StorageKey)
	})

	t.Run("confirm before upload", func(t *testing.T) {
		w, resp := app.do(http.MethodPost, "/documents/"+ticket.DocumentID+"/confirm", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "UPLOAD_NOT_FOUND", resp.Error.Code)
	})

	t.Run("confirm after upload", func(t *testing.T) {
		objects.Put(ticket.StorageKey)
		var doc documentBody
		app.must(http.StatusOK, http.MethodPost, "/documents/"+ticket.DocumentID+"/confirm", nil, &doc)
		assert.Equal(t, "active", doc.Status)
		assert.Equal(t, "contract", doc.Kind)
		assert.NotEmpty(t, doc.DownloadURL)
	})

	t.Run("list by owner", func(t *testing.T) {
		var docs []documentBody
		app.must(http.StatusOK, http.MethodGet, "/documents?owner_type=agreement&owner_id="+lease.agreementID, nil, &docs)
		require.Len(t, docs, 1)
		assert.Equal(t, ticket.DocumentID, docs[0].ID)
	})

	t.Run("delete", func(t *testing.T) {
		w, _ := app.do(http.MethodDelete, "/documents/"+ticket.DocumentID, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		var doc documentBody
		app.must(http.StatusOK, http.MethodGet, "/documents/"+ticket.DocumentID, nil, &doc)
		assert.Equal(t, "deleted", doc.Status)
		assert.Empty(t, doc.DownloadURL)

		exists, err := objects.ObjectExists(context.Background(), ticket.StorageKey)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("cleanup job is registered", func(t *testing.T) {
		app.must(http.StatusOK, http.MethodPost, "/jobs/cleanup_pending_uploads/run", nil, nil)
	})
}

func TestAPI_DocumentErrors(t *testing.T) {
	app := newTestApp(t)
	lease := app.leaseRoom()

	upload := func(overrides map[string]any) map[string]any {
		body := map[string]any{
			"owner_type":   "tenant",
			"owner_id":     lease.tenantID,
			"file_name":    "passport.jpg",
			"file_size":    1024,
			"content_type": "image/jpeg",
		}
		for k, v := range overrides {
			body[k] = v
		}
		return body
	}

	tests := []struct {
		name        string
		method      string
		path        string
		body        any
		wantStatus  int
		wantErrCode string
	}{
		{"missing owner", http.MethodPost, "/documents", upload(map[string]any{"owner_id": nil}), http.StatusBadRequest, ""},
		{"bad owner type", http.MethodPost, "/documents", upload(map[string]any{"owner_type": "room"}), http.StatusBadRequest, ""},
		{"unknown owner", http.MethodPost, "/documents", upload(map[string]any{"owner_id": uuid.NewString()}), http.StatusNotFound, "OWNER_NOT_FOUND"},
		{"svg", http.MethodPost, "/documents", upload(map[string]any{"content_type": "image/svg+xml"}), http.StatusBadRequest, "INVALID_CONTENT_TYPE"},
		{"too large", http.MethodPost, "/documents", upload(map[string]any{"file_size": 64 << 20}), http.StatusUnprocessableEntity, "EXCEEDS_MAX_FILE_SIZE"},
		{"list without owner", http.MethodGet, "/documents?owner_type=tenant", nil, http.StatusBadRequest, ""},
		{"list bad owner type", http.MethodGet, "/documents?owner_type=room&owner_id=" + lease.tenantID, nil, http.StatusBadRequest, ""},
		{"malformed id", http.MethodGet, "/documents/nope", nil, http.StatusBadRequest, ""},
		{"unknown document", http.MethodDelete, "/documents/" + uuid.NewString(), nil, http.StatusNotFound, "DOCUMENT_NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := app.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			require.NotNil(t, resp.Error)
			if tt.wantErrCode != "" {
				assert.Equal(t, tt.wantErrCode, resp.Error.Code)
			}
		})
	}
}
