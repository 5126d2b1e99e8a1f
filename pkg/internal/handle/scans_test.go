package handle_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/artguard/artguard/pkg/internal/handle"
)

// newTestEngine 构造只含被测路由的引擎，不注入任何存储依赖，
// 因此只能覆盖在进入 service 层之前就返回的参数校验分支.
func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)

	e := gin.New()
	e.GET("/scan-history", handle.GetScanHistory)
	e.GET("/search", handle.SearchScans)
	e.GET("/analytics", handle.GetAnalytics)
	e.PUT("/scan/update", handle.UpdateScan)
	e.DELETE("/delete-scan", handle.DeleteScan)
	e.DELETE("/batch-delete", handle.BatchDeleteScans)
	e.POST("/upload", handle.UploadImage)
	e.GET("/health", handle.Health)

	return e
}

func doRequest(t *testing.T, e *gin.Engine, method, target, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}

	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}

	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)

	return w
}

func TestQueryValidation(t *testing.T) {
	e := newTestEngine()

	cases := []struct {
		name    string
		method  string
		target  string
		wantMsg string
	}{
		{"history missing user", http.MethodGet, "/scan-history", "user_id parameter is required"},
		{"history bad limit", http.MethodGet, "/scan-history?user_id=u1&limit=abc", "Invalid limit or offset parameter"},
		{"history bad offset", http.MethodGet, "/scan-history?user_id=u1&offset=x", "Invalid limit or offset parameter"},
		{"search missing user", http.MethodGet, "/search?query=cat", "user_id and query parameters are required"},
		{"search missing query", http.MethodGet, "/search?user_id=u1", "user_id and query parameters are required"},
		{"search bad limit", http.MethodGet, "/search?user_id=u1&query=cat&limit=zz", "Invalid limit parameter"},
		{"analytics missing user", http.MethodGet, "/analytics", "user_id parameter is required"},
		{"analytics bad days", http.MethodGet, "/analytics?user_id=u1&days=ten", "Invalid days parameter"},
		{"delete missing scan id", http.MethodDelete, "/delete-scan", "scan_id parameter is required"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(t, e, tc.method, tc.target, "", nil)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}

			if !strings.Contains(w.Body.String(), tc.wantMsg) {
				t.Fatalf("body = %s, want message %q", w.Body.String(), tc.wantMsg)
			}
		})
	}
}

func TestUpdateScanBodyValidation(t *testing.T) {
	e := newTestEngine()

	cases := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"invalid json", "{not json", "Invalid JSON in request body"},
		{"missing scan id", `{"updates":{"label":"Print"}}`, "scan_id and updates are required"},
		{"missing updates", `{"scan_id":"01ARZ"}`, "scan_id and updates are required"},
		{"updates not object", `{"scan_id":"01ARZ","updates":[1,2]}`, "updates must be an object"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(t, e, http.MethodPut, "/scan/update", "application/json", []byte(tc.body))

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}

			if !strings.Contains(w.Body.String(), tc.wantMsg) {
				t.Fatalf("body = %s, want message %q", w.Body.String(), tc.wantMsg)
			}
		})
	}
}

func TestBatchDeleteBodyValidation(t *testing.T) {
	e := newTestEngine()

	cases := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"invalid json", "[", "Invalid JSON in request body"},
		{"missing ids", `{"user_id":"u1"}`, "scan_ids array is required"},
		{"ids not array", `{"scan_ids":{"a":1}}`, "scan_ids must be an array"},
		{"empty array", `{"scan_ids":[]}`, "scan_ids array is required"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(t, e, http.MethodDelete, "/batch-delete", "application/json", []byte(tc.body))

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}

			if !strings.Contains(w.Body.String(), tc.wantMsg) {
				t.Fatalf("body = %s, want message %q", w.Body.String(), tc.wantMsg)
			}
		})
	}
}

func TestUploadValidation(t *testing.T) {
	e := newTestEngine()

	t.Run("missing image field", func(t *testing.T) {
		var buf bytes.Buffer

		mw := multipart.NewWriter(&buf)
		_ = mw.WriteField("user_id", "u1")
		_ = mw.Close()

		w := doRequest(t, e, http.MethodPost, "/upload", mw.FormDataContentType(), buf.Bytes())

		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}

		if !strings.Contains(w.Body.String(), "No image file provided") {
			t.Fatalf("body = %s", w.Body.String())
		}
	})

	t.Run("disallowed content type", func(t *testing.T) {
		var buf bytes.Buffer

		mw := multipart.NewWriter(&buf)

		fw, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Disposition": {`form-data; name="image"; filename="payload.svg"`},
			"Content-Type":        {"image/svg+xml"},
		})
		if err != nil {
			t.Fatalf("create part: %v", err)
		}

		if _, err := fw.Write([]byte("<svg/>")); err != nil {
			t.Fatalf("write part: %v", err)
		}

		_ = mw.Close()

		w := doRequest(t, e, http.MethodPost, "/upload", mw.FormDataContentType(), buf.Bytes())

		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}

		if !strings.Contains(w.Body.String(), "Invalid file type") {
			t.Fatalf("body = %s", w.Body.String())
		}
	})
}

func TestHealth(t *testing.T) {
	e := newTestEngine()

	w := doRequest(t, e, http.MethodGet, "/health", "", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	body := w.Body.String()
	if !strings.Contains(body, `"healthy"`) || !strings.Contains(body, "ArtGuard backend is running") {
		t.Fatalf("body = %s", body)
	}
}
