package handle

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/artguard/artguard/pkg/internal/service"
)

// newMultipartContext 构造带图片与可选表单字段的测试上下文.
func newMultipartContext(t *testing.T, fields map[string]string) *gin.Context {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="image"; filename="artwork.png"`)
	h.Set("Content-Type", "image/png")

	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}

	if _, err := part.Write([]byte("fake png bytes")); err != nil {
		t.Fatalf("write part: %v", err)
	}

	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}

	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/upload", &buf)
	c.Request.Header.Set("Content-Type", mw.FormDataContentType())

	return c
}

func TestReadImageFormBindsFields(t *testing.T) {
	c := newMultipartContext(t, map[string]string{
		"user_id":     "  u1  ",
		"description": "oil on canvas",
	})

	in, err := readImageForm(c)
	if err != nil {
		t.Fatalf("readImageForm: %v", err)
	}

	if in.UserID != "u1" {
		t.Errorf("user_id = %q, want trimmed u1", in.UserID)
	}

	if in.Description != "oil on canvas" {
		t.Errorf("description = %q", in.Description)
	}

	if in.FileName != "artwork.png" {
		t.Errorf("file name = %q", in.FileName)
	}

	if in.ContentType != "image/png" {
		t.Errorf("content type = %q", in.ContentType)
	}

	if string(in.Data) != "fake png bytes" {
		t.Errorf("data = %q", in.Data)
	}
}

func TestReadImageFormOptionalFields(t *testing.T) {
	c := newMultipartContext(t, nil)

	in, err := readImageForm(c)
	if err != nil {
		t.Fatalf("readImageForm: %v", err)
	}

	if in.UserID != "" || in.Description != "" {
		t.Errorf("optional fields should stay empty, got %q / %q", in.UserID, in.Description)
	}
}

func TestReadImageFormMissingFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/upload", nil)

	if _, err := readImageForm(c); !errors.Is(err, service.ErrMissingImage) {
		t.Fatalf("err = %v, want ErrMissingImage", err)
	}
}
