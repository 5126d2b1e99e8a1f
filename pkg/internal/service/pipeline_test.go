package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/artguard/artguard/pkg/configs"
	"github.com/artguard/artguard/pkg/internal/model"
	"github.com/artguard/artguard/pkg/internal/storage/s3"
)

func TestValidateUpload(t *testing.T) {
	cases := []struct {
		name        string
		contentType string
		size        int64
		want        error
	}{
		{"empty body", "image/png", 0, ErrMissingImage},
		{"jpeg ok", "image/jpeg", 1024, nil},
		{"jpg alias ok", "image/jpg", 1024, nil},
		{"png ok", "image/png", 1024, nil},
		{"gif ok", "image/gif", 1024, nil},
		{"webp ok", "image/webp", 1024, nil},
		{"mixed case ok", "IMAGE/PNG", 1024, nil},
		{"svg rejected", "image/svg+xml", 1024, ErrInvalidFileType},
		{"pdf rejected", "application/pdf", 1024, ErrInvalidFileType},
		{"empty type rejected", "", 1024, ErrInvalidFileType},
		{"at limit ok", "image/png", MaxUploadBytes, nil},
		{"over limit rejected", "image/png", MaxUploadBytes + 1, ErrFileTooLarge},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateUpload(tc.contentType, tc.size)
			if !errors.Is(err, tc.want) {
				t.Fatalf("ValidateUpload(%q, %d) = %v, want %v", tc.contentType, tc.size, err, tc.want)
			}
		})
	}
}

// 校验必须发生在任何外部调用之前：客户端全空也不应 panic.
func TestUploadScanRejectsBeforeClients(t *testing.T) {
	ss := &ScanService{}

	in := &UploadInput{
		FileName:    "a.exe",
		ContentType: "application/octet-stream",
		Data:        []byte("not an image"),
	}

	if _, err := ss.UploadScan(context.Background(), in); !errors.Is(err, ErrInvalidFileType) {
		t.Fatalf("invalid type should fail fast, got %v", err)
	}

	if in.UserID != AnonymousUser {
		t.Fatalf("missing user should default to %q, got %q", AnonymousUser, in.UserID)
	}

	big := &UploadInput{
		UserID:      "u1",
		FileName:    "big.png",
		ContentType: "image/png",
		Data:        make([]byte, MaxUploadBytes+1),
	}

	if _, err := ss.CompleteScan(context.Background(), big); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("oversized upload should fail fast, got %v", err)
	}
}

// newUploadService 构造带内存数据库和桩对象存储的服务实例.
// 桩服务器对任意 PUT 返回 200 与 ETag，验证请求到达即可.
func newUploadService(t *testing.T) (*ScanService, string) {
	t.Helper()

	if err := configs.InitConfig(t.TempDir()); err != nil {
		t.Fatalf("init config: %v", err)
	}

	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusOK)
			return
		}

		w.Header().Set("ETag", `"stub-etag"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(stub.Close)

	u, err := url.Parse(stub.URL)
	if err != nil {
		t.Fatalf("parse stub url: %v", err)
	}

	cli, err := minio.New(u.Host, &minio.Options{
		Creds:  credentials.NewStaticV4("test", "test", ""),
		Secure: false,
	})
	if err != nil {
		t.Fatalf("minio client: %v", err)
	}

	ss := newTestService(t)
	ss.s3Client = &s3.Client{Client: cli}

	return ss, stub.URL
}

func TestUploadScanStoresArtifactAndRecord(t *testing.T) {
	ss, endpoint := newUploadService(t)

	in := &UploadInput{
		UserID:      "u1",
		FileName:    "artwork.png",
		ContentType: "image/png",
		Data:        []byte("fake png bytes"),
	}

	resp, err := ss.UploadScan(context.Background(), in)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if !resp.Logged {
		t.Fatal("record write should succeed, Logged = false")
	}

	if len(resp.ScanID) != 26 {
		t.Fatalf("scan_id should be a 26-char ULID, got %q", resp.ScanID)
	}

	if !strings.HasPrefix(resp.URL, endpoint+"/") {
		t.Fatalf("artifact url %q should point at the stub endpoint %q", resp.URL, endpoint)
	}

	if !strings.Contains(resp.PublicID, "user_uploads/u1/") {
		t.Fatalf("object key = %q, want user_uploads/u1/ prefix", resp.PublicID)
	}

	hist, err := ss.ListRecords(context.Background(), "u1", 10, 0)
	if err != nil {
		t.Fatalf("list records: %v", err)
	}

	if len(hist.Scans) != 1 {
		t.Fatalf("history length = %d, want 1", len(hist.Scans))
	}

	rec := hist.Scans[0]
	if rec.ID != resp.ScanID {
		t.Fatalf("history record id = %q, want %q", rec.ID, resp.ScanID)
	}

	if rec.ArtworkURL != resp.URL {
		t.Fatalf("history artwork_url = %q, want %q", rec.ArtworkURL, resp.URL)
	}

	if rec.Status != string(model.ScanStatusUploaded) {
		t.Fatalf("status = %q, want uploaded", rec.Status)
	}
}
