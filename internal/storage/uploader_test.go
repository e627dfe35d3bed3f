package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/linhaiwebs/sync/internal/domain"
	"github.com/linhaiwebs/sync/internal/infra"
)

func TestStubUploaderIsDeterministic(t *testing.T) {
	u := NewStubUploader("")
	file := &domain.MediaFile{Name: "my clip.mp4", Data: []byte{1}}
	first, err := u.Upload(context.Background(), file)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	second, _ := u.Upload(context.Background(), file)
	if first != second {
		t.Fatalf("stub urls differ: %q vs %q", first, second)
	}
	if first != "https://example.com/my%20clip.mp4" {
		t.Fatalf("url = %q", first)
	}
}

func TestUploadersRejectEmptyPayload(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	uploaders := []Uploader{
		NewStubUploader(""),
		NewLocalUploader(store, "http://localhost:8080/media", nil),
	}
	for _, u := range uploaders {
		t.Run(u.Mode(), func(t *testing.T) {
			for _, file := range []*domain.MediaFile{nil, {Name: "empty.wav"}} {
				if _, err := u.Upload(context.Background(), file); !errors.Is(err, domain.ErrUpload) {
					t.Fatalf("error = %v, want ErrUpload", err)
				}
			}
		})
	}
}

func TestHTTPUploader(t *testing.T) {
	var gotAuth, gotName, gotType string
	var gotData []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		f, header, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		gotName = header.Filename
		gotType = header.Header.Get("Content-Type")
		gotData, _ = io.ReadAll(f)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"fileUrl":"https://host/video.mp4"}`)
	}))
	defer server.Close()

	u, err := NewHTTPUploader(HTTPUploaderOptions{Endpoint: server.URL + "/upload", APIKey: "upload-token"})
	if err != nil {
		t.Fatalf("new uploader: %v", err)
	}
	fileURL, err := u.Upload(context.Background(), &domain.MediaFile{
		Name:        "video.mp4",
		ContentType: "video/mp4",
		Data:        []byte("mp4-bytes"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if fileURL != "https://host/video.mp4" {
		t.Fatalf("fileUrl = %q", fileURL)
	}
	if gotAuth != "Bearer upload-token" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if gotName != "video.mp4" || gotType != "video/mp4" || string(gotData) != "mp4-bytes" {
		t.Fatalf("multipart mismatch: name=%q type=%q data=%q", gotName, gotType, gotData)
	}
}

func TestHTTPUploaderFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "non-success status", status: http.StatusForbidden, body: "bad token"},
		{name: "missing fileUrl", status: http.StatusOK, body: `{"ok":true}`},
		{name: "invalid json", status: http.StatusOK, body: `<html>`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer server.Close()

			u, err := NewHTTPUploader(HTTPUploaderOptions{Endpoint: server.URL})
			if err != nil {
				t.Fatalf("new uploader: %v", err)
			}
			_, err = u.Upload(context.Background(), &domain.MediaFile{Name: "a.wav", Data: []byte{1, 2}})
			if !errors.Is(err, domain.ErrUpload) {
				t.Fatalf("error = %v, want ErrUpload", err)
			}
		})
	}
}

func TestHTTPUploaderNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL
	server.Close()

	u, err := NewHTTPUploader(HTTPUploaderOptions{Endpoint: endpoint})
	if err != nil {
		t.Fatalf("new uploader: %v", err)
	}
	_, err = u.Upload(context.Background(), &domain.MediaFile{Name: "a.wav", Data: []byte{1}})
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("error = %v, want ErrNetwork", err)
	}
}

func TestNewHTTPUploaderValidatesEndpoint(t *testing.T) {
	for _, endpoint := range []string{"", "not a url", "/relative"} {
		if _, err := NewHTTPUploader(HTTPUploaderOptions{Endpoint: endpoint}); err == nil {
			t.Fatalf("expected error for endpoint %q", endpoint)
		}
	}
}

type stubObjectAPI struct {
	putBucket, putKey, putType string
	putSize                    int64
	putErr                     error
	presignTTL                 time.Duration
}

func (s *stubObjectAPI) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	s.putBucket, s.putKey, s.putSize, s.putType = bucketName, objectName, objectSize, opts.ContentType
	if s.putErr != nil {
		return minio.UploadInfo{}, s.putErr
	}
	return minio.UploadInfo{Bucket: bucketName, Key: objectName, Size: objectSize}, nil
}

func (s *stubObjectAPI) PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error) {
	s.presignTTL = expires
	return url.Parse("https://s3.example.com/" + bucketName + "/" + objectName + "?X-Amz-Signature=abc")
}

func TestObjectUploader(t *testing.T) {
	api := &stubObjectAPI{}
	u, err := NewObjectUploader(api, ObjectUploaderOptions{Bucket: "media", PresignTTL: 30 * 24 * time.Hour})
	if err != nil {
		t.Fatalf("new uploader: %v", err)
	}
	fileURL, err := u.Upload(context.Background(), &domain.MediaFile{Name: "Voice.WAV", ContentType: "audio/wav", Data: []byte("wav")})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if api.putBucket != "media" || api.putSize != 3 || api.putType != "audio/wav" {
		t.Fatalf("unexpected put: %+v", api)
	}
	if !strings.HasPrefix(api.putKey, "uploads/") || !strings.HasSuffix(api.putKey, ".wav") {
		t.Fatalf("key = %q", api.putKey)
	}
	if api.presignTTL != 7*24*time.Hour {
		t.Fatalf("presign ttl = %s, want capped at 7 days", api.presignTTL)
	}
	if !strings.Contains(fileURL, api.putKey) {
		t.Fatalf("url %q does not reference key %q", fileURL, api.putKey)
	}
}

func TestObjectUploaderPutFailure(t *testing.T) {
	u, err := NewObjectUploader(&stubObjectAPI{putErr: errors.New("access denied")}, ObjectUploaderOptions{Bucket: "media"})
	if err != nil {
		t.Fatalf("new uploader: %v", err)
	}
	if _, err := u.Upload(context.Background(), &domain.MediaFile{Name: "a.mp4", Data: []byte{1}}); !errors.Is(err, domain.ErrUpload) {
		t.Fatalf("error = %v, want ErrUpload", err)
	}
}

func TestLocalUploader(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	u := NewLocalUploader(store, "https://dash.example.com/media/", nil)
	fileURL, err := u.Upload(context.Background(), &domain.MediaFile{Name: "clip.mov", Data: []byte("mov")})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(fileURL, "https://dash.example.com/media/uploads/") {
		t.Fatalf("url = %q", fileURL)
	}
	key := strings.TrimPrefix(fileURL, "https://dash.example.com/media/")
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "mov" {
		t.Fatalf("stored data = %q", data)
	}
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{key: "uploads/a.mp4", want: "uploads/a.mp4"},
		{key: "/uploads//a.mp4", want: "uploads/a.mp4"},
		{key: `.\uploads\a.mp4`, want: "uploads/a.mp4"},
		{key: "../etc/passwd", wantErr: true},
		{key: "uploads/../../x", wantErr: true},
		{key: "  ", wantErr: true},
	}
	for _, tc := range tests {
		got, err := sanitizeKey(tc.key)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("sanitizeKey(%q) expected error, got %q", tc.key, got)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("sanitizeKey(%q) = %q, %v; want %q", tc.key, got, err, tc.want)
		}
	}
}

func TestNewUploaderModes(t *testing.T) {
	tests := []struct {
		cfg  infra.Config
		mode string
	}{
		{cfg: infra.Config{UploadMode: infra.UploadModeStub}, mode: infra.UploadModeStub},
		{cfg: infra.Config{UploadMode: infra.UploadModeHTTP, UploadBaseURL: "https://files.example.com/upload"}, mode: infra.UploadModeHTTP},
		{cfg: infra.Config{UploadMode: infra.UploadModeS3, S3Endpoint: "minio.local:9000", S3Bucket: "media"}, mode: infra.UploadModeS3},
		{cfg: infra.Config{UploadMode: infra.UploadModeLocal, LocalMediaPath: t.TempDir(), PublicBaseURL: "http://localhost:8080"}, mode: infra.UploadModeLocal},
	}
	for _, tc := range tests {
		cfg := tc.cfg
		u, err := NewUploader(&cfg, nil)
		if err != nil {
			t.Fatalf("NewUploader(%s): %v", tc.mode, err)
		}
		if u.Mode() != tc.mode {
			t.Fatalf("mode = %q, want %q", u.Mode(), tc.mode)
		}
	}
	if _, err := NewUploader(&infra.Config{UploadMode: "ftp"}, nil); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
