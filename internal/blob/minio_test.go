package blob

import (
	"context"
	"testing"

	"file-drop/internal/fileid"
)

func TestNormaliseEndpoint(t *testing.T) {
	tests := []struct {
		in           string
		wantEndpoint string
		wantSecure   bool
		wantErr      bool
	}{
		{"minio:9000", "minio:9000", false, false},
		{"  minio:9000  ", "minio:9000", false, false},
		{"http://minio:9000", "minio:9000", false, false},
		{"https://minio:9000", "minio:9000", true, false},
		{"http://minio:9000/", "minio:9000", false, false},
		{"http://minio:9000/foo", "", false, true},
		{"http://", "", false, true},
		{"", "", false, true},
	}

	for _, tt := range tests {
		ep, secure, err := normaliseEndpoint(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("expected error for input %q", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", tt.in, err)
		}
		if ep != tt.wantEndpoint || secure != tt.wantSecure {
			t.Fatalf("normaliseEndpoint(%q) = (%q,%v), want (%q,%v)", tt.in, ep, secure, tt.wantEndpoint, tt.wantSecure)
		}
	}
}

func TestNewMinioStore_Incomplete(t *testing.T) {
	_, err := NewMinioStore(context.Background(), MinioConfig{Endpoint: "minio:9000", Bucket: "files"})
	if err == nil {
		t.Fatal("expected error for missing credentials")
	}
}

func TestObjectKey(t *testing.T) {
	id := fileid.MustParse("6ba7b810-9dad-41d1-80b4-00c04fd430c8")
	if got, want := objectKey(id), "uploads/6ba7b810-9dad-41d1-80b4-00c04fd430c8"; got != want {
		t.Fatalf("objectKey = %q, want %q", got, want)
	}
}
