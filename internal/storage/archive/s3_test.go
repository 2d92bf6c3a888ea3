package archive

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/newthinker/polyedge/internal/config"
)

func TestS3Storage_ImplementsStorage(t *testing.T) {
	var _ Storage = (*S3Storage)(nil)
}

func TestS3Storage_Key(t *testing.T) {
	tests := []struct {
		prefix string
		path   string
		want   string
	}{
		{"", "file.json", "file.json"},
		{"archive", "file.json", "archive/file.json"},
		{"/archive/", "tracker/2024/06/01/r.json", "archive/tracker/2024/06/01/r.json"},
	}

	for _, tt := range tests {
		s, err := NewS3(config.S3Config{Bucket: "b", Prefix: tt.prefix})
		if err != nil {
			t.Fatalf("NewS3: %v", err)
		}
		got := s.key(tt.path)
		if got != tt.want {
			t.Errorf("key(%q) with prefix %q = %q, want %q", tt.path, tt.prefix, got, tt.want)
		}
		if rel := s.relative(got); rel != tt.path {
			t.Errorf("relative(%q) = %q, want %q", got, rel, tt.path)
		}
	}
}

func TestS3_IsNotFound(t *testing.T) {
	if !isNotFound(&types.NotFound{}) {
		t.Error("NotFound should be recognized")
	}
	if !isNotFound(&types.NoSuchKey{}) {
		t.Error("NoSuchKey should be recognized")
	}
	if isNotFound(errors.New("access denied")) {
		t.Error("other errors must surface")
	}
}

func TestContentType(t *testing.T) {
	if contentType("tracker/r.json") != "application/json" {
		t.Error("json reports should be tagged as json")
	}
	if contentType("blob") != "application/octet-stream" {
		t.Error("unknown files default to octet-stream")
	}
}
