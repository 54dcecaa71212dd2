package storage

import (
	"strings"
	"testing"
)

func TestMemeKey(t *testing.T) {
	a := MemeKey("https://i.redd.it/a.jpg")
	b := MemeKey("https://i.redd.it/b.png")

	if a != MemeKey("https://i.redd.it/a.jpg") {
		t.Error("expected the same URL to map to the same key")
	}
	if a == b {
		t.Error("expected different URLs to map to different keys")
	}
	if !strings.HasPrefix(a, "memes/") || !strings.HasSuffix(a, ".jpg") {
		t.Errorf("unexpected key layout: %s", a)
	}
	// memes/ + 64 hex chars + .jpg
	if len(a) != len("memes/")+64+len(".jpg") {
		t.Errorf("unexpected key length %d", len(a))
	}
}

func TestDetectStorageType(t *testing.T) {
	tests := []struct {
		endpoint string
		want     StorageType
	}{
		{endpoint: "https://abc.r2.cloudflarestorage.com", want: StorageTypeR2},
		{endpoint: "s3.us-west-2.amazonaws.com", want: StorageTypeS3},
		{endpoint: "", want: StorageTypeS3},
		{endpoint: "localhost:9000", want: StorageTypeS3Compatible},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			if got := detectStorageType(tt.endpoint); got != tt.want {
				t.Errorf("detectStorageType(%q) = %s, want %s", tt.endpoint, got, tt.want)
			}
		})
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := map[string]string{
		"https://minio.local:9000/":      "minio.local:9000",
		"http://localhost:9000/bucket/x": "localhost:9000",
		"abc.r2.cloudflarestorage.com":   "abc.r2.cloudflarestorage.com",
		"https://s3.amazonaws.com":       "s3.amazonaws.com",
	}

	for in, want := range tests {
		if got := normalizeEndpoint(in); got != want {
			t.Errorf("normalizeEndpoint(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestS3Storage_GetURL(t *testing.T) {
	withPublic, err := NewStorage(&S3Config{
		Endpoint:  "localhost:9000",
		Bucket:    "memes",
		PublicURL: "https://cdn.example.com/",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := withPublic.GetURL("memes/x.jpg"); got != "https://cdn.example.com/memes/x.jpg" {
		t.Errorf("GetURL = %s", got)
	}

	pathStyle, err := NewStorage(&S3Config{
		Endpoint: "https://localhost:9000",
		UseSSL:   true,
		Bucket:   "memes",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := pathStyle.GetURL("memes/x.jpg"); got != "https://localhost:9000/memes/memes/x.jpg" {
		t.Errorf("GetURL = %s", got)
	}
}
