package r2client

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

func TestCompressDecompress(t *testing.T) {
	t.Parallel()

	testData := []byte(strings.Repeat("entries:\n- question: It is asking for a password.\n", 500))

	compressed, err := Compress(testData)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if len(compressed) >= len(testData) {
		t.Errorf("Compressed size %d >= original %d", len(compressed), len(testData))
	}

	result, err := Decompress(bytes.NewReader(compressed))
	if err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}
	if !bytes.Equal(result, testData) {
		t.Error("Decompressed content mismatch")
	}
}

func TestDecompress_Error(t *testing.T) {
	t.Parallel()

	if _, err := Decompress(strings.NewReader("not zstd data")); err == nil {
		t.Error("Expected error for invalid zstd input")
	}
}

func TestDecompress_TooLarge(t *testing.T) {
	t.Parallel()

	compressed, err := Compress(make([]byte, MaxObjectSize+1))
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if _, err := Decompress(bytes.NewReader(compressed)); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Expected ErrTooLarge, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	valid := Config{
		Endpoint:    "https://account.r2.cloudflarestorage.com",
		AccessKeyID: "access-key",
		SecretKey:   "secret-key",
		BucketName:  "my-bucket",
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid config", func(*Config) {}, false},
		{"missing endpoint", func(c *Config) { c.Endpoint = "" }, true},
		{"missing access key", func(c *Config) { c.AccessKeyID = "" }, true},
		{"missing secret key", func(c *Config) { c.SecretKey = "" }, true},
		{"missing bucket", func(c *Config) { c.BucketName = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEndpointForAccount(t *testing.T) {
	t.Parallel()

	if got := EndpointForAccount("abc123"); got != "https://abc123.r2.cloudflarestorage.com" {
		t.Errorf("EndpointForAccount() = %q", got)
	}
	if got := EndpointForAccount(""); got != "" {
		t.Errorf("EndpointForAccount(\"\") = %q, want empty", got)
	}
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"no such key", &types.NoSuchKey{}, true},
		{"not found", &types.NotFound{}, true},
		{"api error 404", &smithy.GenericAPIError{Code: "404"}, true},
		{"api error other", &smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isNotFound(tt.err); got != tt.want {
				t.Errorf("isNotFound() = %v, want %v", got, tt.want)
			}
		})
	}
}
