package s3

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/imamik/stackpilot/internal/platform/awsconfig"
)

// testClient creates a Client backed by a test HTTP server.
// The handler receives real S3 XML-protocol requests.
func testClient(t *testing.T, region string, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)

	client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(server.URL),
		UsePathStyle: true,
		Credentials:  credentials.NewStaticCredentialsProvider("test-key", "test-secret", ""),
		HTTPClient: &http.Client{
			Transport: &http.Transport{},
		},
	})

	return &Client{
		s3:       client,
		region:   region,
		endpoint: server.URL,
		bucket:   "templates-bucket",
		now:      func() time.Time { return time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC) },
	}, server
}

// xmlResponse is a helper to write S3-style XML responses.
func xmlResponse(w http.ResponseWriter, statusCode int, body string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(statusCode)
	_, _ = w.Write([]byte(body))
}

func TestNewClient(t *testing.T) {
	t.Setenv("AWS_CONFIG_FILE", "/nonexistent")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/nonexistent")

	client, err := NewClient(context.Background(), awsconfig.Settings{Region: "eu-central-1"}, "my-bucket")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.region != "eu-central-1" {
		t.Errorf("expected region eu-central-1, got %s", client.region)
	}
	if client.bucket != "my-bucket" {
		t.Errorf("expected bucket my-bucket, got %s", client.bucket)
	}

	if _, err := NewClient(context.Background(), awsconfig.Settings{}, ""); err == nil {
		t.Fatal("expected error for empty bucket name")
	}
}

func TestStageTemplate(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		putPath string
		putBody []byte
		created bool
		methods []string
	)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		methods = append(methods, r.Method)

		switch {
		case r.Method == http.MethodHead:
			w.WriteHeader(404)
		case r.Method == http.MethodPut && strings.TrimSuffix(r.URL.Path, "/") == "/templates-bucket":
			created = true
			xmlResponse(w, 200, `<?xml version="1.0" encoding="UTF-8"?><CreateBucketResult/>`)
		case r.Method == http.MethodPut:
			putPath = r.URL.Path
			putBody, _ = io.ReadAll(r.Body)
			w.WriteHeader(200)
		default:
			w.WriteHeader(400)
		}
	})

	client, server := testClient(t, "us-east-1", handler)
	defer server.Close()

	url, err := client.StageTemplate(context.Background(), "demo", "Resources: {}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !created {
		t.Error("expected bucket to be created")
	}
	wantKey := "templates/demo/20250601T103000Z.template"
	if putPath != "/templates-bucket/"+wantKey {
		t.Errorf("unexpected object path %s", putPath)
	}
	if string(putBody) != "Resources: {}" {
		t.Errorf("unexpected body %q", putBody)
	}
	if url != server.URL+"/templates-bucket/"+wantKey {
		t.Errorf("unexpected url %s", url)
	}
	if len(methods) != 3 {
		t.Errorf("expected HEAD, PUT bucket, PUT object; got %v", methods)
	}
}

func TestStageTemplate_ExistingBucket(t *testing.T) {
	t.Parallel()

	var puts int
	var mu sync.Mutex
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if r.Method == http.MethodPut {
			puts++
		}
		w.WriteHeader(200)
	})

	client, server := testClient(t, "us-east-1", handler)
	defer server.Close()

	if _, err := client.StageTemplate(context.Background(), "demo", "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if puts != 1 {
		t.Errorf("expected only the object upload, got %d PUTs", puts)
	}
}

func TestCreateBucket_LocationConstraint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		region string
		want   bool
	}{
		{"us-east-1", false},
		{"eu-west-1", true},
	}

	for _, tt := range tests {
		t.Run(tt.region, func(t *testing.T) {
			t.Parallel()
			var body string
			var mu sync.Mutex
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				b, _ := io.ReadAll(r.Body)
				mu.Lock()
				body = string(b)
				mu.Unlock()
				xmlResponse(w, 200, `<?xml version="1.0" encoding="UTF-8"?><CreateBucketResult/>`)
			})

			client, server := testClient(t, tt.region, handler)
			defer server.Close()

			if err := client.CreateBucket(context.Background()); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			mu.Lock()
			defer mu.Unlock()
			if got := strings.Contains(body, "<LocationConstraint>"+tt.region); got != tt.want {
				t.Errorf("location constraint present = %v, want %v (body %q)", got, tt.want, body)
			}
		})
	}
}

func TestCreateBucket_AlreadyOwnedByYou(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		xmlResponse(w, 409, `<?xml version="1.0" encoding="UTF-8"?>
<Error>
  <Code>BucketAlreadyOwnedByYou</Code>
  <Message>Your previous request to create the named bucket succeeded and you already own it.</Message>
  <BucketName>templates-bucket</BucketName>
</Error>`)
	})

	client, server := testClient(t, "us-east-1", handler)
	defer server.Close()

	if err := client.CreateBucket(context.Background()); err != nil {
		t.Fatalf("expected nil error for already owned bucket, got: %v", err)
	}
}

func TestCreateBucket_TakenByAnotherAccount(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		xmlResponse(w, 409, `<?xml version="1.0" encoding="UTF-8"?>
<Error>
  <Code>BucketAlreadyExists</Code>
  <Message>The requested bucket name is not available.</Message>
</Error>`)
	})

	client, server := testClient(t, "us-east-1", handler)
	defer server.Close()

	err := client.CreateBucket(context.Background())
	if err == nil {
		t.Fatal("expected error but got nil")
	}
	if !strings.Contains(err.Error(), "failed to create bucket templates-bucket") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestBucketExists_OtherError(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		xmlResponse(w, 403, `<?xml version="1.0" encoding="UTF-8"?>
<Error>
  <Code>AccessDenied</Code>
  <Message>Access Denied</Message>
</Error>`)
	})

	client, server := testClient(t, "us-east-1", handler)
	defer server.Close()

	_, err := client.BucketExists(context.Background())
	if err == nil {
		t.Fatal("expected error but got nil")
	}
	if !strings.Contains(err.Error(), "failed to check bucket templates-bucket") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestPutObject_Error(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		xmlResponse(w, 500, `<?xml version="1.0" encoding="UTF-8"?>
<Error>
  <Code>InternalError</Code>
  <Message>Internal Error</Message>
</Error>`)
	})

	client, server := testClient(t, "us-east-1", handler)
	defer server.Close()

	err := client.PutObject(context.Background(), "test-key", []byte("data"))
	if err == nil {
		t.Fatal("expected error but got nil")
	}
	if !strings.Contains(err.Error(), "failed to put object test-key in bucket templates-bucket") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestObjectURL(t *testing.T) {
	t.Parallel()

	c := &Client{region: "eu-west-1", bucket: "b"}
	if got := c.ObjectURL("templates/x/1.template"); got != "https://b.s3.eu-west-1.amazonaws.com/templates/x/1.template" {
		t.Errorf("unexpected url %s", got)
	}

	c.endpoint = "http://localhost:4566"
	if got := c.ObjectURL("k"); got != "http://localhost:4566/b/k" {
		t.Errorf("unexpected url %s", got)
	}
}

func TestIsBucketAlreadyOwnedByYou(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"wrapped BucketAlreadyOwnedByYou", fmt.Errorf("outer: %w", &s3types.BucketAlreadyOwnedByYou{}), true},
		{"bucket owned by someone else", fmt.Errorf("outer: %w", &s3types.BucketAlreadyExists{}), false},
		{"wrapped generic error", fmt.Errorf("outer: %w", fmt.Errorf("inner error")), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isBucketAlreadyOwnedByYou(tt.err); got != tt.want {
				t.Errorf("isBucketAlreadyOwnedByYou() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"wrapped NoSuchBucket", fmt.Errorf("outer: %w", &s3types.NoSuchBucket{}), true},
		{"wrapped NotFound", fmt.Errorf("outer: %w", &s3types.NotFound{}), true},
		{"wrapped generic error", fmt.Errorf("outer: %w", fmt.Errorf("inner error")), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isNotFoundError(tt.err); got != tt.want {
				t.Errorf("isNotFoundError() = %v, want %v", got, tt.want)
			}
		})
	}
}
