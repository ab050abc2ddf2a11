package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var out map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &out); err != nil {
		t.Fatalf("json.Unmarshal(%q) error = %v", buf.String(), err)
	}

	return out
}

func TestHandler_MasksSecrets(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, &Config{ServiceName: "authgate", MaskFields: []string{"x-api-key"}}, nil))
	ctx := SetCorrelationID(context.Background(), "cid-1")

	// Act
	logger.InfoContext(ctx, "login",
		"email", "a@b.test",
		"password", "hunter22",
		"X-API-KEY", "k",
		"body", `{"refresh_token":"abc","nested":{"code":"123456"}}`,
		slog.Group("req", slog.String("Authorization", "Bearer x")),
	)

	// Assert
	out := decodeLine(t, &buf)
	if out["password"] != masked || out["X-API-KEY"] != masked {
		t.Fatalf("top-level not masked: %v", out)
	}
	if out["email"] != "a@b.test" {
		t.Fatalf("email = %v", out["email"])
	}
	if body, _ := out["body"].(string); strings.Contains(body, "abc") || strings.Contains(body, "123456") {
		t.Fatalf("json body not masked: %s", body)
	}
	if req, _ := out["req"].(map[string]any); req["Authorization"] != masked {
		t.Fatalf("group not masked: %v", out["req"])
	}
	if out["_cID"] != "cid-1" || out["service"] != "authgate" {
		t.Fatalf("context attrs missing: %v", out)
	}
	if _, ok := out["ts"]; !ok {
		t.Fatalf("time key not renamed: %v", out)
	}
}

func TestHandler_WithAttrsMasked(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, &Config{}, nil)).With("secret", "s3cr3t")

	logger.Info("hello")

	if out := decodeLine(t, &buf); out["secret"] != masked {
		t.Fatalf("secret = %v, want masked", out["secret"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"loud":  slog.LevelInfo,
	}

	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
