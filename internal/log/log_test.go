package log

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestCtxChainsOnContextLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), zerolog.New(&buf))

	Ctx(ctx).Info().Str("k", "v").Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"k":"v"`) || !strings.Contains(out, "hello") {
		t.Errorf("output = %q", out)
	}
}

func TestCtxFallsBackToGlobal(t *testing.T) {
	if Ctx(context.Background()) != L() {
		t.Error("Ctx without a context logger did not return the global logger")
	}
	// Chained level calls off both accessors must be valid.
	L().Debug().Str("k", "v").Msg("")
	Ctx(context.Background()).Debug().Msg("")
}

func TestWithSessionTagsLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), zerolog.New(&buf))
	ctx = WithSession(ctx, "sess-1")

	Ctx(ctx).Info().Msg("frame")

	if !strings.Contains(buf.String(), `"session_id":"sess-1"`) {
		t.Errorf("output = %q", buf.String())
	}
}
