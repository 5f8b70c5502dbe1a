package httpcontext

import (
	"testing"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskdesk/domain"
	appLogger "github.com/fastygo/taskdesk/pkg/logger"
)

func TestAttach_ReusesRequestID(t *testing.T) {
	t.Parallel()

	adapter := NewAdapter(time.Second)
	var ctx fasthttp.RequestCtx

	first, cancel := adapter.Attach(&ctx)
	defer cancel()
	second, cancel2 := adapter.Attach(&ctx)
	defer cancel2()

	id := appLogger.RequestID(first)
	if id == "" || id != appLogger.RequestID(second) {
		t.Fatalf("request ids differ: %q vs %q", id, appLogger.RequestID(second))
	}
	if got := string(ctx.Response.Header.Peek("X-Request-ID")); got != id {
		t.Fatalf("response header = %q, want %q", got, id)
	}
	if _, ok := first.Deadline(); !ok {
		t.Fatal("expected a deadline")
	}
}

func TestRequestID_HonoursInboundHeader(t *testing.T) {
	t.Parallel()

	var ctx fasthttp.RequestCtx
	ctx.Request.Header.Set("X-Request-ID", "abc-123")

	if got := RequestID(&ctx); got != "abc-123" {
		t.Fatalf("RequestID = %q", got)
	}
}

func TestPrincipalRoundTrip(t *testing.T) {
	t.Parallel()

	var ctx fasthttp.RequestCtx
	if Principal(&ctx) != nil {
		t.Fatal("expected no principal")
	}
	SetPrincipal(&ctx, &domain.Principal{ID: "u1", Role: domain.RoleAdmin})
	if p := Principal(&ctx); p == nil || !p.IsAdmin() {
		t.Fatalf("unexpected principal: %+v", p)
	}
}
