package requestcontext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccessors(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ClientIP(ctx))
	assert.Empty(t, RequestID(ctx))

	ctx = WithClientMetadata(ctx, "203.0.113.7", "curl/8")
	ctx = WithRequestID(ctx, "req-1")

	assert.Equal(t, "203.0.113.7", ClientIP(ctx))
	assert.Equal(t, "curl/8", UserAgent(ctx))
	assert.Equal(t, "req-1", RequestID(ctx))
}
