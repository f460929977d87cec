package fcmpool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yusufsyaifudin/ngendika/pkg/fcm"
)

// fakeClient records whether Close was called, standing in for
// fcm.ClientDefault in tests that don't want to talk to Firebase.
type fakeClient struct {
	closed bool
}

func (f *fakeClient) SendMulticast(_ context.Context, _ *fcm.MulticastMessage) (fcm.MulticastBatchResult, error) {
	return fcm.MulticastBatchResult{}, nil
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func TestPool_InvalidateClosesClient(t *testing.T) {
	client := &fakeClient{}
	p := &Pool{clients: map[string]fcm.Client{"tenant-1": client}}

	p.Invalidate("tenant-1")

	assert.True(t, client.closed)
	_, ok := p.clients["tenant-1"]
	assert.False(t, ok)
}

func TestPool_InvalidateUnknownClientIsNoop(t *testing.T) {
	p := &Pool{clients: map[string]fcm.Client{}}
	p.Invalidate("missing")
}

func TestPool_ShutdownClosesEveryClient(t *testing.T) {
	a := &fakeClient{}
	b := &fakeClient{}
	p := &Pool{clients: map[string]fcm.Client{"a": a, "b": b}}

	p.Shutdown()

	assert.True(t, a.closed)
	assert.True(t, b.closed)
	assert.Empty(t, p.clients)
}
