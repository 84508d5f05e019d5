package feedback

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSink_NotifyKeepsOrderAndDropsBlank(t *testing.T) {
	s := NewSink()
	s.Error("Server error. Please try again later.")
	s.Info("  ")
	s.Notify(Kind("loud"), "ignored")
	s.Success("User registered successfully")

	assert.Equal(t, []Notice{
		{Kind: KindError, Message: "Server error. Please try again later."},
		{Kind: KindSuccess, Message: "User registered successfully"},
	}, s.Notices())
}

func TestSink_RedirectFirstWins(t *testing.T) {
	s := NewSink()
	assert.True(t, s.Redirect("/auth"))
	assert.False(t, s.Redirect("/dashboard"))
	assert.Equal(t, "/auth", s.RedirectTo())
}

func TestSink_ConcurrentRedirectSetOnce(t *testing.T) {
	s := NewSink()
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Redirect("/auth") {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestFromContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))

	ctx, s := WithSink(context.Background())
	assert.Same(t, s, FromContext(ctx))

	var nilSink *Sink
	assert.NotPanics(t, func() {
		nilSink.Error("x")
		nilSink.Redirect("/auth")
		_ = nilSink.Notices()
	})
}

func TestSink_DedupesRepeats(t *testing.T) {
	s := NewSink()
	s.Error("duplicate")
	s.Error("duplicate")
	s.Warning("duplicate")
	assert.Len(t, s.Notices(), 2)
}

func TestScopedMerge(t *testing.T) {
	ctx, parent := WithSink(context.Background())
	_, child := Scoped(ctx)
	child.Error("Unauthorized. Please sign in again.")
	child.Redirect("/auth")

	assert.Empty(t, parent.Notices(), "child feedback stays private until merged")

	parent.Merge(child)
	assert.Len(t, parent.Notices(), 1)
	assert.Equal(t, "/auth", parent.RedirectTo())
}
