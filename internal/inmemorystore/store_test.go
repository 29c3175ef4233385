package inmemorystore

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/courseplanner/internal/store"
	"github.com/vk/courseplanner/internal/store/storetest"
)

func TestMirrorContract(t *testing.T) {
	t.Parallel()
	storetest.Run(t, func(*testing.T) store.Mirror { return New() })
}

func TestConcurrentEdits(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	const n = 100

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.AddCourse(ctx, fmt.Sprintf("C%03d", i), "name"))
			_, _ = s.Load(ctx)
		}(i)
	}
	wg.Wait()

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, count)
}
