package tzcache

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gozoneinfo/tzcore/zoneinfo"
)

func stubZone(key string) *zoneinfo.Zone {
	z, err := zoneinfo.Decode(utcTZifReader(), key)
	if err != nil {
		panic(err)
	}
	return z
}

func TestCache_GetIsIdempotentPerKey(t *testing.T) {
	var builds int32
	c := New(func(key string) (*zoneinfo.Zone, error) {
		atomic.AddInt32(&builds, 1)
		return stubZone(key), nil
	}, 0)

	z1, err := c.Get("Etc/UTC")
	require.NoError(t, err)
	z2, err := c.Get("Etc/UTC")
	require.NoError(t, err)

	require.Same(t, z1, z2, "Get(k) must return the same instance while it is live")
	require.EqualValues(t, 1, atomic.LoadInt32(&builds))
	require.True(t, z1.FromCache())
}

func TestCache_ConcurrentGetCollapsesToOneBuild(t *testing.T) {
	var builds int32
	release := make(chan struct{})
	c := New(func(key string) (*zoneinfo.Zone, error) {
		atomic.AddInt32(&builds, 1)
		<-release
		return stubZone(key), nil
	}, 0)

	const n = 16
	var wg sync.WaitGroup
	results := make([]*zoneinfo.Zone, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			z, err := c.Get("America/Chicago")
			require.NoError(t, err)
			results[i] = z
		}(i)
	}
	close(release)
	wg.Wait()

	for i := 1; i < n; i++ {
		require.Same(t, results[0], results[i])
	}
	require.EqualValues(t, 1, atomic.LoadInt32(&builds))
}

func TestCache_ClearAllAndClearSelective(t *testing.T) {
	c := New(func(key string) (*zoneinfo.Zone, error) { return stubZone(key), nil }, 0)

	first, err := c.Get("Etc/UTC")
	require.NoError(t, err)
	_, err = c.Get("Europe/Minsk")
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	c.Clear("Europe/Minsk")
	require.Equal(t, 1, c.Len())

	c.Clear()
	require.Equal(t, 0, c.Len())

	second, err := c.Get("Etc/UTC")
	require.NoError(t, err)
	require.NotSame(t, first, second, "after Clear a fresh Get must rebuild")
}

func TestCache_StrongEvictionKeepsWeakTierAlive(t *testing.T) {
	c := New(func(key string) (*zoneinfo.Zone, error) { return stubZone(key), nil }, 2)

	held, err := c.Get("key-0")
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		_, err := c.Get(fmt.Sprintf("key-%d", i))
		require.NoError(t, err)
	}

	// key-0 fell out of the strong FIFO (capacity 2) long ago, but the
	// caller above is still holding a strong reference to it directly,
	// so the weak tier must still resolve it to the same instance.
	again, err := c.Get("key-0")
	require.NoError(t, err)
	require.Same(t, held, again)
}

func TestCache_LoaderErrorIsNotCached(t *testing.T) {
	var calls int32
	c := New(func(key string) (*zoneinfo.Zone, error) {
		atomic.AddInt32(&calls, 1)
		return nil, fmt.Errorf("boom")
	}, 0)

	_, err := c.Get("Mars/Olympus_Mons")
	require.Error(t, err)
	_, err = c.Get("Mars/Olympus_Mons")
	require.Error(t, err)
	require.EqualValues(t, 2, atomic.LoadInt32(&calls), "a failed load must not poison the cache")
}
