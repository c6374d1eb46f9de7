package apiclient_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkcm/catalog-client/internal/serviceerr"
	"github.com/openkcm/catalog-client/pkg/apiclient"
)

// fakeAPI answers protected paths with the next status in its queue and
// counts refresh calls.
type fakeAPI struct {
	mu        sync.Mutex
	statuses  []int
	calls     int
	refreshes atomic.Int32
}

func (f *fakeAPI) next() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.statuses) == 0 {
		return http.StatusOK
	}
	s := f.statuses[0]
	f.statuses = f.statuses[1:]
	return s
}

func (f *fakeAPI) protectedCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newRefreshingClient(t *testing.T, api *fakeAPI, refreshErr error) *apiclient.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := api.next()
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write([]byte(`{"products": [{"id": 1, "title": "Essence Mascara"}], "total": 12, "skip": 0, "limit": 5}`))
			return
		}
		_, _ = w.Write([]byte(`{"message": "Token Expired!"}`))
	}))
	t.Cleanup(server.Close)

	c, err := apiclient.New(server.URL, apiclient.WithRefresher(func(ctx context.Context) error {
		api.refreshes.Add(1)
		return refreshErr
	}))
	require.NoError(t, err)

	return c
}

type productsPage struct {
	Products []struct {
		ID    int    `json:"id"`
		Title string `json:"title"`
	} `json:"products"`
	Total int `json:"total"`
}

func TestRefresh_ReplaysOnceAfterSuccessfulRefresh(t *testing.T) {
	api := &fakeAPI{statuses: []int{http.StatusUnauthorized, http.StatusOK}}
	c := newRefreshingClient(t, api, nil)

	var page productsPage
	err := c.Get(t.Context(), "/api/products?limit=5&skip=0", &page)
	require.NoError(t, err)

	assert.Equal(t, 12, page.Total)
	assert.Len(t, page.Products, 1)
	assert.Equal(t, int32(1), api.refreshes.Load())
	assert.Equal(t, 2, api.protectedCalls())
}

func TestRefresh_SurfacesOriginal401WhenRefreshFails(t *testing.T) {
	api := &fakeAPI{statuses: []int{http.StatusUnauthorized}}
	c := newRefreshingClient(t, api, errors.New("refresh rejected"))

	err := c.Get(t.Context(), "/api/products", nil)
	require.Error(t, err)

	var reqErr *apiclient.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusUnauthorized, reqErr.StatusCode)
	assert.Equal(t, "Token Expired!", reqErr.Message)
	assert.ErrorIs(t, err, serviceerr.ErrNotAuthenticated)
	assert.Equal(t, int32(1), api.refreshes.Load())
	assert.Equal(t, 1, api.protectedCalls(), "no replay after a failed refresh")
}

func TestRefresh_SecondUnauthorizedIsNotRetried(t *testing.T) {
	api := &fakeAPI{statuses: []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusOK}}
	c := newRefreshingClient(t, api, nil)

	err := c.Get(t.Context(), "/api/products", nil)
	require.Error(t, err)

	status, ok := apiclient.StatusCode(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, int32(1), api.refreshes.Load())
	assert.Equal(t, 2, api.protectedCalls())
}

func TestRefresh_ReplayFailureIsReturnedAsIs(t *testing.T) {
	api := &fakeAPI{statuses: []int{http.StatusUnauthorized, http.StatusInternalServerError}}
	c := newRefreshingClient(t, api, nil)

	err := c.Get(t.Context(), "/api/products", nil)

	status, ok := apiclient.StatusCode(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, int32(1), api.refreshes.Load())
}

func TestRefresh_AuthEndpointsNeverRefresh(t *testing.T) {
	for _, path := range []string{
		apiclient.PathLogin,
		apiclient.PathLogout,
		apiclient.PathRefresh,
		apiclient.PathMe,
		apiclient.PathMe + "?fields=id",
	} {
		t.Run(path, func(t *testing.T) {
			api := &fakeAPI{statuses: []int{http.StatusUnauthorized}}
			c := newRefreshingClient(t, api, nil)

			_, err := c.Send(t.Context(), http.MethodPost, path, nil)

			status, ok := apiclient.StatusCode(err)
			require.True(t, ok)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, int32(0), api.refreshes.Load())
			assert.Equal(t, 1, api.protectedCalls())
		})
	}
}

func TestRefresh_NoRefresherSurfaces401(t *testing.T) {
	api := &fakeAPI{statuses: []int{http.StatusUnauthorized}}
	c := newRefreshingClient(t, api, nil)
	c.SetRefresher(nil)

	err := c.Get(t.Context(), "/api/products", nil)
	assert.ErrorIs(t, err, serviceerr.ErrNotAuthenticated)
	assert.Equal(t, int32(0), api.refreshes.Load())
}

func TestRefresh_IndependentRequestsRefreshIndependently(t *testing.T) {
	api := &fakeAPI{statuses: []int{
		http.StatusUnauthorized, http.StatusOK,
		http.StatusUnauthorized, http.StatusOK,
	}}
	c := newRefreshingClient(t, api, nil)

	require.NoError(t, c.Get(t.Context(), "/api/products", nil))
	require.NoError(t, c.Get(t.Context(), "/api/products", nil))
	assert.Equal(t, int32(2), api.refreshes.Load())
}

func TestRefresh_ConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	const n = 8

	var protected atomic.Int32
	var refreshes atomic.Int32
	release := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The first n calls are rejected, the replays succeed.
		if protected.Add(1) <= n {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c, err := apiclient.New(server.URL, apiclient.WithRefresher(func(ctx context.Context) error {
		refreshes.Add(1)
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
		return nil
	}))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Go(func() {
			errs <- c.Get(context.Background(), "/api/products", nil)
		})
	}

	// Let every request reach the refresher before releasing it.
	require.Eventually(t, func() bool { return protected.Load() == n }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)

	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), refreshes.Load())
	assert.Equal(t, int32(2*n), protected.Load())
}

func TestRefresh_SharedRefreshSurvivesCancelledStarter(t *testing.T) {
	var protected atomic.Int32
	var refreshes atomic.Int32
	refreshErr := make(chan error, 1)
	release := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Both first calls are rejected, the replay succeeds.
		if protected.Add(1) <= 2 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c, err := apiclient.New(server.URL, apiclient.WithRefresher(func(ctx context.Context) error {
		refreshes.Add(1)
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
		refreshErr <- ctx.Err()
		return ctx.Err()
	}))
	require.NoError(t, err)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	defer cancelFirst()

	first := make(chan error, 1)
	go func() { first <- c.Get(firstCtx, "/api/products", nil) }()
	require.Eventually(t, func() bool { return refreshes.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	second := make(chan error, 1)
	go func() { second <- c.Get(context.Background(), "/api/products", nil) }()
	require.Eventually(t, func() bool { return protected.Load() == 2 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	select {
	case err := <-first:
		assert.ErrorIs(t, err, serviceerr.ErrNotAuthenticated)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled request kept waiting for the refresh")
	}

	close(release)
	require.NoError(t, <-second)
	require.NoError(t, <-refreshErr, "refresh ran on a cancelled context")
	assert.Equal(t, int32(1), refreshes.Load())
	assert.Equal(t, int32(3), protected.Load())
}
