package catalog

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	timeout = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type recorder struct {
	mu     sync.Mutex
	values []string
}

func (r *recorder) record(v string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.values...)
}

func TestDebouncer_DeliversLatest(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(20*time.Millisecond, rec.record)

	d.Push("p")
	d.Push("ph")
	d.Push("phone")

	require.Eventually(t, func() bool { return len(rec.got()) == 1 }, timeout, tick)
	assert.Equal(t, []string{"phone"}, rec.got())

	d.Push("laptop")
	require.Eventually(t, func() bool { return len(rec.got()) == 2 }, timeout, tick)
	assert.Equal(t, []string{"phone", "laptop"}, rec.got())
}

func TestDebouncer_Stop(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(10*time.Millisecond, rec.record)

	d.Push("phone")
	d.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, rec.got())
}

func TestNewDebouncer_DefaultInterval(t *testing.T) {
	d := NewDebouncer(0, func(string) {})
	assert.Equal(t, DefaultDebounce, d.interval)
}

func TestDebouncer_Flush(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(time.Hour, rec.record)

	d.Flush()
	assert.Empty(t, rec.got(), "nothing pending")

	d.Push("ph")
	d.Push("phone")
	d.Flush()
	assert.Equal(t, []string{"phone"}, rec.got())

	d.Flush()
	assert.Equal(t, []string{"phone"}, rec.got(), "a value is delivered once")
}
