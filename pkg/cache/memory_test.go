package cache_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/atlaswatch/api/pkg/cache"
)

// fakeClock is a settable clock shared between the test and the cache
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 10, 29, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

var _ = Describe("ResponseCache", func() {
	var (
		clock *fakeClock
		c     *cache.ResponseCache
		ctx   context.Context
	)

	BeforeEach(func() {
		clock = newFakeClock()
		c = cache.NewResponseCache(cache.WithClock(clock.Now))
		ctx = context.Background()
	})

	Describe("Get and Set", func() {
		It("should return a stored value", func() {
			c.Set("positions:2025-10-29", []byte(`{"a":1}`))

			value, ok := c.Get("positions:2025-10-29")

			Expect(ok).To(BeTrue())
			Expect(value).To(Equal([]byte(`{"a":1}`)))
		})

		It("should keep the stored value when callers modify their slices", func() {
			value := []byte(`{"a":1}`)
			c.Set("positions:2025-10-29", value)
			value[2] = 'b'

			got, ok := c.Get("positions:2025-10-29")
			Expect(ok).To(BeTrue())
			got[2] = 'c'

			again, ok := c.Get("positions:2025-10-29")
			Expect(ok).To(BeTrue())
			Expect(again).To(Equal([]byte(`{"a":1}`)))
		})

		It("should report an unknown key as absent", func() {
			_, ok := c.Get("missing")

			Expect(ok).To(BeFalse())
		})

		It("should serve an entry 299 seconds old", func() {
			c.Set("k", []byte("v"))
			clock.Advance(299 * time.Second)

			_, ok := c.Get("k")

			Expect(ok).To(BeTrue())
		})

		It("should serve an entry exactly at the TTL", func() {
			c.Set("k", []byte("v"))
			clock.Advance(cache.DefaultTTL)

			_, ok := c.Get("k")

			Expect(ok).To(BeTrue())
		})

		It("should treat an entry 301 seconds old as absent", func() {
			c.Set("k", []byte("v"))
			clock.Advance(301 * time.Second)

			_, ok := c.Get("k")

			Expect(ok).To(BeFalse())
			Expect(c.Len()).To(Equal(1))
		})

		It("should refresh the timestamp on overwrite", func() {
			c.Set("k", []byte("old"))
			clock.Advance(4 * time.Minute)
			c.Set("k", []byte("new"))
			clock.Advance(4 * time.Minute)

			value, ok := c.Get("k")

			Expect(ok).To(BeTrue())
			Expect(string(value)).To(Equal("new"))
		})

		It("should honor a custom TTL", func() {
			c = cache.NewResponseCache(cache.WithClock(clock.Now), cache.WithTTL(time.Minute))
			c.Set("k", []byte("v"))
			clock.Advance(61 * time.Second)

			_, ok := c.Get("k")

			Expect(ok).To(BeFalse())
			Expect(c.TTL()).To(Equal(time.Minute))
		})

		It("should ignore a non-positive TTL", func() {
			c = cache.NewResponseCache(cache.WithTTL(0))

			Expect(c.TTL()).To(Equal(cache.DefaultTTL))
		})
	})

	Describe("GetOrCompute", func() {
		It("should compute once and then serve the cached value", func() {
			calls := 0
			compute := func(context.Context) ([]byte, error) {
				calls++
				return []byte("payload"), nil
			}

			first, hit, err := c.GetOrCompute(ctx, "k", compute)
			Expect(err).ToNot(HaveOccurred())
			Expect(hit).To(BeFalse())
			Expect(string(first)).To(Equal("payload"))

			second, hit, err := c.GetOrCompute(ctx, "k", compute)
			Expect(err).ToNot(HaveOccurred())
			Expect(hit).To(BeTrue())
			Expect(second).To(Equal(first))
			Expect(calls).To(Equal(1))
		})

		It("should recompute after expiry", func() {
			calls := 0
			compute := func(context.Context) ([]byte, error) {
				calls++
				return []byte("payload"), nil
			}

			_, _, err := c.GetOrCompute(ctx, "k", compute)
			Expect(err).ToNot(HaveOccurred())
			clock.Advance(6 * time.Minute)
			_, hit, err := c.GetOrCompute(ctx, "k", compute)

			Expect(err).ToNot(HaveOccurred())
			Expect(hit).To(BeFalse())
			Expect(calls).To(Equal(2))
		})

		It("should not cache failures", func() {
			boom := errors.New("boom")
			_, _, err := c.GetOrCompute(ctx, "k", func(context.Context) ([]byte, error) {
				return nil, boom
			})
			Expect(err).To(MatchError(boom))

			_, ok := c.Get("k")
			Expect(ok).To(BeFalse())
			Expect(c.Len()).To(BeZero())
		})
	})

	Describe("FirstHit", func() {
		It("should stop at the first candidate that succeeds", func() {
			var tried []string
			key, value, hit, err := c.FirstHit(ctx, []string{"a", "b", "c"}, func(_ context.Context, key string) ([]byte, error) {
				tried = append(tried, key)
				if key == "b" {
					return []byte("from-b"), nil
				}
				return nil, errors.New("no data for " + key)
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(key).To(Equal("b"))
			Expect(string(value)).To(Equal("from-b"))
			Expect(hit).To(BeFalse())
			Expect(tried).To(Equal([]string{"a", "b"}))
		})

		It("should serve a later candidate from cache", func() {
			c.Set("b", []byte("cached"))

			key, value, hit, err := c.FirstHit(ctx, []string{"a", "b"}, func(_ context.Context, key string) ([]byte, error) {
				return nil, errors.New("no data")
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(key).To(Equal("b"))
			Expect(string(value)).To(Equal("cached"))
			Expect(hit).To(BeTrue())
		})

		It("should return the last error when every candidate fails", func() {
			_, _, _, err := c.FirstHit(ctx, []string{"a", "b"}, func(_ context.Context, key string) ([]byte, error) {
				return nil, errors.New("failed " + key)
			})

			Expect(err).To(MatchError("failed b"))
		})

		It("should fail without candidates", func() {
			_, _, _, err := c.FirstHit(ctx, nil, func(context.Context, string) ([]byte, error) {
				return []byte("x"), nil
			})

			Expect(err).To(MatchError(cache.ErrNoCandidates))
		})

		It("should stop when the context is cancelled", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			_, _, _, err := c.FirstHit(cancelled, []string{"a"}, func(context.Context, string) ([]byte, error) {
				return []byte("x"), nil
			})

			Expect(err).To(MatchError(context.Canceled))
		})
	})

	It("should be safe for concurrent use", func() {
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer GinkgoRecover()
				c.Set("k", []byte("v"))
				_, ok := c.Get("k")
				Expect(ok).To(BeTrue())
			}()
		}
		wg.Wait()
	})
})
