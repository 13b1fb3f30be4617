package seed

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func draw(r *rand.Rand, n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = r.Int63()
	}
	return out
}

func TestPairIsDeterministic(t *testing.T) {
	p := Pair{Global: DefaultGlobal, Op: 98723}
	assert.Equal(t, draw(p.Rand(), 8), draw(p.Rand(), 8))
	assert.Equal(t, "12345/98723", p.String())
}

func TestPairsDiffer(t *testing.T) {
	a := Pair{Global: 12345, Op: 4}
	b := Pair{Global: 12345, Op: 5}
	c := Pair{Global: 54321, Op: 4}
	assert.NotEqual(t, draw(a.Rand(), 4), draw(b.Rand(), 4))
	assert.NotEqual(t, draw(a.Rand(), 4), draw(c.Rand(), 4))
	assert.NotEqual(t, draw(Pair{Global: 4, Op: 12345}.Rand(), 4), draw(c.Rand(), 4), "seed order matters")
}

func TestDerive(t *testing.T) {
	p := Pair{Global: 1, Op: 2}
	assert.Equal(t, p.Derive("network"), p.Derive("network"))
	assert.NotEqual(t, p.Derive("network"), p.Derive("sampler"))
	assert.Equal(t, p.Global, p.Derive("network").Global)
	assert.GreaterOrEqual(t, p.Derive("network").Op, int64(0))
}

func TestStreamAdvances(t *testing.T) {
	p := Pair{Global: 7, Op: 8}
	s := NewStream(p)
	ref := p.Rand()

	var first, second int64
	s.Use(func(r *rand.Rand) { first = r.Int63() })
	s.Use(func(r *rand.Rand) { second = r.Int63() })

	assert.Equal(t, ref.Int63(), first)
	assert.Equal(t, ref.Int63(), second)
}

func TestStreamConcurrentUse(t *testing.T) {
	s := NewStream(Pair{Global: 1, Op: 1})
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Use(func(r *rand.Rand) { _ = r.Float64() })
		}()
	}
	wg.Wait()
}

func TestFreshPairsAreDistinct(t *testing.T) {
	a, b := Fresh(), Fresh()
	assert.NotEqual(t, a, b)
}
