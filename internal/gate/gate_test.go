package gate

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseVerdict(t *testing.T) {
	assert.Equal(t, VerdictYes, parseVerdict("yes"))
	assert.Equal(t, VerdictYes, parseVerdict("Yes, this page is relevant."))
	assert.Equal(t, VerdictNo, parseVerdict("no, not relevant"))
	assert.Equal(t, VerdictUnknown, parseVerdict(""))
	assert.Equal(t, VerdictUnknown, parseVerdict("maybe"))
	assert.Equal(t, VerdictUnknown, parseVerdict("   "))
}

func TestAdmitForVerdict_OnlyDefinitiveNoBlocks(t *testing.T) {
	assert.True(t, admitForVerdict(VerdictYes))
	assert.True(t, admitForVerdict(VerdictUnknown), "an ambiguous verdict must fall back to local scoring, not veto")
	assert.False(t, admitForVerdict(VerdictNo))
}

func TestCallBudget_AllowsUpToMax(t *testing.T) {
	b := newCallBudget(3)
	for i := 0; i < 3; i++ {
		allowed, exceeded := b.Allow()
		assert.True(t, allowed)
		assert.False(t, exceeded)
	}

	allowed, exceeded := b.Allow()
	assert.False(t, allowed)
	assert.True(t, exceeded, "first call past the cap reports justExceeded")

	allowed, exceeded = b.Allow()
	assert.False(t, allowed)
	assert.False(t, exceeded, "subsequent calls past the cap do not re-report")
}

func TestCallBudget_ConcurrentUse(t *testing.T) {
	b := newCallBudget(50)
	var wg sync.WaitGroup
	allowedCount := 0
	var mu sync.Mutex

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed, _ := b.Allow(); allowed {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowedCount)
}
