package clock

import "testing"

func TestNowMsIsMonotonicNonDecreasing(t *testing.T) {
	a := NowMs()
	for i := 0; i < CLOCK_FREQ/msecPerSec*3; i++ {
		readTime()
	}
	b := NowMs()
	if b < a {
		t.Fatalf("expected time to not go backwards, got %d then %d", a, b)
	}
}
