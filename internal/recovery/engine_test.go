package recovery

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tdvu/keyhound/internal/core/config"
	"github.com/tdvu/keyhound/internal/core/domain"
)

func newTestEngine(v Validator) *Engine {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEngine(v, domain.DefaultGrammar(), log, time.Hour)
}

// All-digit base words collapse every casing variant into one token,
// giving the tests exact control over the space size.
func singleBaseConfig() config.PasswordConfig {
	return config.PasswordConfig{
		BaseWords:     []string{"12345"},
		DigitPatterns: []string{"678"},
		SpecialChars:  []string{"!"},
	}
}

func TestRecover_SingleCandidate(t *testing.T) {
	cfg := singleBaseConfig()
	const want = "12345678!"

	for _, workers := range []int{1, 4, 8, 100} {
		v := ValidatorFunc(func(p string) (bool, error) { return p == want, nil })
		res, err := newTestEngine(v).Recover(context.Background(), cfg, workers)
		if err != nil {
			t.Fatalf("workers=%d: unexpected error: %v", workers, err)
		}
		if !res.Found {
			t.Fatalf("workers=%d: password not found", workers)
		}
		if res.Password != want {
			t.Errorf("workers=%d: password = %q, want %q", workers, res.Password, want)
		}
		if res.Attempts != 1 {
			t.Errorf("workers=%d: attempts = %d, want 1", workers, res.Attempts)
		}
		if res.SpaceSize != 1 {
			t.Errorf("workers=%d: space size = %d, want 1", workers, res.SpaceSize)
		}
	}
}

func TestRecover_ExhaustsSpaceExactly(t *testing.T) {
	cfg := config.PasswordConfig{
		BaseWords:     []string{"ether", "coin"},
		DigitPatterns: []string{"1", "22", "333"},
		SpecialChars:  []string{"!", "@"},
	}
	g := domain.DefaultGrammar()
	want := uint64(len(GenerateBases(cfg.BaseWords, g))) *
		uint64(len(cfg.DigitPatterns)) * uint64(len(cfg.SpecialChars))

	var mu sync.Mutex
	seen := make(map[string]int)
	v := ValidatorFunc(func(p string) (bool, error) {
		mu.Lock()
		seen[p]++
		mu.Unlock()
		return false, nil
	})

	res, err := newTestEngine(v).Recover(context.Background(), cfg, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Found {
		t.Fatal("found a password with an always-false validator")
	}
	if res.Attempts != want {
		t.Errorf("attempts = %d, want %d", res.Attempts, want)
	}
	if uint64(len(seen)) != want {
		t.Errorf("distinct candidates tested = %d, want %d", len(seen), want)
	}
	for p, n := range seen {
		if n != 1 {
			t.Errorf("candidate %q tested %d times", p, n)
		}
	}
}

func TestRecover_WorkerCountRejected(t *testing.T) {
	var calls atomic.Uint64
	v := ValidatorFunc(func(string) (bool, error) {
		calls.Add(1)
		return false, nil
	})

	for _, workers := range []int{0, -1, 101} {
		if _, err := newTestEngine(v).Recover(context.Background(), singleBaseConfig(), workers); err == nil {
			t.Errorf("workers=%d: expected error", workers)
		}
	}
	if n := calls.Load(); n != 0 {
		t.Errorf("validator called %d times before rejection", n)
	}
}

func TestRecover_InvalidConfigRejected(t *testing.T) {
	var calls atomic.Uint64
	v := ValidatorFunc(func(string) (bool, error) {
		calls.Add(1)
		return false, nil
	})

	cfgs := []config.PasswordConfig{
		{BaseWords: nil, DigitPatterns: []string{"1"}, SpecialChars: []string{"!"}},
		{BaseWords: []string{"ether"}, DigitPatterns: nil, SpecialChars: []string{"!"}},
		{BaseWords: []string{"ether"}, DigitPatterns: []string{"1"}, SpecialChars: nil},
	}
	for i, cfg := range cfgs {
		if _, err := newTestEngine(v).Recover(context.Background(), cfg, 4); err == nil {
			t.Errorf("config %d: expected error", i)
		}
	}
	if n := calls.Load(); n != 0 {
		t.Errorf("validator called %d times before rejection", n)
	}
}

func TestRecover_NoViableBases(t *testing.T) {
	cfg := config.PasswordConfig{
		BaseWords:     []string{"abcd"},
		DigitPatterns: []string{"1"},
		SpecialChars:  []string{"!"},
	}
	v := ValidatorFunc(func(string) (bool, error) { return false, nil })
	_, err := newTestEngine(v).Recover(context.Background(), cfg, 4)
	if !errors.Is(err, ErrNoCandidates) {
		t.Errorf("err = %v, want ErrNoCandidates", err)
	}
}

func TestRecover_OracleErrorsAreMisses(t *testing.T) {
	cfg := config.PasswordConfig{
		BaseWords:     []string{"12345"},
		DigitPatterns: []string{"1", "2", "3"},
		SpecialChars:  []string{"!"},
	}
	const want = "123453!" // last candidate in chunk order

	v := ValidatorFunc(func(p string) (bool, error) {
		if p == want {
			return true, nil
		}
		return false, errors.New("kdf backend hiccup")
	})

	res, err := newTestEngine(v).Recover(context.Background(), cfg, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Found || res.Password != want {
		t.Fatalf("found=%v password=%q, want %q", res.Found, res.Password, want)
	}
	if res.Attempts != 3 {
		t.Errorf("attempts = %d, want 3 (errored candidates still count)", res.Attempts)
	}
}

func TestRecover_ConcurrentSingleMatch(t *testing.T) {
	cfg := config.PasswordConfig{
		BaseWords:     []string{"12345", "23456", "34567", "45678"},
		DigitPatterns: []string{"1", "22", "333"},
		SpecialChars:  []string{"!", "@"},
	}
	g := domain.DefaultGrammar()
	bases := GenerateBases(cfg.BaseWords, g)
	space := uint64(len(bases)) * 6
	want := bases[len(bases)/2] + "22" + "@"

	for run := 0; run < 20; run++ {
		v := ValidatorFunc(func(p string) (bool, error) { return p == want, nil })
		res, err := newTestEngine(v).Recover(context.Background(), cfg, 8)
		if err != nil {
			t.Fatalf("run %d: unexpected error: %v", run, err)
		}
		if !res.Found || res.Password != want {
			t.Fatalf("run %d: found=%v password=%q, want %q", run, res.Found, res.Password, want)
		}
		if res.Attempts == 0 || res.Attempts > space {
			t.Errorf("run %d: attempts = %d, want in [1,%d]", run, res.Attempts, space)
		}
	}
}

func TestRecover_ContextCancellation(t *testing.T) {
	cfg := config.PasswordConfig{
		BaseWords:     []string{"12345", "23456", "34567", "45678"},
		DigitPatterns: []string{"1", "22", "333"},
		SpecialChars:  []string{"!", "@"},
	}
	g := domain.DefaultGrammar()
	space := uint64(len(GenerateBases(cfg.BaseWords, g))) * 6

	v := ValidatorFunc(func(string) (bool, error) {
		time.Sleep(2 * time.Millisecond)
		return false, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	res, err := newTestEngine(v).Recover(ctx, cfg, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Found {
		t.Fatal("found a password with an always-false validator")
	}
	if res.Attempts >= space {
		t.Errorf("attempts = %d, expected early stop well below %d", res.Attempts, space)
	}
}
