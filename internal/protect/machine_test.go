package protect

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/core/domain"
	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/infra/storage/memory"
)

type fakeHead struct{ block uint64 }

func (h *fakeHead) GetLatestBlock(ctx context.Context) (uint64, error) { return h.block, nil }

type fakePrice struct {
	quote *big.Int
	err   error
}

func (p *fakePrice) Quote(ctx context.Context, tokenIn, tokenOut string, amountIn *big.Int) (*big.Int, error) {
	return p.quote, p.err
}

type fakeExec struct {
	out   *big.Int
	err   error
	calls int
}

func (e *fakeExec) ExecuteSwap(ctx context.Context, p *domain.SwapParams) (*big.Int, error) {
	e.calls++
	return e.out, e.err
}

type fakeGuard struct{ suspected bool }

func (g *fakeGuard) SandwichSuspected(owner string, p *domain.SwapParams) bool { return g.suspected }

func testParams() *domain.SwapParams {
	return &domain.SwapParams{
		Sender:       "0x1000000000000000000000000000000000000001",
		TokenIn:      "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		TokenOut:     "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		AmountIn:     big.NewInt(1_000_000),
		MinAmountOut: big.NewInt(990_000),
		Deadline:     time.Now().Add(5 * time.Minute).Unix(),
		Nonce:        42,
	}
}

func newTestMachine(head *fakeHead, price *fakePrice, exec *fakeExec) *Machine {
	repo := memory.NewCommitmentRepo(memory.NewMemoryStorage())
	return NewMachine(DefaultConfig(), repo, head, price, exec, nil, slog.Default())
}

func TestCommitUniqueness(t *testing.T) {
	ctx := context.Background()
	head := &fakeHead{block: 100}
	m := newTestMachine(head, &fakePrice{quote: big.NewInt(1_000_000)}, &fakeExec{out: big.NewInt(1_000_000)})

	params := testParams()
	hash := CommitmentHash(params)

	first, err := m.Commit(ctx, hash, params.Sender, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("first commit: %v", err)
	}
	if first.EarliestBlock != 102 {
		t.Errorf("earliest block = %d, want 102", first.EarliestBlock)
	}

	if _, err := m.Commit(ctx, hash, params.Sender, time.Now().Add(time.Minute)); !errors.Is(err, ErrDuplicateCommitment) {
		t.Fatalf("second commit err = %v, want ErrDuplicateCommitment", err)
	}

	// Original commitment unmodified.
	stored, _ := m.Get(ctx, hash)
	if stored.CreatedBlock != 100 || stored.Executed {
		t.Errorf("original commitment mutated: %+v", stored)
	}
}

func TestDelayEnforcement(t *testing.T) {
	ctx := context.Background()
	head := &fakeHead{block: 100}
	m := newTestMachine(head, &fakePrice{quote: big.NewInt(1_000_000)}, &fakeExec{out: big.NewInt(1_000_000)})

	params := testParams()
	hash := CommitmentHash(params)
	if _, err := m.Commit(ctx, hash, params.Sender, time.Now().Add(time.Minute)); err != nil {
		t.Fatal(err)
	}

	for _, block := range []uint64{100, 101} {
		head.block = block
		if _, err := m.RevealAndExecute(ctx, hash, params); !errors.Is(err, ErrTooEarly) {
			t.Errorf("block %d: err = %v, want ErrTooEarly", block, err)
		}
	}

	head.block = 102
	if _, err := m.RevealAndExecute(ctx, hash, params); err != nil {
		t.Errorf("block 102: err = %v, want success", err)
	}
}

func TestHashBinding(t *testing.T) {
	ctx := context.Background()
	head := &fakeHead{block: 100}
	m := newTestMachine(head, &fakePrice{quote: big.NewInt(1_000_000)}, &fakeExec{out: big.NewInt(1_000_000)})

	params := testParams()
	hash := CommitmentHash(params)
	if _, err := m.Commit(ctx, hash, params.Sender, time.Now().Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	head.block = 105

	mutations := map[string]func(p *domain.SwapParams){
		"sender":    func(p *domain.SwapParams) { p.Sender = "0x2000000000000000000000000000000000000002" },
		"token in":  func(p *domain.SwapParams) { p.TokenIn = p.TokenOut },
		"token out": func(p *domain.SwapParams) { p.TokenOut = p.TokenIn },
		"amount in": func(p *domain.SwapParams) { p.AmountIn = big.NewInt(2_000_000) },
		"min out":   func(p *domain.SwapParams) { p.MinAmountOut = big.NewInt(1) },
		"deadline":  func(p *domain.SwapParams) { p.Deadline++ },
		"nonce":     func(p *domain.SwapParams) { p.Nonce++ },
	}
	for field, mutate := range mutations {
		mutated := *testParams()
		mutate(&mutated)
		if _, err := m.RevealAndExecute(ctx, hash, &mutated); !errors.Is(err, ErrInvalidCommitment) {
			t.Errorf("mutated %s: err = %v, want ErrInvalidCommitment", field, err)
		}
	}

	// Unmutated params still succeed afterwards: rejections left state intact.
	if _, err := m.RevealAndExecute(ctx, hash, params); err != nil {
		t.Errorf("valid reveal after rejections: %v", err)
	}
}

func TestSingleExecution(t *testing.T) {
	ctx := context.Background()
	head := &fakeHead{block: 105}
	exec := &fakeExec{out: big.NewInt(995_000)}
	m := newTestMachine(head, &fakePrice{quote: big.NewInt(1_000_000)}, exec)

	params := testParams()
	hash := CommitmentHash(params)
	head.block = 100
	if _, err := m.Commit(ctx, hash, params.Sender, time.Now().Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	head.block = 105

	c, err := m.RevealAndExecute(ctx, hash, params)
	if err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if !c.Executed || c.RealizedOut.Cmp(big.NewInt(995_000)) != 0 {
		t.Errorf("commitment after execute: %+v", c)
	}

	for i := 0; i < 3; i++ {
		if _, err := m.RevealAndExecute(ctx, hash, params); !errors.Is(err, ErrAlreadyExecuted) {
			t.Fatalf("repeat reveal err = %v, want ErrAlreadyExecuted", err)
		}
	}
	if exec.calls != 1 {
		t.Errorf("executor called %d times, want 1", exec.calls)
	}
}

func TestFailClosedOnPriceOutage(t *testing.T) {
	ctx := context.Background()
	head := &fakeHead{block: 100}
	exec := &fakeExec{out: big.NewInt(1)}
	m := newTestMachine(head, &fakePrice{err: errors.New("provider unreachable")}, exec)

	params := testParams()
	hash := CommitmentHash(params)
	if _, err := m.Commit(ctx, hash, params.Sender, time.Now().Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	head.block = 110

	if _, err := m.RevealAndExecute(ctx, hash, params); !errors.Is(err, ErrAbortedMEVDetected) {
		t.Fatalf("err = %v, want ErrAbortedMEVDetected", err)
	}
	if exec.calls != 0 {
		t.Errorf("executor must never run without a price")
	}

	// Funds stay refundable after the abort.
	if err := m.Cancel(ctx, hash, params.Sender); err != nil {
		t.Errorf("cancel after abort: %v", err)
	}
}

func TestAbortOnPriceDeviation(t *testing.T) {
	ctx := context.Background()
	head := &fakeHead{block: 100}
	exec := &fakeExec{out: big.NewInt(1)}
	// minOut 990_000, ceiling 100 bps => floor 980_100; quote below it.
	m := newTestMachine(head, &fakePrice{quote: big.NewInt(900_000)}, exec)

	params := testParams()
	hash := CommitmentHash(params)
	if _, err := m.Commit(ctx, hash, params.Sender, time.Now().Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	head.block = 110

	if _, err := m.RevealAndExecute(ctx, hash, params); !errors.Is(err, ErrAbortedMEVDetected) {
		t.Fatalf("err = %v, want ErrAbortedMEVDetected", err)
	}
	if exec.calls != 0 {
		t.Errorf("executor ran despite deviation")
	}

	c, _ := m.Get(ctx, hash)
	if c == nil || c.Executed || c.Revealed != nil {
		t.Errorf("aborted reveal mutated the commitment: %+v", c)
	}
}

func TestDeadlineExpired(t *testing.T) {
	ctx := context.Background()
	head := &fakeHead{block: 100}
	m := newTestMachine(head, &fakePrice{quote: big.NewInt(1_000_000)}, &fakeExec{out: big.NewInt(1)})

	params := testParams()
	hash := CommitmentHash(params)
	if _, err := m.Commit(ctx, hash, params.Sender, time.Now().Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	head.block = 110

	m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := m.RevealAndExecute(ctx, hash, params); !errors.Is(err, ErrDeadlineExpired) {
		t.Fatalf("err = %v, want ErrDeadlineExpired", err)
	}
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	head := &fakeHead{block: 100}
	m := newTestMachine(head, &fakePrice{quote: big.NewInt(1_000_000)}, &fakeExec{out: big.NewInt(1)})

	params := testParams()
	hash := CommitmentHash(params)
	if _, err := m.Commit(ctx, hash, params.Sender, time.Now().Add(time.Minute)); err != nil {
		t.Fatal(err)
	}

	// Only the owner may cancel.
	if err := m.Cancel(ctx, hash, "0xintruder"); !errors.Is(err, ErrInvalidCommitment) {
		t.Errorf("foreign cancel err = %v, want ErrInvalidCommitment", err)
	}

	if err := m.Cancel(ctx, hash, params.Sender); err != nil {
		t.Fatalf("owner cancel: %v", err)
	}

	// Cancelled commitment is gone; reveal and repeat cancel both reject.
	head.block = 110
	if _, err := m.RevealAndExecute(ctx, hash, params); !errors.Is(err, ErrInvalidCommitment) {
		t.Errorf("reveal after cancel err = %v", err)
	}
	if err := m.Cancel(ctx, hash, params.Sender); !errors.Is(err, ErrInvalidCommitment) {
		t.Errorf("repeat cancel err = %v", err)
	}
}

func TestCancelAfterExecutionRejected(t *testing.T) {
	ctx := context.Background()
	head := &fakeHead{block: 100}
	m := newTestMachine(head, &fakePrice{quote: big.NewInt(1_000_000)}, &fakeExec{out: big.NewInt(1_000_000)})

	params := testParams()
	hash := CommitmentHash(params)
	if _, err := m.Commit(ctx, hash, params.Sender, time.Now().Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	head.block = 110
	if _, err := m.RevealAndExecute(ctx, hash, params); err != nil {
		t.Fatal(err)
	}

	if err := m.Cancel(ctx, hash, params.Sender); !errors.Is(err, ErrAlreadyExecuted) {
		t.Errorf("cancel after execute err = %v, want ErrAlreadyExecuted", err)
	}
}

func TestGuardAbortsReveal(t *testing.T) {
	ctx := context.Background()
	head := &fakeHead{block: 100}
	repo := memory.NewCommitmentRepo(memory.NewMemoryStorage())
	exec := &fakeExec{out: big.NewInt(1)}
	m := NewMachine(DefaultConfig(), repo, head, &fakePrice{quote: big.NewInt(1_000_000)}, exec, &fakeGuard{suspected: true}, slog.Default())

	params := testParams()
	hash := CommitmentHash(params)
	if _, err := m.Commit(ctx, hash, params.Sender, time.Now().Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	head.block = 110

	if _, err := m.RevealAndExecute(ctx, hash, params); !errors.Is(err, ErrAbortedMEVDetected) {
		t.Fatalf("err = %v, want ErrAbortedMEVDetected", err)
	}
	if exec.calls != 0 {
		t.Errorf("executor ran despite guard abort")
	}
}

func TestCommitmentHashStability(t *testing.T) {
	p := testParams()
	if CommitmentHash(p) != CommitmentHash(testParams()) {
		t.Errorf("identical params must produce identical hashes")
	}

	// Field boundaries must not be ambiguous under concatenation.
	a := testParams()
	a.TokenIn = "0xaa"
	a.TokenOut = "0xbb"
	b := testParams()
	b.TokenIn = "0xaa0xbb"
	b.TokenOut = ""
	if CommitmentHash(a) == CommitmentHash(b) {
		t.Errorf("length separators failed: shifted fields collide")
	}
}
