package filter

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// upper succeeds on non-empty strings.
func upper(id string) *Typed[string, string] {
	return New(id, func(s string) bool { return s != "" }, func(_ context.Context, s string) (string, error) {
		return strings.ToUpper(s), nil
	})
}

func failing(id string, err error) *Typed[string, string] {
	return New(id, nil, func(_ context.Context, _ string) (string, error) {
		return "", err
	})
}

// sleeper blocks until its context is done or d elapses.
func sleeper(id string, d time.Duration) *Typed[string, string] {
	return New(id, nil, func(ctx context.Context, s string) (string, error) {
		select {
		case <-time.After(d):
			return s, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
}

func TestTyped(t *testing.T) {
	f := upper("up")

	if f.Supports(42) {
		t.Error("Supports(int) = true, want false")
	}
	if f.Supports("") {
		t.Error("Supports(\"\") = true, want false")
	}

	_, err := f.Execute(context.Background(), 42)
	var unsupported *UnsupportedInputError
	if !errors.As(err, &unsupported) || unsupported.FilterID != "up" {
		t.Fatalf("Execute(int) error = %v, want UnsupportedInputError for up", err)
	}

	out, err := f.Execute(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "ABC" {
		t.Errorf("output = %v, want ABC", out)
	}
}

func TestTyped_NilOutput(t *testing.T) {
	f := New("nil", nil, func(_ context.Context, _ string) (*string, error) {
		return nil, nil
	})
	_, err := f.Execute(context.Background(), "x")
	if !errors.Is(err, ErrNoOutput) {
		t.Errorf("error = %v, want ErrNoOutput", err)
	}
}

func TestSequencer(t *testing.T) {
	trim := New("trim", nil, func(_ context.Context, s string) (string, error) {
		return strings.TrimSpace(s), nil
	})
	length := New("len", nil, func(_ context.Context, s string) (int, error) {
		return len(s), nil
	})

	seq := NewSequencer("seq", trim, upper("up"), length)
	if !seq.Supports("x") {
		t.Error("Supports = false, want true")
	}
	out, err := seq.Execute(context.Background(), "  abc ")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != 3 {
		t.Errorf("output = %v, want 3", out)
	}
}

func TestSequencer_StopsAtFailure(t *testing.T) {
	var calls atomic.Int32
	counter := New("counter", nil, func(_ context.Context, s string) (string, error) {
		calls.Add(1)
		return s, nil
	})

	boom := errors.New("boom")
	seq := NewSequencer("seq", upper("up"), failing("broken", boom), counter)
	_, err := seq.Execute(context.Background(), "abc")

	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("error = %v, want ExecutionError", err)
	}
	if execErr.FilterID != "broken" {
		t.Errorf("FilterID = %q, want %q", execErr.FilterID, "broken")
	}
	if !errors.Is(err, boom) {
		t.Error("error does not wrap the filter cause")
	}
	if calls.Load() != 0 {
		t.Errorf("filter after failure ran %d times", calls.Load())
	}
}

func TestSequencer_UnsupportedIntermediate(t *testing.T) {
	// upper rejects the empty string produced by blank
	blank := New("blank", nil, func(_ context.Context, _ string) (string, error) { return "", nil })
	seq := NewSequencer("seq", blank, upper("up"))

	_, err := seq.Execute(context.Background(), "abc")
	if FilterIDOf(err) != "up" {
		t.Errorf("error attributed to %q, want %q (%v)", FilterIDOf(err), "up", err)
	}
}

func TestSequencer_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSequencer("seq", upper("up")).Execute(ctx, "abc")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestMultiplexer_FailureIsolation(t *testing.T) {
	mux := NewMultiplexer("mux", []Filter{
		upper("a"),
		sleeper("b", time.Second),
		failing("c", errors.New("validation failed")),
	}, WithTimeout(50*time.Millisecond))

	res, err := mux.Execute(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	out := res.(*MuxOutput)

	if len(out.Candidates) != 1 || out.Candidates[0].FilterID != "a" || out.Candidates[0].Output != "ABC" {
		t.Errorf("candidates = %+v, want only a's output", out.Candidates)
	}
	if len(out.Errors) != 2 {
		t.Fatalf("len(errors) = %d, want 2: %v", len(out.Errors), out.Errors)
	}
	if errs := out.Errors.ForFilter("b"); len(errs) != 1 || !IsTimeout(errs[0]) {
		t.Errorf("errors for b = %v, want one timeout", errs)
	}
	var execErr *ExecutionError
	if errs := out.Errors.ForFilter("c"); len(errs) != 1 || !errors.As(errs[0], &execErr) {
		t.Errorf("errors for c = %v, want one ExecutionError", errs)
	}
}

func TestMultiplexer_SkipsUnsupported(t *testing.T) {
	var calls atomic.Int32
	never := New("never", func(string) bool { return false }, func(_ context.Context, s string) (string, error) {
		calls.Add(1)
		return s, nil
	})
	mux := NewMultiplexer("mux", []Filter{never, upper("up")})

	for i := 0; i < 3; i++ {
		res, err := mux.Execute(context.Background(), "abc")
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		out := res.(*MuxOutput)
		for _, c := range out.Candidates {
			if c.FilterID == "never" {
				t.Fatal("unsupported filter produced a candidate")
			}
		}
		if len(out.Errors) != 0 {
			t.Errorf("skipping produced errors: %v", out.Errors)
		}
	}
	if calls.Load() != 0 {
		t.Errorf("unsupported filter executed %d times", calls.Load())
	}
}

func TestMultiplexer_RegistrationOrder(t *testing.T) {
	// "slow" finishes last but is registered first
	slow := New("slow", nil, func(_ context.Context, s string) (string, error) {
		time.Sleep(30 * time.Millisecond)
		return "slow:" + s, nil
	})
	mux := NewMultiplexer("mux", []Filter{slow, upper("fast")})

	res, err := mux.Execute(context.Background(), "x")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	out := res.(*MuxOutput)
	if len(out.Candidates) != 2 || out.Candidates[0].FilterID != "slow" || out.Candidates[1].FilterID != "fast" {
		t.Errorf("candidates = %+v, want slow then fast", out.Candidates)
	}
}

func TestMultiplexer_TimeoutIgnoringContext(t *testing.T) {
	stuck := New("stuck", nil, func(_ context.Context, s string) (string, error) {
		time.Sleep(500 * time.Millisecond)
		return s, nil
	})
	mux := NewMultiplexer("mux", []Filter{stuck, upper("up")}, WithTimeout(20*time.Millisecond))

	start := time.Now()
	res, err := mux.Execute(context.Background(), "x")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 300*time.Millisecond {
		t.Errorf("Execute took %v, want it bounded by the call timeout", elapsed)
	}
	out := res.(*MuxOutput)
	if len(out.Candidates) != 1 || !IsTimeout(out.Errors[0]) {
		t.Errorf("unexpected output: %+v", out)
	}
}

func TestMultiplexer_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mux := NewMultiplexer("mux", []Filter{upper("up"), sleeper("slow", time.Second)})

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	res, err := mux.Execute(ctx, "x")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if res != nil {
		t.Errorf("completed candidates were returned after cancellation: %v", res)
	}
}

func TestMultiplexer_Panic(t *testing.T) {
	bad := New("bad", nil, func(_ context.Context, _ string) (string, error) {
		panic("oops")
	})
	res, err := NewMultiplexer("mux", []Filter{bad, upper("up")}).Execute(context.Background(), "x")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	out := res.(*MuxOutput)
	if len(out.Candidates) != 1 || len(out.Errors.ForFilter("bad")) != 1 {
		t.Errorf("unexpected output: %+v", out)
	}
}

func TestDemultiplexer(t *testing.T) {
	demux := NewDemultiplexer("demux", "parse", nil)

	_, err := demux.Execute(context.Background(), &MuxOutput{Errors: Errors{errors.New("x")}})
	var nc *NoCandidateError
	if !errors.As(err, &nc) {
		t.Fatalf("error = %v, want NoCandidateError", err)
	}
	if nc.Stage != "parse" || len(nc.Errors) != 1 {
		t.Errorf("NoCandidateError = %+v", nc)
	}

	out, err := demux.Execute(context.Background(), &MuxOutput{Candidates: []Candidate{
		{FilterID: "a", Output: "first"},
		{FilterID: "b", Output: "second"},
	}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "first" {
		t.Errorf("output = %v, want first", out)
	}
}

func TestNetwork(t *testing.T) {
	var seen int
	reduce := func(first Candidate, out *MuxOutput) (any, error) {
		seen = len(out.Candidates)
		return first.FilterID + "=" + first.Output.(string), nil
	}
	net := Network("net",
		NewMultiplexer("mux", []Filter{failing("x", errors.New("nope")), upper("a"), upper("b")}),
		NewDemultiplexer("demux", "test", reduce),
	)

	var _ Filter = net
	out, err := net.Execute(context.Background(), "q")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "a=Q" {
		t.Errorf("output = %v, want a=Q", out)
	}
	if seen != 2 {
		t.Errorf("reducer saw %d candidates, want 2", seen)
	}

	all := Network("net", NewMultiplexer("mux", []Filter{failing("x", errors.New("nope"))}),
		NewDemultiplexer("demux", "test", reduce))
	_, err = all.Execute(context.Background(), "q")
	if !IsNoCandidate(err) {
		t.Errorf("error = %v, want NoCandidateError", err)
	}
}

func TestAttribute(t *testing.T) {
	orig := &NetworkError{FilterID: "inner", Err: errors.New("down")}
	if got := Attribute("outer", orig); got != error(orig) {
		t.Errorf("Attribute rewrapped an attributed error: %v", got)
	}
	if got := FilterIDOf(Attribute("outer", errors.New("plain"))); got != "outer" {
		t.Errorf("FilterIDOf = %q, want outer", got)
	}
	if Attribute("x", nil) != nil {
		t.Error("Attribute(nil) != nil")
	}
}
