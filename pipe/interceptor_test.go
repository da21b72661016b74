package pipe

import (
	"context"
	"sync/atomic"
	"testing"
)

func TestIntercept_FixedPoints(t *testing.T) {
	rec := &recorder{}
	p := newQuietPipeline().
		Add(newFakeOp("a", rec), newFakeOp("b", rec)).
		Intercept(FirstOperation, newFakeOp("first", rec)).
		Intercept(PreOperation, newFakeOp("pre", rec)).
		Intercept(PostOperation, newFakeOp("post", rec)).
		Intercept(LastOperation, newFakeOp("last", rec))

	if _, err := p.Execute(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"exec:first",
		"exec:pre", "exec:a", "exec:post",
		"exec:pre", "exec:b", "exec:post",
		"exec:last",
	}
	if !strSlicesEqual(rec.list(), want) {
		t.Errorf("got %v\nwant %v", rec.list(), want)
	}
}

func TestIntercept_LastSkippedOnFaultyRun(t *testing.T) {
	rec := &recorder{}
	p := newQuietPipeline().
		Add(&fakeOp{name: "a", fail: errBoom, rec: rec}).
		Intercept(LastOperation, newFakeOp("last", rec))

	if _, err := p.Execute(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if rec.has("exec:last") {
		t.Error("LastOperation must not fire on a faulty run")
	}
}

func TestIntercept_ConditionalPre(t *testing.T) {
	rec := &recorder{}
	p := newQuietPipeline().
		Add(newFakeOp("a", rec)).
		InterceptBefore(func(msg *Message) bool { return true }, newFakeOp("gate-open", rec)).
		InterceptBefore(func(msg *Message) bool { return false }, newFakeOp("gate-shut", rec))

	if _, err := p.Execute(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if !rec.has("exec:gate-open") {
		t.Error("matching predicate interceptor should run")
	}
	if rec.has("exec:gate-shut") {
		t.Error("non-matching predicate interceptor must not run")
	}
}

func TestIntercept_ConditionalPostSeesMutatedMessage(t *testing.T) {
	rec := &recorder{}
	p := newQuietPipeline().
		Add(Action(func(ctx context.Context, msg *Message) error {
			msg.Set("flag", true)
			return nil
		})).
		InterceptAfter(func(msg *Message) bool {
			_, ok := msg.Get("flag")
			return ok
		}, newFakeOp("after-flag", rec))

	if _, err := p.Execute(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if !rec.has("exec:after-flag") {
		t.Error("post predicate should observe the operation's mutation")
	}
}

func TestIntercept_FaultyFiresOnce(t *testing.T) {
	var fired int32
	p := newQuietPipeline().
		Add(
			&fakeOp{name: "a", addErr: "first fault"},
			&fakeOp{name: "b", required: true, addErr: "second fault"},
		).
		Intercept(Faulty, Action(func(ctx context.Context, msg *Message) error {
			atomic.AddInt32(&fired, 1)
			return nil
		}))

	if _, err := p.Execute(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt32(&fired); got != 1 {
		t.Errorf("Faulty point fired %d times, want 1", got)
	}
}

func TestIntercept_LockedFiresOnce(t *testing.T) {
	var fired int32
	p := newQuietPipeline().
		Add(
			&fakeOp{name: "a", lock: true},
			&fakeOp{name: "b", required: true, lock: true},
		).
		Intercept(Locked, Action(func(ctx context.Context, msg *Message) error {
			atomic.AddInt32(&fired, 1)
			return nil
		}))

	if _, err := p.Execute(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt32(&fired); got != 1 {
		t.Errorf("Locked point fired %d times, want 1", got)
	}
}

func TestIntercept_RegistryIntactAcrossRuns(t *testing.T) {
	// The one-shot semantic is per run; a new run re-arms the point.
	var fired int32
	p := newQuietPipeline().
		Add(&fakeOp{name: "a", addErr: "fault"}).
		Intercept(Faulty, Action(func(ctx context.Context, msg *Message) error {
			atomic.AddInt32(&fired, 1)
			return nil
		}))

	for i := 0; i < 3; i++ {
		if _, err := p.Execute(context.Background(), nil); err != nil {
			t.Fatal(err)
		}
	}
	if got := atomic.LoadInt32(&fired); got != 3 {
		t.Errorf("Faulty fired %d times over 3 runs, want 3", got)
	}
}

func TestOn_HandlersAwaitedBeforeReturn(t *testing.T) {
	var done atomic.Bool
	p := newQuietPipeline().
		Add(newFakeOp("a", nil)).
		On(FirstOperation, func(ctx context.Context, msg *Message) {
			done.Store(true)
		})

	if _, err := p.Execute(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if !done.Load() {
		t.Error("event handler must complete before Execute returns")
	}
}

func TestOn_HandlerPanicDoesNotFailRun(t *testing.T) {
	p := newQuietPipeline().
		Add(newFakeOp("a", nil)).
		On(LastOperation, func(ctx context.Context, msg *Message) {
			panic("handler bug")
		})

	msg, err := p.Execute(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if msg.IsFaulty() {
		t.Error("handler panic must not mark the run faulty")
	}
}

func TestOnBefore_PredicateGated(t *testing.T) {
	var fired atomic.Int32
	p := newQuietPipeline().
		Add(newFakeOp("a", nil), newFakeOp("b", nil)).
		OnBefore(func(msg *Message) bool { return true }, func(ctx context.Context, msg *Message) {
			fired.Add(1)
		})

	if _, err := p.Execute(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if got := fired.Load(); got != 2 {
		t.Errorf("expected handler to fire per operation, got %d", got)
	}
}

func TestIntercept_FaultyHandlerReceivesMessage(t *testing.T) {
	got := make(chan string, 1)
	p := newQuietPipeline().
		Add(&fakeOp{name: "a", addErr: "broken"}).
		On(Faulty, func(ctx context.Context, msg *Message) {
			results := msg.Results()
			got <- results[len(results)-1].Text
		})

	if _, err := p.Execute(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	select {
	case text := <-got:
		if text != "broken" {
			t.Errorf("expected fault text, got %q", text)
		}
	default:
		t.Fatal("Faulty handler did not fire")
	}
}

func TestPoint_String(t *testing.T) {
	points := map[Point]string{
		FirstOperation: "first-operation",
		PreOperation:   "pre-operation",
		PostOperation:  "post-operation",
		LastOperation:  "last-operation",
		Locked:         "locked",
		Faulty:         "faulty",
	}
	for p, want := range points {
		if got := p.String(); got != want {
			t.Errorf("point %d: got %q, want %q", p, got, want)
		}
	}
}
