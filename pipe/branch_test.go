package pipe

import (
	"context"
	"testing"
)

func TestBranch_FirstMatchWins(t *testing.T) {
	rec := &recorder{}
	b := NewBranch().
		When("premium", func(msg *Message) bool { return true }, newFakeOp("premium", rec)).
		When("standard", func(msg *Message) bool { return true }, newFakeOp("standard", rec))

	if err := b.Execute(context.Background(), NewMessage()); err != nil {
		t.Fatal(err)
	}
	if !rec.has("exec:premium") {
		t.Error("first matching case should run")
	}
	if rec.has("exec:standard") {
		t.Error("later cases must not run once one matched")
	}
}

func TestBranch_PredicateReadsMessage(t *testing.T) {
	rec := &recorder{}
	b := NewBranch().
		When("large", func(msg *Message) bool {
			n, err := Content[int](msg, "amount")
			return err == nil && n > 100
		}, newFakeOp("review", rec)).
		Otherwise(newFakeOp("auto", rec))

	msg := NewMessage()
	msg.Set("amount", 250)
	if err := b.Execute(context.Background(), msg); err != nil {
		t.Fatal(err)
	}
	if !rec.has("exec:review") || rec.has("exec:auto") {
		t.Errorf("wrong case selected: %v", rec.list())
	}
}

func TestBranch_FallbackWhenNoMatch(t *testing.T) {
	rec := &recorder{}
	b := NewBranch().
		When("never", func(msg *Message) bool { return false }, newFakeOp("cased", rec)).
		Otherwise(newFakeOp("fallback", rec))

	if err := b.Execute(context.Background(), NewMessage()); err != nil {
		t.Fatal(err)
	}
	if !rec.has("exec:fallback") {
		t.Error("fallback should run when no case matches")
	}
}

func TestBranch_NoMatchNoFallbackIsNoop(t *testing.T) {
	b := NewBranch().
		When("never", func(msg *Message) bool { return false }, newFakeOp("cased", nil))

	msg := NewMessage()
	if err := b.Execute(context.Background(), msg); err != nil {
		t.Fatal(err)
	}
	if msg.IsFaulty() {
		t.Error("no-op branch must not taint the message")
	}
}

func TestBranch_RollbackOnlySelectedCase(t *testing.T) {
	rec := &recorder{}
	b := NewBranch().
		When("picked", func(msg *Message) bool { return true },
			newFakeOp("s1", rec), newFakeOp("s2", rec)).
		Otherwise(newFakeOp("other", rec))

	msg := NewMessage()
	if err := b.Execute(context.Background(), msg); err != nil {
		t.Fatal(err)
	}
	if err := b.Rollback(context.Background(), msg); err != nil {
		t.Fatal(err)
	}

	want := []string{"exec:s1", "exec:s2", "rollback:s2", "rollback:s1"}
	if !strSlicesEqual(rec.list(), want) {
		t.Errorf("got %v\nwant %v", rec.list(), want)
	}
}

func TestBranch_SubFaultStopsNestedRun(t *testing.T) {
	rec := &recorder{}
	b := NewBranch().
		When("case", func(msg *Message) bool { return true },
			newFakeOp("s1", rec),
			&fakeOp{name: "s2", fail: errBoom, rec: rec},
			newFakeOp("s3", rec),
		)

	msg := NewMessage()
	if err := b.Execute(context.Background(), msg); err != nil {
		t.Fatal(err)
	}
	if !msg.IsFaulty() {
		t.Error("sub-operation failure should taint the message")
	}
	if rec.has("exec:s3") {
		t.Error("nested run should stop at the fault")
	}
}

func TestBranch_InPipelineRollsBackAsOneStep(t *testing.T) {
	rec := &recorder{}
	b := NewBranch().
		When("case", func(msg *Message) bool { return true },
			newFakeOp("s1", rec), newFakeOp("s2", rec))

	p := newQuietPipeline(WithForceRollbackOnFault()).
		Add(newFakeOp("a", rec), b, &fakeOp{name: "z", fail: errBoom, rec: rec})

	if _, err := p.Execute(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"exec:a", "exec:s1", "exec:s2", "exec:z",
		"rollback:s2", "rollback:s1", "rollback:a",
	}
	if !strSlicesEqual(rec.list(), want) {
		t.Errorf("got %v\nwant %v", rec.list(), want)
	}
}
