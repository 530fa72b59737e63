package engine

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kjelstad/chorebank/internal/model"
)

// fakePersister records saves and can be told to fail, to verify the write
// fence and atomicity.
type fakePersister struct {
	mu    sync.Mutex
	saves int
	last  *Snapshot
	err   error
}

func (p *fakePersister) Load() (*Snapshot, error) {
	return &Snapshot{}, nil
}

func (p *fakePersister) Save(snap *Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.saves++
	p.last = snap
	return nil
}

func (p *fakePersister) fail(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

type captureNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *captureNotifier) Notify(ev Event) {
	n.mu.Lock()
	n.events = append(n.events, ev)
	n.mu.Unlock()
}

func (n *captureNotifier) kinds() []EventKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]EventKind, len(n.events))
	for i, ev := range n.events {
		out[i] = ev.Kind
	}
	return out
}

type fixture struct {
	store     *Store
	persister *fakePersister
	notifier  *captureNotifier
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		persister: &fakePersister{},
		notifier:  &captureNotifier{},
		now:       time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC), // a Monday
	}
	seq := 0
	f.store = New(f.persister, f.notifier, nil,
		WithClock(func() time.Time { return f.now }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%03d", seq)
		}),
	)
	return f
}

func (f *fixture) addChild(t *testing.T, name string) *model.Child {
	t.Helper()
	c, err := f.store.AddChild(name)
	if err != nil {
		t.Fatalf("add child %s: %v", name, err)
	}
	return c
}

func (f *fixture) addTask(t *testing.T, draft TaskDraft) *model.Task {
	t.Helper()
	task, err := f.store.AddTask(draft)
	if err != nil {
		t.Fatalf("add task %s: %v", draft.Title, err)
	}
	return task
}

func (f *fixture) balance(t *testing.T, childID string) int {
	t.Helper()
	points, err := f.store.Balance(childID)
	if err != nil {
		t.Fatalf("balance %s: %v", childID, err)
	}
	return points
}

func TestAddChildValidation(t *testing.T) {
	f := newFixture(t)
	if _, err := f.store.AddChild("   "); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestTaskLifecyclePaysOnApproval(t *testing.T) {
	f := newFixture(t)
	child := f.addChild(t, "Nora")
	task := f.addTask(t, TaskDraft{Title: "Dishes", Points: 10, AssignedTo: child.ID})

	if task.Status != model.StatusAssigned {
		t.Fatalf("expected assigned, got %s", task.Status)
	}

	if err := f.store.SetTaskStatus(task.ID, model.StatusAwaitingApproval, nil, child.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got := f.balance(t, child.ID); got != 0 {
		t.Fatalf("points before approval = %d, want 0", got)
	}

	if err := f.store.ApproveTask(task.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got := f.balance(t, child.ID); got != 10 {
		t.Fatalf("points after approval = %d, want 10", got)
	}

	// Approving again must not pay twice.
	if err := f.store.ApproveTask(task.ID); err != nil {
		t.Fatalf("re-approve: %v", err)
	}
	if got := f.balance(t, child.ID); got != 10 {
		t.Fatalf("points after re-approval = %d, want 10", got)
	}

	got, err := f.store.Task(task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != model.StatusApproved || !got.Approved {
		t.Fatalf("task not approved: %+v", got)
	}
}

func TestApproveRequiresAwaitingApproval(t *testing.T) {
	f := newFixture(t)
	child := f.addChild(t, "Nora")
	task := f.addTask(t, TaskDraft{Title: "Dishes", Points: 5, AssignedTo: child.ID})

	if err := f.store.ApproveTask(task.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestQuickCompleteNeedsSkipApproval(t *testing.T) {
	f := newFixture(t)
	child := f.addChild(t, "Nora")

	guarded := f.addTask(t, TaskDraft{Title: "Homework", Points: 5, AssignedTo: child.ID})
	if err := f.store.SetTaskStatus(guarded.ID, model.StatusApproved, nil, child.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	quick := f.addTask(t, TaskDraft{Title: "Water plants", Points: 3, AssignedTo: child.ID, SkipApproval: true})
	if err := f.store.SetTaskStatus(quick.ID, model.StatusApproved, nil, child.ID); err != nil {
		t.Fatalf("quick complete: %v", err)
	}
	if got := f.balance(t, child.ID); got != 3 {
		t.Fatalf("points = %d, want 3", got)
	}
}

func TestFastestWinsSecondChildLoses(t *testing.T) {
	f := newFixture(t)
	a := f.addChild(t, "Ada")
	b := f.addChild(t, "Ben")
	task := f.addTask(t, TaskDraft{Title: "Take out trash", Points: 5, FastestWins: true})

	if err := f.store.SetTaskStatus(task.ID, model.StatusAwaitingApproval, nil, a.ID); err != nil {
		t.Fatalf("first completion: %v", err)
	}
	err := f.store.SetTaskStatus(task.ID, model.StatusAwaitingApproval, nil, b.ID)
	if !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
	}

	got, _ := f.store.Task(task.ID)
	if got.AssignedTo != a.ID {
		t.Fatalf("task claimed by %s, want %s", got.AssignedTo, a.ID)
	}
}

func TestFastestWinsConcurrentExactlyOneWinner(t *testing.T) {
	f := newFixture(t)
	ids := make([]string, 8)
	for i := range ids {
		ids[i] = f.addChild(t, fmt.Sprintf("child-%d", i)).ID
	}
	task := f.addTask(t, TaskDraft{Title: "Race", Points: 5, FastestWins: true})

	var wg sync.WaitGroup
	var mu sync.Mutex
	var wins, losses int
	for _, childID := range ids {
		wg.Add(1)
		go func(childID string) {
			defer wg.Done()
			err := f.store.SetTaskStatus(task.ID, model.StatusAwaitingApproval, nil, childID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrAlreadyClaimed):
				losses++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(childID)
	}
	wg.Wait()

	if wins != 1 || losses != len(ids)-1 {
		t.Fatalf("wins = %d, losses = %d, want 1 and %d", wins, losses, len(ids)-1)
	}
}

func TestEarlyBonusWindow(t *testing.T) {
	f := newFixture(t)
	child := f.addChild(t, "Nora")

	due := f.now.AddDate(0, 0, 2)
	task := f.addTask(t, TaskDraft{
		Title: "Project", Points: 10, AssignedTo: child.ID, Due: &due,
		EarlyBonusEnabled: true, EarlyBonusDays: 3, EarlyBonusPoints: 4,
	})

	if err := f.store.SetTaskStatus(task.ID, model.StatusAwaitingApproval, nil, child.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.store.ApproveTask(task.ID); err != nil {
		t.Fatal(err)
	}
	if got := f.balance(t, child.ID); got != 14 {
		t.Fatalf("points = %d, want 14 (base 10 + early 4)", got)
	}
}

func TestEarlyBonusNotPaidOutsideWindow(t *testing.T) {
	f := newFixture(t)
	child := f.addChild(t, "Nora")

	due := f.now.AddDate(0, 0, 10)
	task := f.addTask(t, TaskDraft{
		Title: "Project", Points: 10, AssignedTo: child.ID, Due: &due,
		EarlyBonusEnabled: true, EarlyBonusDays: 3, EarlyBonusPoints: 4,
	})

	if err := f.store.SetTaskStatus(task.ID, model.StatusAwaitingApproval, nil, child.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.store.ApproveTask(task.ID); err != nil {
		t.Fatal(err)
	}
	if got := f.balance(t, child.ID); got != 10 {
		t.Fatalf("points = %d, want 10 (too early, no bonus)", got)
	}
}

func TestBonusFlow(t *testing.T) {
	f := newFixture(t)
	child := f.addChild(t, "Nora")

	plain := f.addTask(t, TaskDraft{Title: "No bonus", Points: 5, AssignedTo: child.ID})
	if err := f.store.CompleteBonus(plain.ID, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	task := f.addTask(t, TaskDraft{
		Title: "Room", Points: 5, AssignedTo: child.ID,
		BonusEnabled: true, BonusTitle: "Vacuum too", BonusPoints: 3,
	})

	if err := f.store.ApproveBonus(task.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition before completion, got %v", err)
	}

	if err := f.store.CompleteBonus(task.ID, nil); err != nil {
		t.Fatal(err)
	}
	if err := f.store.ApproveBonus(task.ID); err != nil {
		t.Fatal(err)
	}
	if got := f.balance(t, child.ID); got != 3 {
		t.Fatalf("points = %d, want 3", got)
	}

	// Idempotent
	if err := f.store.ApproveBonus(task.ID); err != nil {
		t.Fatal(err)
	}
	if got := f.balance(t, child.ID); got != 3 {
		t.Fatalf("points after re-approve = %d, want 3", got)
	}
}

func TestApproveAllPaysTaskAndBonus(t *testing.T) {
	f := newFixture(t)
	child := f.addChild(t, "Nora")
	task := f.addTask(t, TaskDraft{
		Title: "Room", Points: 5, AssignedTo: child.ID,
		BonusEnabled: true, BonusTitle: "Vacuum too", BonusPoints: 3,
	})

	if err := f.store.SetTaskStatus(task.ID, model.StatusAwaitingApproval, nil, child.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.store.ApproveAll(task.ID); err != nil {
		t.Fatal(err)
	}
	if got := f.balance(t, child.ID); got != 8 {
		t.Fatalf("points = %d, want 8", got)
	}

	got, _ := f.store.Task(task.ID)
	if !got.Approved || !got.BonusApproved || got.BonusCompletedTS == nil {
		t.Fatalf("approve all incomplete: %+v", got)
	}
}

func TestCompletionEmitsEvent(t *testing.T) {
	f := newFixture(t)
	child := f.addChild(t, "Nora")
	task := f.addTask(t, TaskDraft{Title: "Dishes", Points: 10, AssignedTo: child.ID})

	if err := f.store.SetTaskStatus(task.ID, model.StatusAwaitingApproval, nil, child.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.store.ApproveTask(task.ID); err != nil {
		t.Fatal(err)
	}

	kinds := f.notifier.kinds()
	want := []EventKind{EventTaskCompleted, EventTaskApproved}
	if len(kinds) != len(want) {
		t.Fatalf("events = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("events = %v, want %v", kinds, want)
		}
	}
	if f.notifier.events[0].ChildName != "Nora" {
		t.Errorf("event child name = %q, want Nora", f.notifier.events[0].ChildName)
	}
}

func TestNoEventOnFailedMutation(t *testing.T) {
	f := newFixture(t)
	child := f.addChild(t, "Nora")
	task := f.addTask(t, TaskDraft{Title: "Dishes", Points: 10, AssignedTo: child.ID})

	before := len(f.notifier.kinds())
	f.persister.fail(errors.New("disk full"))
	if err := f.store.SetTaskStatus(task.ID, model.StatusAwaitingApproval, nil, child.ID); err == nil {
		t.Fatal("expected persist failure")
	}
	if got := len(f.notifier.kinds()); got != before {
		t.Fatalf("events dispatched despite failed persist: %d > %d", got, before)
	}

	// State must be untouched.
	got, _ := f.store.Task(task.ID)
	if got.Status != model.StatusAssigned {
		t.Fatalf("status = %s, want assigned", got.Status)
	}
}

func TestBuyDebitsAndRecordsSnapshot(t *testing.T) {
	f := newFixture(t)
	child := f.addChild(t, "Nora")
	if err := f.store.AddPoints(child.ID, 50); err != nil {
		t.Fatal(err)
	}
	item, err := f.store.AddShopItem(ShopItemDraft{Title: "Movie night", Price: 30, Image: "movie.png", Active: true})
	if err != nil {
		t.Fatal(err)
	}

	purchase, err := f.store.Buy(child.ID, item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got := f.balance(t, child.ID); got != 20 {
		t.Fatalf("balance = %d, want 20", got)
	}
	if purchase.ChildName != "Nora" || purchase.Title != "Movie night" || purchase.Price != 30 {
		t.Fatalf("bad snapshot: %+v", purchase)
	}

	// Snapshot survives later item edits.
	newTitle := "Renamed"
	if _, err := f.store.UpdateShopItem(item.ID, ShopItemUpdate{Title: &newTitle}); err != nil {
		t.Fatal(err)
	}
	history := f.store.PurchaseHistory(child.ID)
	if len(history) != 1 || history[0].Title != "Movie night" {
		t.Fatalf("history snapshot changed: %+v", history)
	}
}

func TestBuyRejections(t *testing.T) {
	f := newFixture(t)
	child := f.addChild(t, "Nora")
	item, err := f.store.AddShopItem(ShopItemDraft{Title: "Candy", Price: 10, Active: true})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.store.Buy(child.ID, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := f.store.Buy("nope", item.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := f.store.Buy(child.ID, item.ID); !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints, got %v", err)
	}

	inactive := false
	if _, err := f.store.UpdateShopItem(item.ID, ShopItemUpdate{Active: &inactive}); err != nil {
		t.Fatal(err)
	}
	if err := f.store.AddPoints(child.ID, 100); err != nil {
		t.Fatal(err)
	}
	if _, err := f.store.Buy(child.ID, item.ID); !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
}

func TestBuyAtomicOnPersistFailure(t *testing.T) {
	f := newFixture(t)
	child := f.addChild(t, "Nora")
	if err := f.store.AddPoints(child.ID, 50); err != nil {
		t.Fatal(err)
	}
	item, err := f.store.AddShopItem(ShopItemDraft{Title: "Candy", Price: 10, Active: true})
	if err != nil {
		t.Fatal(err)
	}

	f.persister.fail(errors.New("disk full"))
	if _, err := f.store.Buy(child.ID, item.ID); err == nil {
		t.Fatal("expected persist failure")
	}

	f.persister.fail(nil)
	if got := f.balance(t, child.ID); got != 50 {
		t.Fatalf("balance after failed buy = %d, want 50", got)
	}
	if history := f.store.PurchaseHistory(""); len(history) != 0 {
		t.Fatalf("history after failed buy: %+v", history)
	}
}

func TestAddPointsFloorsAtZero(t *testing.T) {
	f := newFixture(t)
	child := f.addChild(t, "Nora")
	if err := f.store.AddPoints(child.ID, 5); err != nil {
		t.Fatal(err)
	}
	if err := f.store.AddPoints(child.ID, -20); err != nil {
		t.Fatal(err)
	}
	if got := f.balance(t, child.ID); got != 0 {
		t.Fatalf("balance = %d, want 0", got)
	}
}

func TestResetPointsAllChildren(t *testing.T) {
	f := newFixture(t)
	a := f.addChild(t, "Ada")
	b := f.addChild(t, "Ben")
	f.store.AddPoints(a.ID, 10)
	f.store.AddPoints(b.ID, 20)

	if err := f.store.ResetPoints(""); err != nil {
		t.Fatal(err)
	}
	if f.balance(t, a.ID) != 0 || f.balance(t, b.ID) != 0 {
		t.Fatal("expected all balances reset")
	}
}

func TestApproveUnknownAssigneePaysNobody(t *testing.T) {
	f := newFixture(t)
	child := f.addChild(t, "Nora")
	task := f.addTask(t, TaskDraft{Title: "Dishes", Points: 10, AssignedTo: child.ID})

	if err := f.store.SetTaskStatus(task.ID, model.StatusAwaitingApproval, nil, child.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.store.RemoveChild(child.ID); err != nil {
		t.Fatal(err)
	}

	// Approval still transitions the task even though the child is gone.
	if err := f.store.ApproveTask(task.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := f.store.Task(task.ID)
	if !got.Approved {
		t.Fatal("task not approved")
	}
}

func TestPersistFenceRunsPerMutation(t *testing.T) {
	f := newFixture(t)
	f.addChild(t, "Nora")
	f.addChild(t, "Ben")

	f.persister.mu.Lock()
	saves := f.persister.saves
	f.persister.mu.Unlock()
	if saves != 2 {
		t.Fatalf("saves = %d, want 2", saves)
	}
}
