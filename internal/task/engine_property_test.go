package task_test

import (
	"context"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/taskmarket/taskmarket/internal/task"
)

// Random operation sequences must preserve the engine's accounting
// invariants: every live record sits in exactly one ownership bucket (its
// current owner's), owner and status stay coupled, each initiator's
// reservation equals the budgets of their live records, the counter tracks
// the live record count, and the total token supply never changes.
func TestProperty_EngineInvariants(t *testing.T) {
	accounts := []string{"alice", "bob", "carol"}

	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		f := newFixture(t, task.Config{
			MaxTasksOwned:       4,
			MaxTitleLen:         256,
			MaxSpecificationLen: 8192,
			MaxAttachmentsLen:   8192,
			MaxKeywordsLen:      1024,
			MaxFeedbackLen:      1024,
		})
		f.registerProfiles(t, "alice", "bob", "carol")

		totalSupply := uint64(0)
		for _, account := range accounts {
			totalSupply += f.ledger.FreeBalance(account) + f.ledger.ReservedBalance(account)
		}

		account := rapid.SampledFrom(accounts)
		steps := rapid.IntRange(5, 60).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			caller := account.Draw(rt, "caller")
			switch rapid.IntRange(0, 8).Draw(rt, "op") {
			case 0: // create
				_, _ = f.engine.Create(ctx, caller, &task.CreateRequest{
					Title:    rapid.StringMatching(`[a-z]{1,16}`).Draw(rt, "title"),
					Budget:   uint64(rapid.IntRange(0, 400).Draw(rt, "budget")),
					Deadline: f.clock.Now().Add(time.Duration(rapid.IntRange(1, 96).Draw(rt, "hours")) * time.Hour).UnixMilli(),
				})
			case 1: // update
				if id, ok := pickTask(rt, ctx, f); ok {
					_, _ = f.engine.Update(ctx, caller, &task.UpdateRequest{
						ID:       id,
						Title:    rapid.StringMatching(`[a-z]{1,16}`).Draw(rt, "newTitle"),
						Budget:   uint64(rapid.IntRange(0, 400).Draw(rt, "newBudget")),
						Deadline: f.clock.Now().Add(time.Hour).UnixMilli(),
					})
				}
			case 2: // remove
				if id, ok := pickTask(rt, ctx, f); ok {
					_ = f.engine.Remove(ctx, caller, id)
				}
			case 3: // start
				if id, ok := pickTask(rt, ctx, f); ok {
					_, _ = f.engine.Start(ctx, caller, id)
				}
			case 4: // complete
				if id, ok := pickTask(rt, ctx, f); ok {
					_, _ = f.engine.Complete(ctx, caller, id)
				}
			case 5: // accept
				if id, ok := pickTask(rt, ctx, f); ok {
					_ = f.engine.Accept(ctx, caller, id)
				}
			case 6: // reject
				if id, ok := pickTask(rt, ctx, f); ok {
					_, _ = f.engine.Reject(ctx, caller, id, "rework")
				}
			case 7: // advance time
				f.clock.Advance(time.Duration(rapid.IntRange(1, 48).Draw(rt, "advance")) * time.Hour)
			case 8: // round boundary + sweep
				f.engine.BeginRound(ctx)
			}

			checkInvariants(rt, ctx, f, accounts, totalSupply)
		}
	})
}

func pickTask(rt *rapid.T, ctx context.Context, f *fixture) (string, bool) {
	tasks, err := f.engine.ListTasks(ctx)
	if err != nil {
		rt.Fatalf("list tasks: %v", err)
	}
	if len(tasks) == 0 {
		return "", false
	}
	return tasks[rapid.IntRange(0, len(tasks)-1).Draw(rt, "taskIdx")].ID, true
}

func checkInvariants(rt *rapid.T, ctx context.Context, f *fixture, accounts []string, totalSupply uint64) {
	tasks, err := f.engine.ListTasks(ctx)
	if err != nil {
		rt.Fatalf("list tasks: %v", err)
	}

	// Ownership index: every live id in exactly its owner's bucket.
	bucketOf := map[string]string{}
	for _, account := range accounts {
		owned, err := f.engine.TasksOwnedBy(ctx, account)
		if err != nil {
			rt.Fatalf("owned: %v", err)
		}
		for _, id := range owned {
			if prev, dup := bucketOf[id]; dup {
				rt.Fatalf("task %s in buckets of both %s and %s", id, prev, account)
			}
			bucketOf[id] = account
		}
	}
	if len(bucketOf) != len(tasks) {
		rt.Fatalf("ownership index holds %d ids, %d records live", len(bucketOf), len(tasks))
	}

	reservedWant := map[string]uint64{}
	for _, tk := range tasks {
		if bucketOf[tk.ID] != tk.CurrentOwner {
			rt.Fatalf("task %s owned by %s but indexed under %s", tk.ID, tk.CurrentOwner, bucketOf[tk.ID])
		}
		switch tk.Status {
		case task.StatusCreated, task.StatusCompleted:
			if tk.CurrentOwner != tk.Initiator {
				rt.Fatalf("task %s status %s but owner %s != initiator %s", tk.ID, tk.Status, tk.CurrentOwner, tk.Initiator)
			}
		case task.StatusInProgress:
			if tk.CurrentOwner != tk.Volunteer {
				rt.Fatalf("task %s in progress but owner %s != volunteer %s", tk.ID, tk.CurrentOwner, tk.Volunteer)
			}
		default:
			rt.Fatalf("task %s has stored terminal status %s", tk.ID, tk.Status)
		}
		reservedWant[tk.Initiator] += tk.Budget
	}

	// Escrow conservation: reservations match live budgets, supply constant.
	var supply uint64
	for _, account := range accounts {
		if got := f.ledger.ReservedBalance(account); got != reservedWant[account] {
			rt.Fatalf("%s reserved %d, live budgets total %d", account, got, reservedWant[account])
		}
		supply += f.ledger.FreeBalance(account) + f.ledger.ReservedBalance(account)
	}
	if supply != totalSupply {
		rt.Fatalf("token supply drifted: %d != %d", supply, totalSupply)
	}

	count, err := f.engine.TaskCount(ctx)
	if err != nil {
		rt.Fatalf("count: %v", err)
	}
	if count != uint64(len(tasks)) {
		rt.Fatalf("counter %d, live records %d", count, len(tasks))
	}
}
