package chat

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type discardTransport struct{}

func (discardTransport) JoinGroup(string, string) error  { return nil }
func (discardTransport) LeaveGroup(string, string) error { return nil }
func (discardTransport) SendToGroup(string, Event)       {}
func (discardTransport) SendToConnection(string, Event)  {}

// memberships counts the rooms holding connID, read under both room locks
// taken in the same order Move uses.
func memberships(connID string, a, b *Room) int {
	first, second := a, b
	if second.id < first.id {
		first, second = second, first
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	count := 0
	if _, ok := a.members[connID]; ok {
		count++
	}
	if _, ok := b.members[connID]; ok {
		count++
	}
	return count
}

func TestMove_ObserversNeverSeeSplitMembership(t *testing.T) {
	req := require.New(t)
	dir, err := NewDirectory(discardTransport{}, []Building{{ID: "B1", Name: "BLDG1"}})
	req.NoError(err)
	b1, _ := dir.Get("B1")
	sub, err := b1.CreateSubRoom("lab")
	req.NoError(err)

	who := Identity{ID: "u-alice", Name: "alice", AvatarID: "a1"}
	req.NoError(b1.AddMember("c1", who))

	var (
		done    atomic.Bool
		samples atomic.Int64
		wg      sync.WaitGroup
	)
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !done.Load() {
				if n := memberships("c1", b1, sub); n != 1 {
					t.Errorf("observer saw c1 in %d rooms", n)
					return
				}
				samples.Add(1)
			}
		}()
	}

	from, to := b1, sub
	for range 2000 {
		req.NoError(dir.Move("c1", who, from, to))
		from, to = to, from
	}
	done.Store(true)
	wg.Wait()

	req.Positive(samples.Load())
	req.Equal(1, memberships("c1", b1, sub))
}
