package chat_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Tyrowin/campuschat/internal/chat"
	"github.com/Tyrowin/campuschat/internal/mocks"
)

func TestNewDirectory(t *testing.T) {
	t.Run("keeps configuration order", func(t *testing.T) {
		req := require.New(t)
		dir, err := chat.NewDirectory(mocks.NewRecordingTransport(), []chat.Building{
			{ID: "Z", Name: "last"},
			{ID: "A", Name: "first"},
			{ID: "M"},
		})
		req.NoError(err)

		ids := []string{}
		for _, room := range dir.TopLevel() {
			ids = append(ids, room.ID())
			req.Equal(chat.KindBuilding, room.Kind())
		}
		req.Equal([]string{"Z", "A", "M"}, ids)

		m, ok := dir.Get("M")
		req.True(ok)
		req.Equal("M", m.Name())
	})

	t.Run("rejects duplicate ids", func(t *testing.T) {
		_, err := chat.NewDirectory(mocks.NewRecordingTransport(), []chat.Building{
			{ID: "B1"}, {ID: "B1"},
		})
		require.ErrorIs(t, err, chat.ErrDuplicateRoom)
	})

	t.Run("rejects empty ids", func(t *testing.T) {
		_, err := chat.NewDirectory(mocks.NewRecordingTransport(), []chat.Building{{Name: "nameless"}})
		require.Error(t, err)
	})
}

func TestDirectory_GetUnknown(t *testing.T) {
	dir := newDirectory(t, mocks.NewRecordingTransport())

	room, ok := dir.Get("nope")

	require.False(t, ok)
	require.Nil(t, room)
}

func TestDirectory_Resolve(t *testing.T) {
	req := require.New(t)
	dir := newDirectory(t, mocks.NewRecordingTransport())
	b1 := building(t, dir, "B1")
	sub, err := b1.CreateSubRoom("Lounge")
	req.NoError(err)

	got, ok := dir.Resolve(b1.Ref())
	req.True(ok)
	req.Same(b1, got)

	got, ok = dir.Resolve(sub.Ref())
	req.True(ok)
	req.Same(sub, got)

	_, ok = dir.Resolve(chat.Ref{ID: sub.ID(), ParentID: "B2"})
	req.False(ok)
}

func TestDirectory_Move(t *testing.T) {
	req := require.New(t)
	transport := mocks.NewRecordingTransport()
	dir := newDirectory(t, transport)
	b1 := building(t, dir, "B1")
	sub, err := b1.CreateSubRoom("Lounge")
	req.NoError(err)
	req.NoError(b1.AddMember("c1", alice))

	req.NoError(dir.Move("c1", alice, b1, sub))
	req.False(b1.HasMember("c1"))
	req.True(sub.HasMember("c1"))
	req.True(transport.InGroup("c1", sub.ID()))
	req.False(transport.InGroup("c1", "B1"))

	req.NoError(dir.Move("c1", alice, sub, b1))
	req.True(b1.HasMember("c1"))
	req.False(sub.HasMember("c1"))
}

func TestDirectory_MoveFailureLeavesNoRoom(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockTransport(ctrl)
	dir := newDirectory(t, transport)
	b1 := building(t, dir, "B1")
	sub, err := b1.CreateSubRoom("Lounge")
	req.NoError(err)

	transport.EXPECT().SendToGroup(gomock.Any(), gomock.Any()).AnyTimes()
	transport.EXPECT().JoinGroup("c1", "B1").Return(nil)
	transport.EXPECT().LeaveGroup("c1", "B1").Return(nil)
	transport.EXPECT().JoinGroup("c1", sub.ID()).Return(errors.New("socket gone"))

	req.NoError(b1.AddMember("c1", alice))
	err = dir.Move("c1", alice, b1, sub)

	req.ErrorIs(err, chat.ErrServerError)
	req.False(b1.HasMember("c1"))
	req.False(sub.HasMember("c1"))
}

func TestDirectory_ConcurrentMovesKeepSingleMembership(t *testing.T) {
	req := require.New(t)
	dir := newDirectory(t, mocks.NewRecordingTransport())
	b1 := building(t, dir, "B1")
	subs := make([]*chat.Room, 3)
	for i := range subs {
		sub, err := b1.CreateSubRoom(fmt.Sprintf("room %d", i))
		req.NoError(err)
		subs[i] = sub
	}

	const conns = 20
	for c := 0; c < conns; c++ {
		req.NoError(b1.AddMember(fmt.Sprintf("c%d", c), alice))
	}

	var wg sync.WaitGroup
	for c := 0; c < conns; c++ {
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			connID := fmt.Sprintf("c%d", c)
			current := b1
			for i := 0; i < 100; i++ {
				next := b1
				if current == b1 {
					next = subs[(c+i)%len(subs)]
				}
				if err := dir.Move(connID, alice, current, next); err != nil {
					t.Errorf("move %s: %v", connID, err)
					return
				}
				current = next
			}
		}(c)
	}
	wg.Wait()

	total := b1.MemberCount()
	for _, sub := range subs {
		total += sub.MemberCount()
	}
	req.Equal(conns, total)
	for c := 0; c < conns; c++ {
		connID := fmt.Sprintf("c%d", c)
		count := 0
		for _, room := range append([]*chat.Room{b1}, subs...) {
			if room.HasMember(connID) {
				count++
			}
		}
		req.Equal(1, count, "connection %s", connID)
	}
}
