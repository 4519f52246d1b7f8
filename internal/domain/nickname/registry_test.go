package nickname_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/okian/mazeball/internal/domain/nickname"
	. "github.com/smartystreets/goconvey/convey"
)

var errDiskFull = errors.New("disk full")

type memStore struct {
	mu    sync.Mutex
	names map[string]string
	fail  bool
}

func (m *memStore) ApplyNickname(_ context.Context, deviceID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errDiskFull
	}
	m.names[deviceID] = name
	return nil
}

func TestRegistrySet(t *testing.T) {
	Convey("Given a registry where device A holds Alice", t, func() {
		ctx := context.Background()
		store := &memStore{names: map[string]string{}}
		var renamed []string
		reg := nickname.New(store, nickname.WithRenameHook(func(deviceID, name string) {
			renamed = append(renamed, deviceID+"="+name)
		}))
		So(reg.Set(ctx, "A", "Alice"), ShouldBeNil)

		Convey("Then the name is persisted, cached and propagated", func() {
			So(reg.Lookup("A"), ShouldEqual, "Alice")
			So(store.names["A"], ShouldEqual, "Alice")
			So(renamed, ShouldResemble, []string{"A=Alice"})
			So(reg.Len(), ShouldEqual, 1)
		})

		Convey("When device B asks for alice in another case", func() {
			err := reg.Set(ctx, "B", "alice")

			Convey("Then it conflicts and nothing changes", func() {
				So(errors.Is(err, nickname.ErrNicknameConflict), ShouldBeTrue)
				So(reg.Lookup("B"), ShouldEqual, "")
				_, stored := store.names["B"]
				So(stored, ShouldBeFalse)
				So(renamed, ShouldHaveLength, 1)
				So(reg.Available("B", "ALICE"), ShouldBeFalse)
			})
		})

		Convey("When names differ only by Unicode case folding", func() {
			So(reg.Set(ctx, "C", "STRASSE"), ShouldBeNil)
			So(errors.Is(reg.Set(ctx, "D", "straße"), nickname.ErrNicknameConflict), ShouldBeTrue)
		})

		Convey("When A re-cases its own name", func() {
			So(reg.Set(ctx, "A", "ALICE"), ShouldBeNil)

			Convey("Then it is not a conflict with itself", func() {
				So(reg.Lookup("A"), ShouldEqual, "ALICE")
			})
		})

		Convey("When A renames away", func() {
			So(reg.Set(ctx, "A", "Ally"), ShouldBeNil)

			Convey("Then the old name is free for others", func() {
				So(reg.Available("B", "alice"), ShouldBeTrue)
				So(reg.Set(ctx, "B", "alice"), ShouldBeNil)
			})
		})

		Convey("When the store fails", func() {
			store.fail = true
			err := reg.Set(ctx, "B", "Bob")

			Convey("Then the error propagates and the registry is unchanged", func() {
				So(errors.Is(err, errDiskFull), ShouldBeTrue)
				So(errors.Is(err, nickname.ErrNicknameConflict), ShouldBeFalse)
				So(reg.Lookup("B"), ShouldEqual, "")
				So(reg.Available("C", "Bob"), ShouldBeTrue)
				So(renamed, ShouldHaveLength, 1)
			})
		})
	})
}

func TestRegistryLoad(t *testing.T) {
	Convey("Given names loaded from the store", t, func() {
		reg := nickname.New(&memStore{names: map[string]string{}})
		reg.Load(map[string]string{"A": "Alice", "B": "Bob"})

		So(reg.Len(), ShouldEqual, 2)
		So(reg.Lookup("B"), ShouldEqual, "Bob")
		So(reg.Available("C", "bob"), ShouldBeFalse)
		So(reg.Available("B", "bob"), ShouldBeTrue)
	})
}

func TestRegistryConcurrentClaims(t *testing.T) {
	Convey("Given many devices claiming the same name at once", t, func() {
		ctx := context.Background()
		reg := nickname.New(&memStore{names: map[string]string{}})

		var wins, conflicts atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				name := "Racer"
				if i%2 == 0 {
					name = "racer"
				}
				switch err := reg.Set(ctx, fmt.Sprintf("dev-%d", i), name); {
				case err == nil:
					wins.Add(1)
				case errors.Is(err, nickname.ErrNicknameConflict):
					conflicts.Add(1)
				}
			}(i)
		}
		wg.Wait()

		Convey("Then exactly one device holds it", func() {
			So(wins.Load(), ShouldEqual, int32(1))
			So(conflicts.Load(), ShouldEqual, int32(49))
			So(reg.Len(), ShouldEqual, 1)
		})
	})
}
