package memstore

import (
	"context"
	"testing"

	"github.com/mengeric/booklamp-jobs-go/storage"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStore(t *testing.T) {
	Convey("memstore should keep a single value per key", t, func() {
		var kv storage.KV = New()
		ctx := context.Background()

		_, ok, err := kv.Get(ctx, storage.ActiveJobKey)
		So(err, ShouldBeNil)
		So(ok, ShouldBeFalse)

		So(kv.Set(ctx, storage.ActiveJobKey, "a"), ShouldBeNil)
		So(kv.Set(ctx, storage.ActiveJobKey, "b"), ShouldBeNil)
		v, ok, _ := kv.Get(ctx, storage.ActiveJobKey)
		So(ok, ShouldBeTrue)
		So(v, ShouldEqual, "b")

		So(kv.Delete(ctx, storage.ActiveJobKey), ShouldBeNil)
		So(kv.Delete(ctx, storage.ActiveJobKey), ShouldBeNil)
		_, ok, _ = kv.Get(ctx, storage.ActiveJobKey)
		So(ok, ShouldBeFalse)
	})
}
