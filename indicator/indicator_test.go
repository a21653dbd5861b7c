package indicator

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/mengeric/booklamp-jobs-go/client"
	"github.com/mengeric/booklamp-jobs-go/mocks"
	"github.com/mengeric/booklamp-jobs-go/storage"
	"github.com/mengeric/booklamp-jobs-go/storage/memstore"
	"github.com/mengeric/booklamp-jobs-go/tracker"
	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/mock/gomock"
)

const tick = 30 * time.Millisecond

func text(p *MemoryPage, id string) string {
	e, _ := p.Element(id)
	return e.Text
}

func TestIndicator_Completed(t *testing.T) {
	Convey("completion with a result should show a success message that disappears later", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		api := mocks.NewMockJobsAPI(ctrl)
		gomock.InOrder(
			api.EXPECT().GetJob(gomock.Any(), "imp").Return(client.Job{ID: "imp", Status: client.StatusRunning, Progress: 30, FunctionName: "import_books"}, nil),
			api.EXPECT().GetJob(gomock.Any(), "imp").Return(client.Job{ID: "imp", Status: client.StatusCompleted, Progress: 100, Result: "Imported 12 books", FunctionName: "import_books"}, nil),
		)

		page := NewIndicatorPage()
		ind := New(page, api, memstore.New(), "imp",
			WithNotifyAfter(200*time.Millisecond),
			WithFadeDuration(300*time.Millisecond),
			WithHideDelay(10*time.Millisecond),
			WithTrackerOptions(tracker.WithInterval(tick), tracker.WithAutoRefresh(false)),
		)
		So(ind.Start(context.Background()), ShouldBeNil)
		e, _ := page.Element(IDIndicator)
		So(e.Visible, ShouldBeTrue)

		select {
		case <-ind.Tracker().Done():
		case <-time.After(time.Second):
		}
		time.Sleep(50 * time.Millisecond)

		fill, _ := page.Element(IDProgressFill)
		So(fill.Width, ShouldEqual, 100)
		So(text(page, IDStatusText), ShouldEqual, "Importing books...")
		msgs := page.Messages()
		So(len(msgs), ShouldEqual, 1)
		So(msgs[0].Text, ShouldEqual, "Imported 12 books")
		So(msgs[0].Category, ShouldEqual, "success")
		So(msgs[0].Dismissible, ShouldBeTrue)
		So(msgs[0].Faded, ShouldBeFalse)
		e, _ = page.Element(IDIndicator)
		So(e.Visible, ShouldBeFalse)

		// 完成后约 300ms：已过 notifyAfter，未过 notifyAfter+fadeDuration
		time.Sleep(250 * time.Millisecond)
		msgs = page.Messages()
		So(len(msgs), ShouldEqual, 1)
		So(msgs[0].Faded, ShouldBeTrue)

		// 完成后约 600ms：已移除
		time.Sleep(300 * time.Millisecond)
		So(page.Messages(), ShouldBeEmpty)
	})

	Convey("default timings should be 10s display, 500ms fade and 300ms hide delay", t, func() {
		var o options
		o.withDefaults()
		So(o.notifyAfter, ShouldEqual, 10*time.Second)
		So(o.fadeDuration, ShouldEqual, 500*time.Millisecond)
		So(o.hideDelay, ShouldEqual, 300*time.Millisecond)
		So(o.notifyAfter+o.fadeDuration, ShouldEqual, 10500*time.Millisecond)
	})

	Convey("dismiss should remove a message immediately", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		api := mocks.NewMockJobsAPI(ctrl)
		api.EXPECT().GetJob(gomock.Any(), "d").Return(client.Job{ID: "d", Status: client.StatusCompleted, Progress: 100, Result: "done"}, nil)

		page := NewIndicatorPage()
		ind := New(page, api, memstore.New(), "d", WithTrackerOptions(tracker.WithInterval(tick), tracker.WithAutoRefresh(false)))
		So(ind.Start(context.Background()), ShouldBeNil)
		select {
		case <-ind.Tracker().Done():
		case <-time.After(time.Second):
		}
		msgs := page.Messages()
		So(len(msgs), ShouldEqual, 1)
		ind.Dismiss(msgs[0].ID)
		So(page.Messages(), ShouldBeEmpty)
	})
}

func TestIndicator_Errors(t *testing.T) {
	Convey("failed job should write the error into the status text", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		api := mocks.NewMockJobsAPI(ctrl)
		api.EXPECT().GetJob(gomock.Any(), "f").Return(client.Job{ID: "f", Status: client.StatusFailed, Progress: 60, Error: "Sheets quota exceeded"}, nil).Times(1)

		page := NewIndicatorPage()
		ind := New(page, api, memstore.New(), "f", WithTrackerOptions(tracker.WithInterval(tick)))
		So(ind.Start(context.Background()), ShouldBeNil)
		select {
		case <-ind.Tracker().Done():
		case <-time.After(time.Second):
		}
		time.Sleep(3 * tick)
		So(text(page, IDStatusText), ShouldEqual, "Error: Sheets quota exceeded")
		So(page.Messages(), ShouldBeEmpty)
	})

	Convey("unknown job should show not found", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		api := mocks.NewMockJobsAPI(ctrl)
		api.EXPECT().GetJob(gomock.Any(), "x").Return(client.Job{}, client.ErrJobNotFound).Times(1)

		page := NewIndicatorPage()
		ind := New(page, api, memstore.New(), "x", WithTrackerOptions(tracker.WithInterval(tick)))
		So(ind.Start(context.Background()), ShouldBeNil)
		select {
		case <-ind.Tracker().Done():
		case <-time.After(time.Second):
		}
		So(text(page, IDStatusText), ShouldEqual, "Error: Job not found")
	})
}

func TestIndicator_StopAndResume(t *testing.T) {
	Convey("stop should clear the pointer and hide the indicator", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		api := mocks.NewMockJobsAPI(ctrl)
		api.EXPECT().GetJob(gomock.Any(), "r").Return(client.Job{ID: "r", Status: client.StatusRunning, Progress: 37, FunctionName: "mystery"}, nil).AnyTimes()

		kv := memstore.New()
		page := NewIndicatorPage()
		ind := New(page, api, kv, "r", WithHideDelay(10*time.Millisecond), WithTrackerOptions(tracker.WithInterval(tick)))
		So(ind.Start(context.Background()), ShouldBeNil)
		time.Sleep(2 * tick)
		So(text(page, IDStatusText), ShouldEqual, "Processing (37%)")

		ind.Stop(context.Background())
		time.Sleep(50 * time.Millisecond)
		e, _ := page.Element(IDIndicator)
		So(e.Visible, ShouldBeFalse)
		_, ok, _ := kv.Get(context.Background(), storage.ActiveJobKey)
		So(ok, ShouldBeFalse)
	})

	Convey("resume should pick up the persisted job without auto refresh", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		api := mocks.NewMockJobsAPI(ctrl)
		kv := memstore.New()

		ind, err := Resume(context.Background(), NewIndicatorPage(), api, kv)
		So(err, ShouldBeNil)
		So(ind, ShouldBeNil)

		_ = kv.Set(context.Background(), storage.ActiveJobKey, "persisted")
		ind, err = Resume(context.Background(), NewIndicatorPage(), api, kv)
		So(err, ShouldBeNil)
		So(ind, ShouldNotBeNil)
		So(ind.Tracker().JobID(), ShouldEqual, "persisted")
		So(ind.Tracker().AutoRefresh(), ShouldBeFalse)
	})
}

func TestAutoAttach(t *testing.T) {
	Convey("data-job-id elements should each get a label, one tracker per job", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		api := mocks.NewMockJobsAPI(ctrl)
		api.EXPECT().GetJob(gomock.Any(), "a").Return(client.Job{ID: "a", Status: client.StatusRunning, FunctionName: "import_books"}, nil).AnyTimes()
		api.EXPECT().GetJob(gomock.Any(), "b").Return(client.Job{}, client.ErrJobNotFound).Times(1)

		page := NewMemoryPage(false)
		page.AddJobElement("row-1", "a")
		page.AddJobElement("row-2", "b")
		mgr := tracker.NewManager(api, memstore.New(), tracker.WithInterval(tick))

		n, err := AutoAttach(context.Background(), page, mgr)
		So(err, ShouldBeNil)
		So(n, ShouldEqual, 2)
		time.Sleep(3 * tick)

		So(text(page, "row-1"), ShouldEqual, "Importing books...")
		So(text(page, "row-2"), ShouldEqual, "Error: Job not found")
		So(mgr.IDs(), ShouldResemble, []string{"a"})
		mgr.StopAll(context.Background())
	})
}

func TestWriterPage(t *testing.T) {
	Convey("writer page should print status changes once", t, func() {
		var buf bytes.Buffer
		p := NewWriterPage(&buf)
		p.SetWidth(IDProgressFill, 40)
		p.SetText(IDStatusText, "Importing books...")
		p.SetText(IDStatusText, "Importing books...")
		So(p.AppendMessage(Message{Category: "success", Text: "Imported 2 books"}), ShouldBeTrue)
		So(buf.String(), ShouldEqual, "[ 40%] Importing books...\nsuccess: Imported 2 books\n")
	})
}
