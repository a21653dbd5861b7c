package booklamp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/mengeric/booklamp-jobs-go/client"
	"github.com/mengeric/booklamp-jobs-go/indicator"
	"github.com/mengeric/booklamp-jobs-go/metrics"
	_ "github.com/mengeric/booklamp-jobs-go/processor/example"
	"github.com/mengeric/booklamp-jobs-go/storage"
	"github.com/mengeric/booklamp-jobs-go/storage/memstore"
	"github.com/mengeric/booklamp-jobs-go/tracker"
	. "github.com/smartystreets/goconvey/convey"
)

func startServer(t *testing.T) (*Server, string, context.CancelFunc) {
	s := NewServer(WithListenAddr("127.0.0.1:0"), WithJanitorEvery(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		cancel()
		t.Fatalf("start: %v", err)
	}
	return s, "http://" + s.Addr(), cancel
}

func TestServer_HTTP(t *testing.T) {
	Convey("server should expose job status, submit and system endpoints", t, func() {
		s, base, cancel := startServer(t)
		defer cancel()

		// 未知任务 -> 404
		res, err := http.Get(base + "/api/jobs/unknown")
		So(err, ShouldBeNil)
		So(res.StatusCode, ShouldEqual, http.StatusNotFound)
		res.Body.Close()

		// 非法请求体 -> 400
		res, err = http.Post(base+"/api/jobs", "application/json", bytes.NewReader([]byte("{")))
		So(err, ShouldBeNil)
		So(res.StatusCode, ShouldEqual, http.StatusBadRequest)
		res.Body.Close()
		res, err = http.Post(base+"/api/jobs", "application/json", bytes.NewReader([]byte(`{}`)))
		So(err, ShouldBeNil)
		So(res.StatusCode, ShouldEqual, http.StatusBadRequest)
		res.Body.Close()

		api := client.NewHTTPJobsAPI(base)
		id, err := api.SubmitJob(context.Background(), "import_books", "title\nDune\n")
		So(err, ShouldBeNil)
		s.Queue().Wait()
		job, err := api.GetJob(context.Background(), id)
		So(err, ShouldBeNil)
		So(job.Status, ShouldEqual, client.StatusCompleted)
		So(job.Result, ShouldEqual, "Successfully imported 1 entries")

		res, err = http.Get(base + "/api/system")
		So(err, ShouldBeNil)
		So(res.StatusCode, ShouldEqual, http.StatusOK)
		var snap metrics.Snapshot
		So(json.NewDecoder(res.Body).Decode(&snap), ShouldBeNil)
		res.Body.Close()
		So(snap.CPUProcessors, ShouldBeGreaterThanOrEqualTo, 1)
	})
}

func TestServer_IndicatorEndToEnd(t *testing.T) {
	Convey("indicator should follow a real job to completion", t, func() {
		s, base, cancel := startServer(t)
		defer cancel()
		api := client.NewHTTPJobsAPI(base)
		kv := memstore.New()

		id, err := api.SubmitJob(context.Background(), "fetch_missing_data", "")
		So(err, ShouldBeNil)

		page := indicator.NewIndicatorPage()
		ind := indicator.New(page, api, kv, id,
			indicator.WithNotifyAfter(time.Second),
			indicator.WithTrackerOptions(tracker.WithInterval(40*time.Millisecond), tracker.WithAutoRefresh(false)),
		)
		So(ind.Start(context.Background()), ShouldBeNil)
		v, _, _ := kv.Get(context.Background(), storage.ActiveJobKey)
		So(v, ShouldEqual, id)

		select {
		case <-ind.Tracker().Done():
		case <-time.After(3 * time.Second):
		}
		s.Queue().Wait()
		So(ind.Tracker().State(), ShouldEqual, tracker.StateCompleted)
		e, _ := page.Element(indicator.IDStatusText)
		So(e.Text, ShouldEqual, "Fetching missing book data...")
		msgs := page.Messages()
		So(len(msgs), ShouldEqual, 1)
		So(msgs[0].Text, ShouldEqual, "No missing data found to update.")
		_, ok, _ := kv.Get(context.Background(), storage.ActiveJobKey)
		So(ok, ShouldBeFalse)
	})

	Convey("pruned jobs should look like unknown jobs to the tracker", t, func() {
		s, base, cancel := startServer(t)
		defer cancel()
		ctx := context.Background()
		id, _ := s.Queue().Create(ctx, "import_books")
		s.Queue().Fail(ctx, id, "x")
		n, err := s.store.PruneFinished(ctx, time.Now().Add(time.Minute))
		So(err, ShouldBeNil)
		So(n, ShouldEqual, 1)

		_, err = client.NewHTTPJobsAPI(base).GetJob(ctx, id)
		So(err, ShouldEqual, client.ErrJobNotFound)
	})
}
