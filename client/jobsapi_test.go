package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestHTTPJobsAPI_Basic(t *testing.T) {
	Convey("GetJob & SubmitJob should work", t, func() {
		// 准备：模拟 server
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id": r.PathValue("id"), "status": "running", "progress": 42,
				"function_name": "import_books", "result": nil, "error": nil,
			})
		})
		mux.HandleFunc("POST /api/jobs", func(w http.ResponseWriter, r *http.Request) {
			var req SubmitJobReq
			_ = json.NewDecoder(r.Body).Decode(&req)
			w.WriteHeader(http.StatusAccepted)
			_ = json.NewEncoder(w).Encode(SubmitJobResp{ID: "job-" + req.FunctionName})
		})
		ts := httptest.NewServer(mux)
		defer ts.Close()
		api := NewHTTPJobsAPI(ts.URL + "/")

		job, err := api.GetJob(context.Background(), "abc")
		So(err, ShouldBeNil)
		So(job.ID, ShouldEqual, "abc")
		So(job.Status, ShouldEqual, StatusRunning)
		So(job.Progress, ShouldEqual, 42)
		So(job.FunctionName, ShouldEqual, "import_books")
		So(job.Result, ShouldEqual, "")

		id, err := api.SubmitJob(context.Background(), "import_books", "")
		So(err, ShouldBeNil)
		So(id, ShouldEqual, "job-import_books")
	})
}

func TestHTTPJobsAPI_Errors(t *testing.T) {
	Convey("GetJob should map 404 to ErrJobNotFound", t, func() {
		ts := httptest.NewServer(http.NotFoundHandler())
		defer ts.Close()
		_, err := NewHTTPJobsAPI(ts.URL).GetJob(context.Background(), "missing")
		So(err, ShouldEqual, ErrJobNotFound)
	})

	Convey("GetJob should return StatusError on other non-2xx", t, func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}))
		defer ts.Close()
		_, err := NewHTTPJobsAPI(ts.URL).GetJob(context.Background(), "x")
		So(err, ShouldNotBeNil)
		se, ok := err.(*StatusError)
		So(ok, ShouldBeTrue)
		So(se.Code, ShouldEqual, http.StatusBadGateway)
	})

	Convey("GetJob should fail on undecodable body", t, func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		}))
		defer ts.Close()
		_, err := NewHTTPJobsAPI(ts.URL).GetJob(context.Background(), "x")
		So(err, ShouldNotBeNil)
		So(err, ShouldNotEqual, ErrJobNotFound)
	})

	Convey("IsTerminal covers completed and failed only", t, func() {
		So(StatusCompleted.IsTerminal(), ShouldBeTrue)
		So(StatusFailed.IsTerminal(), ShouldBeTrue)
		So(StatusPending.IsTerminal(), ShouldBeFalse)
		So(StatusRunning.IsTerminal(), ShouldBeFalse)
	})
}

func TestHTTPJobsAPI_Timeout(t *testing.T) {
	Convey("requests should wait for slow servers unless a timeout is configured", t, func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(150 * time.Millisecond)
			_ = json.NewEncoder(w).Encode(Job{ID: "slow", Status: StatusRunning})
		}))
		defer ts.Close()

		job, err := NewHTTPJobsAPI(ts.URL).GetJob(context.Background(), "slow")
		So(err, ShouldBeNil)
		So(job.ID, ShouldEqual, "slow")

		_, err = NewHTTPJobsAPI(ts.URL, WithHTTPTimeout(30*time.Millisecond)).GetJob(context.Background(), "slow")
		So(err, ShouldNotBeNil)
		So(errors.Is(err, ErrJobNotFound), ShouldBeFalse)
	})
}
