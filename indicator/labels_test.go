package indicator

import (
	"errors"
	"testing"

	"github.com/mengeric/booklamp-jobs-go/client"
	"github.com/mengeric/booklamp-jobs-go/tracker"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStatusLabel(t *testing.T) {
	Convey("known function names map to fixed labels", t, func() {
		So(StatusLabel(client.Job{FunctionName: "import_books", Progress: 12}), ShouldEqual, "Importing books...")
		So(StatusLabel(client.Job{FunctionName: "fetch_missing_data"}), ShouldEqual, "Fetching missing book data...")
	})

	Convey("unknown function names fall back to progress", t, func() {
		So(StatusLabel(client.Job{FunctionName: "reindex", Progress: 37}), ShouldEqual, "Processing (37%)")
		So(StatusLabel(client.Job{Progress: 0}), ShouldEqual, "Processing (0%)")
	})

	Convey("error messages are user facing", t, func() {
		So(ErrorMessage(client.ErrJobNotFound), ShouldEqual, "Job not found")
		So(ErrorMessage(&tracker.JobFailedError{JobID: "j", Message: "bad csv"}), ShouldEqual, "bad csv")
		So(ErrorMessage(errors.New("other")), ShouldEqual, "other")
	})
}
