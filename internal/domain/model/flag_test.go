package model_test

import (
	"errors"
	"testing"

	"github.com/goccy/go-json"
	model "github.com/okian/cadettracker/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestFlagJSON(t *testing.T) {
	convey.Convey("Given report payloads", t, func() {
		convey.Convey("When resolved is sent as an integer or a boolean", func() {
			cases := map[string]bool{"1": true, "0": false, "true": true, "false": false}
			for raw, want := range cases {
				var in model.NewReport
				err := json.Unmarshal([]byte(`{"cadet_cadet_id":1,"report_type":"uniform","resolved":`+raw+`}`), &in)

				convey.So(err, convey.ShouldBeNil)
				convey.So(bool(in.Resolved), convey.ShouldEqual, want)
			}
		})

		convey.Convey("When a patch sets resolved to 1", func() {
			var p model.ReportPatch
			err := json.Unmarshal([]byte(`{"resolved":1}`), &p)

			convey.Convey("Then the patch carries a true flag", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(p.Resolved, convey.ShouldNotBeNil)
				convey.So(bool(*p.Resolved), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a patch omits resolved or sends null", func() {
			for _, body := range []string{`{}`, `{"resolved":null}`} {
				var p model.ReportPatch
				convey.So(json.Unmarshal([]byte(body), &p), convey.ShouldBeNil)
				convey.So(p.Resolved, convey.ShouldBeNil)
			}
		})

		convey.Convey("When resolved is any other value", func() {
			for _, raw := range []string{"2", "-1", `"yes"`, `"1"`} {
				var in model.NewReport
				err := json.Unmarshal([]byte(`{"resolved":`+raw+`}`), &in)

				convey.So(errors.Is(err, model.ErrInvalidFlag), convey.ShouldBeTrue)
			}
		})
	})
}
