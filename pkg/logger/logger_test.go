package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given the global logger", t, func() {
		ctx := context.Background()

		Convey("When Init is called repeatedly", func() {
			So(Init(), ShouldBeNil)
			So(Init(), ShouldBeNil)

			Convey("Then Get returns a usable logger", func() {
				l := Get()
				So(l, ShouldNotBeNil)
				So(func() { l.Info(ctx, "hello", String("k", "v")) }, ShouldNotPanic)
			})
		})

		Convey("When output is JSON", func() {
			var buf bytes.Buffer
			So(Init(WithFormat("json"), WithOutput(&buf)), ShouldBeNil)

			Named("resolver").Info(ctx, "resolved",
				String("category", "team"),
				Int("matches", 2),
				Int64("id", 7),
				Bool("cached", true),
				Duration("took", 3*time.Millisecond),
				Strings("names", []string{"a", "b"}),
				Error(errors.New("boom")),
			)

			Convey("Then fields and component are structured", func() {
				var rec map[string]any
				So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)
				So(rec["msg"], ShouldEqual, "resolved")
				So(rec["component"], ShouldEqual, "resolver")
				So(rec["category"], ShouldEqual, "team")
				So(rec["matches"], ShouldEqual, float64(2))
				So(rec["cached"], ShouldEqual, true)
				So(rec["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level is raised", func() {
			var buf bytes.Buffer
			So(Init(WithOutput(&buf)), ShouldBeNil)
			So(SetLevelString("warn"), ShouldBeNil)
			Get().Info(ctx, "quiet")
			Get().Warn(ctx, "loud")

			Convey("Then lower levels are dropped", func() {
				out := buf.String()
				So(strings.Contains(out, "quiet"), ShouldBeFalse)
				So(out, ShouldContainSubstring, "loud")
			})
			So(SetLevelString("info"), ShouldBeNil)
		})

		Convey("When an unknown level is given", func() {
			err := SetLevelString("verbose")

			Convey("Then an error is returned", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When using Nop", func() {
			Convey("Then nothing panics", func() {
				So(func() { Nop().Named("x").Error(ctx, "ignored") }, ShouldNotPanic)
			})
		})

		Reset(func() {
			_ = Init()
		})
	})
}
