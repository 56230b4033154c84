package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When initialized with defaults", func() {
			So(Init(), ShouldBeNil)
			So(Get(), ShouldNotBeNil)
			So(Sync(), ShouldBeNil)
		})

		Convey("When initialized with an unknown format", func() {
			So(InitWith(&bytes.Buffer{}, "xml"), ShouldNotBeNil)
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWith(&buf, "json"), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging with fields", func() {
			Named("ranking").With(String("owner", "u1")).Info(ctx, "rank computed", Int("rank", 3), Error(errors.New("boom")))

			var line map[string]any
			So(json.Unmarshal(buf.Bytes(), &line), ShouldBeNil)

			Convey("Then the fields are structured", func() {
				So(line["msg"], ShouldEqual, "rank computed")
				So(line["logger"], ShouldEqual, "ranking")
				So(line["owner"], ShouldEqual, "u1")
				So(line["rank"], ShouldEqual, 3.0)
				So(line["error"], ShouldEqual, "boom")
				So(line["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level filters a message", func() {
			So(SetLevelString("warn"), ShouldBeNil)
			defer func() { _ = SetLevelString("info") }()
			Get().Info(ctx, "hidden")
			Get().Warn(ctx, "shown")

			So(strings.Contains(buf.String(), "hidden"), ShouldBeFalse)
			So(strings.Contains(buf.String(), "shown"), ShouldBeTrue)
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level names", t, func() {
		for _, lvl := range []string{"debug", "INFO", "", "warning", "error"} {
			So(SetLevelString(lvl), ShouldBeNil)
		}
		So(SetLevelString("loud"), ShouldNotBeNil)
		_ = SetLevelString("info")
	})
}

func TestNop(t *testing.T) {
	Convey("Given a nop logger", t, func() {
		l := Nop().Named("x")
		So(func() { l.Error(context.Background(), "dropped") }, ShouldNotPanic)
	})
}
