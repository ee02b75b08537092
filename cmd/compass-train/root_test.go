package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/compass/internal/domain/classifier"
)

func TestTrainCommand(t *testing.T) {
	convey.Convey("Given an output path", t, func() {
		out := filepath.Join(t.TempDir(), "model.json")

		convey.Convey("When training with a fixed seed", func() {
			cmd := newRootCmd()
			var stdout, stderr bytes.Buffer
			cmd.SetOut(&stdout)
			cmd.SetErr(&stderr)
			cmd.SetArgs([]string{"--out", out, "--samples", "400", "--seed", "7"})
			err := cmd.Execute()

			convey.Convey("Then a usable two-feature model is saved", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(stdout.String(), convey.ShouldContainSubstring, "Model saved to "+out)
				m, err := classifier.Load(out)
				convey.So(err, convey.ShouldBeNil)
				convey.So(m.NumFeatures(), convey.ShouldEqual, 2)
				convey.So(m.Classes, convey.ShouldResemble, []int{0, 1})
			})
		})

		convey.Convey("When the epoch count is invalid", func() {
			cmd := newRootCmd()
			var stderr bytes.Buffer
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&stderr)
			cmd.SetArgs([]string{"--out", out, "--epochs", "0"})
			err := cmd.Execute()

			convey.Convey("Then training fails without writing", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(stderr.String(), convey.ShouldContainSubstring, "Error:")
			})
		})
	})
}
