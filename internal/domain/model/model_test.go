package model_test

import (
	"errors"
	"testing"

	model "github.com/okian/synaptic/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestCommand(t *testing.T) {
	convey.Convey("Given a new activate command", t, func() {
		cmd := model.NewCommand("key-1", model.CommandActivate, "dendritic_lightning")

		convey.Convey("Then it should carry its fields and a reply slot", func() {
			convey.So(cmd.ID, convey.ShouldEqual, "key-1")
			convey.So(cmd.Kind, convey.ShouldEqual, model.CommandActivate)
			convey.So(cmd.AbilityID, convey.ShouldEqual, "dendritic_lightning")
			convey.So(cmd.TS.IsZero(), convey.ShouldBeFalse)
			convey.So(cap(cmd.Reply), convey.ShouldEqual, 1)
		})

		convey.Convey("When responding twice", func() {
			first := cmd.Respond(model.CommandResult{AbilityID: "dendritic_lightning", Affected: 2})
			second := cmd.Respond(model.CommandResult{Err: errors.New("late")})

			convey.Convey("Then only the first result is delivered and nothing blocks", func() {
				convey.So(first, convey.ShouldBeTrue)
				convey.So(second, convey.ShouldBeFalse)
				res := <-cmd.Reply
				convey.So(res.Affected, convey.ShouldEqual, 2)
				convey.So(res.Err, convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a command without a reply channel", t, func() {
		cmd := model.Command{Kind: model.CommandClear}

		convey.Convey("Then responding is a no-op", func() {
			convey.So(cmd.Respond(model.CommandResult{Cleared: 3}), convey.ShouldBeFalse)
		})
	})
}

func TestCommandKind_String(t *testing.T) {
	cases := map[model.CommandKind]string{
		model.CommandActivate:   "activate",
		model.CommandConnect:    "connect",
		model.CommandSimulate:   "simulate",
		model.CommandDisconnect: "disconnect",
		model.CommandClear:      "clear",
		model.CommandKind(99):   "command(99)",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("CommandKind(%d).String() = %q, want %q", int(k), got, want)
		}
	}
}
