package commands

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseSupportedCommands(t *testing.T) {
	cases := []struct {
		in       string
		typeWant Type
	}{
		{"/add buy oat milk", TypeAdd},
		{"done 3", TypeDone},
		{"rename 2 call the dentist", TypeRename},
		{"move 4 under 1", TypeMove},
		{"label 2 home errands", TypeLabel},
		{"timer start", TypeTimer},
		{"/list groceries", TypeList},
	}

	for _, tc := range cases {
		cmd, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if cmd.Type != tc.typeWant {
			t.Fatalf("parse %q type = %s, want %s", tc.in, cmd.Type, tc.typeWant)
		}
	}
}

func TestParseMoveForms(t *testing.T) {
	cmd, err := Parse("move 3 under 1")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Move.Row != 3 || cmd.Move.ParentRow != 1 || cmd.Move.ToRoot {
		t.Fatalf("unexpected move args: %+v", cmd.Move)
	}

	cmd, err = Parse("move 3 root")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Move.Row != 3 || !cmd.Move.ToRoot {
		t.Fatalf("unexpected move args: %+v", cmd.Move)
	}
}

func TestParseLabelForms(t *testing.T) {
	cmd, err := Parse("label 2 home errands")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Label.Row != 2 || !reflect.DeepEqual(cmd.Label.Labels, []string{"home", "errands"}) {
		t.Fatalf("unexpected label args: %+v", cmd.Label)
	}

	cmd, err = Parse("label 2 -")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Label.Labels == nil || len(cmd.Label.Labels) != 0 {
		t.Fatalf("clear form should yield empty labels, got %+v", cmd.Label)
	}
}

func TestParseUnknownCommand(t *testing.T) {
	_, err := Parse("/frobnicate 1")
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeUnknownCommand {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestParseInvalidArguments(t *testing.T) {
	cases := []string{
		"add",
		"done",
		"done zero",
		"done 0",
		"rename 2",
		"move 3",
		"move 3 sideways",
		"move 3 under",
		"label 2",
		"label 2 home,work",
		"timer explode",
		"timer",
		"list",
	}

	for _, in := range cases {
		_, err := Parse(in)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeInvalidArgument {
			t.Fatalf("parse %q: expected invalid argument error, got %v", in, err)
		}
	}
}

func TestParseEmptyInput(t *testing.T) {
	for _, in := range []string{"", "   ", "/", "/   "} {
		_, err := Parse(in)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeEmptyInput {
			t.Fatalf("parse %q: expected empty input error, got %v", in, err)
		}
	}
}

func TestExecuteDispatch(t *testing.T) {
	cmd, err := Parse("/move 4 under 2")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	called := false
	res, err := Execute(cmd, Handlers{
		Move: func(a MoveArgs) (Result, error) {
			called = true
			if a.Row != 4 || a.ParentRow != 2 {
				t.Fatalf("unexpected args: %+v", a)
			}
			return Result{Message: "moved"}, nil
		},
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !called || res.Message != "moved" {
		t.Fatalf("dispatch failed, called=%v res=%+v", called, res)
	}
}

func TestExecuteMissingHandler(t *testing.T) {
	cmd, err := Parse("timer pause")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	_, err = Execute(cmd, Handlers{})
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeHandlerMissing {
		t.Fatalf("expected missing handler error, got %v", err)
	}
}
