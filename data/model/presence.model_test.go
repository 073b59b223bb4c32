package model

import (
	"testing"

	"github.com/fabriq/collab/data/structures"
	"github.com/fabriq/collab/internal/testutil"
)

func TestIndicatorListCap(t *testing.T) {
	t.Parallel()

	users := []CollaboratorModel{
		{UserID: "u1", UserName: "ann"},
		{UserID: "u2", UserName: "bob"},
		{UserID: "u3", UserName: "cat"},
		{UserID: "u4", UserName: "dan"},
		{UserID: "u5", UserName: "eve"},
	}

	list := NewIndicatorList(users)

	testutil.Assert(t, 3, len(list.Visible), "visible capped at three")
	testutil.Assert(t, 2, list.Overflow, "remainder counted as overflow")
	testutil.Assert(t, "A", list.Visible[0].Initial, "initial uppercased")
	testutil.Assert(t, false, list.Empty(), "non-empty list")
}

func TestIndicatorListExactCap(t *testing.T) {
	t.Parallel()

	list := NewIndicatorList([]CollaboratorModel{
		{UserID: "u1", UserName: "Ann"},
		{UserID: "u2", UserName: "Bob"},
		{UserID: "u3", UserName: "Cat"},
	})

	testutil.Assert(t, 3, len(list.Visible), "all three visible")
	testutil.Assert(t, 0, list.Overflow, "no overflow at the cap")
}

func TestIndicatorListEmpty(t *testing.T) {
	t.Parallel()

	list := NewIndicatorList(nil)

	testutil.Assert(t, true, list.Empty(), "empty input renders nothing")
	testutil.Assert(t, 0, list.Overflow, "no overflow")
}

func TestIndicatorsFromEditors(t *testing.T) {
	t.Parallel()

	list := IndicatorsFromEditors([]structures.EditingUser{
		{UserID: "u2", UserName: "bob", Element: "title"},
	})

	testutil.Assert(t, 1, len(list.Visible), "one badge")
	testutil.Assert(t, "u2", list.Visible[0].UserID, "user id carried")
	testutil.Assert(t, "B", list.Visible[0].Initial, "initial derived")
}
