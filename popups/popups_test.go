package popups

import (
	"strings"
	"testing"

	"gm-tui/styles"
)

func TestConfirmDefaultsToNo(t *testing.T) {
	var c Confirm
	c.Open("End session?", "The dapp will be disconnected.", "End", "Wait")
	if got := c.HandleKey(keyMsg("enter")); got != ConfirmNo {
		t.Errorf("enter without moving focus = %d, want no", got)
	}

	c.Open("End session?", "", "End", "Wait")
	c.HandleKey(keyMsg("left"))
	if got := c.HandleKey(keyMsg("enter")); got != ConfirmYes {
		t.Errorf("enter on yes = %d", got)
	}
	if c.IsOpen() {
		t.Error("popup must close on decision")
	}
}

func TestConfirmEscMeansNo(t *testing.T) {
	var c Confirm
	c.Open("t", "b", "y", "n")
	if got := c.HandleKey(keyMsg("esc")); got != ConfirmNo {
		t.Errorf("esc = %d, want no", got)
	}
}

func TestFilterSelectNarrowsAndPicks(t *testing.T) {
	var f FilterSelect
	f.Open("Pick asset", []FilterEntry{
		{Label: "ETH on Ethereum", Value: "eth"},
		{Label: "USDC on Base", Value: "usdc-base"},
		{Label: "USDC on Ethereum", Value: "usdc-eth"},
	})

	for _, r := range "usdc" {
		f.HandleKey(keyMsg(string(r)))
	}
	f.HandleKey(keyMsg("down"))
	picked := f.HandleKey(keyMsg("enter"))
	if picked == nil || picked.Value != "usdc-eth" {
		t.Errorf("picked = %+v, want usdc-eth", picked)
	}
	if f.IsOpen() {
		t.Error("popup must close on pick")
	}
}

func TestOverlayKeepsBackgroundAroundBox(t *testing.T) {
	bgLine := "screen content"
	bg := strings.TrimSuffix(strings.Repeat(bgLine+"\n", 20), "\n")
	popup := Frame(styles.Dark(), 40, 20, "Confirm", "body")

	out := Overlay(bg, popup)
	lines := strings.Split(out, "\n")
	if lines[0] != bgLine {
		t.Errorf("top row = %q, want screen content", lines[0])
	}
	if last := lines[len(lines)-1]; last != bgLine {
		t.Errorf("bottom row = %q, want screen content", last)
	}
	if !strings.Contains(out, "Confirm") {
		t.Error("popup box missing from the composite")
	}
}

func TestFilterSelectNoMatches(t *testing.T) {
	var f FilterSelect
	f.Open("Pick", []FilterEntry{{Label: "one", Value: "1"}})
	f.HandleKey(keyMsg("z"))
	if picked := f.HandleKey(keyMsg("enter")); picked != nil {
		t.Errorf("picked %+v from an empty list", picked)
	}
	if !f.IsOpen() {
		t.Error("enter on no matches must keep the popup open")
	}
}
