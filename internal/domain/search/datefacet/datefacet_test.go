package datefacet

import (
	"testing"

	"github.com/neogranadina/zasqua/internal/domain/search/state"
)

func sampleTree() Tree {
	return Build(map[string]int{"1750": 3, "1761": 2, "1699": 1, "17xx": 9, "1800": 0})
}

func TestBuild_Aggregates(t *testing.T) {
	tree := sampleTree()

	if len(tree.Centuries) != 2 {
		t.Fatalf("centuries = %d, want 2", len(tree.Centuries))
	}
	xvii, xviii := tree.Centuries[0], tree.Centuries[1]
	if xvii.Label != "XVII" || xvii.Count != 1 {
		t.Errorf("first century = %s/%d, want XVII/1", xvii.Label, xvii.Count)
	}
	if xviii.Label != "XVIII" || xviii.Count != 5 {
		t.Errorf("second century = %s/%d, want XVIII/5", xviii.Label, xviii.Count)
	}
	if len(xviii.Decades) != 2 {
		t.Fatalf("XVIII decades = %d, want 2", len(xviii.Decades))
	}
	if d := xviii.Decades[0]; d.Label != "1750s" || d.Count != 3 {
		t.Errorf("decade = %s/%d, want 1750s/3", d.Label, d.Count)
	}
	if d := xviii.Decades[1]; d.Label != "1760s" || d.Count != 2 {
		t.Errorf("decade = %s/%d, want 1760s/2", d.Label, d.Count)
	}
	if y := xviii.Decades[1].Years[0]; y.Label != "1761" || y.Count != 2 {
		t.Errorf("year = %s/%d, want 1761/2", y.Label, y.Count)
	}
}

func TestBuild_Empty(t *testing.T) {
	if tree := Build(nil); len(tree.Centuries) != 0 {
		t.Errorf("expected empty tree, got %+v", tree)
	}
}

func TestNodeFilters(t *testing.T) {
	tree := sampleTree()
	c := tree.Centuries[1]

	cf := c.Filter()
	if cf.Granularity != state.GranularityCentury || cf.Base != 18 || len(cf.Years) != 100 {
		t.Errorf("century filter = %+v", cf)
	}
	df := c.Decades[0].Filter()
	if df.Label != "1750s" || df.Years[0] != "1750" || df.Years[9] != "1759" {
		t.Errorf("decade filter = %+v", df)
	}
	yf := c.Decades[0].Years[0].Filter()
	if yf.Label != "1750" || len(yf.Years) != 1 {
		t.Errorf("year filter = %+v", yf)
	}
}

func TestVisible_NoFilter(t *testing.T) {
	v := Visible(sampleTree(), nil)
	if len(v.Centuries) != 2 {
		t.Fatalf("centuries = %d", len(v.Centuries))
	}
	for _, c := range v.Centuries {
		if c.Expanded || c.Active {
			t.Errorf("%s must be collapsed and inactive", c.Label)
		}
	}
}

func TestVisible_Century(t *testing.T) {
	active, _ := state.NewDateFilter(state.GranularityCentury, 18)
	v := Visible(sampleTree(), active)

	if len(v.Centuries) != 1 || v.Centuries[0].Label != "XVIII" {
		t.Fatalf("visible = %+v", v.Centuries)
	}
	c := v.Centuries[0]
	if !c.Expanded || !c.Active {
		t.Error("active century must be expanded")
	}
	if len(c.Decades) != 2 {
		t.Errorf("decades = %d, want all decades of the century", len(c.Decades))
	}
}

func TestVisible_Decade(t *testing.T) {
	active, _ := state.NewDateFilter(state.GranularityDecade, 1760)
	v := Visible(sampleTree(), active)

	if len(v.Centuries) != 1 {
		t.Fatalf("centuries = %d", len(v.Centuries))
	}
	c := v.Centuries[0]
	if c.Label != "XVIII" || !c.Expanded {
		t.Errorf("parent century = %+v", c)
	}
	if len(c.Decades) != 1 || c.Decades[0].Label != "1760s" || !c.Decades[0].Expanded {
		t.Errorf("decades = %+v", c.Decades)
	}
	if len(c.Decades[0].Years) != 1 || c.Decades[0].Years[0].Value != 1761 {
		t.Errorf("years = %+v", c.Decades[0].Years)
	}
}

func TestVisible_YearHidesSiblings(t *testing.T) {
	tree := Build(map[string]int{"1750": 3, "1751": 4, "1752": 1})
	active, _ := state.NewDateFilter(state.GranularityYear, 1751)
	v := Visible(tree, active)

	years := v.Centuries[0].Decades[0].Years
	if len(years) != 1 || years[0].Value != 1751 || years[0].Count != 4 || !years[0].Active {
		t.Errorf("years = %+v", years)
	}
	if !v.Centuries[0].Expanded || !v.Centuries[0].Decades[0].Expanded {
		t.Error("path to the active year must be expanded")
	}
}

func TestVisible_ActiveNodeWithoutData(t *testing.T) {
	active, _ := state.NewDateFilter(state.GranularityDecade, 1550)
	v := Visible(sampleTree(), active)

	if len(v.Centuries) != 1 {
		t.Fatalf("centuries = %d", len(v.Centuries))
	}
	c := v.Centuries[0]
	if c.Label != "XVI" || c.Count != 0 {
		t.Errorf("century = %s/%d, want XVI/0", c.Label, c.Count)
	}
	if len(c.Decades) != 1 || c.Decades[0].Label != "1550s" || c.Decades[0].Count != 0 {
		t.Errorf("decades = %+v", c.Decades)
	}
}

func TestVisible_DoesNotMutateInput(t *testing.T) {
	tree := sampleTree()
	active, _ := state.NewDateFilter(state.GranularityYear, 1750)
	_ = Visible(tree, active)
	if len(tree.Centuries[1].Decades) != 2 || tree.Centuries[1].Expanded {
		t.Error("input tree was modified")
	}
}
