package validation

import (
	"context"
	"testing"

	"github.com/pointaudit/pointaudit/pkg/dbid"
	"github.com/pointaudit/pointaudit/pkg/point"
	"github.com/pointaudit/pointaudit/pkg/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const testDrop = "DROP11/DROP61"

// unit builds a single-drop DBID tree with one module at 1.1.3 and control
// tasks 1 (100ms) and 2 (1000ms).
type unit struct {
	tree *dbid.Tree
	drop dbid.NodeID
}

func newUnit(bitmap string) *unit {
	tree := dbid.NewTree()
	system := tree.AddObject(tree.Root(), "System", "SYSTEM")
	network := tree.AddObject(system, "Network", "NET")
	u := tree.AddObject(network, "Unit", "UNIT1")
	drop := tree.AddObject(u, "Drop", testDrop)
	device := tree.AddObject(drop, "IoDevice", "I/O Device 0 IOIC")
	iface := tree.AddObject(device, "IoDevice", "I/O Interface 1")
	branch := tree.AddObject(iface, "Branch", "Branch 1")
	slot := tree.AddObject(branch, "RSlot", "Slot 3")
	module := tree.AddObject(slot, "RModule", "Module")
	tree.AddParam(module, "POINT_NAME", "MP_11_1_1_3")
	if bitmap != "" {
		tree.AddParam(module, "EVENT_TAGGING_ENABLE", bitmap)
	}
	controller := tree.AddObject(drop, "ConfigController", "Controller")
	for _, task := range [][2]string{{"1", "100"}, {"2", "1000"}} {
		n := tree.AddObject(controller, "ConfigDPUCtrlTask", "Control Task "+task[0])
		tree.AddParam(n, "periodtime", task[1])
	}
	return &unit{tree: tree, drop: drop}
}

func (u *unit) point(typ, kks string, params ...string) {
	n := u.tree.AddObject(u.drop, typ, kks)
	for i := 0; i+1 < len(params); i += 2 {
		u.tree.AddParam(n, params[i], params[i+1])
	}
}

func (u *unit) load(t *testing.T, extra ...point.Batch) *store.Store {
	t.Helper()
	s := store.New(zerolog.Nop())
	batches, err := s.LoadDbidTree(u.tree)
	require.NoError(t, err)
	s.Merge(batches)
	s.Merge(extra)
	return s
}

var dbidOnlySources = Sources{DBID: true}

// runRule loads u, runs one rule and returns the engine.
func runRule(t *testing.T, u *unit, rule RuleID, extra ...point.Batch) *Engine {
	t.Helper()
	e := NewEngine(u.load(t, extra...), zerolog.Nop())
	e.Run(context.Background(), Sources{DBID: true, Source: true, Logic: true, Historian: true}, rule)
	return e
}
