package store

import (
	"github.com/pointaudit/pointaudit/pkg/dbid"
	"github.com/pointaudit/pointaudit/pkg/point"
)

// LoadDbidTree walks the unit of a parsed DBID export. It checks that every
// I/O module declares the POINT_NAME matching its address, records module
// event tagging bitmaps and control task periods as DropInfo, and returns
// one batch per point object found directly under a drop. Nothing is
// recorded when the walk fails.
func (s *Store) LoadDbidTree(tree *dbid.Tree) ([]point.Batch, error) {
	s.mu.RLock()
	loaded := s.drops != nil
	s.mu.RUnlock()
	if loaded {
		return nil, ErrDropsLoaded
	}

	unit := tree.Unit()
	if unit == dbid.NoNode {
		return nil, &StructureError{Msg: "no Unit object found"}
	}
	drops := make(map[string]*DropInfo)
	var batches []point.Batch
	for _, drop := range tree.Drops(unit) {
		dropName := tree.Node(drop).Name
		info, ok := drops[dropName]
		if !ok {
			info = newDropInfo(dropName)
			drops[dropName] = info
		}
		if err := loadModules(tree, drop, info); err != nil {
			return nil, err
		}
		for _, task := range tree.ControlTasks(drop) {
			if period, ok := tree.Param(task.Node, dbid.PeriodTimeParam); ok {
				info.taskPeriod[task.Index] = period
			}
		}
		batches = append(batches, pointBatches(tree, drop, dropName)...)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drops != nil {
		return nil, ErrDropsLoaded
	}
	s.drops = drops
	s.logger.Debug().
		Int("drops", len(drops)).
		Int("points", len(batches)).
		Msg("Loaded DBID unit")
	return batches, nil
}

func loadModules(tree *dbid.Tree, drop dbid.NodeID, info *DropInfo) error {
	dropNumber := dbid.DropNumber(info.Name)
	for _, module := range tree.Modules(drop) {
		object := tree.Node(module.Node).Name
		name, ok := tree.Param(module.Node, dbid.PointNameParam)
		if !ok {
			return &StructureError{Drop: info.Name, Object: object, Msg: "module does not have " + dbid.PointNameParam}
		}
		if expected := dbid.ModulePointName(dropNumber, module); name != expected {
			return &StructureError{Drop: info.Name, Object: object, Msg: name + " does not refer to real location " + expected}
		}
		if bitmap, ok := tree.Param(module.Node, dbid.EventTaggingParam); ok {
			info.eventTagging[module.Location()] = bitmap
		}
	}
	return nil
}

func pointBatches(tree *dbid.Tree, drop dbid.NodeID, dropName string) []point.Batch {
	var batches []point.Batch
	for _, child := range tree.Children(drop) {
		n := tree.Node(child)
		if n.Kind != dbid.ObjectNode {
			continue
		}
		if _, ok := point.ParseKind(n.Value); !ok {
			continue
		}
		b := point.Batch{
			point.KKS:           n.Name,
			point.Type:          n.Value,
			point.AppearInFiles: point.DbidFileName,
			point.Drop:          dropName,
		}
		for _, param := range tree.Params(child) {
			p := tree.Node(param)
			key, ok := point.ParseParameter(p.Name)
			if !ok {
				continue
			}
			switch key {
			case point.KKS, point.Type, point.Drop, point.AppearInFiles:
				continue
			}
			b[key] = p.Value
		}
		batches = append(batches, b)
	}
	return batches
}
