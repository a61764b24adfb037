package validation

import (
	"fmt"
	"strings"

	"github.com/pointaudit/pointaudit/pkg/point"
)

func checkNotInSrcXML(_ *checkContext, p *point.Point, rec *Recorder) {
	if p.InDBID() && !p.InSource() && !p.InLogic() {
		rec.Info(p.KKS(), "point is present in DBID but absent from graphics sources and logic files")
	}
}

func checkNotInDbid(_ *checkContext, p *point.Point, rec *Recorder) {
	if !p.InDBID() && (p.InSource() || p.InLogic()) {
		rec.Info(p.KKS(), "point is absent from DBID but referenced in "+p.Get(point.AppearInFiles))
	}
}

func checkSingleModuleMultitask(c *checkContext, p *point.Point, rec *Recorder) {
	if p.Is(point.ModulePoint) {
		return
	}
	drop, location := p.Get(point.Drop), p.Get(point.IOLocation)
	if drop == "" || location == "" {
		return
	}
	tasks := c.source.TasksAt(drop, location)
	if len(tasks) > 1 {
		rec.Info(p.KKS(), fmt.Sprintf("point belongs to module (%s %s) holding points of different tasks: %s",
			drop, location, strings.Join(tasks, ", ")))
	}
}
