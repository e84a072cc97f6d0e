package converter

import (
	"go.uber.org/zap"

	"github.com/devicelab-dev/flowdsl/pkg/flow"
)

const (
	reasonMissing   = "missing"
	reasonDuplicate = "duplicate"
)

// normalizeNames gives every flow a name in one pass over the batch. A
// flow without a name gets the normalized dialect identifier plus a
// suffix; a flow repeating an earlier name gets a suffix appended.
//
// The pass does not iterate to a fixed point: a suffixed name can still
// collide with a later flow.
func (c *Converter) normalizeNames(flows []*flow.Flow) {
	seen := make(map[string]bool, len(flows))
	for _, f := range flows {
		if f.Metadata == nil {
			f.Metadata = flow.NewMap()
		}
		name := f.Name()
		switch {
		case name == "":
			c.assignName(f, flow.NormalizeIdentifier(f.DSL)+c.suffix(), reasonMissing)
		case seen[name]:
			c.assignName(f, name+c.suffix(), reasonDuplicate)
		}
		seen[f.Name()] = true
	}
}

func (c *Converter) assignName(f *flow.Flow, name, reason string) {
	if f.Assigned == nil {
		prev, had := f.Metadata.Get(flow.KeyName)
		f.Assigned = &flow.NameAssignment{Previous: prev, HadPrevious: had}
	}
	f.Assigned.Name = name
	f.Metadata.Set(flow.KeyName, name)

	c.metrics.RecordNameAssigned(f.DSL, reason)
	c.logger.Debug("flow name assigned",
		zap.String("dialect", f.DSL),
		zap.String("name", name),
		zap.String("reason", reason))
}

// revertName restores the name a flow had before normalization.
func revertName(f *flow.Flow) {
	a := f.Assigned
	f.Assigned = nil
	if a.HadPrevious {
		f.Metadata.Set(flow.KeyName, a.Previous)
		return
	}
	f.Metadata.Delete(flow.KeyName)
}
