package engine

import (
	"github.com/zyedidia/generic/mapset"

	"github.com/MRamiBalles/DrillCore/internal/content"
	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
	"github.com/MRamiBalles/DrillCore/internal/domain/item"
	"github.com/MRamiBalles/DrillCore/internal/events"
	"github.com/MRamiBalles/DrillCore/internal/platform/logger"
)

// AnalyzerSystem runs the single artifact identification timer.
type AnalyzerSystem struct {
	registry content.Registry
	logger   *logger.Logger
}

// NewAnalyzerSystem creates the analyzer subsystem.
func NewAnalyzerSystem(reg content.Registry, log *logger.Logger) *AnalyzerSystem {
	return &AnalyzerSystem{registry: reg, logger: log}
}

// Update counts the job down and identifies the item when it finishes.
func (as *AnalyzerSystem) Update(t *Tick, s *drill.GameState) Outcome {
	var out Outcome
	if s.AnalyzerJob == nil {
		return out
	}

	job := *s.AnalyzerJob
	job.Remaining -= t.DT
	if job.Remaining > 0 {
		out.Patch.AnalyzerJob = Some(&job)
		return out
	}
	out.Patch.AnalyzerJob = Some[*drill.AnalysisJob](nil)

	idx := s.FindItem(job.ItemID)
	if idx < 0 {
		as.logger.Warn("analyzer finished on missing item %s", job.ItemID)
		out.emit(events.Log("Analysis aborted: sample missing.", events.ColorWarning))
		return out
	}

	inv := append([]item.Item(nil), s.Inventory...)
	inv[idx].Identified = true
	out.Patch.Inventory = Some(inv)

	defID := inv[idx].DefinitionID
	discovered := mapset.New[string]()
	for _, id := range s.DiscoveredArtifacts {
		discovered.Put(id)
	}
	if !discovered.Has(defID) {
		out.Patch.DiscoveredArtifacts = Some(append(append([]string(nil), s.DiscoveredArtifacts...), defID))
	}

	name := defID
	if def, ok := as.registry.Artifact(defID); ok {
		name = def.Name
	}
	out.emit(
		events.Log("Analysis complete: "+name+" identified.", events.ColorSuccess),
		events.Particles("analysis_complete"),
		events.Sound("analyzer_ding"),
	)
	return out
}
