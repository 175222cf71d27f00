package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/MRamiBalles/DrillCore/internal/content"
	"github.com/MRamiBalles/DrillCore/internal/domain/boss"
	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
	"github.com/MRamiBalles/DrillCore/internal/events"
)

// Action errors. They are returned to the caller and never touch state.
var (
	ErrUnknownAction     = errors.New("unknown action")
	ErrDrillLocked       = errors.New("drill is locked while overheated or cooling")
	ErrShieldEmpty       = errors.New("shield has no charge")
	ErrNoCurrentEvent    = errors.New("no event awaiting a choice")
	ErrUnknownOption     = errors.New("unknown event option")
	ErrNoBoss            = errors.New("no boss engaged")
	ErrNoMinigame        = errors.New("no hack minigame in progress")
	ErrMinigameResolved  = errors.New("hack minigame already resolved")
	ErrNoCoolingGame     = errors.New("no emergency cooldown in progress")
	ErrAnalyzerBusy      = errors.New("analyzer already running")
	ErrUnknownItem       = errors.New("item not in inventory")
	ErrAlreadyIdentified = errors.New("item already identified")
	ErrUnknownObject     = errors.New("flying object not found")
	ErrUnknownBiome      = errors.New("biome not reachable")
	ErrInvalidDamage     = errors.New("damage must be a positive number")
)

// ActionKind names a player action.
type ActionKind string

const (
	ActionToggleDrilling   ActionKind = "toggle_drilling"
	ActionToggleShield     ActionKind = "toggle_shield"
	ActionResolveEvent     ActionKind = "resolve_event"
	ActionCompleteMinigame ActionKind = "complete_minigame"
	ActionCompleteCooling  ActionKind = "complete_cooling"
	ActionStrikeBoss       ActionKind = "strike_boss"
	ActionStartAnalysis    ActionKind = "start_analysis"
	ActionHitObject        ActionKind = "hit_object"
	ActionActivateEffect   ActionKind = "activate_effect"
	ActionSelectBiome      ActionKind = "select_biome"
)

// Action is a player command queued between ticks.
type Action struct {
	Kind      ActionKind              `json:"kind"`
	OptionID  string                  `json:"option_id,omitempty"`
	Success   bool                    `json:"success,omitempty"`
	WeakPoint *int                    `json:"weak_point,omitempty"` // nil targets the main pool
	Damage    float64                 `json:"damage,omitempty"`
	ItemID    string                  `json:"item_id,omitempty"`
	ObjectID  string                  `json:"object_id,omitempty"`
	Biome     string                  `json:"biome,omitempty"`
	Effect    *content.EffectTemplate `json:"effect,omitempty"`
}

// Apply runs a player action against s and returns the proposed change. Any
// action resets the AFK timer.
func (e *GameEngine) Apply(s *drill.GameState, a Action) (Outcome, error) {
	var (
		out Outcome
		err error
	)
	switch a.Kind {
	case ActionToggleDrilling:
		out, err = ToggleDrilling(s)
	case ActionToggleShield:
		out, err = ToggleShield(s)
	case ActionResolveEvent:
		out, err = ResolveEvent(s, e.registry, a.OptionID, e.rng)
	case ActionCompleteMinigame:
		out, err = CompleteMinigame(s, a.Success)
	case ActionCompleteCooling:
		st := e.stats.Compute(s)
		floor := drill.AmbientFloor(st, s.Settings, drill.CombineEffects(s.ActiveEffects))
		out, err = CompleteCoolingGame(s, a.Success, floor)
	case ActionStrikeBoss:
		wp := boss.MainPool
		if a.WeakPoint != nil {
			wp = *a.WeakPoint
		}
		out, err = StrikeBoss(s, wp, a.Damage)
	case ActionStartAnalysis:
		out, err = StartAnalysis(s, e.registry, a.ItemID)
	case ActionHitObject:
		out, err = HitFlyingObject(s, a.ObjectID, a.Damage)
	case ActionActivateEffect:
		if a.Effect == nil {
			return Outcome{}, fmt.Errorf("%s: missing effect", a.Kind)
		}
		out, err = ActivateEffect(s, *a.Effect)
	case ActionSelectBiome:
		out, err = SelectBiome(s, e.registry, a.Biome)
	default:
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownAction, a.Kind)
	}
	if err != nil {
		return Outcome{}, err
	}
	out.Patch.AFKSeconds = Some(0.0)
	return out, nil
}

// ToggleDrilling flips the drill. It cannot be started while overheated or
// during an emergency cooldown.
func ToggleDrilling(s *drill.GameState) (Outcome, error) {
	var out Outcome
	if !s.IsDrilling && (s.IsOverheated || s.IsCoolingGameActive) {
		return out, ErrDrillLocked
	}
	out.Patch.IsDrilling = Some(!s.IsDrilling)
	return out, nil
}

// ToggleShield starts or stops blocking.
func ToggleShield(s *drill.GameState) (Outcome, error) {
	var out Outcome
	if !s.IsShielding && s.ShieldCharge <= 0 {
		return out, ErrShieldEmpty
	}
	out.Patch.IsShielding = Some(!s.IsShielding)
	return out, nil
}

// ResolveEvent pops the current event and applies the chosen option. An empty
// optionID takes the first option.
func ResolveEvent(s *drill.GameState, reg content.Registry, optionID string, rng *rand.Rand) (Outcome, error) {
	var out Outcome
	ev, ok := s.CurrentEvent()
	if !ok {
		return out, ErrNoCurrentEvent
	}
	rest := append([]drill.EventInstance(nil), s.EventQueue[1:]...)

	def, ok := reg.Event(ev.DefinitionID)
	if !ok {
		out.Patch.EventQueue = Some(rest)
		out.emit(events.Log("The moment passes.", events.ColorInfo))
		return out, nil
	}

	var opt *content.EventOption
	for i := range def.Options {
		if optionID == "" || def.Options[i].ID == optionID {
			opt = &def.Options[i]
			break
		}
	}
	if opt == nil && optionID != "" {
		return Outcome{}, fmt.Errorf("%w: %s/%s", ErrUnknownOption, def.ID, optionID)
	}
	if opt == nil {
		out.Patch.EventQueue = Some(rest)
		return out, nil
	}

	out.Patch.EventQueue = Some(rest)
	out.emit(events.Log(fmt.Sprintf("%s: %s", def.Title, opt.Label), events.ColorInfo))
	if opt.Effect != nil {
		out.Patch.ActiveEffects = Some(withEffect(s.ActiveEffects, *opt.Effect))
		out.emit(events.Log(opt.Effect.Name+" active.", events.ColorSuccess))
	}
	out.Patch.CreditBag(opt.Resources)
	if opt.StartsTunnel && s.SideTunnel == nil {
		if tunnel, ok := GenerateTunnel(reg, s.Depth, rng); ok {
			out.Patch.SideTunnel = Some(tunnel)
			out.emit(events.Log("Entering "+tunnel.Name+". Drilling now feeds the tunnel.", events.ColorWarning), events.Sound("tunnel_enter"))
		}
	}
	return out, nil
}

// CompleteMinigame records the hack outcome; Combat resolves it next tick.
func CompleteMinigame(s *drill.GameState, won bool) (Outcome, error) {
	var out Outcome
	if s.CombatMinigame == nil {
		return out, ErrNoMinigame
	}
	if s.CombatMinigame.Outcome != boss.MinigamePending {
		return out, ErrMinigameResolved
	}
	mg := *s.CombatMinigame
	mg.Outcome = boss.MinigameLost
	if won {
		mg.Outcome = boss.MinigameWon
	}
	out.Patch.CombatMinigame = Some(&mg)
	return out, nil
}

// CompleteCoolingGame ends the emergency cooldown. Success vents heat to floor.
func CompleteCoolingGame(s *drill.GameState, success bool, floor float64) (Outcome, error) {
	var out Outcome
	if !s.IsCoolingGameActive {
		return out, ErrNoCoolingGame
	}
	out.Patch.IsCoolingGameActive = Some(false)
	if success {
		out.Patch.Heat = Some(floor)
		out.Patch.IsOverheated = Some(false)
		out.emit(events.Log("Manual purge complete. Core stable.", events.ColorSuccess), events.Sound("systems_ready"))
		return out, nil
	}
	out.emit(events.Log("Manual purge failed. Waiting for passive cooling.", events.ColorWarning))
	return out, nil
}

// StrikeBoss queues a player hit. weakPoint is an index or boss.MainPool.
func StrikeBoss(s *drill.GameState, weakPoint int, damage float64) (Outcome, error) {
	var out Outcome
	if s.CurrentBoss == nil {
		return out, ErrNoBoss
	}
	if !(damage > 0) {
		return out, fmt.Errorf("%w: %v", ErrInvalidDamage, damage)
	}
	hits := append(append([]boss.Hit(nil), s.PendingHits...), boss.Hit{WeakPoint: weakPoint, Damage: damage})
	out.Patch.PendingHits = Some(hits)
	return out, nil
}

// StartAnalysis begins identifying an inventory item.
func StartAnalysis(s *drill.GameState, reg content.Registry, itemID string) (Outcome, error) {
	var out Outcome
	if s.AnalyzerJob != nil {
		return out, ErrAnalyzerBusy
	}
	idx := s.FindItem(itemID)
	if idx < 0 {
		return out, fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	}
	if s.Inventory[idx].Identified {
		return out, ErrAlreadyIdentified
	}
	secs := 30.0
	if def, ok := reg.Artifact(s.Inventory[idx].DefinitionID); ok && def.AnalysisSecs > 0 {
		secs = def.AnalysisSecs
	}
	out.Patch.AnalyzerJob = Some(&drill.AnalysisJob{ItemID: itemID, Remaining: secs})
	out.emit(events.Log(fmt.Sprintf("Analyzer started (%.0fs).", secs), events.ColorInfo))
	return out, nil
}

// HitFlyingObject damages a collectible; Entity pays it out once at zero hp.
func HitFlyingObject(s *drill.GameState, id string, damage float64) (Outcome, error) {
	var out Outcome
	if !(damage > 0) {
		return out, fmt.Errorf("%w: %v", ErrInvalidDamage, damage)
	}
	objs := make([]drill.FlyingObject, len(s.FlyingObjects))
	copy(objs, s.FlyingObjects)
	for i := range objs {
		if objs[i].ID == id {
			objs[i].HP -= damage
			out.Patch.FlyingObjects = Some(objs)
			return out, nil
		}
	}
	return out, fmt.Errorf("%w: %s", ErrUnknownObject, id)
}

// ActivateEffect starts a timed effect, refreshing it if already active.
func ActivateEffect(s *drill.GameState, tmpl content.EffectTemplate) (Outcome, error) {
	var out Outcome
	if tmpl.Duration <= 0 {
		return out, fmt.Errorf("effect %s has no duration", tmpl.ID)
	}
	out.Patch.ActiveEffects = Some(withEffect(s.ActiveEffects, tmpl))
	out.emit(events.Log(tmpl.Name+" active.", events.ColorSuccess))
	return out, nil
}

// SelectBiome pins mining to a reached biome. Empty name follows depth again.
func SelectBiome(s *drill.GameState, reg content.Registry, name string) (Outcome, error) {
	var out Outcome
	if name != "" {
		b, ok := content.BiomeByName(reg, name)
		if !ok || s.Depth < b.Depth {
			return out, fmt.Errorf("%w: %s", ErrUnknownBiome, name)
		}
	}
	out.Patch.SelectedBiome = Some(name)
	return out, nil
}

func withEffect(current []drill.ActiveEffect, tmpl content.EffectTemplate) []drill.ActiveEffect {
	out := make([]drill.ActiveEffect, 0, len(current)+1)
	for _, e := range current {
		if e.ID != tmpl.ID {
			out = append(out, e)
		}
	}
	return append(out, drill.ActiveEffect{
		ID:        tmpl.ID,
		Name:      tmpl.Name,
		Remaining: tmpl.Duration,
		Modifiers: append([]drill.Modifier(nil), tmpl.Modifiers...),
	})
}
