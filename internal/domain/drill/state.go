// Package drill holds the authoritative rig state that every tick reads and the
// orchestrator replaces.
// This package is PURE and must NOT import any infrastructure packages.
package drill

import (
	"maps"
	"slices"

	"github.com/MRamiBalles/DrillCore/internal/domain/base"
	"github.com/MRamiBalles/DrillCore/internal/domain/boss"
	"github.com/MRamiBalles/DrillCore/internal/domain/item"
	"github.com/MRamiBalles/DrillCore/internal/domain/resource"
)

// Bounds shared by the subsystems and the final clamp.
const (
	MaxHeat         = 100.0
	MaxShieldCharge = 100.0
	RecentEventsCap = 5
)

// DroneKind identifies a support drone.
type DroneKind string

const (
	DroneRepair DroneKind = "repair"
	DroneCooler DroneKind = "cooler"
)

// Drone is a purchased support drone.
type Drone struct {
	Level  int  `json:"level" msgpack:"level"`
	Active bool `json:"active" msgpack:"active"`
}

// Equipment levels feed the stats calculator.
type Equipment struct {
	DrillLevel  int `json:"drill_level" msgpack:"drill_level"`
	EngineLevel int `json:"engine_level" msgpack:"engine_level"`
	CoolerLevel int `json:"cooler_level" msgpack:"cooler_level"`
	HullLevel   int `json:"hull_level" msgpack:"hull_level"`
	ArmorLevel  int `json:"armor_level" msgpack:"armor_level"`
}

// Settings are debug and accessibility overrides.
type Settings struct {
	GodMode           bool `json:"god_mode" msgpack:"god_mode"`
	InfiniteCoolant   bool `json:"infinite_coolant" msgpack:"infinite_coolant"`
	InfiniteResources bool `json:"infinite_resources" msgpack:"infinite_resources"`
	Overdrive         bool `json:"overdrive" msgpack:"overdrive"`
}

// FlyingObject is a cosmetic collectible that drifts across the screen.
type FlyingObject struct {
	ID     string       `json:"id" msgpack:"id"`
	Kind   string       `json:"kind" msgpack:"kind"`
	X      float64      `json:"x" msgpack:"x"`
	Y      float64      `json:"y" msgpack:"y"`
	VX     float64      `json:"vx" msgpack:"vx"`
	VY     float64      `json:"vy" msgpack:"vy"`
	HP     float64      `json:"hp" msgpack:"hp"`
	Reward resource.Bag `json:"reward" msgpack:"reward"`
}

// SideTunnel is an active exploration detour.
type SideTunnel struct {
	Type        string       `json:"type" msgpack:"type"`
	Name        string       `json:"name" msgpack:"name"`
	Progress    float64      `json:"progress" msgpack:"progress"`
	MaxProgress float64      `json:"max_progress" msgpack:"max_progress"`
	Difficulty  float64      `json:"difficulty" msgpack:"difficulty"`
	Risk        int          `json:"risk" msgpack:"risk"`
	Rewards     resource.Bag `json:"rewards" msgpack:"rewards"` // pre-rolled, paid once on completion
}

// EventInstance is a queued ambient event awaiting a player choice.
type EventInstance struct {
	InstanceID   string `json:"instance_id" msgpack:"instance_id"`
	DefinitionID string `json:"definition_id" msgpack:"definition_id"`
	Title        string `json:"title" msgpack:"title"`
}

// AnalysisJob is the single running artifact identification.
type AnalysisJob struct {
	ItemID    string  `json:"item_id" msgpack:"item_id"`
	Remaining float64 `json:"remaining" msgpack:"remaining"`
}

// GameState is the full rig snapshot.
type GameState struct {
	Depth        float64 `json:"depth" msgpack:"depth"`
	Heat         float64 `json:"heat" msgpack:"heat"`
	Integrity    float64 `json:"integrity" msgpack:"integrity"`
	ShieldCharge float64 `json:"shield_charge" msgpack:"shield_charge"`

	IsDrilling          bool `json:"is_drilling" msgpack:"is_drilling"`
	IsOverheated        bool `json:"is_overheated" msgpack:"is_overheated"`
	IsCoolingGameActive bool `json:"is_cooling_game_active" msgpack:"is_cooling_game_active"`
	IsShielding         bool `json:"is_shielding" msgpack:"is_shielding"`

	SelectedBiome string       `json:"selected_biome" msgpack:"selected_biome"`
	Resources     resource.Bag `json:"resources" msgpack:"resources"`
	XP            float64      `json:"xp" msgpack:"xp"`

	ActiveEffects  []ActiveEffect  `json:"active_effects" msgpack:"active_effects"`
	EventQueue     []EventInstance `json:"event_queue" msgpack:"event_queue"`
	RecentEventIDs []string        `json:"recent_event_ids" msgpack:"recent_event_ids"`

	CurrentBoss    *boss.Boss     `json:"current_boss" msgpack:"current_boss"`
	LastBossDepth  float64        `json:"last_boss_depth" msgpack:"last_boss_depth"`
	CombatMinigame *boss.Minigame `json:"combat_minigame" msgpack:"combat_minigame"`
	PendingHits    []boss.Hit     `json:"pending_hits" msgpack:"pending_hits"`

	FlyingObjects []FlyingObject `json:"flying_objects" msgpack:"flying_objects"`
	SideTunnel    *SideTunnel    `json:"side_tunnel" msgpack:"side_tunnel"`
	PlayerBases   []base.Base    `json:"player_bases" msgpack:"player_bases"`

	Drones              map[DroneKind]Drone `json:"drones" msgpack:"drones"`
	Inventory           []item.Item         `json:"inventory" msgpack:"inventory"`
	DiscoveredArtifacts []string            `json:"discovered_artifacts" msgpack:"discovered_artifacts"`
	UnlockedBlueprints  []string            `json:"unlocked_blueprints" msgpack:"unlocked_blueprints"`
	Unlocks             map[string]bool     `json:"unlocks" msgpack:"unlocks"`
	AnalyzerJob         *AnalysisJob        `json:"analyzer_job" msgpack:"analyzer_job"`

	Equipment Equipment      `json:"equipment" msgpack:"equipment"`
	Skills    map[string]int `json:"skills" msgpack:"skills"`
	Settings  Settings       `json:"settings" msgpack:"settings"`

	TickCount          int64   `json:"tick_count" msgpack:"tick_count"`
	EventCheckTick     int     `json:"event_check_tick" msgpack:"event_check_tick"`
	BossAttackTick     int     `json:"boss_attack_tick" msgpack:"boss_attack_tick"`
	MinigameCooldown   float64 `json:"minigame_cooldown" msgpack:"minigame_cooldown"`
	HeatStabilityTimer float64 `json:"heat_stability_timer" msgpack:"heat_stability_timer"`
	NarrativeTick      int     `json:"narrative_tick" msgpack:"narrative_tick"`
	AFKSeconds         float64 `json:"afk_seconds" msgpack:"afk_seconds"`
	HookElapsed        float64 `json:"hook_elapsed" msgpack:"hook_elapsed"`
}

// NewGameState returns a fresh rig at the surface.
func NewGameState(maxIntegrity float64) *GameState {
	return &GameState{
		Integrity: maxIntegrity,
		Resources: resource.Bag{},
		Drones:    map[DroneKind]Drone{},
		Unlocks:   map[string]bool{},
		Skills:    map[string]int{},
	}
}

// Clone returns a deep copy. Subsystems receive snapshots; only the orchestrator
// holds a mutable copy. Nil slices and maps stay nil so a clone compares equal
// to its source.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	c := *s
	c.Resources = maps.Clone(s.Resources)

	c.ActiveEffects = slices.Clone(s.ActiveEffects)
	for i := range c.ActiveEffects {
		c.ActiveEffects[i].Modifiers = slices.Clone(c.ActiveEffects[i].Modifiers)
	}
	c.EventQueue = slices.Clone(s.EventQueue)
	c.RecentEventIDs = slices.Clone(s.RecentEventIDs)

	c.CurrentBoss = s.CurrentBoss.Clone()
	if s.CombatMinigame != nil {
		mg := *s.CombatMinigame
		c.CombatMinigame = &mg
	}
	c.PendingHits = slices.Clone(s.PendingHits)

	c.FlyingObjects = slices.Clone(s.FlyingObjects)
	for i := range c.FlyingObjects {
		c.FlyingObjects[i].Reward = maps.Clone(c.FlyingObjects[i].Reward)
	}
	if s.SideTunnel != nil {
		st := *s.SideTunnel
		st.Rewards = maps.Clone(s.SideTunnel.Rewards)
		c.SideTunnel = &st
	}
	if s.PlayerBases != nil {
		c.PlayerBases = make([]base.Base, len(s.PlayerBases))
		for i, b := range s.PlayerBases {
			c.PlayerBases[i] = b.Clone()
		}
	}

	c.Drones = maps.Clone(s.Drones)
	c.Inventory = slices.Clone(s.Inventory)
	c.DiscoveredArtifacts = slices.Clone(s.DiscoveredArtifacts)
	c.UnlockedBlueprints = slices.Clone(s.UnlockedBlueprints)
	c.Unlocks = maps.Clone(s.Unlocks)
	if s.AnalyzerJob != nil {
		job := *s.AnalyzerJob
		c.AnalyzerJob = &job
	}
	c.Skills = maps.Clone(s.Skills)
	return &c
}

// CurrentEvent returns the front of the event queue.
func (s *GameState) CurrentEvent() (EventInstance, bool) {
	if len(s.EventQueue) == 0 {
		return EventInstance{}, false
	}
	return s.EventQueue[0], true
}

// FindItem returns the index of an inventory item or -1.
func (s *GameState) FindItem(id string) int {
	for i, it := range s.Inventory {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// PushRecentEvent appends id to the ring buffer, dropping the oldest entry.
func PushRecentEvent(recent []string, id string) []string {
	out := append(append([]string(nil), recent...), id)
	if len(out) > RecentEventsCap {
		out = out[len(out)-RecentEventsCap:]
	}
	return out
}
