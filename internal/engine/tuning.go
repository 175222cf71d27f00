package engine

// Cadences in ticks.
const (
	HookEvery         = 10
	EventCheckEvery   = 50
	DefaultNarrative  = 300
	DefaultRaidEvery  = 600
	AFKNarrativeAfter = 60.0 // seconds
)

// Combat.
const (
	bossMinDepth          = 200.0
	bossDepthSpacing      = 500.0
	bossSpawnChancePerSec = 0.02
	weakPointCount        = 3
	weakPointHPShare      = 0.1
	weakPointHitFactor    = 2.0
	weakPointBreakBonus   = 0.1
	minigameCooldown      = 45.0
	minigameChancePerSec  = 0.05
	minigameBurstShare    = 0.25
	minigameFailDamage    = 20.0
	phaseTwoAt            = 0.5
	phaseThreeAt          = 0.2
)

// Events.
const (
	eventRollChance = 0.1
)

// Hazards.
const (
	caveInShare       = 0.4
	gasShare          = 0.3
	caveInMinHullPct  = 0.2
	caveInMinDamage   = 5.0
	caveInDamageRange = 10.0
	gasHeat           = 10.0
	gasMaxHeat        = 80.0
	magmaHeat         = 20.0
	magmaMinDepth     = 15000.0
	magmaMaxHeat      = 70.0
)

// Shield, per second.
const (
	shieldChargeRate    = 10.0
	shieldDischargeRate = 25.0
	shieldLeakRate      = 1.0
)

// Drones, per level per second.
const (
	repairPerLevel = 0.5
	coolerPerLevel = 0.8
)

// Entities.
const (
	maxFlyingObjects     = 3
	flyingSpawnPerSec    = 0.05
	flyingRegion         = 100.0
	heatStabilityLow     = 40.0
	heatStabilityHigh    = 80.0
	heatStabilitySeconds = 60.0
)

// Side tunnels, per tick.
const (
	tunnelDropChance      = 0.01
	tunnelCollapsePerRisk = 0.002
	tunnelCollapseMinHull = 0.2
	tunnelBlueprintChance = 0.25
)

// Death.
const (
	deathResourceKeep = 0.7
	deathDepthLoss    = 500.0
)

// Cues.
const (
	alarmHeat      = 80.0
	alarmHullShare = 0.25
)
