// Package engine contains the per-tick simulation of the rig and the runtime
// loop that drives it.
//
// ARCHITECTURAL RULE: subsystems never mutate state. Each one reads the
// accumulated working state and returns an Outcome. The GameEngine is the only
// mutator: it applies each patch before the next subsystem runs.
//
// Tick order: stats, effects, analyzer, events, shield, heat, drilling (and
// side tunnels), combat, entities, drones, hazards, then the periodic hooks.
package engine
