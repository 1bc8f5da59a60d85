// Package commander coordinates a recall lookup workflow: a planner
// produces an ordered step list, a router executes it, and a direct
// store fallback covers router failures. The commander holds no
// persistent state; it is a coordination function over injectable
// collaborators.
package commander
