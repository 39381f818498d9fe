// Package plugin provides the per-plugin sandbox host and the plugin
// registry.
//
// A Host owns exactly one instantiated sandbox and is the sole mediator of
// ABI calls into it. The Registry holds every successfully loaded plugin,
// keyed by the unique name its init call returned, and exclusively owns each
// entry's Host. There is no unload: a Host lives until process exit.
package plugin
