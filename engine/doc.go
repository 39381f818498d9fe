// Package engine provides the sandbox runtime built on wazero.
//
// One Engine is shared by every plugin in a session. The engine itself is
// stateless between loads: Compile produces an instantiable Module, and each
// Module.Instantiate creates an Instance with its own isolated linear memory,
// so plugins cannot observe or corrupt each other's state.
//
// Host capability functions are linked once per engine under the
// "plugsh:host" module. The capability receiver is resolved from the call
// context, never from engine state, so each guest call can carry its own
// receiver (and a guest without one simply gets a no-op).
package engine
