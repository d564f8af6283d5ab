// Package server assembles the bridge's components behind one request
// surface.
//
// A Server owns a handle registry, a bounded event sink, and an e2ee manager
// for the session. External callers register tracks, set up streams, consume
// the event channel, and release handles; the room's ownership component
// forwards track lifecycle notifications through the server into the e2ee
// manager.
package server
