// Package facade is the single entry point used by every presentation surface.
//
// A [Facade] answers queries from the engine's published state without waiting on the engine
// goroutine, and turns surface commands into engine calls. Surfaces subscribe through
// [Facade.Subscribe] and never touch the engine, hub or store directly.
//
// # Lifecycle
//
// [Facade.Start] runs the engine, the autosave loop and the relay that turns failed background
// jobs into hub notices. [Facade.Shutdown] saves once more and stops everything.
//
// # Commands
//
// [Command] carries one of the transport actions ("next", "previous", "play", "pause_or_resume",
// "repeat_once", "seek"). Tab management has dedicated methods.
package facade
