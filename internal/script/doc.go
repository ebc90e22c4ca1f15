// Package script runs a user Lua script against emitted taps.
//
// The script runs in a sandboxed gopher-lua state with only the base,
// table, string and math libraries. If it defines a global on_tap
// function, the function is called for every tap with a table:
//
//	function on_tap(tap)
//		-- tap.id, tap.kind, tap.target, tap.source, tap.timestamp (ms)
//		taptrack.log("tap on " .. tap.target)
//	end
//
// print and taptrack.log write to the taptrack log.
package script
