// Package trace reads and writes JSON Lines pointer traces.
//
// A trace holds one browser-shaped raw event per line:
//
//	{"type":"touchstart","timeStamp":0,"target":"btn","source":"root","touches":[{"identifier":0,"pageX":100,"pageY":100}]}
//	{"type":"touchend","timeStamp":120,"target":"btn","source":"root","changedTouches":[{"identifier":0,"pageX":101,"pageY":102}]}
//
// Fields that are absent stay absent on the decoded event, so an event
// without coordinates reaches the recognizer without coordinates. The
// timeStamp field is in milliseconds. The optional scrollX and scrollY
// fields carry the viewport scroll offsets at the time of the event.
//
// Emitted taps are written as one record per line:
//
//	{"id":"…","kind":"touchTap","target":"btn","source":"root","timeStamp":120}
package trace
