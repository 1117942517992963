// Package editor holds the interaction state of the flow canvas.
//
// An Editor receives gestures (pointer down, move and up, click, double-click,
// right-click, escape) and turns them into viewport changes or lifecycle
// operations. Failures surface as Notices carrying the messages the user
// sees; the graph itself is only ever changed through the lifecycle manager.
package editor
