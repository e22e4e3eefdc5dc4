// Package events carries session state transitions to interested
// listeners. Sessions emit a StateChanged after every applied transition;
// the HTTP layer subscribes to stream view updates over websockets.
package events
