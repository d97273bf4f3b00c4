// Package events bridges player notifications onto a server-sent events
// stream so other local tools can follow playback.
package events
