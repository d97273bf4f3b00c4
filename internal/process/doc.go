// Package process answers "is the player running" and "is the companion
// running", and starts the companion when it is not.
//
// Process enumeration uses go-ps with case-insensitive executable matching.
// On Linux the player additionally registers an MPRIS name on the D-Bus
// session bus, which is checked as a second opinion, and the companion is
// launched by the player itself so no spawning happens there.
package process
