// Package rtcheck holds the traps that guard the audio callback in debug
// builds. Build with -tags debug to enable them; release builds compile
// every check to nothing.
package rtcheck
