// Package canbus provides bus transports that carry the frame regions
// defined by the can package.
//
// Every transport implements Bus: context-aware send and receive of single
// frames plus close. Receive hands each caller a frame whose backing
// storage no other goroutine touches.
package canbus
