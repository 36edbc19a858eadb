// Package snapshot defines the frame data model shared by the show producer
// and the renderers, and its MessagePack wire codec.
//
// A Snapshot is one rendered frame: a producer-assigned frame number, the
// producer clock in milliseconds, and an ordered collection of layers, each
// an ordered list of arc segments. Order is render-significant at both
// levels and survives a round trip through Encode and Decode.
//
// # Wire format
//
// The encoding is positional, with no field names on the wire:
//
//	[frame_number, time, [[arc, arc, ...], [arc, ...], ...]]
//	arc = [level, thickness, hue, sat, val, x, y, rad_x, rad_y, start, stop, rot_angle]
//
// Arc fields may arrive as any MessagePack number (the producer packs small
// integers such as level=255 as ints and the rest as float32); all are
// widened to float64.
//
// # Decoding untrusted input
//
// Decode validates every array header before reading its elements and
// fails with a *DecodeError naming the first mismatch. It never returns a
// partial Snapshot and never keeps a reference into the input buffer.
package snapshot
