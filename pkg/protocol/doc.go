// Package protocol implements the binary wire protocol between a morph
// server and a browser client.
//
// The server owns the document. It runs the application against an
// in-memory dom.Memory, records every host mutation the reconciler makes and
// ships them to the client in order. The client mirrors them onto the real
// DOM and sends user events back, addressed by node id.
//
// # Wire Format
//
// Every message is framed with a 6-byte header:
//
//	┌────────────┬────────────┬──────────────────────────────┐
//	│ Frame Type │ Flags      │ Payload Length               │
//	│ (1 byte)   │ (1 byte)   │ (4 bytes, big-endian)        │
//	└────────────┴────────────┴──────────────────────────────┘
//
// # Frame Types
//
//   - FrameHandshake (0x00): ClientHello, answered by ServerHello
//   - FrameEvent (0x01): client to server events
//   - FrameMutations (0x02): server to client mutation batches
//   - FrameControl (0x03): ping, pong, close
//   - FrameError (0x05): error report
//
// # Encoding
//
//   - Varint: node ids, sequence numbers and lengths
//   - Length-prefixed: strings and raw byte slices
//   - Big-endian: fixed-width integers such as timestamps
//   - JSON: property values and event details, whose shape is open
//
// Decoders reject trailing bytes and cap every length prefix with
// DefaultMaxAllocation and MaxCollectionCount.
package protocol
