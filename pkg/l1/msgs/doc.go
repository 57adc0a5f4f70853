// Package msgs provides the L1 wire envelope and all message schemas.
//
// L1 messages travel between a scanner and remote consumers (operator
// shell, monitors, the host feed). Every message is a protobuf Struct
// body wrapped in a Typed envelope carrying the type ID and, for
// commands, a sequence number matching replies to requests.
package msgs
