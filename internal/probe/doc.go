// Package probe queries the live status of a Minecraft server.
//
// Two wire protocols are supported: the Java edition Server List Ping
// (TCP, varint-framed, JSON status payload) and the Bedrock edition RakNet
// unconnected ping (UDP, semicolon-separated MOTD payload).
//
// Every probe runs under a hard wall-clock ceiling that is authoritative over
// any protocol-level timeout: if the inner query has not resolved by then, the
// probe reports a timeout and the late result is discarded.
package probe
