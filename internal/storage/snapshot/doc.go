// Package snapshot persists the whole keyspace to a single file.
//
// File layout:
//
//	[magic:8 "REDKVSNP"]
//	[HeaderLen:4][HeaderJSON:HeaderLen]
//	[DataLen:4][Data:DataLen]   (JSON body, or AEAD-sealed JSON body)
//	[checksum:32 SHA-256 of all bytes above]
//
// The body is {"data": {key: base64 value}, "expiry": {key: unix millis}};
// keys without expiry have no "expiry" entry. Expiry instants are absolute
// wall-clock times, so keys that expired while the server was down are
// dropped on load.
//
// A save writes a temporary file in the target directory, syncs it and
// renames it over the previous snapshot, so readers never see a partial
// file. When encryption is configured the header is the AEAD additional
// data and, for passphrase keys, carries the Argon2 salt.
package snapshot
