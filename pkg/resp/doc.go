// Package resp implements the tagged, length-prefixed wire format spoken by
// redkv clients and servers.
//
// A Frame is one decoded protocol value. Every Frame variant has exactly one
// wire encoding, so Decode(Encode(f)) reproduces f:
//
//	+<text>\r\n                 SimpleString
//	-<text>\r\n                 Error
//	:<[+-]digits>\r\n           Integer
//	$<len>\r\n<bytes>\r\n       BulkString
//	$-1\r\n                     NullBulk
//	#t\r\n / #f\r\n             Boolean
//	,<[+-]number>\r\n           Double
//	*<count>\r\n<frames...>     Array
//	_\r\n                       Null
//
// Decode works on a growable buffer: it reports ErrIncomplete when more
// bytes are needed and ErrProtocol when the bytes can never form a frame.
package resp
