// Package output renders server replies for redkv-cli.
//
// Three formats are supported:
//
//   - text: the interactive layout, with type annotations such as
//     "(integer) 1" and numbered array items
//   - raw: bare values, one per line, for scripting
//   - json: one JSON document per reply
package output
