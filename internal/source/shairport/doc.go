// Package shairport reads the shairport-sync metadata pipe and translates
// it into now-playing events.
//
// The pipe carries a stream of XML <item> elements whose type and code are
// hex-encoded four-character codes and whose payload is base64. Only a
// handful of codes matter to the panel: artist, title, album and the
// transport state markers. Everything else is skipped. Read failures are
// absorbed with a retry backoff; the pipe being writerless simply blocks
// the reader, which is the normal idle condition.
package shairport
