// Package remux joins encoded segments back into a single Matroska file.
//
// The concat manifest lists every encoded segment in index order. Video is
// stream copied, audio is transcoded from the original source, subtitles are
// either copied or converted per stream, and container metadata is taken
// from the source.
package remux
