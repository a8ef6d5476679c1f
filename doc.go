// Package rangedl is a resumable, multi-part HTTP download engine. Given a
// remote resource URL and a writable random-access sink, it fetches the
// resource in parallel byte ranges, persists per-range progress so
// interrupted downloads resume without re-fetching completed bytes, and
// exposes a controllable lifecycle (Init/Start/Stop) with observable state,
// speed, and completion events.
//
// The engine treats the sink as an opaque random-access writable byte stream
// and the HTTP transport as an opaque client. It does not catalog multiple
// downloads, persist state to disk on its own, verify content integrity, or
// provide a CLI/UI — those are the responsibility of collaborators built on
// top of a Downloader.
package rangedl
