// Package resolver expands the links declared by corpus documents into a
// flat, deduplicated bundle.
//
// A resolution run starts from one or more seed documents and walks the
// reference graph breadth-first. References come from two places:
//
//   - link fields such as auto_load or related_files, holding a path or a
//     list of paths
//   - pointer objects of the form {"$ref": "path"} anywhere in a document
//
// Every reference is mapped to a canonical absolute path before it is
// compared with the paths already indexed, so each file is loaded at most
// once per run and cycles terminate. The bundle stores every loaded file
// under a sequential id (file_001, file_002, ...) and replaces each
// reference in the loaded content with an alias object:
//
//	{"ref": "file_002", "path": "B.json", "canonicalPath": "/corpus/B.json",
//	 "note": "alias to already-loaded document"}
//
// References that were never loaded because the depth limit was reached
// are left as the literal path.
//
// Files that cannot be loaded never fail a run. They are indexed with an
// in-band marker string as their content, e.g. [FILE_NOT_FOUND: ...], so
// every document referring to the same broken path aliases the one marker.
// Resolve only returns an error when its context is cancelled.
package resolver
