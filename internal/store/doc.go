// Package store provides SQLite-backed persistence for the attributed graph.
//
// The store is append-only and has four tables:
//   - node: id, unique accession name (an), type
//   - edge: id, two endpoint node ids, type
//   - node_attribute: multi-valued name/value rows per node
//   - edge_attribute: multi-valued name/value rows per edge
//
// Attribute rows hold either a boolean (bool_value) or text (text_value).
// Setting an attribute always appends a row; nothing is overwritten.
//
// Edges are undirected. EdgesOf and Neighbors match a node at either end,
// so a "# _symmetric" header changes nothing about how rows are stored or
// read. Ingest only echoes the declared edge types in IngestReport.Symmetric;
// they are not persisted.
//
// # Single writer
//
// The store assumes one writer. Concurrent ingestion is not supported and
// must be serialized by the caller. Ingest is the only transactional
// operation: a batch either commits completely or leaves no trace.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Edges and attribute rows must reference existing owners
package store
