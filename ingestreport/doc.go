/*
Package ingestreport persists the output of the ingest() port (§6.1).

Ingestion itself — extracting, chunking, and embedding documents — is out
of scope for this engine. What this package owns is the append log of
IngestReport rows an ingestion pipeline would hand back: documents
processed, chunks written, and any errors encountered. This gives the
ingest() port contract a real place to land, and exercises the
migration/DB-driver slice of the stack the rest of the engine doesn't
otherwise touch.

Call Migrate once at startup to apply the embedded schema, then
construct a Store over the same *sql.DB.
*/
package ingestreport
