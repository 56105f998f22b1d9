/*
Package ports defines the driven ports (interfaces) of the relstore entity store.

These interfaces decouple the table logic from external implementations, allowing
the same schema to be persisted into memory, files, Redis, SQLite or DynamoDB.

# Key Interfaces

  - KV: Get/Set of one opaque blob per table key.
  - IDGenerator: Produces identifiers for newly created entities.

RunKVContract is a shared test suite every KV adapter runs against itself.
*/
package ports
