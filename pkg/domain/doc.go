/*
Package domain contains the shared models of relstore.

It is kept free of I/O and of the schema machinery so every other package (schema,
entity, adapters) can depend on it without cycles.

# Key Types

  - Entity: a record of a table, keyed by field name, identified by "id" once persisted.
  - FieldErrors: per-field ordered validation messages.
  - ValidationError: the error value returned when an entity is rejected.

# Errors

  - [ErrNotFound]: no entity carries the requested id.
  - [ErrSchema]: configuration or usage error (bad type, unknown table or filter key).
  - [ErrValidation]: matched by every [ValidationError].
*/
package domain
