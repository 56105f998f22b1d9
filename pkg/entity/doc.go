// Package entity persists the entities of one compiled table into a ports.KV.
//
// The whole table lives under a single key, "<namespace>:<schema>:<table>", as one
// JSON array. Reads decode the blob; mutations rewrite it.
//
//	books, _ := entity.NewTable(compiled, kv)
//	saved, err := books.Save(ctx, domain.Entity{"title": "Dune"})
//	var verr *domain.ValidationError
//	if errors.As(err, &verr) {
//	    fmt.Println(verr.Fields["title"])
//	}
//
// Errors follow a single policy: validation failures are *domain.ValidationError,
// missing ids wrap domain.ErrNotFound and misuse (such as filtering on an undeclared
// key) wraps domain.ErrSchema.
package entity
