package middleware

import "github.com/aretw0/relstore/pkg/ports"

// Middleware allows wrapping a KV to add behavior.
type Middleware func(ports.KV) ports.KV

// Chain applies middlewares so that the first one is the outermost.
func Chain(kv ports.KV, mws ...Middleware) ports.KV {
	for i := len(mws) - 1; i >= 0; i-- {
		kv = mws[i](kv)
	}
	return kv
}
