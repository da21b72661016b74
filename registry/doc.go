// Package registry maps operation names to factories so pipelines can be
// assembled from configuration or other late-bound sources.
//
//	registry.MustRegister("charge-card", func(ctx context.Context) (pipe.Operation, error) {
//		return payments.NewChargeCard(gateway), nil
//	})
//
//	p := pipe.New(pipe.WithResolver(registry.Default().Resolver())).
//		AddResolved("charge-card")
//
// Resolution is explicit and name-based. There is no reflection and no
// struct-field injection; a factory gets a context and returns a ready
// operation or an error.
package registry
