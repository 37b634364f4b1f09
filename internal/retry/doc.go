// Package retry retries opening the database connection when the failure
// looks transient (server still starting, network blip, connection slots
// exhausted).
//
// Only connection establishment goes through this package. Pipeline stages
// (extract, COPY, constraints) fail the run on their first error.
//
//	classifier := retry.NewPostgreSQLErrorClassifier()
//	strategy := retry.NewExponentialBackoff(3)
//	executor := retry.NewExecutor(classifier, strategy)
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return pool.Ping(ctx)
//	})
package retry
