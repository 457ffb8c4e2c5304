// Package mocks provides centralized mock implementations for testing.
//
// Each mock has one function field per interface method. When the field is
// nil the mock returns its default values instead:
//
//	wordStore := &mocks.MockAggregatedWordStore{
//	    GetFn: func(ctx context.Context, plan aggregate.Plan) (*domain.AggregatedWord, error) {
//	        return nil, &store.NotFoundError{Entity: store.EntityUserWord, WordID: plan.WordID, UserID: plan.Join.UserID}
//	    },
//	}
package mocks
