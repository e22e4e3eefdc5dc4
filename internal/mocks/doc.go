// Package mocks provides centralized mock implementations for testing.
//
// Each mock is a struct with function fields for every interface method,
// default return values for the common case, and mutex-guarded call
// tracking so tests can assert on how a collaborator was used.
//
// Usage:
//
//	client := &mocks.MockClient{
//	    SubmitFn: func(ctx context.Context, prompt string) (string, error) {
//	        return "```json\n[]\n```", nil
//	    },
//	}
//
// When adding a new mock to this package:
//  1. Create a new file named after the interface being mocked
//  2. Implement the mock struct with function fields for each interface method
//  3. Document any helper methods or special functionality
package mocks
