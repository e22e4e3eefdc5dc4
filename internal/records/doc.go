// Package records validates an extracted payload against the question
// record shape. Validation is all-or-nothing: the first violation rejects
// the whole batch with a *domain.SchemaError.
package records
