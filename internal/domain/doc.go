// Package domain contains the core value types of the study-question
// pipeline (QuestionRecord, RequestContext) and the error taxonomy shared by
// every pipeline stage. It has no dependencies on infrastructure packages.
package domain
