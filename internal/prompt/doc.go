// Package prompt turns a RequestContext into the natural-language request
// sent to the generative service. Subject, curriculum level and institution
// are embedded verbatim, and the model is told to answer with a single
// fenced JSON array of question records.
package prompt
