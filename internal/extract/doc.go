// Package extract locates the structured payload embedded in a free-form
// generative service response. The search strategy is a PayloadLocator so
// alternative heuristics can be swapped in without touching validation.
package extract
