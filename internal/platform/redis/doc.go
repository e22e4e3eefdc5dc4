// Package redis provides the Redis-backed completion cache. It stores the
// raw text of generative service responses that went on to validate, keyed
// by a BLAKE2b digest of the model name and prompt, so an identical request
// can skip the external call.
package redis
