// Package contracts defines the immutable data shapes that cross component
// boundaries in the retrieval and planning pipeline: documents, chunks,
// candidates, context packets, planner responses, and the error kinds used
// to report failure as data rather than as panics or bare errors.
//
// No component outside this package may invent an alternate shape for these
// types; everything that crosses a port boundary is one of the types here.
package contracts
