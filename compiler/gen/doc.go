// Package gen implements the multi-phase generation pipeline: it takes
// a parsed schema and a normalized configuration, runs an ordered
// sequence of phases (validate, analyze, generate, finalize) over a
// shared context, and produces the final generated-files aggregate.
//
// Error escalation is decided in exactly one place (Policy); every call
// site that aborts a run consults it. Each executed phase is preceded
// by a snapshot of the files aggregate so a failing phase can be rolled
// back without losing the output of the phases before it.
package gen
