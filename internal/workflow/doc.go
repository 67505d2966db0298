// Package workflow defines the negotiation stages a venue booking moves
// through, the next action owed at each stage, and the status buckets the
// dashboard filters on.
//
// Everything here is a pure function of its inputs. Unrecognised stage
// values are never an error: the policy falls back to contacting the venue
// and the buckets treat the booking as outside the pipeline.
package workflow
