/*
approval.go - Single and bulk decision orchestration

PURPOSE:
  Drives lifecycle transitions for one or many requests. Bulk operations
  are explicitly NOT all-or-nothing: each code is attempted independently,
  failures are captured per item, and successes stand. A manager clearing a
  queue of twenty requests should not lose nineteen approvals because one
  request was already decided.

DETERMINISM:
  Input codes are deduplicated and processed in sorted order, so the same
  input set always yields the same processing order and the same outcome.
*/
package leave

import (
	"context"
	"sort"
)

// =============================================================================
// COORDINATOR
// =============================================================================

// Coordinator orchestrates approvals and rejections atop the lifecycle.
type Coordinator struct {
	lifecycle *Lifecycle
}

func NewCoordinator(lifecycle *Lifecycle) *Coordinator {
	return &Coordinator{lifecycle: lifecycle}
}

// BulkFailure records why one item of a bulk operation failed.
type BulkFailure struct {
	Code RequestCode
	Err  error
}

// BulkOutcome aggregates per-item results of a bulk operation.
type BulkOutcome struct {
	Approved []RequestCode
	Failed   []BulkFailure

	TotalRequested int
	TotalApproved  int
	TotalFailed    int
}

// BulkApprove approves each request independently. A failing item never
// aborts or rolls back the others; its error lands in Failed and processing
// continues. Duplicate codes are collapsed before processing.
func (c *Coordinator) BulkApprove(ctx context.Context, codes []RequestCode, reviewerID UserID, comments string) BulkOutcome {
	ordered := dedupeSorted(codes)

	out := BulkOutcome{TotalRequested: len(ordered)}
	for _, code := range ordered {
		if _, err := c.lifecycle.Approve(ctx, code, reviewerID, comments); err != nil {
			out.Failed = append(out.Failed, BulkFailure{Code: code, Err: err})
			continue
		}
		out.Approved = append(out.Approved, code)
	}
	out.TotalApproved = len(out.Approved)
	out.TotalFailed = len(out.Failed)
	return out
}

// BulkReject rejects each request independently with the same reason.
func (c *Coordinator) BulkReject(ctx context.Context, codes []RequestCode, reviewerID UserID, reason string) BulkOutcome {
	ordered := dedupeSorted(codes)

	out := BulkOutcome{TotalRequested: len(ordered)}
	for _, code := range ordered {
		if _, err := c.lifecycle.Reject(ctx, code, reviewerID, reason); err != nil {
			out.Failed = append(out.Failed, BulkFailure{Code: code, Err: err})
			continue
		}
		out.Approved = append(out.Approved, code)
	}
	out.TotalApproved = len(out.Approved)
	out.TotalFailed = len(out.Failed)
	return out
}

func dedupeSorted(codes []RequestCode) []RequestCode {
	seen := make(map[RequestCode]struct{}, len(codes))
	out := make([]RequestCode, 0, len(codes))
	for _, c := range codes {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
