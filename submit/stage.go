package submit

import (
	"fmt"

	"github.com/polymerdao/facet/tracker"
)

// Stage is the position of a transaction in the submission pipeline.
// Stages only move forward: NotSubmitted → Simulated → L1Submitted → L2Pending → L2Confirmed | L2Failed.
type Stage uint8

const (
	NotSubmitted Stage = iota
	Simulated
	L1Submitted
	L2Pending
	L2Confirmed
	L2Failed
)

func (s Stage) String() string {
	switch s {
	case NotSubmitted:
		return "not_submitted"
	case Simulated:
		return "simulated"
	case L1Submitted:
		return "l1_submitted"
	case L2Pending:
		return "l2_pending"
	case L2Confirmed:
		return "l2_confirmed"
	case L2Failed:
		return "l2_failed"
	default:
		return fmt.Sprintf("Stage(%d)", uint8(s))
	}
}

func (s Stage) Terminal() bool {
	return s == L2Confirmed || s == L2Failed
}

// CanAdvance reports whether next directly follows s.
func (s Stage) CanAdvance(next Stage) bool {
	switch s {
	case NotSubmitted, Simulated, L1Submitted:
		return next == s+1
	case L2Pending:
		return next == L2Confirmed || next == L2Failed
	default:
		return false
	}
}

// StageOf maps a confirmation status to the stage it puts the transaction in.
func StageOf(status tracker.Status) Stage {
	switch status.(type) {
	case tracker.Pending:
		return L2Pending
	case tracker.Success:
		return L2Confirmed
	case tracker.Failure:
		return L2Failed
	default:
		panic(fmt.Sprintf("unknown status type %T", status))
	}
}
