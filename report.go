package snarkagg

import "fmt"

// Stage is a step of the verification pipeline.
type Stage uint8

const (
	StageNone Stage = iota
	StageTranscript
	StageOpening
	StagePairing
)

func (s Stage) String() string {
	switch s {
	case StageNone:
		return "none"
	case StageTranscript:
		return "transcript"
	case StageOpening:
		return "opening"
	case StagePairing:
		return "pairing"
	default:
		return fmt.Sprintf("stage(%d)", uint8(s))
	}
}

// VerificationReport is the outcome of a check that could be carried out.
// FailedStage is StageNone when Valid is set.
type VerificationReport struct {
	Valid       bool
	FailedStage Stage
}

func (r VerificationReport) String() string {
	if r.Valid {
		return "valid"
	}
	return "invalid at " + r.FailedStage.String()
}

func valid() VerificationReport {
	return VerificationReport{Valid: true}
}

func invalid(stage Stage) VerificationReport {
	return VerificationReport{FailedStage: stage}
}
