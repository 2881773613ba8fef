package state

import "fmt"

// Pipeline step identifiers. Step 1 (document upload) leaves no pipeline
// state behind, so the stateful steps start at 2.
const (
	StepDFDExtraction        = 2
	StepThreatIdentification = 3
	StepAttackMapping        = 4
	StepReportGeneration     = 5
)

// Steps returns the canonical stateful step set, in pipeline order. The
// store itself accepts any integer step; this set only drives enumeration
// (reset sweep, status display).
func Steps() []int {
	return []int{
		StepDFDExtraction,
		StepThreatIdentification,
		StepAttackMapping,
		StepReportGeneration,
	}
}

func StepName(step int) string {
	switch step {
	case StepDFDExtraction:
		return "DFD extraction"
	case StepThreatIdentification:
		return "Threat identification"
	case StepAttackMapping:
		return "ATT&CK mapping"
	case StepReportGeneration:
		return "Report generation"
	default:
		return fmt.Sprintf("Step %d", step)
	}
}
