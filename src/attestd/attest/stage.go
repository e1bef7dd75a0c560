package attest

// Stage is where a request is in the pipeline; used for logging.
type Stage int

const (
	StageReceived Stage = iota
	StageValidated
	StageVerifying
	StageDecided
	StageResponded
)

func (s Stage) String() string {
	switch s {
	case StageReceived:
		return "received"
	case StageValidated:
		return "validated"
	case StageVerifying:
		return "verifying"
	case StageDecided:
		return "decided"
	case StageResponded:
		return "responded"
	}
	return "unknown"
}
