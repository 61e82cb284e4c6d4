package jobstate

import "fmt"

// Stage is a pipeline checkpoint. Stages are ordered; a record's stage only
// moves forward.
type Stage int

const (
	StageNone Stage = iota
	StageSplit
	StageEncode
	StageRemux
	StageValidate
)

var stageNames = [...]string{"none", "split", "encode", "remux", "validate"}

// Stages lists every stage that does work, in execution order.
func Stages() []Stage {
	return []Stage{StageSplit, StageEncode, StageRemux, StageValidate}
}

func (s Stage) String() string {
	if s < StageNone || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	return s >= StageNone && int(s) < len(stageNames)
}

// ParseStage maps a persisted name back to its Stage. An empty name is
// StageNone.
func ParseStage(name string) (Stage, error) {
	if name == "" {
		return StageNone, nil
	}
	for i, n := range stageNames {
		if n == name {
			return Stage(i), nil
		}
	}
	return StageNone, fmt.Errorf("unknown stage %q", name)
}

func (s Stage) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid stage %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Stage) UnmarshalText(text []byte) error {
	parsed, err := ParseStage(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
