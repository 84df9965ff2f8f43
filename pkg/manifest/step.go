package manifest

import (
	"encoding/json"
	"fmt"
)

// Kind selects the interpreter a step runs under.
type Kind string

const (
	KindCmd Kind = "cmd" // the host's default command interpreter
	KindSh  Kind = "sh"  // POSIX sh
	KindPS  Kind = "ps"  // PowerShell
)

// Step is a single command-line string plus the interpreter kind it runs
// under.  Immutable once parsed.
//
// In YAML a step is either a bare string (kind "cmd") or a single-key
// mapping {cmd: ...}, {sh: ...}, or {ps: ...}.
type Step struct {
	Kind    Kind
	Command string
}

// sigs.k8s.io/yaml round-trips through JSON, so Step implements the JSON
// marshaler interfaces rather than YAML ones.
var (
	_ json.Unmarshaler = (*Step)(nil)
	_ json.Marshaler   = Step{}
)

func (s *Step) UnmarshalJSON(bs []byte) error {
	var str string
	if err := json.Unmarshal(bs, &str); err == nil {
		*s = Step{Kind: KindCmd, Command: str}
		return nil
	}
	var obj map[string]string
	if err := json.Unmarshal(bs, &obj); err != nil {
		return fmt.Errorf("step must be a string or a single-key {cmd|sh|ps: string} mapping: %w", err)
	}
	if len(obj) != 1 {
		return fmt.Errorf("step mapping must have exactly 1 key, has %d", len(obj))
	}
	for k, v := range obj {
		switch kind := Kind(k); kind {
		case KindCmd, KindSh, KindPS:
			*s = Step{Kind: kind, Command: v}
		default:
			return fmt.Errorf("unknown step kind %q", k)
		}
	}
	return nil
}

func (s Step) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{string(s.Kind): s.Command})
}

func (s Step) String() string {
	return fmt.Sprintf("%s: %s", s.Kind, s.Command)
}
