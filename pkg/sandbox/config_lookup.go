package sandbox

import "encoding/json"

// lookupConfigKey resolves a single top-level key out of an AgentConfig's
// opaque Config blob for the get_config_value host call. The config blob
// is interpreted by the agent, but the host still needs a generic way to
// hand back one named value as raw JSON bytes.
func lookupConfigKey(raw json.RawMessage, key string) ([]byte, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	val, ok := obj[key]
	if !ok {
		return nil, false
	}
	return []byte(val), true
}
