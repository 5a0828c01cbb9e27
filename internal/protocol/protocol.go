package protocol

import "encoding/json"

const Version = "1.0"

// Record types.
const (
	TypeGem   = "GEM"
	TypeWine  = "WINE"
	TypeError = "ERROR"
)

// BaseRecord lets readers route JSONL lines by type.
type BaseRecord struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseRecord, error) {
	var m BaseRecord
	err := json.Unmarshal(b, &m)
	return m, err
}
