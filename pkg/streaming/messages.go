package streaming

import (
	"encoding/json"

	"github.com/geo-mart/ABPedSim/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypeStartRun        = "start_run"
	TypeEndRun          = "end_run"
	TypeAddPedestrian   = "add_pedestrian"
	TypeTrajectoryPoint = "trajectory_point"
	TypeDensityCell     = "density_cell"
	TypeTickStats       = "tick_stats"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StartRunPayload carries run and scene data.
type StartRunPayload struct {
	Run   *core.Run   `json:"run"`
	Scene *core.Scene `json:"scene"`
}
