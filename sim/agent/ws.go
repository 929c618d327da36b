package agent

import (
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// stepFrame is the wire form of one observation published to an
// out-of-process agent.
type stepFrame struct {
	Obs    Observation `json:"obs"`
	Reward float64     `json:"reward"`
}

// decisionFrame is the wire form of the agent's answer.
type decisionFrame struct {
	SsThresh uint32 `json:"ssThresh"`
	Cwnd     uint32 `json:"cwnd"`
}

// WSChannel reaches an agent over a websocket. Each Step writes one
// JSON frame and blocks on the read until the matching decision frame
// arrives, which preserves the synchronous round-trip contract across
// the process boundary.
type WSChannel struct {
	conn *websocket.Conn
}

// DialWS connects to an agent server, e.g. "ws://127.0.0.1:5555/agent".
func DialWS(url string) (*WSChannel, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial agent %s: %w", url, err)
	}
	logrus.Infof("connected to agent at %s", url)
	return &WSChannel{conn: conn}, nil
}

// Step publishes the observation and blocks until the agent responds.
func (c *WSChannel) Step(obs Observation, reward float64) (Decision, error) {
	if err := c.conn.WriteJSON(stepFrame{Obs: obs, Reward: reward}); err != nil {
		return Decision{}, fmt.Errorf("write step frame: %w", err)
	}
	var frame decisionFrame
	if err := c.conn.ReadJSON(&frame); err != nil {
		return Decision{}, fmt.Errorf("read decision frame: %w", err)
	}
	return Decision{SsThresh: frame.SsThresh, Cwnd: frame.Cwnd}, nil
}

// Close shuts down the websocket connection.
func (c *WSChannel) Close() error {
	return c.conn.Close()
}
