// Package tele publishes daemon status over MQTT. The panel hangs on
// a wall, telemetry is how you notice it stopped updating without
// walking over. Disabled config yields a noop implementation.
package tele

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"

	"epaperd/helpers"
	"epaperd/log2"
)

type Config struct {
	Enabled           bool   `hcl:"enabled"`
	Broker            string `hcl:"broker"`
	ClientID          string `hcl:"client_id"`
	Username          string `hcl:"username"`
	Password          string `hcl:"password"`
	TopicPrefix       string `hcl:"topic_prefix"`
	KeepaliveSec      int    `hcl:"keepalive_sec"`
	NetworkTimeoutSec int    `hcl:"network_timeout_sec"`
}

// Report summarizes one daemon iteration.
type Report struct {
	Time        int64   `json:"time"`
	Redraw      bool    `json:"redraw"`
	Reason      string  `json:"reason"`
	Layout      string  `json:"layout"`
	Temperature float64 `json:"temperature"`
	Pressure    float64 `json:"pressure"`
	Rendered    int     `json:"rendered"`
	DurationMS  int64   `json:"duration_ms"`
	Error       string  `json:"error,omitempty"`
}

type Teler interface {
	Report(r *Report)
	Error(err error)
	Close()
}

// New picks the transport from config.
func New(log *log2.Log, config Config) (Teler, error) {
	if !config.Enabled {
		return Noop{}, nil
	}
	return newMqtt(log, config)
}

type Noop struct{}

func (Noop) Report(*Report) {}
func (Noop) Error(error)    {}
func (Noop) Close()         {}

type teleMqtt struct {
	Log    *log2.Log
	config Config
	client mqtt.Client

	topicState  string
	topicReport string
	topicError  string
}

func newMqtt(log *log2.Log, config Config) (*teleMqtt, error) {
	if config.Broker == "" {
		return nil, errors.Errorf("tele: empty broker")
	}
	if config.ClientID == "" {
		config.ClientID = "epaperd"
	}
	if config.TopicPrefix == "" {
		config.TopicPrefix = "epaperd/" + config.ClientID
	}
	keepalive := helpers.IntSecondDefault(config.KeepaliveSec, 60*time.Second)
	netTimeout := helpers.IntSecondDefault(config.NetworkTimeoutSec, 30*time.Second)

	self := &teleMqtt{
		Log:         log,
		config:      config,
		topicState:  config.TopicPrefix + "/state",
		topicReport: config.TopicPrefix + "/report",
		topicError:  config.TopicPrefix + "/error",
	}

	opts := mqtt.NewClientOptions().
		AddBroker(config.Broker).
		SetClientID(config.ClientID).
		SetUsername(config.Username).
		SetPassword(config.Password).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetKeepAlive(keepalive).
		SetPingTimeout(netTimeout).
		SetConnectTimeout(netTimeout).
		SetBinaryWill(self.topicState, []byte("offline"), 1, true).
		SetOnConnectHandler(func(c mqtt.Client) {
			self.publish(self.topicState, []byte("online"), true)
		}).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			log.Error(errors.Annotate(err, "tele connection lost"))
		})
	self.client = mqtt.NewClient(opts)

	// connection retries happen in the background, a dead broker
	// must not block panel updates
	if !self.tokenWait(self.client.Connect(), "connect") {
		self.Log.Errorf("tele: broker %s not reachable yet", config.Broker)
	}
	return self, nil
}

func (self *teleMqtt) Report(r *Report) {
	b, err := json.Marshal(r)
	if err != nil {
		self.Log.Error(errors.Annotate(err, "tele report encode"))
		return
	}
	self.publish(self.topicReport, b, false)
}

func (self *teleMqtt) Error(e error) {
	if e == nil {
		return
	}
	self.publish(self.topicError, []byte(e.Error()), false)
}

func (self *teleMqtt) Close() {
	self.publish(self.topicState, []byte("offline"), true)
	self.client.Disconnect(uint(500))
}

func (self *teleMqtt) publish(topic string, payload []byte, retained bool) {
	if !self.client.IsConnected() {
		return
	}
	t := self.client.Publish(topic, 1, retained, payload)
	self.tokenWait(t, fmt.Sprintf("publish %s", topic))
}

func (self *teleMqtt) tokenWait(t mqtt.Token, tag string) bool {
	timeout := 5 * time.Second
	if !t.WaitTimeout(timeout) {
		self.Log.Errorf("tele: %s timeout", tag)
		return false
	}
	if err := t.Error(); err != nil {
		self.Log.Error(errors.Annotate(err, "tele "+tag))
		return false
	}
	return true
}
