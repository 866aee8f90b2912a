package options

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*WebSocketOptions)(nil)

// RobotIDPlaceholder is substituted with the robot ID in WebSocketOptions.Path.
const RobotIDPlaceholder = "{ROBOT_ID}"

// WebSocketOptions configures the persistent WebSocket link to the control server.
type WebSocketOptions struct {
	Host string `json:"host" mapstructure:"host"`
	Port int    `json:"port" mapstructure:"port"`
	Path string `json:"path" mapstructure:"path"`
	TLS  bool   `json:"tls" mapstructure:"tls"`

	InsecureSkipVerify bool `json:"insecure-skip-verify" mapstructure:"insecure-skip-verify"`

	HandshakeTimeout  time.Duration `json:"handshake-timeout" mapstructure:"handshake-timeout"`
	ReconnectInterval time.Duration `json:"reconnect-interval" mapstructure:"reconnect-interval"`

	// Heartbeat: a ping every PingInterval; the link is dropped after
	// MaxMissedPongs pings without a pong inside PongTimeout.
	PingInterval   time.Duration `json:"ping-interval" mapstructure:"ping-interval"`
	PongTimeout    time.Duration `json:"pong-timeout" mapstructure:"pong-timeout"`
	MaxMissedPongs int           `json:"max-missed-pongs" mapstructure:"max-missed-pongs"`
}

// NewWebSocketOptions creates a WebSocketOptions with the firmware defaults.
func NewWebSocketOptions() *WebSocketOptions {
	return &WebSocketOptions{
		Host:              "localhost",
		Port:              443,
		Path:              "/api/ws/robot/" + RobotIDPlaceholder,
		TLS:               true,
		HandshakeTimeout:  10 * time.Second,
		ReconnectInterval: 2 * time.Second,
		PingInterval:      15 * time.Second,
		PongTimeout:       3 * time.Second,
		MaxMissedPongs:    2,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *WebSocketOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}

	if o.Host == "" {
		errs = append(errs, errors.New("ws.host is required"))
	}
	if o.Port <= 0 || o.Port > 65535 {
		errs = append(errs, fmt.Errorf("ws.port %d out of range", o.Port))
	}
	if !strings.HasPrefix(o.Path, "/") {
		errs = append(errs, fmt.Errorf("ws.path %q must start with '/'", o.Path))
	}
	if o.ReconnectInterval <= 0 {
		errs = append(errs, errors.New("ws.reconnect-interval must be positive"))
	}
	if o.PingInterval > 0 && o.PongTimeout <= 0 {
		errs = append(errs, errors.New("ws.pong-timeout must be positive when pings are enabled"))
	}
	if o.PingInterval > 0 && o.MaxMissedPongs <= 0 {
		errs = append(errs, errors.New("ws.max-missed-pongs must be positive when pings are enabled"))
	}

	return errs
}

// AddFlags adds flags for WebSocketOptions to the specified FlagSet.
func (o *WebSocketOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Host, "ws.host", o.Host, "Host of the control server.")
	fs.IntVar(&o.Port, "ws.port", o.Port, "Port of the control server.")
	fs.StringVar(&o.Path, "ws.path", o.Path, "Request path; "+RobotIDPlaceholder+" is replaced with the robot ID.")
	fs.BoolVar(&o.TLS, "ws.tls", o.TLS, "Use wss:// instead of ws://.")
	fs.BoolVar(&o.InsecureSkipVerify, "ws.insecure-skip-verify", o.InsecureSkipVerify, "If true, skips the TLS certificate verification.")
	fs.DurationVar(&o.HandshakeTimeout, "ws.handshake-timeout", o.HandshakeTimeout, "Timeout for the WebSocket opening handshake.")
	fs.DurationVar(&o.ReconnectInterval, "ws.reconnect-interval", o.ReconnectInterval, "Delay between reconnection attempts.")
	fs.DurationVar(&o.PingInterval, "ws.ping-interval", o.PingInterval, "Interval between heartbeat pings (0 disables).")
	fs.DurationVar(&o.PongTimeout, "ws.pong-timeout", o.PongTimeout, "Time to wait for a pong after each ping.")
	fs.IntVar(&o.MaxMissedPongs, "ws.max-missed-pongs", o.MaxMissedPongs, "Consecutive missed pongs before the link is dropped.")
}

// URL returns the dial URL for the given robot.
func (o *WebSocketOptions) URL(robotID string) *url.URL {
	scheme := "ws"
	if o.TLS {
		scheme = "wss"
	}
	return &url.URL{
		Scheme:  scheme,
		Host:    net.JoinHostPort(o.Host, strconv.Itoa(o.Port)),
		Path:    strings.ReplaceAll(o.Path, RobotIDPlaceholder, robotID),
		RawPath: strings.ReplaceAll(o.Path, RobotIDPlaceholder, url.PathEscape(robotID)),
	}
}
