package mq

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// DefaultPort is the conventional queue manager listener port.
const DefaultPort = 1414

// Target identifies the queue manager a session connects to.
type Target struct {
	Host         string
	Port         int
	QueueManager string
	Channel      string

	// User and Password are sent only when both are non-empty.
	User     string
	Password string

	TLS TLSOptions
}

// TLSOptions holds transport security settings for the session.
type TLSOptions struct {
	// Enabled selects an encrypted transport.
	Enabled bool

	// InsecureSkipVerify disables server certificate verification.
	InsecureSkipVerify bool

	// CertFile and KeyFile enable mutual TLS when both are set.
	CertFile string
	KeyFile  string

	// CAFile replaces the system roots when set.
	CAFile string
}

// ConnName returns the connection name in queue manager notation, host(port).
func (t Target) ConnName() string {
	return fmt.Sprintf("%s(%d)", t.Host, t.Port)
}

// Address returns host:port suitable for dialing.
func (t Target) Address() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// Credentials returns the user and password and whether both are present.
func (t Target) Credentials() (user, password string, ok bool) {
	if t.User == "" || t.Password == "" {
		return "", "", false
	}
	return t.User, t.Password, true
}

// Validate checks that all required connection parameters are present. All
// problems are reported together on a single line.
func (t Target) Validate() error {
	var errs *multierror.Error
	if t.Host == "" {
		errs = multierror.Append(errs, errors.New("host is required"))
	}
	if t.Port <= 0 || t.Port > 65535 {
		errs = multierror.Append(errs, fmt.Errorf("port %d out of range", t.Port))
	}
	if t.QueueManager == "" {
		errs = multierror.Append(errs, errors.New("queue manager is required"))
	}
	if t.Channel == "" {
		errs = multierror.Append(errs, errors.New("channel is required"))
	}
	if (t.TLS.CertFile == "") != (t.TLS.KeyFile == "") {
		errs = multierror.Append(errs, errors.New("cert file and key file must be set together"))
	}
	if errs != nil {
		errs.ErrorFormat = inlineErrors
	}
	return errs.ErrorOrNil()
}

// inlineErrors renders aggregated errors as "a; b" so they fit the one-line
// plugin summary.
func inlineErrors(es []error) string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}
