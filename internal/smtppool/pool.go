// Package smtppool manages pooled SMTP sessions for mailbox probing.
// Connections are reused across probes via the RSET command, and each
// probe walks a fixed transaction state machine:
//
//	connected -> greeted -> sender set -> recipient probed -> closed
//
// A probe never sends DATA; it stops after reading the RCPT TO response.
package smtppool

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// phase names the state-machine step an error occurred in.
type phase string

const (
	phaseConnect   phase = "connect"
	phaseGreet     phase = "greet"
	phaseReset     phase = "reset"
	phaseSender    phase = "sender"
	phaseRecipient phase = "recipient"
)

// Config configures the pool.
type Config struct {
	HeloDomain      string // domain sent in EHLO, required
	MailFrom        string // address sent in MAIL FROM, required
	ConnectTimeout  time.Duration
	CommandTimeout  time.Duration
	Port            string
	MaxConnsPerHost int           // max idle connections per MX host
	MaxUsesPerConn  int           // probes per connection before reconnect
	MaxConnAge      time.Duration // max lifetime of a connection
	// Dial is injectable for testing. Defaults to net.DialTimeout.
	Dial func(network, address string, timeout time.Duration) (net.Conn, error)
}

func (c Config) withDefaults() Config {
	if c.Dial == nil {
		c.Dial = net.DialTimeout
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 5 * time.Second
	}
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = 10 * time.Second
	}
	if c.Port == "" {
		c.Port = "25"
	}
	if c.MaxConnsPerHost <= 0 {
		c.MaxConnsPerHost = 3
	}
	if c.MaxUsesPerConn <= 0 {
		c.MaxUsesPerConn = 100
	}
	if c.MaxConnAge <= 0 {
		c.MaxConnAge = 5 * time.Minute
	}
	return c
}

// Pool manages SMTP connections keyed by MX host.
type Pool struct {
	cfg    Config
	mu     sync.Mutex
	hosts  map[string][]*session
	closed bool
}

type session struct {
	conn      net.Conn
	r         *bufio.Reader
	w         *bufio.Writer
	createdAt time.Time
	uses      int
}

// New creates an SMTP session pool.
func New(cfg Config) *Pool {
	return &Pool{
		cfg:   cfg.withDefaults(),
		hosts: make(map[string][]*session),
	}
}

// Probe runs a mailbox-existence transaction against mxHost for address.
// New sessions walk banner -> EHLO -> MAIL FROM -> RCPT TO; reused sessions
// start from RSET. It returns the RCPT TO response code and text. The
// caller classifies the code into a verdict.
func (p *Pool) Probe(mxHost, address string) (code int, msg string, err error) {
	s, fresh, err := p.acquire(mxHost)
	if err != nil {
		return 0, "", err
	}

	code, msg, err = p.transact(s, address, fresh)
	if err != nil {
		// The session is in an undefined state; discard it.
		_ = s.conn.Close()
		return 0, "", err
	}

	p.release(mxHost, s)
	return code, msg, nil
}

// Close quits and closes every pooled session.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	for host, sessions := range p.hosts {
		for _, s := range sessions {
			quit(s)
			_ = s.conn.Close()
		}
		delete(p.hosts, host)
	}
	return nil
}

// acquire returns a pooled session for mxHost, dialing a fresh one when
// none is reusable. fresh reports whether the greeting still has to run.
func (p *Pool) acquire(mxHost string) (s *session, fresh bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, false, errors.New("smtppool: pool is closed")
	}

	sessions := p.hosts[mxHost]
	// LIFO for better locality.
	for i := len(sessions) - 1; i >= 0; i-- {
		c := sessions[i]
		sessions = append(sessions[:i], sessions[i+1:]...)
		if c.uses >= p.cfg.MaxUsesPerConn || time.Since(c.createdAt) > p.cfg.MaxConnAge {
			quit(c)
			_ = c.conn.Close()
			continue
		}
		p.hosts[mxHost] = sessions
		return c, false, nil
	}
	p.hosts[mxHost] = sessions

	conn, err := p.cfg.Dial("tcp", net.JoinHostPort(mxHost, p.cfg.Port), p.cfg.ConnectTimeout)
	if err != nil {
		return nil, false, fmt.Errorf("%s %s: %w", phaseConnect, mxHost, err)
	}
	return &session{
		conn:      conn,
		r:         bufio.NewReader(conn),
		w:         bufio.NewWriter(conn),
		createdAt: time.Now(),
	}, true, nil
}

// release returns a healthy session to the pool.
func (p *Pool) release(mxHost string, s *session) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || len(p.hosts[mxHost]) >= p.cfg.MaxConnsPerHost {
		quit(s)
		_ = s.conn.Close()
		return
	}
	p.hosts[mxHost] = append(p.hosts[mxHost], s)
}

// transact drives the probe state machine on one session.
func (p *Pool) transact(s *session, address string, fresh bool) (int, string, error) {
	if err := s.conn.SetDeadline(time.Now().Add(p.cfg.CommandTimeout)); err != nil {
		return 0, "", fmt.Errorf("set deadline: %w", err)
	}

	if fresh {
		// connected -> greeted
		code, msg, err := readResponse(s.r)
		if err != nil {
			return 0, "", fmt.Errorf("%s: read banner: %w", phaseGreet, err)
		}
		if code >= 500 {
			return 0, "", fmt.Errorf("%s: server refused connection: %d %s", phaseGreet, code, msg)
		}
		code, msg, err = s.command("EHLO " + p.cfg.HeloDomain)
		if err != nil {
			return 0, "", fmt.Errorf("%s: EHLO: %w", phaseGreet, err)
		}
		if code >= 400 {
			return 0, "", fmt.Errorf("%s: EHLO rejected: %d %s", phaseGreet, code, msg)
		}
	} else {
		// Reused session: RSET opens a fresh transaction.
		code, msg, err := s.command("RSET")
		if err != nil {
			return 0, "", fmt.Errorf("%s: RSET: %w", phaseReset, err)
		}
		if code >= 400 {
			return 0, "", fmt.Errorf("%s: RSET rejected: %d %s", phaseReset, code, msg)
		}
	}

	// greeted -> sender set
	code, msg, err := s.command("MAIL FROM:<" + p.cfg.MailFrom + ">")
	if err != nil {
		return 0, "", fmt.Errorf("%s: MAIL FROM: %w", phaseSender, err)
	}
	if code >= 400 {
		return 0, "", fmt.Errorf("%s: MAIL FROM refused: %d %s", phaseSender, code, msg)
	}

	// sender set -> recipient probed. The RCPT response is the probe
	// outcome, whatever its code; only transport errors fail here.
	code, msg, err = s.command("RCPT TO:<" + address + ">")
	if err != nil {
		return 0, "", fmt.Errorf("%s: RCPT TO: %w", phaseRecipient, err)
	}

	s.uses++
	return code, msg, nil
}

// command sends one SMTP command line and reads the response.
func (s *session) command(line string) (int, string, error) {
	if _, err := s.w.WriteString(line + "\r\n"); err != nil {
		return 0, "", err
	}
	if err := s.w.Flush(); err != nil {
		return 0, "", err
	}
	return readResponse(s.r)
}

// quit sends QUIT best-effort before a close.
func quit(s *session) {
	_ = s.conn.SetDeadline(time.Now().Add(2 * time.Second))
	_, _ = s.w.WriteString("QUIT\r\n")
	_ = s.w.Flush()
}

// readResponse reads a possibly multi-line SMTP response.
func readResponse(r *bufio.Reader) (code int, full string, err error) {
	var lines []string
	for {
		line, readErr := r.ReadString('\n')
		if readErr != nil {
			return 0, "", fmt.Errorf("read SMTP response: %w", readErr)
		}
		line = strings.TrimRight(line, "\r\n")
		if len(line) < 3 {
			return 0, "", errors.New("SMTP response line too short")
		}
		lines = append(lines, line)
		// A '-' after the code marks a continuation line.
		if len(line) < 4 || line[3] != '-' {
			break
		}
	}

	last := lines[len(lines)-1]
	if _, err := fmt.Sscanf(last[:3], "%d", &code); err != nil {
		return 0, "", fmt.Errorf("invalid SMTP response code %q: %w", last[:3], err)
	}
	return code, strings.Join(lines, " | "), nil
}
