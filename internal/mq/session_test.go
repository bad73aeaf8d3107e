package mq

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeExecutor answers commands from in-memory state.
type fakeExecutor struct {
	pingErr error
	depths  map[string]int
	errs    map[string]error
}

func (f *fakeExecutor) Ping(context.Context) error { return f.pingErr }

func (f *fakeExecutor) QueueDepth(_ context.Context, queue string) (int, error) {
	if err, ok := f.errs[queue]; ok {
		return -1, err
	}
	d, ok := f.depths[queue]
	if !ok {
		return -1, &CommandError{Command: "DISPLAY QLOCAL", CompletionCode: 2, ReasonCode: ReasonUnknownObjectName}
	}
	return d, nil
}

func (f *fakeExecutor) ListQueues(context.Context, string) ([]string, error) {
	return nil, nil
}

// fakeHandle counts executor constructions and closes.
type fakeHandle struct {
	exec       *fakeExecutor
	execErr    error
	closeErr   error
	closePanic bool
	newCalls   int
	closeCalls int
}

func (h *fakeHandle) NewExecutor() (Executor, error) {
	h.newCalls++
	if h.execErr != nil {
		return nil, h.execErr
	}
	return h.exec, nil
}

func (h *fakeHandle) Close() error {
	h.closeCalls++
	if h.closePanic {
		panic("transport exploded")
	}
	return h.closeErr
}

type fakeDialer struct {
	handle  *fakeHandle
	err     error
	dialed  int
	lastTgt Target
}

func (d *fakeDialer) Dial(_ context.Context, t Target) (Handle, error) {
	d.dialed++
	d.lastTgt = t
	if d.err != nil {
		return nil, d.err
	}
	return d.handle, nil
}

func validTarget() Target {
	return Target{Host: "mq.example.com", Port: DefaultPort, QueueManager: "QM1", Channel: "SYSTEM.ADMIN.SVRCONN"}
}

func TestConnect_Success(t *testing.T) {
	h := &fakeHandle{exec: &fakeExecutor{}}
	d := &fakeDialer{handle: h}

	s, err := Connect(context.Background(), d, validTarget())
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, 1, d.dialed)
	assert.Equal(t, 1, h.newCalls, "ping should build the executor once")

	s.Disconnect()
	assert.Equal(t, 1, h.closeCalls)
}

func TestConnect_DialFailure(t *testing.T) {
	d := &fakeDialer{err: ErrAuthRejected}

	s, err := Connect(context.Background(), d, validTarget())
	require.Error(t, err)
	assert.Nil(t, s)

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "QM1", connErr.QueueManager)
	assert.Equal(t, "mq.example.com(1414)", connErr.ConnName)
	assert.ErrorIs(t, err, ErrAuthRejected)
}

func TestConnect_PingFailureClosesHandle(t *testing.T) {
	h := &fakeHandle{exec: &fakeExecutor{pingErr: errors.New("command server not running")}}
	d := &fakeDialer{handle: h}

	_, err := Connect(context.Background(), d, validTarget())
	require.Error(t, err)
	var connErr *ConnectionError
	assert.ErrorAs(t, err, &connErr)
	assert.Equal(t, 1, h.closeCalls, "half-open handle must be closed")
}

func TestConnect_ExecutorFailureClosesHandle(t *testing.T) {
	h := &fakeHandle{execErr: errors.New("no command queue")}
	d := &fakeDialer{handle: h}

	_, err := Connect(context.Background(), d, validTarget())
	require.Error(t, err)
	assert.Equal(t, 1, h.closeCalls)
}

func TestConnect_InvalidTargetNeverDials(t *testing.T) {
	d := &fakeDialer{handle: &fakeHandle{exec: &fakeExecutor{}}}

	_, err := Connect(context.Background(), d, Target{Port: DefaultPort})
	require.Error(t, err)
	assert.Equal(t, 0, d.dialed)
}

func TestSession_AdminMemoized(t *testing.T) {
	h := &fakeHandle{exec: &fakeExecutor{}}
	s, err := Connect(context.Background(), &fakeDialer{handle: h}, validTarget())
	require.NoError(t, err)
	defer s.Disconnect()

	a1, err := s.Admin()
	require.NoError(t, err)
	a2, err := s.Admin()
	require.NoError(t, err)
	assert.Same(t, a1, a2)
	assert.Equal(t, 1, h.newCalls)
}

func TestSession_AdminAfterDisconnect(t *testing.T) {
	h := &fakeHandle{exec: &fakeExecutor{}}
	s, err := Connect(context.Background(), &fakeDialer{handle: h}, validTarget())
	require.NoError(t, err)

	s.Disconnect()
	_, err = s.Admin()
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = s.QueueDepth(context.Background(), "Q1")
	var qErr *QueueQueryError
	require.ErrorAs(t, err, &qErr)
	assert.Equal(t, "Q1", qErr.Queue)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestSession_DisconnectSafety(t *testing.T) {
	var nilSession *Session
	assert.NotPanics(t, nilSession.Disconnect)
	assert.NotPanics(t, (&Session{}).Disconnect)

	_, err := nilSession.Admin()
	assert.ErrorIs(t, err, ErrNotConnected)

	h := &fakeHandle{exec: &fakeExecutor{}, closeErr: errors.New("broken pipe")}
	s, err := Connect(context.Background(), &fakeDialer{handle: h}, validTarget())
	require.NoError(t, err)
	assert.NotPanics(t, s.Disconnect)
	assert.NotPanics(t, s.Disconnect)
	assert.Equal(t, 1, h.closeCalls, "second disconnect must be a no-op")

	hp := &fakeHandle{exec: &fakeExecutor{}, closePanic: true}
	sp, err := Connect(context.Background(), &fakeDialer{handle: hp}, validTarget())
	require.NoError(t, err)
	assert.NotPanics(t, sp.Disconnect)
}

func TestSession_QueueDepth(t *testing.T) {
	exec := &fakeExecutor{
		depths: map[string]int{"Q1": 25},
		errs:   map[string]error{"Q3": errors.New("timeout")},
	}
	s, err := Connect(context.Background(), &fakeDialer{handle: &fakeHandle{exec: exec}}, validTarget())
	require.NoError(t, err)
	defer s.Disconnect()

	d, err := s.QueueDepth(context.Background(), "Q1")
	require.NoError(t, err)
	assert.Equal(t, 25, d)

	d, err = s.QueueDepth(context.Background(), "Q2")
	assert.Equal(t, -1, d)
	assert.ErrorIs(t, err, ErrUnknownObject)

	d, err = s.QueueDepth(context.Background(), "Q3")
	assert.Equal(t, -1, d)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownObject)
}

func TestWithSession_TeardownOnEveryPath(t *testing.T) {
	boom := errors.New("evaluation failed")

	tests := []struct {
		name    string
		fn      func(*Session) error
		wantErr error
		panics  bool
	}{
		{name: "success", fn: func(*Session) error { return nil }},
		{name: "error", fn: func(*Session) error { return boom }, wantErr: boom},
		{name: "panic", fn: func(*Session) error { panic("interrupted") }, panics: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := &fakeHandle{exec: &fakeExecutor{}}
			d := &fakeDialer{handle: h}
			run := func() error {
				return WithSession(context.Background(), d, validTarget(), tc.fn)
			}

			if tc.panics {
				assert.Panics(t, func() { _ = run() })
			} else {
				err := run()
				if tc.wantErr != nil {
					assert.ErrorIs(t, err, tc.wantErr)
				} else {
					assert.NoError(t, err)
				}
			}
			assert.Equal(t, 1, h.closeCalls, "teardown must run exactly once")
		})
	}
}

func TestWithSession_ConnectFailureSkipsFn(t *testing.T) {
	called := false
	err := WithSession(context.Background(), &fakeDialer{err: ErrUnknownQueueManager}, validTarget(),
		func(*Session) error {
			called = true
			return nil
		})
	assert.ErrorIs(t, err, ErrUnknownQueueManager)
	assert.False(t, called)
}

func TestTarget(t *testing.T) {
	tgt := validTarget()
	assert.Equal(t, "mq.example.com(1414)", tgt.ConnName())
	assert.Equal(t, "mq.example.com:1414", tgt.Address())

	_, _, ok := tgt.Credentials()
	assert.False(t, ok)

	tgt.User = "mqadmin"
	_, _, ok = tgt.Credentials()
	assert.False(t, ok, "user without password connects anonymously")

	tgt.Password = "secret"
	u, p, ok := tgt.Credentials()
	assert.True(t, ok)
	assert.Equal(t, "mqadmin", u)
	assert.Equal(t, "secret", p)

	assert.NoError(t, tgt.Validate())
	tgt.TLS.CertFile = "client.crt"
	assert.Error(t, tgt.Validate())
}

func TestTarget_ValidateSingleLine(t *testing.T) {
	tgt := Target{Port: 0, TLS: TLSOptions{CertFile: "client.crt"}}
	err := tgt.Validate()
	require.Error(t, err)
	assert.Equal(t,
		"host is required; port 0 out of range; queue manager is required; "+
			"channel is required; cert file and key file must be set together",
		err.Error())

	one := validTarget()
	one.Port = 70000
	assert.EqualError(t, one.Validate(), "port 70000 out of range")
}

func TestCommandError_Is(t *testing.T) {
	notFound := &CommandError{Command: "DISPLAY QLOCAL(X)", CompletionCode: 2, ReasonCode: ReasonUnknownObjectName}
	assert.ErrorIs(t, notFound, ErrUnknownObject)
	assert.NotErrorIs(t, notFound, ErrAuthRejected)

	denied := &CommandError{Command: "PING QMGR", CompletionCode: 2, ReasonCode: ReasonNotAuthorized}
	assert.ErrorIs(t, denied, ErrAuthRejected)
}
