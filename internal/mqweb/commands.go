package mqweb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/obsidianstack/wmqprobe/internal/mq"
)

// qmgrResponse is the reply to GET /admin/qmgr/{name}.
type qmgrResponse struct {
	QueueManagers []struct {
		Name  string `json:"name"`
		State string `json:"state"`
	} `json:"qmgr"`
}

// errorResponse is the body mqweb sends with non-2xx statuses.
type errorResponse struct {
	Errors []struct {
		MsgID   string `json:"msgId"`
		Message string `json:"message"`
	} `json:"error"`
}

// mqscRequest is the body of POST /admin/action/qmgr/{name}/mqsc.
type mqscRequest struct {
	Type               string            `json:"type"`
	Parameters         map[string]string `json:"parameters,omitempty"`
	Command            string            `json:"command,omitempty"`
	Qualifier          string            `json:"qualifier,omitempty"`
	Name               string            `json:"name,omitempty"`
	ResponseParameters []string          `json:"responseParameters,omitempty"`
}

type mqscResponse struct {
	CommandResponse       []commandResponse `json:"commandResponse"`
	OverallCompletionCode int               `json:"overallCompletionCode"`
	OverallReasonCode     int               `json:"overallReasonCode"`
}

type commandResponse struct {
	CompletionCode int      `json:"completionCode"`
	ReasonCode     int      `json:"reasonCode"`
	Text           []string `json:"text,omitempty"`
	Parameters     struct {
		Queue    string `json:"queue"`
		CurDepth *int   `json:"curdepth"`
	} `json:"parameters"`
}

// executor runs MQSC commands through the mqweb action endpoint.
type executor struct {
	conn *conn
}

func (e *executor) mqsc(ctx context.Context, req mqscRequest) (*mqscResponse, error) {
	var resp mqscResponse
	path := "/ibmmq/rest/v2/admin/action/qmgr/" + url.PathEscape(e.conn.qmgr) + "/mqsc"
	if err := e.conn.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ping runs PING QMGR.
func (e *executor) Ping(ctx context.Context) error {
	const cmd = "PING QMGR"
	resp, err := e.mqsc(ctx, mqscRequest{Type: "runCommand", Parameters: map[string]string{"command": cmd}})
	if err != nil {
		return err
	}
	return resp.firstError(cmd)
}

// QueueDepth runs DISPLAY QLOCAL(queue) CURDEPTH.
func (e *executor) QueueDepth(ctx context.Context, queue string) (int, error) {
	cmd := fmt.Sprintf("DISPLAY QLOCAL(%s) CURDEPTH", queue)
	resp, err := e.mqsc(ctx, mqscRequest{
		Type:               "runCommandJSON",
		Command:            "display",
		Qualifier:          "qlocal",
		Name:               queue,
		ResponseParameters: []string{"curdepth"},
	})
	if err != nil {
		return -1, err
	}
	if err := resp.firstError(cmd); err != nil {
		return -1, err
	}
	if len(resp.CommandResponse) == 0 {
		return -1, fmt.Errorf("mqweb: %s: empty response", cmd)
	}
	depth := resp.CommandResponse[0].Parameters.CurDepth
	if depth == nil {
		return -1, fmt.Errorf("mqweb: %s: response has no curdepth", cmd)
	}
	return *depth, nil
}

// ListQueues runs DISPLAY QLOCAL(pattern). No match is not an error.
func (e *executor) ListQueues(ctx context.Context, pattern string) ([]string, error) {
	cmd := fmt.Sprintf("DISPLAY QLOCAL(%s)", pattern)
	resp, err := e.mqsc(ctx, mqscRequest{
		Type:      "runCommandJSON",
		Command:   "display",
		Qualifier: "qlocal",
		Name:      pattern,
	})
	if err != nil {
		return nil, err
	}
	if err := resp.firstError(cmd); err != nil {
		if errors.Is(err, mq.ErrUnknownObject) {
			return []string{}, nil
		}
		return nil, err
	}

	names := make([]string, 0, len(resp.CommandResponse))
	for _, cr := range resp.CommandResponse {
		if cr.Parameters.Queue != "" {
			names = append(names, cr.Parameters.Queue)
		}
	}
	return names, nil
}

// firstError returns a *mq.CommandError for the first failed command
// response, or for the overall codes when no per-command response carries
// the failure.
func (r *mqscResponse) firstError(cmd string) error {
	for _, cr := range r.CommandResponse {
		if cr.CompletionCode != 0 {
			return &mq.CommandError{Command: cmd, CompletionCode: cr.CompletionCode, ReasonCode: cr.ReasonCode}
		}
	}
	if r.OverallCompletionCode != 0 && len(r.CommandResponse) == 0 {
		return &mq.CommandError{Command: cmd, CompletionCode: r.OverallCompletionCode, ReasonCode: r.OverallReasonCode}
	}
	return nil
}
