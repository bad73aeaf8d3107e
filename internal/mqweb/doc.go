// Package mqweb implements the mq transport over the queue manager's
// administrative REST API (the mqweb server).
//
// Dialer.Dial builds one http.Client per session (basic auth when both user
// and password are set, optional mutual TLS, 10s per-request timeout) and
// checks GET /ibmmq/rest/v1/admin/qmgr/{qmgr}: 401/403 map to
// mq.ErrAuthRejected and 404 to mq.ErrUnknownQueueManager.
//
// The executor sends MQSC through POST
// /ibmmq/rest/v2/admin/action/qmgr/{qmgr}/mqsc:
//   - Ping        → runCommand "PING QMGR"
//   - QueueDepth  → runCommandJSON display qlocal(name) curdepth
//   - ListQueues  → runCommandJSON display qlocal(generic name)
//
// Failed commands surface as *mq.CommandError carrying the completion and
// reason codes; reason 2085 matches mq.ErrUnknownObject.
//
// The REST endpoint needs no channel definition. Target.Channel is kept for
// logging and error messages only.
package mqweb
