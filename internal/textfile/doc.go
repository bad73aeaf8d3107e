// Package textfile exports the result of a check as a Prometheus text
// exposition file, for node_exporter's textfile collector to pick up.
//
// Write(path, run) builds a private registry per call and replaces path
// atomically, so a scrape never sees a half-written file. Queues whose depth
// could not be determined get severity and threshold series but no
// wmq_queue_depth sample.
package textfile
