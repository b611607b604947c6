// Package server is the broker's front door: the JSON HTTP endpoints and the
// WebSocket duplex endpoint. It owns no broker state of its own; every
// request is admitted by the rate limiter and routed into the pool, session
// registry, delivery engine, node directory and replicator.
//
// HTTP API
//
//	GET  /health
//	    Broker status: pool size, session count, node count, version.
//
//	POST /api/message
//	    Publish an envelope. Pools it, attempts an immediate push to any
//	    bound session of the recipient, and replicates to peer brokers.
//
//	GET  /api/messages/{contactCode}
//	    Drain every pooled envelope for {contactCode}. An empty list is a
//	    valid response.
//
//	DELETE /api/message/{messageId}
//	    Remove one envelope from the pool by id.
//
//	POST /api/replicate
//	    Accept an envelope replicated by a peer. Pools and pushes locally,
//	    but never replicates onward.
//
//	POST /api/nodes
//	    Register a peer broker. Idempotent.
//
//	GET  /api/nodes
//	    List known peer brokers.
//
//	GET  /ws
//	    Upgrade to the duplex channel. Frames are JSON records tagged by a
//	    "type" field; unknown tags draw an error frame without closing the
//	    channel.
//
// All state is held in memory and lost on process exit. Responses are JSON;
// non-2xx statuses carry a short error message. A lightweight access log
// records method, path, remote, status and duration for each request.
package server
