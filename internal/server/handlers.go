package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"courier/internal/domain"
	"courier/internal/pool"
)

// handleHealth reports broker vitals. It never fails.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, domain.HealthStatus{
		Status:          "healthy",
		Timestamp:       s.clk.Now().Unix(),
		Version:         s.opts.Version,
		MessagePoolSize: s.pool.Size(),
		ActiveSessions:  s.sessions.Count(),
		ConnectedNodes:  s.nodes.Count(),
	})
}

// handlePublish accepts an envelope from a client: pool, push, replicate.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	s.acceptEnvelope(w, r, true)
}

// handleReplicate accepts an envelope from a peer broker. Pool and local
// push only: replicated envelopes are never re-replicated, which keeps the
// mesh free of forwarding cycles.
func (s *Server) handleReplicate(w http.ResponseWriter, r *http.Request) {
	s.acceptEnvelope(w, r, false)
}

// acceptEnvelope implements the shared publish/replicate path.
func (s *Server) acceptEnvelope(w http.ResponseWriter, r *http.Request, fanOut bool) {
	defer r.Body.Close()

	var wire domain.EnvelopeWire
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	if wire.MessageID == "" || wire.RecipientContactCode == "" || len(wire.EncryptedMessage) == 0 {
		writeError(w, http.StatusBadRequest, "messageId, recipientContactCode and encryptedMessage are required")
		return
	}

	now := s.clk.Now()
	if wire.Timestamp == 0 {
		wire.Timestamp = now.Unix()
	}
	env := domain.Envelope{
		ID:            wire.MessageID,
		RecipientCode: wire.RecipientContactCode,
		Payload:       wire.EncryptedMessage,
		MessageType:   wire.MessageType,
		Timestamp:     wire.Timestamp,
		CreatedAt:     now,
		TTL:           domain.TTLFromWire(wire.TTLMillis, s.opts.DefaultTTL, s.opts.MaxTTL),
		MaxAttempts:   domain.MaxDeliveryAttempts,
	}

	if err := s.pool.Insert(env); err != nil {
		if errors.Is(err, pool.ErrDuplicateID) {
			// The first copy wins; a republish or a second replica of the
			// same envelope is acknowledged without touching the pool.
			s.log.Debug().Str("message", env.ID).Msg("duplicate envelope ignored")
			writeJSON(w, http.StatusOK, domain.PublishAck{
				Success:   true,
				MessageID: env.ID,
				Pooled:    true,
			})
			return
		}
		writeError(w, http.StatusInternalServerError, "insert failed")
		return
	}

	delivered := s.engine.Deliver(env)
	if fanOut {
		s.replicator.Replicate(r.Context(), env)
	}

	writeJSON(w, http.StatusOK, domain.PublishAck{
		Success:   true,
		MessageID: env.ID,
		Delivered: delivered,
		Pooled:    !delivered,
	})
}

// handlePull drains every pooled envelope for the recipient. Never fails;
// an empty list is a valid response.
func (s *Server) handlePull(w http.ResponseWriter, r *http.Request) {
	envs := s.engine.Drain(r.PathValue("contactCode"))

	msgs := make([]domain.PulledMessage, 0, len(envs))
	for _, env := range envs {
		msgs = append(msgs, env.ToPulled())
	}
	writeJSON(w, http.StatusOK, domain.PullResponse{Messages: msgs})
}

// handleDelete removes one envelope by id. Idempotent.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	removed := s.pool.Remove(r.PathValue("messageId"))
	writeJSON(w, http.StatusOK, domain.DeleteResponse{Removed: removed})
}

// handleRegisterNode records a peer broker.
func (s *Server) handleRegisterNode(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req domain.RegisterNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	if req.NodeURL == "" || req.PublicKey == "" {
		writeError(w, http.StatusBadRequest, "nodeUrl and publicKey are required")
		return
	}

	s.nodes.Register(req.NodeURL, req.PublicKey)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleListNodes returns the known peers.
func (s *Server) handleListNodes(w http.ResponseWriter, r *http.Request) {
	peers := s.nodes.List()

	out := make([]domain.NodeInfo, 0, len(peers))
	for _, n := range peers {
		out = append(out, domain.NodeInfo{NodeURL: n.URL, LastSeen: n.LastSeen.Unix()})
	}
	writeJSON(w, http.StatusOK, domain.NodeListResponse{Nodes: out})
}
