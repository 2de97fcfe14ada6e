package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pawanm992002/nimantran-backend/pkg/batch"
	"github.com/pawanm992002/nimantran-backend/pkg/card"
	"github.com/pawanm992002/nimantran-backend/pkg/errors"
)

// renderRequest is the body of the three render endpoints. The field names
// match what the editor UI submits.
type renderRequest struct {
	TextProperty []card.Region `json:"textProperty"`
	ScalingFont  float64       `json:"scalingFont"`
	ScalingW     float64       `json:"scalingW"`
	ScalingH     float64       `json:"scalingH"`
	IsSample     bool          `json:"isSample"`
	FileName     string        `json:"fileName"`
	GuestNames   []card.Guest  `json:"guestNames"`
}

// terminalFrame is the last SSE frame of a batch: the zip URL on success,
// the failure message otherwise.
type terminalFrame struct {
	Status     string `json:"status"`
	ArchiveURL string `json:"archiveUrl,omitempty"`
	Completed  int    `json:"completed"`
	Failed     int    `json:"failed"`
	Message    string `json:"message,omitempty"`
}

// batchOptions maps one request onto batch options. The configured chunk
// size binds video batches only; image and pdf batches keep a zero chunk
// size and fan out the whole roster at once.
func (s *Server) batchOptions(medium card.Medium, req renderRequest, eventID, userID string) *batch.Options {
	chunkSize := 0
	if medium == card.MediumVideo {
		chunkSize = s.chunkSize
	}
	return &batch.Options{
		EventID:  eventID,
		Medium:   medium,
		FileName: req.FileName,
		Regions:  req.TextProperty,
		Guests:   req.GuestNames,
		Scaling: card.Scaling{
			Font: req.ScalingFont,
			W:    req.ScalingW,
			H:    req.ScalingH,
		},
		Sample:       req.IsSample,
		UserID:       userID,
		Archive:      true,
		ChunkSize:    chunkSize,
		GuestTimeout: s.guestTimeout,
		Logger:       s.logger,
	}
}

// handleEdit builds the handler for one medium. The three endpoints differ
// only in the medium bound here.
func (s *Server) handleEdit(medium card.Medium) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req renderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid request body")
			return
		}

		opts := s.batchOptions(medium, req, r.URL.Query().Get("eventId"), r.Header.Get("X-User-ID"))

		// All pre-flight failures reject synchronously; nothing has been
		// rendered or mutated yet.
		prepared, err := s.runner.Prepare(r.Context(), opts)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.IsPreflight(err) || errors.Is(err, errors.ErrCodeResourceUnavailable) {
				status = http.StatusBadRequest
			}
			s.logger.Warn("batch rejected", "medium", medium, "event", opts.EventID, "err", err)
			writeMessage(w, status, errors.UserMessage(err))
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			prepared.Close()
			writeMessage(w, http.StatusInternalServerError, "streaming unsupported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		// The batch must not die with the connection: in-flight guests run
		// to completion and the roster sync always happens.
		ctx := context.WithoutCancel(r.Context())

		res, runErr := prepared.Run(ctx, func(p batch.Progress) {
			writeFrame(w, flusher, p)
		})

		frame := terminalFrame{Status: "completed"}
		if res != nil {
			frame.ArchiveURL = res.ArchiveURL
			frame.Completed = res.Completed
			frame.Failed = res.Failed
		}
		if runErr != nil {
			frame.Status = "error"
			frame.Message = errors.UserMessage(runErr)
			s.logger.Error("batch failed", "medium", medium, "event", opts.EventID, "err", runErr)
		}
		writeFrame(w, flusher, frame)
	}
}

// writeFrame encodes v as one SSE data frame and flushes it.
func writeFrame(w http.ResponseWriter, flusher http.Flusher, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", b)
	flusher.Flush()
}

// writeMessage writes the pre-flight rejection shape: {"message": ...}.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
