package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/investoriq/investoriq-api/pkg/storage"
)

func (s *Service) handleListProperties(w http.ResponseWriter, r *http.Request) {
	s.listCollection(w, r, CollectionProperties)
}

func (s *Service) handleCreateProperty(w http.ResponseWriter, r *http.Request) {
	s.createDocument(w, r, CollectionProperties, nil)
}

func (s *Service) handleListAdvisorRequests(w http.ResponseWriter, r *http.Request) {
	s.listCollection(w, r, CollectionAdvisorRequests)
}

// handleCreateAdvisorRequest always starts the request as pending, whatever the body says
func (s *Service) handleCreateAdvisorRequest(w http.ResponseWriter, r *http.Request) {
	s.createDocument(w, r, CollectionAdvisorRequests, storage.Document{fieldStatus: StatusPending})
}

func (s *Service) handleUpdateAdvisorRequest(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("request_id")

	fields, err := decodeObject(w, r)
	if err != nil {
		s.fail(w, err, "Invalid update body", "id", id)
		return
	}
	// The stored id must keep matching the document key
	delete(fields, fieldID)

	if err := s.store.Update(r.Context(), CollectionAdvisorRequests, id, fields); err != nil {
		s.fail(w, err, "Update failed", "collection", CollectionAdvisorRequests, "id", id)
		return
	}

	s.log.Document(CollectionAdvisorRequests, id, "Updated", "fields", len(fields))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Service) listCollection(w http.ResponseWriter, r *http.Request, collection string) {
	docs, err := s.store.List(r.Context(), collection)
	if err != nil {
		s.fail(w, err, "List failed", "collection", collection)
		return
	}
	if docs == nil {
		docs = []storage.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

// createDocument allocates an id, writes it into the body together with any managed
// fields, and persists the result before acknowledging.
func (s *Service) createDocument(w http.ResponseWriter, r *http.Request, collection string, managed storage.Document) {
	doc, err := decodeObject(w, r)
	if err != nil {
		s.fail(w, err, "Invalid create body", "collection", collection)
		return
	}

	id := s.store.NewID(collection)
	doc[fieldID] = id
	for k, v := range managed {
		doc[k] = v
	}

	if err := s.store.Set(r.Context(), collection, id, doc); err != nil {
		s.fail(w, err, "Create failed", "collection", collection, "id", id)
		return
	}

	s.log.Document(collection, id, "Created", "fields", len(doc))
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Service) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.log.Warn("Readiness check failed", "error", err)
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Service) handleNotFound(w http.ResponseWriter, r *http.Request) {
	jsonError(w, "route not found", http.StatusNotFound)
}

// fail logs err and writes its JSON error response
func (s *Service) fail(w http.ResponseWriter, err error, msg string, args ...any) {
	code := statusForError(err)
	args = append(args, "error", err, "status", code)
	if code >= http.StatusInternalServerError {
		s.log.Error(msg, args...)
	} else {
		s.log.Warn(msg, args...)
	}
	jsonError(w, err.Error(), code)
}

// decodeObject reads a single JSON object from the request body
func decodeObject(w http.ResponseWriter, r *http.Request) (storage.Document, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrInvalidBody, tooLarge.Limit)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	// encoding/json would otherwise replace invalid bytes with U+FFFD
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: body is not valid UTF-8", ErrInvalidBody)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: body is empty", ErrInvalidBody)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidBody, jsonKind(raw))
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after object", ErrInvalidBody)
	}
	doc, err := storage.Normalize(obj)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return doc, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
