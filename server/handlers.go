package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ewiq/leatly/pkg/domain"
	"github.com/ewiq/leatly/pkg/feed"
	"github.com/ewiq/leatly/pkg/view"
)

// subscribeHandler fetches, normalizes and stores a feed by URL. Failure
// modes map to distinct statuses: input problems are 400, timeouts 504,
// other network failures 502, storage failures 500.
func (s *Server) subscribeHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		renderError(w, errors.New("URL is required"), http.StatusBadRequest)
		return
	}

	body, err := s.fetcher.Fetch(r.Context(), req.URL)
	if err != nil {
		renderError(w, err, feedErrorStatus(err))
		return
	}

	normalized, err := feed.Normalize(body)
	if err != nil {
		renderError(w, err, feedErrorStatus(err))
		return
	}

	if err := s.store.SaveFeed(r.Context(), normalized, req.URL); err != nil {
		renderError(w, fmt.Errorf("save feed: %w", err), http.StatusInternalServerError)
		return
	}

	renderJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": normalized})
}

// feedHandler returns the aggregated, filtered, ordered item list plus the
// unfiltered channel and collection lists for navigation.
func (s *Server) feedHandler(w http.ResponseWriter, r *http.Request) {
	q := view.Query{
		Search:         r.URL.Query().Get("q"),
		ChannelID:      r.URL.Query().Get("channel"),
		CollectionID:   r.URL.Query().Get("collection"),
		FavouritesOnly: r.URL.Query().Get("favourites") != "",
	}

	items, err := s.store.GetAllItems(r.Context())
	if err != nil {
		renderError(w, err, http.StatusInternalServerError)
		return
	}
	channels, err := s.store.GetAllChannels(r.Context())
	if err != nil {
		renderError(w, err, http.StatusInternalServerError)
		return
	}
	collections, err := s.store.GetAllCollections(r.Context())
	if err != nil {
		renderError(w, err, http.StatusInternalServerError)
		return
	}

	renderJSON(w, http.StatusOK, map[string]interface{}{
		"items":       view.Build(items, channels, q),
		"channels":    channels,
		"collections": collections,
	})
}

// updateItemHandler flips user flags (read/closed/favourite) on an item.
func (s *Server) updateItemHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var upd domain.ItemUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		renderError(w, fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
		return
	}
	if err := s.store.UpdateItem(r.Context(), id, upd); err != nil {
		renderError(w, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// updateChannelHandler merges user-set channel settings. The channel link
// travels in the body because it is itself a URL.
func (s *Server) updateChannelHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Channel string `json:"channel"`
		domain.ChannelSettings
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
		return
	}
	if req.Channel == "" {
		renderError(w, errors.New("channel is required"), http.StatusBadRequest)
		return
	}
	if err := s.store.UpdateChannelSettings(r.Context(), req.Channel, req.ChannelSettings); err != nil {
		renderError(w, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// deleteChannelHandler removes a channel and all of its items.
func (s *Server) deleteChannelHandler(w http.ResponseWriter, r *http.Request) {
	channel := r.URL.Query().Get("channel")
	if channel == "" {
		renderError(w, errors.New("channel is required"), http.StatusBadRequest)
		return
	}
	if err := s.store.DeleteChannel(r.Context(), channel); err != nil {
		renderError(w, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// toggleChannelCollectionHandler adds or removes a channel's membership in
// a collection.
func (s *Server) toggleChannelCollectionHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Channel    string `json:"channel"`
		Collection string `json:"collection"`
		Add        bool   `json:"add"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
		return
	}
	if req.Channel == "" || req.Collection == "" {
		renderError(w, errors.New("channel and collection are required"), http.StatusBadRequest)
		return
	}
	if err := s.store.ToggleChannelCollection(r.Context(), req.Channel, req.Collection, req.Add); err != nil {
		renderError(w, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// createCollectionHandler creates a named collection.
func (s *Server) createCollectionHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		renderError(w, errors.New("name is required"), http.StatusBadRequest)
		return
	}
	coll, err := s.store.CreateCollection(r.Context(), req.Name)
	if err != nil {
		renderError(w, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "data": coll})
}

// deleteCollectionHandler removes a collection and strips its id from all
// channels.
func (s *Server) deleteCollectionHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCollection(r.Context(), r.PathValue("id")); err != nil {
		renderError(w, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// feedErrorStatus maps normalizer and fetcher error types to HTTP status
// codes for the subscribe flow.
func feedErrorStatus(err error) int {
	var inputErr *feed.InputError
	var parseErr *feed.ParseError
	var netErr *feed.NetworkError
	switch {
	case errors.As(err, &inputErr), errors.As(err, &parseErr):
		return http.StatusBadRequest
	case errors.As(err, &netErr):
		if netErr.Timeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
