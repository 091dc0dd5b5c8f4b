package httpapi

import (
	"net"
	"net/http"

	"bqadmin/internal/analytics"
	"bqadmin/internal/logging"
	"bqadmin/internal/middleware"
	"bqadmin/internal/utils"
)

const anonymousUser = "anonymous"

// callerID picks the identity forwarded upstream: the session user, then the
// X-User-ID header, then "anonymous".
func callerID(r *http.Request) string {
	if id := middleware.GetUserID(r.Context()); id != "" {
		return id
	}
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return anonymousUser
}

// rateLimitKey never trusts client headers: session users are limited by id,
// everyone else by remote address.
func rateLimitKey(r *http.Request) string {
	if id := middleware.GetUserID(r.Context()); id != "" {
		return "query:user:" + utils.HashString(id)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "query:addr:" + utils.HashString(host)
}

// handleChatQuery forwards a natural-language question to the analytics
// backend and relays the answer.
func (d *Dependencies) handleChatQuery(w http.ResponseWriter, r *http.Request) {
	var req analytics.QueryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Query == "" || req.DatasetID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing required fields: query and dataset_id")
		return
	}
	req.ApplyDefaults()

	userID := callerID(r)
	ctx := r.Context()

	allowed, err := d.RateLimit.Allow(ctx, rateLimitKey(r))
	if err != nil {
		logging.Warningf("rate limiter unavailable, allowing query: %v", err)
	} else if !allowed {
		utils.RespondWithError(w, http.StatusTooManyRequests, "Rate limit exceeded")
		return
	}

	resp, err := d.Analytics.Query(ctx, userID, req)
	if err != nil {
		logging.Errorf("Error processing query: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if !resp.OK() {
		detail := resp.Detail()
		if detail == nil {
			detail = "Query failed"
		}
		logging.Warningf("query rejected upstream with status %d", resp.StatusCode)
		utils.RespondWithJSON(w, resp.StatusCode, map[string]any{"error": detail})
		return
	}

	utils.RespondWithRawJSON(w, http.StatusOK, resp.Body)
}
