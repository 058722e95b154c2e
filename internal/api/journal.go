package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	xerrors "AssetGrid-Chain/internal/errors"
	"AssetGrid-Chain/internal/journal"
)

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	opts, err := parseJournalQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, err)
		return
	}
	entries, err := s.journal.List(r.Context(), opts...)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleJournalStats(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	opts, err := parseJournalQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, err)
		return
	}
	stats, err := s.journal.Stats(r.Context(), opts...)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleJournalDetail(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	id := pathID(r.URL.Path, "/api/v1/journal/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, xerrors.New(xerrors.CodeInvalidArgument, "缺少记录 ID"))
		return
	}
	entry, err := s.journal.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// parseJournalQuery 解析 limit、offset、component、action、since、until 与 order 参数。
func parseJournalQuery(query url.Values) ([]journal.ListOption, error) {
	opts := make([]journal.ListOption, 0, 7)

	for _, name := range []string{"limit", "offset"} {
		raw := query.Get(name)
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			return nil, xerrors.New(xerrors.CodeInvalidArgument, name+" 必须是非负整数")
		}
		if name == "limit" {
			opts = append(opts, journal.WithLimit(value))
		} else {
			opts = append(opts, journal.WithOffset(value))
		}
	}

	if components := splitValues(query["component"]); len(components) > 0 {
		opts = append(opts, journal.WithComponents(components...))
	}
	if actions := splitValues(query["action"]); len(actions) > 0 {
		opts = append(opts, journal.WithActions(actions...))
	}

	if raw := query.Get("since"); raw != "" {
		ts, err := parseTime(raw)
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "since 格式无效")
		}
		opts = append(opts, journal.WithCreatedSince(ts))
	}
	if raw := query.Get("until"); raw != "" {
		ts, err := parseTime(raw)
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "until 格式无效")
		}
		opts = append(opts, journal.WithCreatedUntil(ts))
	}

	switch strings.ToLower(query.Get("order")) {
	case "", "desc":
	case "asc":
		opts = append(opts, journal.WithSortOrder(journal.SortByCreatedAsc))
	default:
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "order 仅支持 asc/desc")
	}
	return opts, nil
}

// parseTime 接受 Unix 秒或 RFC3339 时间。
func parseTime(raw string) (time.Time, error) {
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(secs, 0), nil
	}
	return time.Parse(time.RFC3339, raw)
}

func splitValues(values []string) []string {
	var result []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				result = append(result, part)
			}
		}
	}
	return result
}
